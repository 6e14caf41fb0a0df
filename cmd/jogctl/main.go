package main

import "github.com/jogcadence/cmd/jogctl/arg"

func main() {
	arg.Execute()
}
