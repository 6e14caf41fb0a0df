package arg

import (
	"fmt"
	"log"

	"github.com/jogcadence/internal/db"
	"github.com/spf13/cobra"
)

var initUserCmd = &cobra.Command{
	Use:   "init-user <username> <password>",
	Short: "Create the login account if it does not exist",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		api := openAPI()
		defer api.Close()

		created, err := db.EnsureUser(api.DB(), args[0], args[1])
		if err != nil {
			log.Fatal("Failed to create user:", err)
		}
		if !created {
			fmt.Println("用户已存在或参数为空，无需初始化")
			return
		}
		fmt.Printf("用户 %s 创建成功\n", args[0])
	},
}

func init() {
	rootCmd.AddCommand(initUserCmd)
}
