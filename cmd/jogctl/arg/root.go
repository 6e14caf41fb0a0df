package arg

import (
	"fmt"
	"log"
	"os"

	"github.com/jogcadence/internal/app"
	"github.com/jogcadence/internal/config"
	"github.com/jogcadence/internal/handler"
	"github.com/spf13/cobra"
)

var databaseURL string

var rootCmd = &cobra.Command{
	Use:   "jogctl",
	Short: "jogctl manages jogging goals and sessions from the command line",
	Long: `jogctl talks to the same database as the server.
It can seed the login user, schedule the next outing, record completions
and print the snapshot the companion device would receive.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&databaseURL, "db", "", "database url or sqlite path (defaults to DATABASE_URL)")
}

// openAPI 按环境变量装配服务，--db 覆盖数据库地址
func openAPI() *handler.API {
	cfg := config.Load()
	if databaseURL != "" {
		cfg.DatabaseURL = databaseURL
	}

	api, err := app.Bootstrap(cfg)
	if err != nil {
		log.Fatal("Failed to initialize:", err)
	}
	return api
}
