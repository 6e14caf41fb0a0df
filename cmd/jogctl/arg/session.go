package arg

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jogcadence/internal/companion"
	"github.com/spf13/cobra"
)

var completeCmd = &cobra.Command{
	Use:   "complete <session>",
	Short: "Mark a session completed by id or companion token",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := parseSessionRef(args[0])
		if err != nil {
			log.Fatal("Invalid session reference:", err)
		}

		api := openAPI()
		defer api.Close()

		result, err := api.Scheduler().MarkComplete(context.Background(), id)
		if err != nil {
			log.Fatal("Failed to complete session:", err)
		}

		switch {
		case result.AlreadyCompleted:
			fmt.Println("Session was already completed")
		case result.GoalCompleted:
			fmt.Printf("Goal completed: %d/%d\n", result.Goal.Progress, result.Goal.TargetFrequency)
		default:
			fmt.Printf("Progress: %d/%d\n", result.Goal.Progress, result.Goal.TargetFrequency)
		}
		if result.Next != nil {
			printSchedule(result.Next)
		}
	},
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Print the snapshot the companion device would receive",
	Run: func(cmd *cobra.Command, args []string) {
		api := openAPI()
		defer api.Close()

		snapshot, err := api.Sync().Current(context.Background())
		if err != nil {
			log.Fatal("Failed to build snapshot:", err)
		}

		out, err := json.MarshalIndent(snapshot, "", "  ")
		if err != nil {
			log.Fatal("Failed to encode snapshot:", err)
		}
		fmt.Println(string(out))
	},
}

func parseSessionRef(raw string) (uuid.UUID, error) {
	if id, err := uuid.Parse(raw); err == nil {
		return id, nil
	}
	return companion.DecodeToken(raw)
}

func init() {
	rootCmd.AddCommand(completeCmd)
	rootCmd.AddCommand(snapshotCmd)
}
