package arg

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jogcadence/internal/companion"
	"github.com/jogcadence/internal/service"
	"github.com/spf13/cobra"
)

var (
	goalTarget int
	goalDays   int
)

var goalCmd = &cobra.Command{
	Use:   "goal",
	Short: "Create a goal and schedule its first outing",
	Run: func(cmd *cobra.Command, args []string) {
		api := openAPI()
		defer api.Close()

		result, err := api.Scheduler().CreateGoal(context.Background(), goalTarget, goalDays)
		if err != nil {
			log.Fatal("Failed to create goal:", err)
		}

		goal := result.Goal
		fmt.Printf("Goal %s: %d/%d (%s → %s)\n", companion.EncodeToken(goal.ID), goal.Progress, goal.TargetFrequency,
			goal.StartDate.Format(time.DateOnly), goal.EndDate.Format(time.DateOnly))
		if result.Schedule != nil {
			printSchedule(result.Schedule)
		}
		if result.NextError != "" {
			fmt.Println("Scheduling failed:", result.NextError)
		}
	},
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Schedule the next outing for the current goal",
	Run: func(cmd *cobra.Command, args []string) {
		api := openAPI()
		defer api.Close()

		ctx := context.Background()
		goal, err := api.Goals().Current(ctx)
		if err != nil {
			log.Fatal("Failed to load current goal:", err)
		}

		result, err := api.Scheduler().ScheduleNext(ctx, goal.ID)
		if err != nil {
			log.Fatal("Failed to schedule:", err)
		}
		printSchedule(result)
	},
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Delete every session of the current goal and schedule again",
	Run: func(cmd *cobra.Command, args []string) {
		api := openAPI()
		defer api.Close()

		ctx := context.Background()
		goal, err := api.Goals().Current(ctx)
		if err != nil {
			log.Fatal("Failed to load current goal:", err)
		}

		result, err := api.Scheduler().WipeAndRebuild(ctx, goal.ID)
		if err != nil {
			log.Fatal("Failed to rebuild:", err)
		}
		printSchedule(result)
	},
}

func printSchedule(result *service.ScheduleResult) {
	fmt.Printf("Outing %s → %s\n", result.Window.Start.Format(time.RFC3339), result.Window.End.Format(time.RFC3339))
	for _, session := range result.Sessions {
		fmt.Printf("  %-8s %s  %s - %s\n", session.Kind, companion.EncodeToken(session.ID),
			session.StartTime.Format("15:04"), session.EndTime.Format("15:04"))
	}
}

func init() {
	goalCmd.Flags().IntVar(&goalTarget, "target", 3, "outings per period")
	goalCmd.Flags().IntVar(&goalDays, "days", 0, "period length in days (defaults to policy)")

	rootCmd.AddCommand(goalCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(rebuildCmd)
}
