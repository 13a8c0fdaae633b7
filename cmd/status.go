package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veda-group/leadgen-cli/pkg/scraperapi"
)

var statusCmd = &cobra.Command{
	Use:   "status <task-id>",
	Short: "Show the status of a scraper task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := initScraper()
		taskID := args[0]

		status, err := client.TaskStatus(cmd.Context(), scraperapi.KindForTask(taskID), taskID)
		if err != nil {
			return err
		}

		fmt.Printf("task:     %s\n", taskID)
		fmt.Printf("status:   %s\n", status.Status)
		fmt.Printf("progress: %d%%\n", status.Percent())
		if status.Message != "" {
			fmt.Printf("message:  %s\n", status.Message)
		}
		if status.GmapsTaskID != "" {
			fmt.Printf("maps task: %s\n", status.GmapsTaskID)
		}
		return nil
	},
}

var terminateCmd = &cobra.Command{
	Use:   "terminate <task-id>",
	Short: "Terminate a running scraper task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := initScraper()
		taskID := args[0]

		resp, err := client.Terminate(cmd.Context(), scraperapi.KindForTask(taskID), taskID)
		if err != nil {
			return err
		}
		fmt.Printf("task %s: %s (%s)\n", taskID, resp.Status, resp.Message)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd, terminateCmd)
}
