package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/nextup/internal/recommendation/infrastructure/filesource"
)

var importCmd = &cobra.Command{
	Use:   "import <tasks.yaml>",
	Short: "Copy tasks from a YAML file into the database",
	Long: `Read a task file and upsert every task into the configured
database. Tasks without a user are stored for the current user.

Example file:
  tasks:
    - id: report
      title: Write quarterly report
      priority: high
      due_date: 2026-03-12T17:00:00Z
      estimated_minutes: 90`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}
		if app.TaskWriter == nil {
			return errors.New("import requires a database task store")
		}

		tasks, err := filesource.NewYAMLTaskSource(args[0]).All()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		for _, task := range tasks {
			userID := task.User
			if userID == "" {
				userID = app.UserID()
			}
			if err := app.TaskWriter.SaveTask(ctx, userID, task.TaskRef); err != nil {
				return fmt.Errorf("failed to save task %s: %w", task.ID, err)
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d tasks from %s\n", len(tasks), args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
