package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/nextup/internal/recommendation/application/queries"
)

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Recommend the task to work on next",
	Long: `Show the quick estimate straight away, then the authoritative
recommendation with the factors behind it and the runner-up tasks.

Examples:
  nextup next
  nextup next --json
  nextup next --user bob`,
	Aliases: []string{"n", "recommend"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		userID := app.UserID()
		out := cmd.OutOrStdout()

		estimate, err := app.GetEstimateHandler.Handle(ctx, queries.GetEstimateQuery{UserID: userID})
		if err != nil {
			return fmt.Errorf("failed to load tasks: %w", err)
		}
		if !jsonOutput {
			printRecommendation(out, "Quick estimate", estimate, time.Now())
		}

		rec, err := app.GetRecommendationHandler.Handle(ctx, queries.GetRecommendationQuery{UserID: userID})
		if err != nil {
			return fmt.Errorf("failed to generate recommendation: %w", err)
		}
		if jsonOutput {
			return printJSON(out, map[string]queries.RecommendationDTO{
				"estimate":       estimate,
				"recommendation": rec,
			})
		}

		printRecommendation(out, "Recommendation", rec, time.Now())
		if !rec.Empty() {
			fmt.Fprintf(out, "\n  feedback: nextup feedback accept %s\n\n", rec.Primary.TaskID)
		}
		return nil
	},
}

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Show the quick estimate only",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}
		rec, err := app.GetEstimateHandler.Handle(cmd.Context(), queries.GetEstimateQuery{UserID: app.UserID()})
		if err != nil {
			return fmt.Errorf("failed to load tasks: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), rec)
		}
		printRecommendation(cmd.OutOrStdout(), "Quick estimate", rec, time.Now())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(nextCmd)
	rootCmd.AddCommand(estimateCmd)
}
