package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/nextup/internal/recommendation/application/queries"
)

var analyzeCmd = &cobra.Command{
	Use:     "analyze",
	Short:   "Summarize the open task pool",
	Aliases: []string{"analysis"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}
		a, err := app.GetAnalysisHandler.Handle(cmd.Context(), queries.GetAnalysisQuery{UserID: app.UserID()})
		if err != nil {
			return fmt.Errorf("failed to analyze tasks: %w", err)
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, a)
		}

		fmt.Fprintln(out, "\n  Task Analysis")
		fmt.Fprintln(out, "  "+strings.Repeat("=", 58))
		fmt.Fprintf(out, "  Total:      %d\n", a.TotalTasks)
		fmt.Fprintf(out, "  Open:       %d\n", a.EligibleTasks)
		fmt.Fprintf(out, "  Overdue:    %d\n", a.OverdueTasks)
		fmt.Fprintf(out, "  Due today:  %d\n", a.DueTodayTasks)
		fmt.Fprintf(out, "  Estimated:  %s\n", formatMinutes(a.EstimatedMinutes))

		if len(a.ByPriority) > 0 {
			fmt.Fprintln(out, "\n  By priority")
			keys := make([]string, 0, len(a.ByPriority))
			for k := range a.ByPriority {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(out, "    %-8s %d\n", k, a.ByPriority[k])
			}
		}
		fmt.Fprintf(out, "\n  context: %s, energy %s, pattern %s\n\n", a.TimeOfDay, a.EnergyLevel, a.WorkPattern)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}
