package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/nextup/internal/recommendation/application/commands"
	"github.com/felixgeelhaar/nextup/internal/recommendation/application/queries"
)

var statsRecent int

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache, session and feedback statistics",
	Long: `Display recommendation statistics including:
- Cache entries and hit rate
- Whether the engine is serving estimates only
- Tasks skipped this session
- Recorded feedback

Examples:
  nextup stats
  nextup stats --recent 20`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}
		stats, err := app.GetStatsHandler.Handle(cmd.Context(), queries.GetStatsQuery{
			UserID: app.UserID(),
			Recent: statsRecent,
		})
		if err != nil {
			return fmt.Errorf("failed to load stats: %w", err)
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, stats)
		}

		fmt.Fprintln(out, "\n  Recommendation Stats")
		fmt.Fprintln(out, "  "+strings.Repeat("=", 58))

		fmt.Fprintln(out, "\n  CACHE")
		fmt.Fprintln(out, "  "+strings.Repeat("-", 58))
		fmt.Fprintf(out, "  Entries:   %d\n", stats.Cache.TotalEntries)
		fmt.Fprintf(out, "  Hit rate:  %.0f%% (%d hits, %d misses)\n",
			stats.Cache.HitRate, stats.Cache.Hits, stats.Cache.Misses)

		fmt.Fprintln(out, "\n  SESSION")
		fmt.Fprintln(out, "  "+strings.Repeat("-", 58))
		mode := "full"
		if stats.Degraded {
			mode = "degraded (estimates only)"
		}
		fmt.Fprintf(out, "  Mode:      %s\n", mode)
		skipped := "none"
		if len(stats.SkippedTasks) > 0 {
			sorted := append([]string(nil), stats.SkippedTasks...)
			sort.Strings(sorted)
			skipped = strings.Join(sorted, ", ")
		}
		fmt.Fprintf(out, "  Skipped:   %s\n", skipped)

		if len(stats.ActionCounts) > 0 {
			fmt.Fprintln(out, "\n  FEEDBACK")
			fmt.Fprintln(out, "  "+strings.Repeat("-", 58))
			actions := make([]string, 0, len(stats.ActionCounts))
			for a := range stats.ActionCounts {
				actions = append(actions, a)
			}
			sort.Strings(actions)
			for _, a := range actions {
				fmt.Fprintf(out, "  %-18s %d\n", a, stats.ActionCounts[a])
			}
			for _, a := range stats.RecentActions {
				fmt.Fprintf(out, "    %s  %-18s %s\n", a.Timestamp, a.Action, a.TaskID)
			}
		}
		fmt.Fprintln(out)
		return nil
	},
}

var invalidateVariants []string

var invalidateCmd = &cobra.Command{
	Use:   "invalidate",
	Short: "Drop cached recommendations",
	Long: `Drop the cached recommendation and analysis for the current user.

Examples:
  nextup invalidate
  nextup invalidate --variant advanced`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}
		err = app.InvalidateCacheHandler.Handle(cmd.Context(), commands.InvalidateCacheCommand{
			UserID:   app.UserID(),
			Variants: invalidateVariants,
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared")
		return nil
	},
}

func init() {
	statsCmd.Flags().IntVar(&statsRecent, "recent", 10, "number of recent actions to show")
	invalidateCmd.Flags().StringSliceVar(&invalidateVariants, "variant", nil, "cache variant to drop (basic, advanced); all when omitted")

	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(invalidateCmd)
}
