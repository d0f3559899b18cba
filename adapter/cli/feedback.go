package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/nextup/internal/recommendation/application/commands"
	"github.com/felixgeelhaar/nextup/internal/recommendation/domain"
)

// feedbackAliases maps the short CLI verbs onto recorded actions.
var feedbackAliases = map[string]domain.Action{
	"accept": domain.ActionAccepted,
	"skip":   domain.ActionSkipped,
	"up":     domain.ActionFeedbackPositive,
	"down":   domain.ActionFeedbackNegative,
}

func parseFeedbackAction(raw string) (domain.Action, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if action, ok := feedbackAliases[raw]; ok {
		return action, nil
	}
	return domain.ParseAction(raw)
}

var feedbackCmd = &cobra.Command{
	Use:   "feedback <accept|skip|up|down> <task-id>",
	Short: "Tell nextup how a recommendation landed",
	Long: `Record a reaction to a recommended task.

  accept  you are working on it (refreshes the recommendation)
  skip    not now; the task is left out for the rest of the session
  up      good pick
  down    bad pick

Examples:
  nextup feedback accept t1
  nextup feedback skip t2`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}
		action, err := parseFeedbackAction(args[0])
		if err != nil {
			return fmt.Errorf("%w: use accept, skip, up or down", err)
		}

		event, err := app.RecordActionHandler.Handle(cmd.Context(), commands.RecordActionCommand{
			UserID: app.UserID(),
			TaskID: args[1],
			Action: string(action),
		})
		if errors.Is(err, commands.ErrMissingTaskID) {
			return err
		}
		if err != nil {
			if event.TaskID == "" {
				return err
			}
			Logger().WarnContext(cmd.Context(), "action recorded but not published", "error", err)
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, event)
		}
		fmt.Fprintf(out, "Recorded %s for %s\n", event.Action, event.TaskID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(feedbackCmd)
}
