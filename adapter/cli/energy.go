package cli

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var energyCmd = &cobra.Command{
	Use:   "energy <1-10>",
	Short: "Log how energetic you feel right now",
	Long: `Log a self-reported energy score. Today's latest score sets the
energy level used for recommendations: 7 and above is high, 4 to 6
medium, below 4 low.

Examples:
  nextup energy 8`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}
		if app.EnergyRecorder == nil {
			return errors.New("energy log not configured")
		}

		score, err := strconv.Atoi(args[0])
		if err != nil || score < 1 || score > 10 {
			return fmt.Errorf("energy must be a number from 1 to 10, got %q", args[0])
		}

		if err := app.EnergyRecorder.RecordEnergy(cmd.Context(), app.UserID(), score, time.Now()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Energy %d/10 logged\n", score)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(energyCmd)
}
