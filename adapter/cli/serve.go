package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/nextup/adapter/api"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve recommendations over HTTP",
	Long: `Start the HTTP API and, when RabbitMQ is the event bus, the
feedback consumer. Expired cache entries and idle sessions are
cleaned up in the background. Stops on SIGINT or SIGTERM.

Examples:
  nextup serve
  nextup serve --addr 0.0.0.0:9000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}
		server := newAPIServer(app, serveAddr)

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		startBackground(ctx, cancel, app)

		fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s\n", server.Addr())
		if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

// startBackground launches the feedback consumer and the cleanup loop.
// A failing consumer cancels ctx.
func startBackground(ctx context.Context, cancel context.CancelFunc, app *App) {
	if app.Consumers != nil {
		go func() {
			if err := app.Consumers.StartConsumers(ctx); err != nil {
				Logger().ErrorContext(ctx, "feedback consumer stopped", "error", err)
				cancel()
			}
		}()
	}
	if app.Maintenance != nil {
		go app.Maintenance.RunMaintenance(ctx)
	}
}

func newAPIServer(app *App, addr string) *api.Server {
	cfg := api.DefaultServerConfig()
	if app.HTTPAddr != "" {
		cfg.Addr = app.HTTPAddr
	}
	if addr != "" {
		cfg.Addr = addr
	}

	handler := api.NewRecommendationHandler(api.RecommendationHandlerConfig{
		Recommendation:  app.GetRecommendationHandler,
		Estimate:        app.GetEstimateHandler,
		Analysis:        app.GetAnalysisHandler,
		Stats:           app.GetStatsHandler,
		RecordAction:    app.RecordActionHandler,
		InvalidateCache: app.InvalidateCacheHandler,
		DefaultUserID:   app.UserID(),
		Logger:          Logger(),
	})
	return api.NewServer(cfg, handler, app.Health, app.Metrics, Logger())
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default HTTP_ADDR)")
	rootCmd.AddCommand(serveCmd)
}
