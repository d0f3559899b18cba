package mcp

import (
	"context"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/nextup/adapter/cli"
	"github.com/felixgeelhaar/nextup/pkg/observability"
)

func registerCoreTools(srv *mcp.Server, deps ToolDependencies) error {
	app := deps.App

	srv.Tool("cli.health").
		Description("Check storage, cache and engine health").
		Handler(func(ctx context.Context, input struct{}) (observability.OverallHealth, error) {
			return healthTool(ctx, app), nil
		})

	srv.Tool("cli.version").
		Description("Get CLI version information").
		Handler(func(ctx context.Context, input struct{}) (map[string]string, error) {
			return map[string]string{
				"version":   cli.Version,
				"commit":    cli.Commit,
				"buildDate": cli.BuildDate,
			}, nil
		})

	return nil
}

func healthTool(ctx context.Context, app *cli.App) observability.OverallHealth {
	if app.Health == nil {
		return observability.OverallHealth{
			Status: observability.HealthStatusHealthy,
			Checks: map[string]observability.HealthCheckResult{},
		}
	}
	return app.Health.Check(ctx)
}
