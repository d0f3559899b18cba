package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/nextup/adapter/cli"
	"github.com/felixgeelhaar/nextup/adapter/cli/mcp"
	"github.com/felixgeelhaar/nextup/internal/app"
	mcpinternal "github.com/felixgeelhaar/nextup/internal/mcp"
	"github.com/felixgeelhaar/nextup/pkg/config"
	"github.com/felixgeelhaar/nextup/pkg/observability"
)

func main() {
	// Setup logger
	logger := observability.LoggerFromEnv(cli.Version)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cli.SetLogger(logger)

	metrics := observability.NewInMemoryMetrics()
	container, err := app.NewContainer(ctx, cfg, logger, app.WithMetrics(metrics))
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}

	// Set the CLI app
	cli.SetApp(mcpinternal.NewCLIApp(container, cfg.UserID))

	// Register commands
	cli.AddCommand(mcp.Cmd)

	// Execute CLI
	code := 0
	if err := cli.Run(ctx); err != nil {
		code = 1
	}
	container.Close()
	os.Exit(code)
}
