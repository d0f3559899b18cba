package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/nextup/adapter/cli"
	"github.com/felixgeelhaar/nextup/internal/app"
	mcpinternal "github.com/felixgeelhaar/nextup/internal/mcp"
	"github.com/felixgeelhaar/nextup/pkg/config"
	"github.com/felixgeelhaar/nextup/pkg/observability"
)

func main() {
	logger := observability.LoggerFromEnv(cli.Version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	go func() {
		if err := container.StartConsumers(ctx); err != nil {
			logger.Error("feedback consumer stopped", "error", err)
		}
	}()

	cliApp := mcpinternal.NewCLIApp(container, cfg.UserID)

	if err := mcpinternal.Serve(ctx, cfg, cliApp, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("mcp server error", "error", err)
		container.Close()
		os.Exit(1)
	}
}
