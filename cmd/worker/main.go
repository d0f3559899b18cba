package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/felixgeelhaar/nextup/adapter/cli"
	"github.com/felixgeelhaar/nextup/internal/app"
	"github.com/felixgeelhaar/nextup/pkg/config"
	"github.com/felixgeelhaar/nextup/pkg/observability"
)

const statsInterval = time.Minute

func main() {
	// Setup logger
	logger := observability.LoggerFromEnv(cli.Version)

	logger.Info("starting nextup worker")

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.EventBus != config.EventBusRabbitMQ {
		logger.Warn("no broker configured, worker only maintains the cache", "event_bus", cfg.EventBus)
	}

	metrics := observability.NewInMemoryMetrics()
	container, err := app.NewContainer(ctx, cfg, logger, app.WithMetrics(metrics))
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	// Start consuming feedback events
	consumerErr := make(chan error, 1)
	go func() {
		consumerErr <- container.StartConsumers(ctx)
	}()
	logger.Info("feedback consumer started")

	// Drop expired cache entries and idle sessions
	go container.RunMaintenance(ctx)

	if cfg.WorkerHealthAddr != "" {
		mux := http.NewServeMux()
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			stats := container.Engine.CacheStats(r.Context())
			response := map[string]any{
				"status":         "ok",
				"cache_hits":     stats.Hits,
				"cache_entries":  stats.TotalEntries,
				"cache_hit_rate": stats.HitRate,
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(response)
		})

		mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(metrics.Snapshot())
		})

		mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
			checkCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			health := container.Health.Check(checkCtx)
			w.Header().Set("Content-Type", "application/json")
			if health.Status == observability.HealthStatusUnhealthy {
				w.WriteHeader(http.StatusServiceUnavailable)
			}
			_ = json.NewEncoder(w).Encode(health)
		})

		healthSrv := &http.Server{
			Addr:              cfg.WorkerHealthAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			logger.Info("health server starting", "addr", cfg.WorkerHealthAddr)
			if err := healthSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("health server error", "error", err)
			}
		}()

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := healthSrv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("health server shutdown error", "error", err)
			}
		}()
	}

	statsTicker := time.NewTicker(statsInterval)
	defer statsTicker.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-statsTicker.C:
				stats := container.Engine.CacheStats(ctx)
				logger.Info("worker stats",
					"sessions", container.Engine.Sessions(),
					"cache_entries", stats.TotalEntries,
					"cache_hit_rate", stats.HitRate,
					"cache_memory_bytes", stats.MemoryUsage,
				)
			}
		}
	}()

	// Wait for shutdown
	select {
	case <-ctx.Done():
	case err := <-consumerErr:
		if err != nil {
			logger.Error("feedback consumer failed", "error", err)
			cancel()
			break
		}
		<-ctx.Done()
	}
	logger.Info("shutting down worker")

	fmt.Println("Goodbye!")
}
