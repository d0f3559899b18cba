// Package api exposes the recommendation engine over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/felixgeelhaar/nextup/pkg/observability"
)

// CorrelationIDHeader carries the caller's correlation id in and out.
const CorrelationIDHeader = "X-Correlation-ID"

// Server is the HTTP API server for recommendations.
type Server struct {
	router  *chi.Mux
	server  *http.Server
	logger  *slog.Logger
	metrics observability.Metrics
	health  *observability.HealthRegistry
	handler *RecommendationHandler
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	AllowedOrigins []string
}

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:           "127.0.0.1:8080",
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		AllowedOrigins: []string{"*"},
	}
}

// NewServer creates a new recommendation API server. A nil health registry
// reports healthy; nil metrics are discarded.
func NewServer(cfg ServerConfig, handler *RecommendationHandler, health *observability.HealthRegistry, metrics observability.Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if health == nil {
		health = observability.NewHealthRegistry()
	}

	s := &Server{
		logger:  logger,
		metrics: metrics,
		health:  health,
		handler: handler,
	}
	s.setupRouter(cfg)

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

func (s *Server) setupRouter(cfg ServerConfig) {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestContext)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", CorrelationIDHeader, UserIDHeader},
		ExposedHeaders: []string{CorrelationIDHeader},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	if reporter, ok := s.metrics.(observability.MetricsReporter); ok {
		r.Get("/metrics", func(w http.ResponseWriter, _ *http.Request) {
			respondJSON(w, http.StatusOK, reporter.Snapshot())
		})
	}

	r.Route("/api/v1/recommendations", func(r chi.Router) {
		r.Get("/next", s.handler.Next)
		r.Get("/estimate", s.handler.Estimate)
		r.Get("/analysis", s.handler.Analysis)
		r.Post("/actions", s.handler.RecordAction)
		r.Delete("/cache", s.handler.InvalidateCache)
		r.Get("/cache/stats", s.handler.Stats)
	})

	s.router = r
}

// requestContext attaches correlation and request ids to the request
// context and records one timing per request tagged by route and status.
func (s *Server) requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := observability.NewRequestContext(r.Context(), r.Header.Get(CorrelationIDHeader))
		if reqID := middleware.GetReqID(r.Context()); reqID != "" {
			ctx = observability.WithRequestID(ctx, reqID)
		}
		w.Header().Set(CorrelationIDHeader, observability.CorrelationIDFromContext(ctx))

		timer := observability.StartTimer("http.request").WithMetrics(s.metrics)
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		timer.WithTags(
			observability.T("method", r.Method),
			observability.T("route", route),
			observability.T(observability.StatusKey, strconv.Itoa(status)),
		)

		var err error
		if status >= http.StatusInternalServerError {
			err = fmt.Errorf("status %d", status)
		}
		duration := timer.StopWithError(ctx, err)

		s.logger.DebugContext(ctx, "http request",
			"method", r.Method,
			"route", route,
			observability.StatusKey, status,
			observability.DurationKey, duration.Milliseconds(),
		)
	})
}

// handleHealth reports the aggregated component health. Only an unhealthy
// component turns the response into a 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := s.health.Check(r.Context())
	status := http.StatusOK
	if health.Status == observability.HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, health)
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Start starts the API server.
func (s *Server) Start() error {
	s.logger.Info("starting recommendation API server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Run serves until ctx is canceled and then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down recommendation API server")
	return s.server.Shutdown(ctx)
}

// respondJSON writes a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", "error", err)
		}
	}
}

// respondError writes a JSON error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error":   http.StatusText(status),
		"message": message,
	})
}
