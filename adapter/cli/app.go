package cli

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/felixgeelhaar/nextup/internal/recommendation/application/commands"
	"github.com/felixgeelhaar/nextup/internal/recommendation/application/queries"
	"github.com/felixgeelhaar/nextup/internal/recommendation/domain"
	"github.com/felixgeelhaar/nextup/pkg/observability"
)

// ErrAppNotInitialized is returned by commands that need the container.
var ErrAppNotInitialized = errors.New("app not initialized")

// TaskWriter stores imported tasks.
type TaskWriter interface {
	SaveTask(ctx context.Context, userID string, task domain.TaskRef) error
}

// EnergyRecorder stores self-reported energy scores.
type EnergyRecorder interface {
	RecordEnergy(ctx context.Context, userID string, energy int, at time.Time) error
}

// ConsumerRunner runs background event consumers until ctx ends.
type ConsumerRunner interface {
	StartConsumers(ctx context.Context) error
}

// MaintenanceRunner runs periodic cache and session cleanup until ctx ends.
type MaintenanceRunner interface {
	RunMaintenance(ctx context.Context)
}

// App holds the CLI application dependencies.
type App struct {
	// Query Handlers
	GetRecommendationHandler *queries.GetRecommendationHandler
	GetEstimateHandler       *queries.GetEstimateHandler
	GetAnalysisHandler       *queries.GetAnalysisHandler
	GetStatsHandler          *queries.GetStatsHandler

	// Command Handlers
	RecordActionHandler    *commands.RecordActionHandler
	InvalidateCacheHandler *commands.InvalidateCacheHandler

	// Optional services
	TaskWriter     TaskWriter
	EnergyRecorder EnergyRecorder
	Consumers      ConsumerRunner
	Maintenance    MaintenanceRunner
	Health         *observability.HealthRegistry
	Metrics        observability.Metrics

	// HTTPAddr is where serve listens.
	HTTPAddr string

	// Current user (configured per environment)
	CurrentUserID string
}

// NewApp creates a new CLI application with the provided handlers.
func NewApp(
	getRecommendationHandler *queries.GetRecommendationHandler,
	getEstimateHandler *queries.GetEstimateHandler,
	getAnalysisHandler *queries.GetAnalysisHandler,
	getStatsHandler *queries.GetStatsHandler,
	recordActionHandler *commands.RecordActionHandler,
	invalidateCacheHandler *commands.InvalidateCacheHandler,
) *App {
	return &App{
		GetRecommendationHandler: getRecommendationHandler,
		GetEstimateHandler:       getEstimateHandler,
		GetAnalysisHandler:       getAnalysisHandler,
		GetStatsHandler:          getStatsHandler,
		RecordActionHandler:      recordActionHandler,
		InvalidateCacheHandler:   invalidateCacheHandler,
		Metrics:                  observability.NoopMetrics{},
	}
}

// SetCurrentUserID updates the current user ID.
func (a *App) SetCurrentUserID(id string) {
	a.CurrentUserID = id
}

// SetTaskWriter updates the store used by import.
func (a *App) SetTaskWriter(w TaskWriter) {
	a.TaskWriter = w
}

// SetEnergyRecorder updates the store used by energy.
func (a *App) SetEnergyRecorder(r EnergyRecorder) {
	a.EnergyRecorder = r
}

// SetServer configures what serve runs alongside the HTTP API.
func (a *App) SetServer(addr string, health *observability.HealthRegistry, metrics observability.Metrics, consumers ConsumerRunner) {
	a.HTTPAddr = addr
	a.Health = health
	if metrics != nil {
		a.Metrics = metrics
	}
	a.Consumers = consumers
}

// SetMaintenance configures the cleanup loop serve runs in the background.
func (a *App) SetMaintenance(m MaintenanceRunner) {
	a.Maintenance = m
}

// UserID returns the --user flag when set and the configured user otherwise.
func (a *App) UserID() string {
	if u := strings.TrimSpace(userFlag); u != "" {
		return u
	}
	return a.CurrentUserID
}

// Global app instance (set during initialization)
var app *App

// SetApp sets the global app instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global app instance.
func GetApp() *App {
	return app
}

func requireApp() (*App, error) {
	if app == nil {
		return nil, ErrAppNotInitialized
	}
	return app, nil
}
