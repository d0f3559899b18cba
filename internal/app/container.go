// Package app wires the nextup process together.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/nextup/internal/recommendation/application/commands"
	"github.com/felixgeelhaar/nextup/internal/recommendation/application/engine"
	"github.com/felixgeelhaar/nextup/internal/recommendation/application/queries"
	"github.com/felixgeelhaar/nextup/internal/recommendation/application/services"
	"github.com/felixgeelhaar/nextup/internal/recommendation/domain"
	"github.com/felixgeelhaar/nextup/internal/recommendation/infrastructure/cache"
	"github.com/felixgeelhaar/nextup/internal/recommendation/infrastructure/persistence"
	"github.com/felixgeelhaar/nextup/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/nextup/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/nextup/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/nextup/pkg/config"
	"github.com/felixgeelhaar/nextup/pkg/observability"
)

// Container holds all application dependencies.
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics observability.Metrics
	Health  *observability.HealthRegistry

	// Storage
	SQLite      *sql.DB
	Postgres    *pgxpool.Pool
	RedisClient *redis.Client

	// Repositories
	Tasks       domain.TaskSource
	TaskWriter  TaskWriter
	WorkHistory *persistence.SQLiteWorkHistory
	ActionRepo  domain.ActionRepository

	// Events
	EventPublisher    eventbus.Publisher
	InProcessEventBus *eventbus.InProcessEventBus
	RabbitMQConsumer  *eventbus.RabbitMQConsumer

	// Engine
	Engine *engine.Engine

	// Command Handlers
	RecordActionHandler    *commands.RecordActionHandler
	InvalidateCacheHandler *commands.InvalidateCacheHandler

	// Query Handlers
	GetRecommendationHandler *queries.GetRecommendationHandler
	GetEstimateHandler       *queries.GetEstimateHandler
	GetAnalysisHandler       *queries.GetAnalysisHandler
	GetStatsHandler          *queries.GetStatsHandler

	closers []func() error
}

// Option customizes container construction.
type Option func(*Container)

// WithMetrics replaces the default no-op metrics collector.
func WithMetrics(m observability.Metrics) Option {
	return func(c *Container) {
		c.Metrics = m
	}
}

// NewContainer creates and wires all dependencies. On error everything
// opened so far is closed again.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (_ *Container, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NoopMetrics{},
		Health:  observability.NewHealthRegistry(),
	}
	for _, opt := range opts {
		opt(c)
	}
	defer func() {
		if err != nil {
			c.Close()
		}
	}()

	if err := c.initStorage(ctx); err != nil {
		return nil, err
	}

	scoring, err := config.LoadScoring(cfg.ScoringFile)
	if err != nil {
		return nil, err
	}

	store, err := c.initCacheStore(ctx)
	if err != nil {
		return nil, err
	}
	recCache := cache.New(store,
		cache.WithTTL(cache.VariantAdvanced, cfg.RecommendTTL),
		cache.WithTTL(cache.VariantBasic, cfg.AnalysisTTL),
		cache.WithLogger(logger),
	)

	var provider services.WorkHistoryProvider = c.WorkHistory
	if cfg.HasStaticWorkHistory() {
		provider = services.StaticWorkHistory{History: cfg.StaticWorkHistory()}
	}

	engineCfg := engine.DefaultConfig()
	engineCfg.Debounce = cfg.RecommendDebounce
	engineCfg.Alternatives = cfg.RecommendAlternatives
	engineCfg.Scoring = scoring
	engineCfg.SessionIdleTTL = cfg.SessionIdleTTL
	engineCfg.Breaker.Enabled = cfg.BreakerEnabled
	engineCfg.Breaker.Timeout = cfg.BreakerTimeout
	if cfg.BreakerFailureThreshold > 0 {
		engineCfg.Breaker.FailureThreshold = uint32(cfg.BreakerFailureThreshold)
	}

	c.Engine = engine.New(engineCfg, recCache,
		services.NewSnapshotBuilder(provider, logger),
		c.Metrics, logger)
	c.closers = append(c.closers, func() error { c.Engine.Close(); return nil })

	if err := c.initEventBus(); err != nil {
		return nil, err
	}

	c.RecordActionHandler = commands.NewRecordActionHandler(c.Engine, c.EventPublisher, logger)
	c.InvalidateCacheHandler = commands.NewInvalidateCacheHandler(c.Engine)
	c.GetRecommendationHandler = queries.NewGetRecommendationHandler(c.Tasks, c.Engine)
	c.GetEstimateHandler = queries.NewGetEstimateHandler(c.Tasks, c.Engine)
	c.GetAnalysisHandler = queries.NewGetAnalysisHandler(c.Tasks, c.Engine)
	c.GetStatsHandler = queries.NewGetStatsHandler(c.Engine, c.ActionRepo)

	c.Health.Register("engine", func(context.Context) observability.HealthCheckResult {
		if c.Engine.IsDegraded(cfg.UserID) {
			return observability.HealthCheckResult{
				Status:  observability.HealthStatusDegraded,
				Message: "serving estimates only",
			}
		}
		return observability.HealthCheckResult{Status: observability.HealthStatusHealthy}
	})

	logger.Debug("container ready",
		"task_source", cfg.TaskSource,
		"cache_backend", cfg.CacheBackend,
		"event_bus", cfg.EventBus,
	)
	return c, nil
}

// initStorage opens the local SQLite store (always needed for feedback and
// work history) and PostgreSQL when tasks live there.
func (c *Container) initStorage(ctx context.Context) error {
	cfg := c.Config

	sqlitePath := cfg.SQLitePath
	if database.DetectDriver(cfg.DatabaseURL) == database.DriverSQLite && cfg.DatabaseURL != "" {
		sqlitePath = cfg.DatabaseURL
	}
	sqliteDB, err := database.OpenSQLite(ctx, database.Config{SQLitePath: sqlitePath})
	if err != nil {
		return err
	}
	c.SQLite = sqliteDB
	c.closers = append(c.closers, sqliteDB.Close)

	applied, err := migrations.RunSQLiteMigrations(ctx, sqliteDB)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if len(applied) > 0 {
		c.Logger.Info("applied migrations", "versions", applied)
	}
	c.Health.Register("sqlite", observability.PingHealthChecker("sqlite",
		observability.HealthStatusUnhealthy, sqliteDB.PingContext))

	if cfg.TaskSource == config.TaskSourcePostgres {
		pool, err := database.OpenPostgres(ctx, database.Config{URL: cfg.DatabaseURL})
		if err != nil {
			return err
		}
		c.Postgres = pool
		c.closers = append(c.closers, func() error { pool.Close(); return nil })

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return fmt.Errorf("failed to run postgres migrations: %w", err)
		}
		c.Health.Register("postgres", observability.PingHealthChecker("postgres",
			observability.HealthStatusUnhealthy, pool.Ping))
		c.Logger.Info("connected to database", "driver", database.DriverPostgres)
	}

	factory := NewSourceFactory(cfg, sqliteDB, c.Postgres)
	source, err := factory.TaskSource()
	if err != nil {
		return err
	}
	c.Tasks = &instrumentedSource{next: source, kind: cfg.TaskSource, metrics: c.Metrics}
	c.TaskWriter = factory.TaskWriter()
	c.WorkHistory = persistence.NewSQLiteWorkHistory(sqliteDB)
	c.ActionRepo = persistence.NewSQLiteFeedbackRepository(sqliteDB)
	return nil
}

// initCacheStore connects to Redis when configured. In development an
// unreachable Redis falls back to the in-memory store.
func (c *Container) initCacheStore(ctx context.Context) (cache.Store, error) {
	cfg := c.Config
	if cfg.CacheBackend != config.CacheBackendRedis {
		return cache.NewMemoryStore(), nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		if !cfg.IsDevelopment() {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		c.Logger.Warn("Redis not available, using in-memory recommendation cache", "error", err)
		return cache.NewMemoryStore(), nil
	}

	c.RedisClient = client
	c.closers = append(c.closers, client.Close)
	c.Health.Register("redis", observability.PingHealthChecker("redis",
		observability.HealthStatusDegraded, func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}))
	c.Logger.Info("connected to Redis")
	return cache.NewRedisStore(client, ""), nil
}

// initEventBus selects the action event transport. The feedback consumer
// runs in-process for the in-process bus and off the queue for RabbitMQ.
func (c *Container) initEventBus() error {
	cfg := c.Config
	feedback := persistence.NewFeedbackConsumer(c.ActionRepo, c.Logger)

	var publisher eventbus.Publisher
	switch cfg.EventBus {
	case config.EventBusRabbitMQ:
		rabbit, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, "", c.Logger)
		if err != nil {
			return err
		}
		publisher = rabbit

		consumer, err := eventbus.NewRabbitMQConsumer(eventbus.RabbitMQConsumerConfig{
			URL:     cfg.RabbitMQURL,
			Metrics: c.Metrics,
			Logger:  c.Logger,
		}, eventbus.NewConsumerRegistry(c.Logger))
		if err != nil {
			_ = rabbit.Close()
			return err
		}
		consumer.RegisterConsumer(feedback)
		c.RabbitMQConsumer = consumer
		c.closers = append(c.closers, consumer.Close)

	case config.EventBusNoop:
		publisher = eventbus.NewNoopPublisher(c.Logger)

	default:
		bus := eventbus.NewInProcessEventBus(c.Logger)
		bus.RegisterConsumer(feedback)
		c.InProcessEventBus = bus
		publisher = bus
	}

	c.EventPublisher = eventbus.NewInstrumentedPublisher(publisher, c.Metrics)
	c.closers = append(c.closers, c.EventPublisher.Close)
	return nil
}

// StartConsumers runs the RabbitMQ feedback consumer until ctx ends. It
// returns immediately for the other buses.
func (c *Container) StartConsumers(ctx context.Context) error {
	if c.RabbitMQConsumer == nil {
		return nil
	}
	if err := c.RabbitMQConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Close releases resources in reverse order of acquisition.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			c.Logger.Warn("close failed", "error", err)
		}
	}
	c.closers = nil
}
