package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/nextup/internal/recommendation/application/services"
	"github.com/felixgeelhaar/nextup/internal/recommendation/domain"
)

// Cache backends.
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// Event bus backends.
const (
	EventBusInProcess = "inprocess"
	EventBusRabbitMQ  = "rabbitmq"
	EventBusNoop      = "noop"
)

// Task sources.
const (
	TaskSourceFile     = "file"
	TaskSourceSQLite   = "sqlite"
	TaskSourcePostgres = "postgres"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv string
	UserID string

	// Storage
	TaskSource  string
	DatabaseURL string
	SQLitePath  string
	TasksFile   string

	// Cache
	CacheBackend string
	RedisURL     string

	// Events
	EventBus    string
	RabbitMQURL string

	// Recommendation engine
	RecommendDebounce     time.Duration
	RecommendTTL          time.Duration
	AnalysisTTL           time.Duration
	RecommendAlternatives int
	ScoringFile           string
	SessionIdleTTL        time.Duration
	CacheCleanupInterval  time.Duration

	// Static work history; empty values fall back to the stored history.
	EnergyLevel string
	WorkPattern string

	// Circuit breaker around authoritative runs
	BreakerEnabled          bool
	BreakerFailureThreshold int
	BreakerTimeout          time.Duration

	// Servers
	HTTPAddr         string
	MCPAddr          string
	MCPAuthToken     string
	WorkerHealthAddr string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv: getEnv("APP_ENV", "development"),
		UserID: getEnv("NEXTUP_USER_ID", "local"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		SQLitePath:  getEnv("NEXTUP_DB_PATH", ""),
		TasksFile:   getEnv("NEXTUP_TASKS_FILE", ""),

		CacheBackend: strings.ToLower(getEnv("CACHE_BACKEND", CacheBackendMemory)),
		RedisURL:     getEnv("REDIS_URL", ""),

		EventBus:    strings.ToLower(getEnv("EVENT_BUS", EventBusInProcess)),
		RabbitMQURL: getEnv("RABBITMQ_URL", ""),

		RecommendDebounce:     getDurationEnv("RECOMMEND_DEBOUNCE", 300*time.Millisecond),
		RecommendTTL:          getDurationEnv("RECOMMEND_TTL", 5*time.Minute),
		AnalysisTTL:           getDurationEnv("ANALYSIS_TTL", 2*time.Minute),
		RecommendAlternatives: getIntEnv("RECOMMEND_ALTERNATIVES", 2),
		ScoringFile:           getEnv("SCORING_FILE", ""),
		SessionIdleTTL:        getDurationEnv("SESSION_IDLE_TTL", 30*time.Minute),
		CacheCleanupInterval:  getDurationEnv("CACHE_CLEANUP_INTERVAL", 10*time.Minute),

		EnergyLevel: strings.ToLower(getEnv("ENERGY_LEVEL", "")),
		WorkPattern: strings.ToLower(getEnv("WORK_PATTERN", "")),

		BreakerEnabled:          getBoolEnv("BREAKER_ENABLED", true),
		BreakerFailureThreshold: getIntEnv("BREAKER_FAILURE_THRESHOLD", 5),
		BreakerTimeout:          getDurationEnv("BREAKER_TIMEOUT", 30*time.Second),

		HTTPAddr:         getEnv("HTTP_ADDR", "127.0.0.1:8080"),
		MCPAddr:          getEnv("MCP_ADDR", "127.0.0.1:8082"),
		MCPAuthToken:     getEnv("MCP_AUTH_TOKEN", ""),
		WorkerHealthAddr: getEnv("WORKER_HEALTH_ADDR", ""),
	}
	cfg.TaskSource = strings.ToLower(getEnv("TASK_SOURCE", cfg.defaultTaskSource()))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// defaultTaskSource picks the task file when one is named, PostgreSQL when
// DATABASE_URL points at it, and the local SQLite store otherwise.
func (c *Config) defaultTaskSource() string {
	switch {
	case c.TasksFile != "":
		return TaskSourceFile
	case strings.HasPrefix(c.DatabaseURL, "postgres://"), strings.HasPrefix(c.DatabaseURL, "postgresql://"):
		return TaskSourcePostgres
	default:
		return TaskSourceSQLite
	}
}

// Validate reports every inconsistent setting at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.TaskSource {
	case TaskSourceFile:
		if c.TasksFile == "" {
			errs = append(errs, errors.New("TASK_SOURCE=file requires NEXTUP_TASKS_FILE"))
		}
	case TaskSourcePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("TASK_SOURCE=postgres requires DATABASE_URL"))
		}
	case TaskSourceSQLite:
	default:
		errs = append(errs, fmt.Errorf("unknown TASK_SOURCE %q", c.TaskSource))
	}

	switch c.CacheBackend {
	case CacheBackendMemory:
	case CacheBackendRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("CACHE_BACKEND=redis requires REDIS_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown CACHE_BACKEND %q", c.CacheBackend))
	}

	switch c.EventBus {
	case EventBusInProcess, EventBusNoop:
	case EventBusRabbitMQ:
		if c.RabbitMQURL == "" {
			errs = append(errs, errors.New("EVENT_BUS=rabbitmq requires RABBITMQ_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown EVENT_BUS %q", c.EventBus))
	}

	if c.RecommendDebounce < 0 {
		errs = append(errs, errors.New("RECOMMEND_DEBOUNCE must not be negative"))
	}
	if c.RecommendTTL <= 0 || c.AnalysisTTL <= 0 {
		errs = append(errs, errors.New("RECOMMEND_TTL and ANALYSIS_TTL must be positive"))
	}
	if c.SessionIdleTTL <= 0 || c.CacheCleanupInterval <= 0 {
		errs = append(errs, errors.New("SESSION_IDLE_TTL and CACHE_CLEANUP_INTERVAL must be positive"))
	}
	if c.RecommendAlternatives < 0 {
		errs = append(errs, errors.New("RECOMMEND_ALTERNATIVES must not be negative"))
	}
	if c.EnergyLevel != "" && !domain.EnergyLevel(c.EnergyLevel).IsValid() {
		errs = append(errs, fmt.Errorf("unknown ENERGY_LEVEL %q", c.EnergyLevel))
	}
	if c.WorkPattern != "" && !domain.WorkPattern(c.WorkPattern).IsValid() {
		errs = append(errs, fmt.Errorf("unknown WORK_PATTERN %q", c.WorkPattern))
	}
	if c.BreakerEnabled && c.BreakerFailureThreshold < 1 {
		errs = append(errs, errors.New("BREAKER_FAILURE_THRESHOLD must be at least 1"))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

// HasStaticWorkHistory reports whether energy or pattern were set explicitly.
func (c *Config) HasStaticWorkHistory() bool {
	return c.EnergyLevel != "" || c.WorkPattern != ""
}

// StaticWorkHistory returns the configured work history, filling unset
// fields with defaults.
func (c *Config) StaticWorkHistory() domain.WorkHistory {
	history := domain.DefaultWorkHistory()
	if c.EnergyLevel != "" {
		history.EnergyLevel = domain.EnergyLevel(c.EnergyLevel)
	}
	if c.WorkPattern != "" {
		history.WorkPattern = domain.WorkPattern(c.WorkPattern)
	}
	return history
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// LoadScoring reads scoring coefficient overrides from a YAML file. Keys
// missing from the file keep their defaults; an empty path returns the
// defaults unchanged.
func LoadScoring(path string) (services.ScoringConfig, error) {
	scoring := services.DefaultScoringConfig()
	if path == "" {
		return scoring, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return scoring, fmt.Errorf("failed to open scoring file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&scoring); err != nil && !errors.Is(err, io.EOF) {
		return services.DefaultScoringConfig(), fmt.Errorf("failed to parse scoring file %s: %w", path, err)
	}
	if err := scoring.Validate(); err != nil {
		return services.DefaultScoringConfig(), err
	}
	return scoring, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
