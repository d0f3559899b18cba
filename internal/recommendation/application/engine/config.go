package engine

import (
	"time"

	"github.com/felixgeelhaar/nextup/internal/recommendation/application/services"
)

// Config tunes the engine.
type Config struct {
	// Debounce is the quiet period that coalesces bursts of Generate calls.
	Debounce time.Duration

	// Alternatives is the number of runner-up tasks per result.
	Alternatives int

	// Scoring holds the full scorer coefficients.
	Scoring services.ScoringConfig

	// SessionIdleTTL is how long a user session may stay unused before
	// CleanupCache evicts it together with its skip-list and breaker.
	SessionIdleTTL time.Duration

	Breaker BreakerConfig
}

// DefaultSessionIdleTTL is the idle period after which a session is evicted.
const DefaultSessionIdleTTL = 30 * time.Minute

// BreakerConfig configures the per-user circuit breaker around
// authoritative runs.
type BreakerConfig struct {
	Enabled bool

	// MaxRequests is the maximum number of requests allowed in half-open state.
	MaxRequests uint32

	// Interval is the cyclic period of the closed state.
	Interval time.Duration

	// Timeout is the period of the open state.
	Timeout time.Duration

	// FailureThreshold is the number of consecutive failures that trips the breaker.
	FailureThreshold uint32
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Debounce:       DefaultDebounce,
		Alternatives:   services.DefaultAlternatives,
		Scoring:        services.DefaultScoringConfig(),
		SessionIdleTTL: DefaultSessionIdleTTL,
		Breaker: BreakerConfig{
			Enabled:          true,
			MaxRequests:      1,
			Interval:         time.Minute,
			Timeout:          30 * time.Second,
			FailureThreshold: 5,
		},
	}
}
