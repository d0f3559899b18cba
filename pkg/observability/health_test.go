package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthRegistry_EmptyIsHealthy(t *testing.T) {
	health := NewHealthRegistry().Check(context.Background())
	assert.Equal(t, HealthStatusHealthy, health.Status)
	assert.Empty(t, health.Checks)
}

func TestHealthRegistry_WorstStatusWins(t *testing.T) {
	registry := NewHealthRegistry()
	ok := func(context.Context) error { return nil }
	fail := func(context.Context) error { return errors.New("refused") }

	registry.Register("sqlite", PingHealthChecker("sqlite", HealthStatusUnhealthy, ok))
	registry.Register("redis", PingHealthChecker("redis", HealthStatusDegraded, fail))
	assert.Equal(t, []string{"redis", "sqlite"}, registry.Names())

	health := registry.Check(context.Background())
	assert.Equal(t, HealthStatusDegraded, health.Status)
	require.Contains(t, health.Checks, "redis")
	assert.Contains(t, health.Checks["redis"].Message, "refused")
	assert.False(t, health.Checks["sqlite"].Timestamp.IsZero())

	registry.Register("sqlite", PingHealthChecker("sqlite", HealthStatusUnhealthy, fail))
	assert.Equal(t, HealthStatusUnhealthy, registry.Check(context.Background()).Status)
}
