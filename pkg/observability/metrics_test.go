package observability

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNoopMetrics(t *testing.T) {
	m := NoopMetrics{}

	// Should not panic
	m.Counter("test", 1)
	m.Gauge("test", 1.0)
	m.Histogram("test", 1.0)
	m.Timing("test", time.Second)
}

func TestInMemoryMetrics(t *testing.T) {
	t.Run("Counter", func(t *testing.T) {
		m := NewInMemoryMetrics()

		m.Counter("requests", 1)
		m.Counter("requests", 1)
		m.Counter("requests", 1)

		assert.Equal(t, int64(3), m.GetCounter("requests"))
	})

	t.Run("Counter with tags", func(t *testing.T) {
		m := NewInMemoryMetrics()

		m.Counter("requests", 1, T("method", "GET"))
		m.Counter("requests", 1, T("method", "POST"))
		m.Counter("requests", 1, T("method", "GET"))

		assert.Equal(t, int64(2), m.GetCounter("requests", T("method", "GET")))
		assert.Equal(t, int64(1), m.GetCounter("requests", T("method", "POST")))
	})

	t.Run("Gauge", func(t *testing.T) {
		m := NewInMemoryMetrics()

		m.Gauge("temperature", 25.5)
		assert.Equal(t, 25.5, m.GetGauge("temperature"))

		m.Gauge("temperature", 30.0)
		assert.Equal(t, 30.0, m.GetGauge("temperature"))
	})

	t.Run("Gauge with tags", func(t *testing.T) {
		m := NewInMemoryMetrics()

		m.Gauge("connections", 10, T("pool", "primary"))
		m.Gauge("connections", 5, T("pool", "replica"))

		assert.Equal(t, 10.0, m.GetGauge("connections", T("pool", "primary")))
		assert.Equal(t, 5.0, m.GetGauge("connections", T("pool", "replica")))
	})

	t.Run("Histogram keeps a summary", func(t *testing.T) {
		m := NewInMemoryMetrics()

		m.Histogram("response_size", 100)
		m.Histogram("response_size", 200)
		m.Histogram("response_size", 150)

		summary := m.GetHistogram("response_size")
		assert.Equal(t, int64(3), summary.Count)
		assert.Equal(t, 100.0, summary.Min)
		assert.Equal(t, 200.0, summary.Max)
		assert.Equal(t, 150.0, summary.Last)
		assert.Equal(t, 150.0, summary.Mean())
	})

	t.Run("Timing in milliseconds", func(t *testing.T) {
		m := NewInMemoryMetrics()

		m.Timing("query_duration", 100*time.Millisecond)
		m.Timing("query_duration", 200*time.Millisecond)

		summary := m.GetTiming("query_duration")
		assert.Equal(t, int64(2), summary.Count)
		assert.Equal(t, 300.0, summary.Sum)
		assert.Equal(t, 200.0, summary.Max)
	})

	t.Run("Unknown series is empty", func(t *testing.T) {
		m := NewInMemoryMetrics()

		assert.Zero(t, m.GetHistogram("missing").Count)
		assert.Zero(t, m.GetTiming("missing").Mean())
	})

	t.Run("Memory is bounded by series", func(t *testing.T) {
		m := NewInMemoryMetrics()

		for i := 0; i < 1000; i++ {
			m.Timing("run", time.Duration(i)*time.Millisecond)
		}

		snap := m.Snapshot()
		assert.Len(t, snap.Timings, 1)
		assert.Equal(t, int64(1000), snap.Timings["run"].Count)
		assert.Equal(t, 999.0, snap.Timings["run"].Max)
	})

	t.Run("Snapshot is a copy", func(t *testing.T) {
		m := NewInMemoryMetrics()
		m.Counter("requests", 1, T("method", "GET"))
		m.Gauge("sessions", 4)
		m.Histogram("size", 10)

		snap := m.Snapshot()
		m.Counter("requests", 1, T("method", "GET"))
		m.Histogram("size", 20)

		assert.Equal(t, int64(1), snap.Counters["requests:method=GET"])
		assert.Equal(t, 4.0, snap.Gauges["sessions"])
		assert.Equal(t, int64(1), snap.Histograms["size"].Count)
		assert.Equal(t, int64(2), m.GetCounter("requests", T("method", "GET")))
	})
}

func TestTag(t *testing.T) {
	tag := T("key", "value")
	assert.Equal(t, "key", tag.Key)
	assert.Equal(t, "value", tag.Value)
}

func TestFormatKey(t *testing.T) {
	tests := []struct {
		name     string
		metric   string
		tags     []Tag
		expected string
	}{
		{
			name:     "no tags",
			metric:   "requests",
			tags:     nil,
			expected: "requests",
		},
		{
			name:     "single tag",
			metric:   "requests",
			tags:     []Tag{T("method", "GET")},
			expected: "requests:method=GET",
		},
		{
			name:     "multiple tags",
			metric:   "requests",
			tags:     []Tag{T("method", "GET"), T("status", "200")},
			expected: "requests:method=GET:status=200",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatKey(tt.metric, tt.tags)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestMetricNamesAreNamespaced(t *testing.T) {
	names := []string{
		MetricOperationTotal, MetricOperationDuration, MetricOperationErrors,
		MetricRecommendRuns, MetricRecommendDuration, MetricRecommendDiscarded,
		MetricRecommendDegraded, MetricRecommendEstimates, MetricRecommendTaskErrors,
		MetricRecommendCacheHits, MetricRecommendCacheMisses, MetricRecommendBreaker,
		MetricRecommendActions, MetricRecommendSessions, MetricTasksLoaded,
		MetricEventsPublished, MetricEventsConsumed, MetricEventsRejected,
	}
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		assert.True(t, strings.HasPrefix(name, "nextup."), name)
		assert.False(t, seen[name], "duplicate metric %s", name)
		seen[name] = true
	}
}
