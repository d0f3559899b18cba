package observability

import (
	"sync"
	"time"
)

// Metrics provides an interface for recording application metrics.
type Metrics interface {
	// Counter increments a counter metric.
	Counter(name string, value int64, tags ...Tag)

	// Gauge sets a gauge metric to the given value.
	Gauge(name string, value float64, tags ...Tag)

	// Histogram records a value in a histogram.
	Histogram(name string, value float64, tags ...Tag)

	// Timing records a duration.
	Timing(name string, duration time.Duration, tags ...Tag)
}

// Tag represents a key-value pair for metric labeling.
type Tag struct {
	Key   string
	Value string
}

// T creates a new Tag.
func T(key, value string) Tag {
	return Tag{Key: key, Value: value}
}

// NoopMetrics is a no-op implementation of Metrics.
type NoopMetrics struct{}

func (NoopMetrics) Counter(name string, value int64, tags ...Tag)        {}
func (NoopMetrics) Gauge(name string, value float64, tags ...Tag)        {}
func (NoopMetrics) Histogram(name string, value float64, tags ...Tag)    {}
func (NoopMetrics) Timing(name string, duration time.Duration, tags ...Tag) {}

// Summary aggregates the observations of one histogram or timing series.
// Timings are recorded in milliseconds.
type Summary struct {
	Count int64   `json:"count"`
	Sum   float64 `json:"sum"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Last  float64 `json:"last"`
}

// Mean returns the average observation, 0 for an empty summary.
func (s Summary) Mean() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.Sum / float64(s.Count)
}

func (s *Summary) observe(v float64) {
	if s.Count == 0 || v < s.Min {
		s.Min = v
	}
	if s.Count == 0 || v > s.Max {
		s.Max = v
	}
	s.Count++
	s.Sum += v
	s.Last = v
}

// MetricsSnapshot is a point-in-time copy of an InMemoryMetrics collector.
type MetricsSnapshot struct {
	Counters   map[string]int64   `json:"counters"`
	Gauges     map[string]float64 `json:"gauges"`
	Histograms map[string]Summary `json:"histograms"`
	Timings    map[string]Summary `json:"timings"`
}

// MetricsReporter is implemented by collectors that can be exported.
type MetricsReporter interface {
	Snapshot() MetricsSnapshot
}

// InMemoryMetrics aggregates metrics in process memory. Memory use grows
// with the number of distinct series, not with the number of observations.
type InMemoryMetrics struct {
	mu         sync.RWMutex
	counters   map[string]int64
	gauges     map[string]float64
	histograms map[string]*Summary
	timings    map[string]*Summary
}

// NewInMemoryMetrics creates an empty collector.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		counters:   make(map[string]int64),
		gauges:     make(map[string]float64),
		histograms: make(map[string]*Summary),
		timings:    make(map[string]*Summary),
	}
}

func (m *InMemoryMetrics) Counter(name string, value int64, tags ...Tag) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[formatKey(name, tags)] += value
}

func (m *InMemoryMetrics) Gauge(name string, value float64, tags ...Tag) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges[formatKey(name, tags)] = value
}

func (m *InMemoryMetrics) Histogram(name string, value float64, tags ...Tag) {
	m.mu.Lock()
	defer m.mu.Unlock()
	observeInto(m.histograms, formatKey(name, tags), value)
}

func (m *InMemoryMetrics) Timing(name string, duration time.Duration, tags ...Tag) {
	m.mu.Lock()
	defer m.mu.Unlock()
	observeInto(m.timings, formatKey(name, tags), float64(duration)/float64(time.Millisecond))
}

// observeInto must be called with mu held.
func observeInto(series map[string]*Summary, key string, v float64) {
	s, ok := series[key]
	if !ok {
		s = &Summary{}
		series[key] = s
	}
	s.observe(v)
}

// GetCounter returns the current value of a counter.
func (m *InMemoryMetrics) GetCounter(name string, tags ...Tag) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counters[formatKey(name, tags)]
}

// GetGauge returns the current value of a gauge.
func (m *InMemoryMetrics) GetGauge(name string, tags ...Tag) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gauges[formatKey(name, tags)]
}

// GetHistogram returns the summary of a histogram series.
func (m *InMemoryMetrics) GetHistogram(name string, tags ...Tag) Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.histograms[formatKey(name, tags)]; ok {
		return *s
	}
	return Summary{}
}

// GetTiming returns the summary of a timing series in milliseconds.
func (m *InMemoryMetrics) GetTiming(name string, tags ...Tag) Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.timings[formatKey(name, tags)]; ok {
		return *s
	}
	return Summary{}
}

// Snapshot copies every series.
func (m *InMemoryMetrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := MetricsSnapshot{
		Counters:   make(map[string]int64, len(m.counters)),
		Gauges:     make(map[string]float64, len(m.gauges)),
		Histograms: make(map[string]Summary, len(m.histograms)),
		Timings:    make(map[string]Summary, len(m.timings)),
	}
	for k, v := range m.counters {
		snap.Counters[k] = v
	}
	for k, v := range m.gauges {
		snap.Gauges[k] = v
	}
	for k, v := range m.histograms {
		snap.Histograms[k] = *v
	}
	for k, v := range m.timings {
		snap.Timings[k] = *v
	}
	return snap
}

func formatKey(name string, tags []Tag) string {
	if len(tags) == 0 {
		return name
	}
	key := name
	for _, t := range tags {
		key += ":" + t.Key + "=" + t.Value
	}
	return key
}

// Standard metric names used throughout nextup.
const (
	// Operation metrics
	MetricOperationTotal    = "nextup.operation.total"
	MetricOperationDuration = "nextup.operation.duration"
	MetricOperationErrors   = "nextup.operation.errors"

	// Recommendation metrics
	MetricRecommendRuns        = "nextup.recommend.runs"
	MetricRecommendDuration    = "nextup.recommend.duration"
	MetricRecommendDiscarded   = "nextup.recommend.discarded"
	MetricRecommendDegraded    = "nextup.recommend.degraded"
	MetricRecommendEstimates   = "nextup.recommend.estimates"
	MetricRecommendTaskErrors  = "nextup.recommend.task_errors"
	MetricRecommendCacheHits   = "nextup.recommend.cache_hits"
	MetricRecommendCacheMisses = "nextup.recommend.cache_misses"
	MetricRecommendBreaker     = "nextup.recommend.breaker"
	MetricRecommendActions     = "nextup.recommend.actions"
	MetricRecommendSessions    = "nextup.recommend.sessions"

	// Task source metrics
	MetricTasksLoaded = "nextup.tasks.loaded"

	// Event bus metrics
	MetricEventsPublished = "nextup.events.published"
	MetricEventsConsumed  = "nextup.events.consumed"
	MetricEventsRejected  = "nextup.events.rejected"
)
