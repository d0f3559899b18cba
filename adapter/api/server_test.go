package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/nextup/internal/recommendation/application/commands"
	"github.com/felixgeelhaar/nextup/internal/recommendation/application/engine"
	"github.com/felixgeelhaar/nextup/internal/recommendation/application/queries"
	"github.com/felixgeelhaar/nextup/internal/recommendation/domain"
	"github.com/felixgeelhaar/nextup/internal/recommendation/domain/value_objects"
	"github.com/felixgeelhaar/nextup/pkg/observability"
)

type staticSource struct {
	tasks []domain.TaskRef
	err   error
}

func (s staticSource) ListTasks(context.Context, string) ([]domain.TaskRef, error) {
	return s.tasks, s.err
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, string, []byte) error {
	return errors.New("broker down")
}

type testEnv struct {
	server  *Server
	engine  *engine.Engine
	metrics *observability.InMemoryMetrics
}

func newTestEnv(t *testing.T, source domain.TaskSource, publisher commands.EventPublisher) *testEnv {
	t.Helper()

	cfg := engine.DefaultConfig()
	cfg.Debounce = 5 * time.Millisecond
	eng := engine.New(cfg, nil, nil, nil, nil)
	t.Cleanup(eng.Close)

	handler := NewRecommendationHandler(RecommendationHandlerConfig{
		Recommendation:  queries.NewGetRecommendationHandler(source, eng),
		Estimate:        queries.NewGetEstimateHandler(source, eng),
		Analysis:        queries.NewGetAnalysisHandler(source, eng),
		Stats:           queries.NewGetStatsHandler(eng, nil),
		RecordAction:    commands.NewRecordActionHandler(eng, publisher, nil),
		InvalidateCache: commands.NewInvalidateCacheHandler(eng),
		DefaultUserID:   "alice",
	})

	metrics := observability.NewInMemoryMetrics()
	health := observability.NewHealthRegistry()
	health.Register("engine", func(context.Context) observability.HealthCheckResult {
		return observability.HealthCheckResult{Status: observability.HealthStatusHealthy}
	})

	return &testEnv{
		server:  NewServer(DefaultServerConfig(), handler, health, metrics, nil),
		engine:  eng,
		metrics: metrics,
	}
}

func (e *testEnv) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rr := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rr, req)
	return rr
}

func sampleTasks() []domain.TaskRef {
	return []domain.TaskRef{
		{ID: "t1", Title: "Ship release", Status: domain.StatusPending, Priority: value_objects.PriorityUrgent},
		{ID: "t2", Title: "Review PR", Status: domain.StatusPending, Priority: value_objects.PriorityMedium},
		{ID: "t3", Title: "Tidy desk", Status: domain.StatusPending, Priority: value_objects.PriorityLow},
	}
}

func TestServer_Health(t *testing.T) {
	env := newTestEnv(t, staticSource{}, nil)

	rr := env.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var body observability.OverallHealth
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, observability.HealthStatusHealthy, body.Status)
	assert.Contains(t, body.Checks, "engine")
	assert.NotEmpty(t, rr.Header().Get(CorrelationIDHeader))
}

func TestServer_HealthUnhealthy(t *testing.T) {
	env := newTestEnv(t, staticSource{}, nil)
	env.server.health.Register("sqlite", func(context.Context) observability.HealthCheckResult {
		return observability.HealthCheckResult{Status: observability.HealthStatusUnhealthy, Message: "closed"}
	})

	rr := env.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestServer_CorrelationIDIsEchoed(t *testing.T) {
	env := newTestEnv(t, staticSource{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(CorrelationIDHeader, "corr-123")
	rr := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rr, req)

	assert.Equal(t, "corr-123", rr.Header().Get(CorrelationIDHeader))
}

func TestServer_Metrics(t *testing.T) {
	env := newTestEnv(t, staticSource{}, nil)
	env.do(t, http.MethodGet, "/health", "")

	rr := env.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var snap observability.MetricsSnapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snap))
	assert.NotEmpty(t, snap.Counters)
	assert.NotEmpty(t, snap.Timings)
}

func TestServer_MetricsHiddenWithoutCollector(t *testing.T) {
	env := newTestEnv(t, staticSource{}, nil)
	server := NewServer(DefaultServerConfig(), env.server.handler, nil, nil, nil)

	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRecommendationHandler_Next(t *testing.T) {
	env := newTestEnv(t, staticSource{tasks: sampleTasks()}, nil)

	rr := env.do(t, http.MethodGet, "/api/v1/recommendations/next", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var dto queries.RecommendationDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &dto))
	require.NotNil(t, dto.Primary)
	assert.Equal(t, "t1", dto.Primary.TaskID)
	assert.Equal(t, "computed", dto.Source)
	assert.Len(t, dto.Alternatives, 2)

	timing := env.metrics.GetTiming(observability.MetricOperationDuration,
		observability.T("method", http.MethodGet),
		observability.T("route", "/api/v1/recommendations/next"),
		observability.T(observability.StatusKey, "200"),
		observability.T(observability.OperationKey, "http.request"),
	)
	assert.Equal(t, int64(1), timing.Count)
}

func TestRecommendationHandler_NextSourceError(t *testing.T) {
	env := newTestEnv(t, staticSource{err: errors.New("db gone")}, nil)

	rr := env.do(t, http.MethodGet, "/api/v1/recommendations/next", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "Failed to generate recommendation", body["message"])
}

func TestRecommendationHandler_NextEmpty(t *testing.T) {
	env := newTestEnv(t, staticSource{}, nil)

	rr := env.do(t, http.MethodGet, "/api/v1/recommendations/next", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var dto queries.RecommendationDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &dto))
	assert.Nil(t, dto.Primary)
	assert.Empty(t, dto.Alternatives)
}

func TestRecommendationHandler_Estimate(t *testing.T) {
	env := newTestEnv(t, staticSource{tasks: sampleTasks()}, nil)

	rr := env.do(t, http.MethodGet, "/api/v1/recommendations/estimate", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var dto queries.RecommendationDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &dto))
	require.NotNil(t, dto.Primary)
	assert.Equal(t, "t1", dto.Primary.TaskID)
	assert.Equal(t, "estimate", dto.Source)
}

func TestRecommendationHandler_Analysis(t *testing.T) {
	env := newTestEnv(t, staticSource{tasks: sampleTasks()}, nil)

	rr := env.do(t, http.MethodGet, "/api/v1/recommendations/analysis", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var dto queries.AnalysisDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &dto))
	assert.Equal(t, 3, dto.TotalTasks)
	assert.Equal(t, 1, dto.ByPriority["urgent"])
}

func TestRecommendationHandler_RecordAction(t *testing.T) {
	env := newTestEnv(t, staticSource{tasks: sampleTasks()}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/recommendations/actions",
		strings.NewReader(`{"task_id":"t1","action":"skipped"}`))
	req.Header.Set(UserIDHeader, "bob")
	rr := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rr, req)
	require.Equal(t, http.StatusAccepted, rr.Code)

	var body recordActionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "t1", body.TaskID)
	assert.Equal(t, "skipped", body.Action)
	assert.True(t, body.Published)
	assert.NotEmpty(t, body.ID)

	assert.Equal(t, []string{"t1"}, env.engine.Skipped("bob"))
	assert.Empty(t, env.engine.Skipped("alice"))
}

func TestRecommendationHandler_RecordActionValidation(t *testing.T) {
	env := newTestEnv(t, staticSource{}, nil)

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"task_id":`},
		{name: "missing task id", body: `{"action":"accepted"}`},
		{name: "unknown action", body: `{"task_id":"t1","action":"maybe"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := env.do(t, http.MethodPost, "/api/v1/recommendations/actions", tc.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestRecommendationHandler_RecordActionPublishFailure(t *testing.T) {
	env := newTestEnv(t, staticSource{}, failingPublisher{})

	rr := env.do(t, http.MethodPost, "/api/v1/recommendations/actions", `{"task_id":"t2","action":"skipped"}`)
	require.Equal(t, http.StatusAccepted, rr.Code)

	var body recordActionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.False(t, body.Published)
	assert.Equal(t, []string{"t2"}, env.engine.Skipped("alice"))
}

func TestRecommendationHandler_InvalidateCache(t *testing.T) {
	env := newTestEnv(t, staticSource{tasks: sampleTasks()}, nil)

	rr := env.do(t, http.MethodDelete, "/api/v1/recommendations/cache", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = env.do(t, http.MethodDelete, "/api/v1/recommendations/cache?variant=basic&variant=advanced", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = env.do(t, http.MethodDelete, "/api/v1/recommendations/cache?variant=deluxe", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRecommendationHandler_Stats(t *testing.T) {
	env := newTestEnv(t, staticSource{tasks: sampleTasks()}, nil)

	rr := env.do(t, http.MethodGet, "/api/v1/recommendations/next", "")
	require.Equal(t, http.StatusOK, rr.Code)
	rr = env.do(t, http.MethodPost, "/api/v1/recommendations/actions", `{"task_id":"t3","action":"skipped"}`)
	require.Equal(t, http.StatusAccepted, rr.Code)

	rr = env.do(t, http.MethodGet, "/api/v1/recommendations/cache/stats?recent=5", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var dto queries.StatsDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &dto))
	assert.False(t, dto.Degraded)
	assert.Equal(t, []string{"t3"}, dto.SkippedTasks)
}

func TestServer_CORSPreflight(t *testing.T) {
	env := newTestEnv(t, staticSource{}, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/recommendations/next", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rr := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rr, req)

	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	env := newTestEnv(t, staticSource{}, nil)
	cfg := DefaultServerConfig()
	cfg.Addr = "127.0.0.1:0"
	srv := NewServer(cfg, env.server.handler, nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
