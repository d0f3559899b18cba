// Package engine orchestrates recommendation generation: a synchronous
// estimate on every call, a debounced authoritative run per burst, and a
// generation counter that keeps superseded runs from publishing.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/nextup/internal/recommendation/application/services"
	"github.com/felixgeelhaar/nextup/internal/recommendation/domain"
	"github.com/felixgeelhaar/nextup/internal/recommendation/infrastructure/cache"
	"github.com/felixgeelhaar/nextup/pkg/observability"
	"github.com/sony/gobreaker/v2"
)

var errNothingScored = errors.New("no task could be scored")

// outcome is the product of one authoritative run.
type outcome struct {
	result      *domain.Result
	fingerprint uint64
	cached      bool
}

// burst collects the callers of one debounce window.
type burst struct {
	tasks  []domain.TaskRef
	done   chan struct{}
	result *domain.Result
}

// session is the per-user engine state.
type session struct {
	userID    string
	debouncer *Debouncer
	pending   *burst
	issued    uint64
	latest    *domain.Result
	estimate  *domain.Result
	degraded  bool
	running   bool
	skipped   map[string]struct{}
	breaker   *gobreaker.CircuitBreaker[outcome]
	lastSeen  time.Time
}

// Engine produces recommendations for users. It is safe for concurrent use.
type Engine struct {
	config    Config
	cache     *cache.Cache
	snapshots *services.SnapshotBuilder
	scorer    services.Scorer
	quick     services.Scorer
	metrics   observability.Metrics
	logger    *slog.Logger
	now       func() time.Time

	mu         sync.Mutex
	generation uint64
	sessions   map[string]*session
	closed     bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithScorer replaces the authoritative scorer.
func WithScorer(s services.Scorer) Option {
	return func(e *Engine) {
		if s != nil {
			e.scorer = s
		}
	}
}

// WithClock overrides the time source used for snapshots.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New creates an engine. A nil cache gets a private in-memory cache and a
// nil snapshot builder uses default work history.
func New(cfg Config, recCache *cache.Cache, snapshots *services.SnapshotBuilder, metrics observability.Metrics, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if recCache == nil {
		recCache = cache.New(nil, cache.WithLogger(logger))
	}
	if snapshots == nil {
		snapshots = services.NewSnapshotBuilder(nil, logger)
	}
	if cfg.Alternatives < 0 {
		cfg.Alternatives = services.DefaultAlternatives
	}
	if cfg.SessionIdleTTL <= 0 {
		cfg.SessionIdleTTL = DefaultSessionIdleTTL
	}

	e := &Engine{
		config:    cfg,
		cache:     recCache,
		snapshots: snapshots,
		scorer:    services.NewFullScorer(cfg.Scoring),
		quick:     services.QuickScorer{},
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
		sessions:  make(map[string]*session),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// newBreaker builds the breaker of one user, so a user whose runs keep
// failing never degrades anybody else.
func (e *Engine) newBreaker(userID string, cfg BreakerConfig) *gobreaker.CircuitBreaker[outcome] {
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 1
	}
	return gobreaker.NewCircuitBreaker[outcome](gobreaker.Settings{
		Name:        "recommendation:" + userID,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			e.logger.Info("circuit breaker state changed",
				"breaker", name,
				"user_id", userID,
				"from", from.String(),
				"to", to.String(),
			)
			e.metrics.Counter(observability.MetricRecommendBreaker, 1, observability.T("state", to.String()))
		},
	})
}

// sessionFor must be called with mu held.
func (e *Engine) sessionFor(userID string) *session {
	s, ok := e.sessions[userID]
	if !ok {
		s = &session{
			userID:  userID,
			skipped: make(map[string]struct{}),
		}
		s.debouncer = NewDebouncer(e.config.Debounce, func() { e.fire(s) })
		if e.config.Breaker.Enabled {
			s.breaker = e.newBreaker(userID, e.config.Breaker)
		}
		e.sessions[userID] = s
	}
	s.lastSeen = e.now()
	return s
}

// eligible must be called with mu held.
func (e *Engine) eligible(s *session, tasks []domain.TaskRef) []domain.TaskRef {
	out := make([]domain.TaskRef, 0, len(tasks))
	for _, t := range tasks {
		if !t.IsOpen() {
			continue
		}
		if _, skip := s.skipped[t.ID]; skip {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Generate returns the authoritative recommendation for tasks. Calls for
// the same user inside the debounce window share one run over the most
// recent task list. It returns nil when no task is eligible, and an error
// only when ctx ends before the run settles.
func (e *Engine) Generate(ctx context.Context, tasks []domain.TaskRef, userID string) (*domain.Result, error) {
	e.mu.Lock()
	s := e.sessionFor(userID)
	eligible := e.eligible(s, tasks)
	e.mu.Unlock()

	estimate := e.quickEstimate(ctx, userID, eligible)

	e.mu.Lock()
	s.estimate = estimate
	if len(eligible) == 0 {
		e.generation++
		s.issued = e.generation
		s.latest = nil
		e.releasePending(s, nil)
		e.mu.Unlock()
		return nil, nil
	}
	if e.closed {
		result := fallback(s)
		e.mu.Unlock()
		return result, nil
	}

	if s.pending == nil {
		s.pending = &burst{done: make(chan struct{})}
	}
	b := s.pending
	b.tasks = eligible
	s.debouncer.Trigger()
	e.mu.Unlock()

	select {
	case <-b.done:
		return b.result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// releasePending must be called with mu held.
func (e *Engine) releasePending(s *session, result *domain.Result) {
	s.debouncer.Cancel()
	if s.pending != nil {
		s.pending.result = result
		close(s.pending.done)
		s.pending = nil
	}
}

// Estimate returns the quick three-term recommendation without waiting.
func (e *Engine) Estimate(ctx context.Context, tasks []domain.TaskRef, userID string) *domain.Result {
	e.mu.Lock()
	s := e.sessionFor(userID)
	eligible := e.eligible(s, tasks)
	e.mu.Unlock()

	estimate := e.quickEstimate(ctx, userID, eligible)

	e.mu.Lock()
	s.estimate = estimate
	e.mu.Unlock()
	return estimate
}

func (e *Engine) quickEstimate(ctx context.Context, userID string, eligible []domain.TaskRef) *domain.Result {
	if len(eligible) == 0 {
		return nil
	}
	now := e.now()
	snapshot := e.snapshots.Build(ctx, userID, now)
	scored, _ := e.scoreAll(ctx, e.quick, eligible, snapshot)
	ranking := services.Rank(scored, e.config.Alternatives)
	if ranking == nil {
		return nil
	}
	e.metrics.Counter(observability.MetricRecommendEstimates, 1)
	return &domain.Result{
		Primary:      ranking.Primary,
		Alternatives: ranking.Alternatives,
		Snapshot:     snapshot,
		GeneratedAt:  now,
		Source:       domain.SourceEstimate,
	}
}

// fire runs the pending burst of s. It is the debouncer callback.
func (e *Engine) fire(s *session) {
	e.mu.Lock()
	b := s.pending
	s.pending = nil
	if b == nil {
		e.mu.Unlock()
		return
	}
	e.generation++
	gen := e.generation
	s.issued = gen
	s.running = true
	breaker := s.breaker
	e.mu.Unlock()

	ctx := context.Background()
	start := time.Now()
	out, err := e.run(ctx, breaker, s.userID, b.tasks)
	e.metrics.Timing(observability.MetricRecommendDuration, time.Since(start))
	e.metrics.Counter(observability.MetricRecommendRuns, 1)

	stored := false
	if err == nil && out.result != nil && !out.cached && !e.superseded(s, gen) {
		if err := e.cache.Set(ctx, s.userID, out.result, out.fingerprint, cache.VariantAdvanced, 0); err != nil {
			e.logger.Warn("failed to cache recommendation", "user_id", s.userID, "error", err)
		} else {
			stored = true
		}
	}

	e.mu.Lock()
	s.running = false
	superseded := gen != s.issued
	switch {
	case superseded:
		e.metrics.Counter(observability.MetricRecommendDiscarded, 1)
		e.logger.Debug("discarding superseded recommendation run",
			"user_id", s.userID,
			"generation", gen,
			"latest_generation", s.issued,
		)
		b.result = fallback(s)
	case err != nil:
		if !s.degraded {
			e.metrics.Counter(observability.MetricRecommendDegraded, 1)
		}
		s.degraded = true
		e.logger.Warn("recommendation run failed, serving fallback",
			"user_id", s.userID,
			"generation", gen,
			"error", err,
		)
		b.result = fallback(s)
	default:
		s.degraded = false
		s.latest = out.result
		b.result = out.result
	}
	e.mu.Unlock()

	// An Invalidate that landed while the entry was written must win.
	if superseded && stored {
		if err := e.cache.Invalidate(ctx, s.userID, cache.VariantAdvanced); err != nil {
			e.logger.Warn("failed to drop superseded recommendation", "user_id", s.userID, "error", err)
		}
	}
	close(b.done)
}

func (e *Engine) superseded(s *session, gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return gen != s.issued
}

// fallback must be called with mu held.
func fallback(s *session) *domain.Result {
	if s.latest != nil {
		return s.latest
	}
	return s.estimate
}

// run executes one authoritative computation behind the user's circuit
// breaker. A nil breaker runs the computation directly.
func (e *Engine) run(ctx context.Context, breaker *gobreaker.CircuitBreaker[outcome], userID string, tasks []domain.TaskRef) (outcome, error) {
	if breaker == nil {
		return e.compute(ctx, userID, tasks)
	}
	out, err := breaker.Execute(func() (outcome, error) {
		return e.compute(ctx, userID, tasks)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return outcome{}, fmt.Errorf("recommendation breaker: %w", err)
	}
	return out, err
}

func (e *Engine) compute(ctx context.Context, userID string, tasks []domain.TaskRef) (out outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = outcome{}
			err = fmt.Errorf("recommendation run panicked: %v", r)
		}
	}()

	now := e.now()
	snapshot := e.snapshots.Build(ctx, userID, now)
	fingerprint := cache.Fingerprint(snapshot, tasks)

	if entry, ok := e.cache.GetFresh(ctx, userID, cache.VariantAdvanced, fingerprint); ok {
		if cached, ok := entry.Result(); ok {
			e.metrics.Counter(observability.MetricRecommendCacheHits, 1)
			return outcome{result: cached.WithSource(domain.SourceCache), fingerprint: fingerprint, cached: true}, nil
		}
	}
	e.metrics.Counter(observability.MetricRecommendCacheMisses, 1)

	scored, failures := e.scoreAll(ctx, e.scorer, tasks, snapshot)
	ranking := services.Rank(scored, e.config.Alternatives)
	if ranking == nil {
		if failures == 0 {
			// Every task was rejected as invalid input: nothing to recommend.
			return outcome{fingerprint: fingerprint}, nil
		}
		return outcome{}, errNothingScored
	}

	return outcome{
		result: &domain.Result{
			Primary:      ranking.Primary,
			Alternatives: ranking.Alternatives,
			Snapshot:     snapshot,
			GeneratedAt:  now,
			Source:       domain.SourceComputed,
		},
		fingerprint: fingerprint,
	}, nil
}

// scoreAll drops tasks whose scoring fails or panics. failures counts the
// drops that were not caused by invalid task input.
func (e *Engine) scoreAll(ctx context.Context, scorer services.Scorer, tasks []domain.TaskRef, snapshot domain.ContextSnapshot) (scored []domain.ScoredTask, failures int) {
	scored = make([]domain.ScoredTask, 0, len(tasks))
	for _, task := range tasks {
		st, err := scoreOne(scorer, task, snapshot)
		if err != nil {
			e.metrics.Counter(observability.MetricRecommendTaskErrors, 1)
			e.logger.WarnContext(ctx, "dropping task from ranking",
				"task_id", task.ID,
				"error", err,
			)
			if !errors.Is(err, domain.ErrInvalidTask) {
				failures++
			}
			continue
		}
		scored = append(scored, st)
	}
	return scored, failures
}

func scoreOne(scorer services.Scorer, task domain.TaskRef, snapshot domain.ContextSnapshot) (st domain.ScoredTask, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &domain.ComputationError{TaskID: task.ID, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	return scorer.Score(task, snapshot)
}

// Analyze returns the basic analysis of tasks, served from the cache while
// the inputs are unchanged.
func (e *Engine) Analyze(ctx context.Context, tasks []domain.TaskRef, userID string) *domain.Analysis {
	e.mu.Lock()
	eligible := e.eligible(e.sessionFor(userID), tasks)
	e.mu.Unlock()

	snapshot := e.snapshots.Build(ctx, userID, e.now())
	fingerprint := cache.Fingerprint(snapshot, tasks)
	if entry, ok := e.cache.GetFresh(ctx, userID, cache.VariantBasic, fingerprint); ok {
		if cached, ok := entry.Analysis(); ok {
			return cached
		}
	}

	analysis := services.Analyze(tasks, eligible, snapshot)
	if err := e.cache.Set(ctx, userID, &analysis, fingerprint, cache.VariantBasic, 0); err != nil {
		e.logger.WarnContext(ctx, "failed to cache analysis", "user_id", userID, "error", err)
	}
	return &analysis
}

// Invalidate drops cached payloads for userID and supersedes any run that
// is in flight for that user.
func (e *Engine) Invalidate(ctx context.Context, userID string, variants ...cache.Variant) {
	e.mu.Lock()
	s := e.sessionFor(userID)
	e.generation++
	s.issued = e.generation
	e.mu.Unlock()

	if err := e.cache.Invalidate(ctx, userID, variants...); err != nil {
		e.logger.WarnContext(ctx, "cache invalidation failed", "user_id", userID, "error", err)
	}
}

// RecordAction applies a user action to the session. Skipped tasks leave
// the eligible set for the rest of the session; accepting or skipping a
// task invalidates the user's cache.
func (e *Engine) RecordAction(ctx context.Context, event domain.ActionEvent) {
	e.metrics.Counter(observability.MetricRecommendActions, 1, observability.T("action", string(event.Action)))

	switch event.Action {
	case domain.ActionSkipped:
		e.mu.Lock()
		e.sessionFor(event.UserID).skipped[event.TaskID] = struct{}{}
		e.mu.Unlock()
		e.Invalidate(ctx, event.UserID)
	case domain.ActionAccepted:
		e.Invalidate(ctx, event.UserID)
	case domain.ActionFeedbackPositive, domain.ActionFeedbackNegative:
	}
}

// ClearSkips empties the session skip-list of userID.
func (e *Engine) ClearSkips(userID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.sessions[userID]; ok {
		s.skipped = make(map[string]struct{})
	}
}

// Skipped returns the ids on the session skip-list of userID.
func (e *Engine) Skipped(userID string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[userID]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(s.skipped))
	for id := range s.skipped {
		ids = append(ids, id)
	}
	return ids
}

// IsDegraded reports whether the last authoritative run for userID failed.
func (e *Engine) IsDegraded(userID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[userID]
	return ok && s.degraded
}

// Latest returns the last published authoritative result for userID.
func (e *Engine) Latest(userID string) *domain.Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.sessions[userID]; ok {
		return s.latest
	}
	return nil
}

// CacheStats reports the engine cache statistics.
func (e *Engine) CacheStats(ctx context.Context) cache.Stats {
	return e.cache.Stats(ctx)
}

// CleanupCache removes expired cache entries and returns how many went.
// Sessions idle for longer than the configured TTL are evicted as well.
func (e *Engine) CleanupCache(ctx context.Context) (int, error) {
	if evicted := e.evictIdleSessions(); evicted > 0 {
		e.logger.DebugContext(ctx, "evicted idle sessions", "count", evicted)
	}
	return e.cache.Cleanup(ctx)
}

// Sessions returns the number of live user sessions.
func (e *Engine) Sessions() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sessions)
}

func (e *Engine) evictIdleSessions() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	cutoff := e.now().Add(-e.config.SessionIdleTTL)
	evicted := 0
	for id, s := range e.sessions {
		if s.pending != nil || s.running || !s.lastSeen.Before(cutoff) {
			continue
		}
		s.debouncer.Cancel()
		delete(e.sessions, id)
		evicted++
	}
	e.metrics.Gauge(observability.MetricRecommendSessions, float64(len(e.sessions)))
	return evicted
}

// Close cancels pending runs. Waiting callers receive the fallback result.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	for _, s := range e.sessions {
		e.releasePending(s, fallback(s))
	}
}
