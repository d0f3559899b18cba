package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixgeelhaar/nextup/internal/recommendation/domain"
	"github.com/felixgeelhaar/nextup/internal/recommendation/infrastructure/filesource"
	"github.com/felixgeelhaar/nextup/internal/recommendation/infrastructure/persistence"
	"github.com/felixgeelhaar/nextup/pkg/config"
	"github.com/felixgeelhaar/nextup/pkg/observability"
)

// TaskWriter stores tasks in a writable task source.
type TaskWriter interface {
	SaveTask(ctx context.Context, userID string, task domain.TaskRef) error
}

// SourceFactory creates the task source selected by configuration.
type SourceFactory struct {
	kind     string
	file     string
	sqliteDB *sql.DB
	pool     *pgxpool.Pool
}

// NewSourceFactory creates a factory. pool may be nil unless the postgres
// source is selected.
func NewSourceFactory(cfg *config.Config, sqliteDB *sql.DB, pool *pgxpool.Pool) *SourceFactory {
	return &SourceFactory{
		kind:     cfg.TaskSource,
		file:     cfg.TasksFile,
		sqliteDB: sqliteDB,
		pool:     pool,
	}
}

// TaskSource returns the reader for the configured source.
func (f *SourceFactory) TaskSource() (domain.TaskSource, error) {
	switch f.kind {
	case config.TaskSourceFile:
		return filesource.NewYAMLTaskSource(f.file), nil
	case config.TaskSourceSQLite:
		return persistence.NewSQLiteTaskSource(f.sqliteDB), nil
	case config.TaskSourcePostgres:
		if f.pool == nil {
			return nil, fmt.Errorf("postgres task source requires a connection pool")
		}
		return persistence.NewPostgresTaskSource(f.pool), nil
	default:
		return nil, fmt.Errorf("unsupported task source: %s", f.kind)
	}
}

// TaskWriter returns the database the import command writes to. Task files
// are read-only, so file mode imports into the local SQLite store.
func (f *SourceFactory) TaskWriter() TaskWriter {
	if f.kind == config.TaskSourcePostgres && f.pool != nil {
		return persistence.NewPostgresTaskSource(f.pool)
	}
	return persistence.NewSQLiteTaskSource(f.sqliteDB)
}

// instrumentedSource records how many tasks each listing returned.
type instrumentedSource struct {
	next    domain.TaskSource
	kind    string
	metrics observability.Metrics
}

func (s *instrumentedSource) ListTasks(ctx context.Context, userID string) ([]domain.TaskRef, error) {
	start := time.Now()
	tasks, err := s.next.ListTasks(ctx, userID)

	tags := []observability.Tag{observability.T("source", s.kind)}
	s.metrics.Timing(observability.MetricOperationDuration, time.Since(start),
		append(tags, observability.T(observability.OperationKey, "tasks.list"))...)
	if err != nil {
		s.metrics.Counter(observability.MetricOperationErrors, 1,
			append(tags, observability.T(observability.OperationKey, "tasks.list"))...)
		return nil, err
	}
	s.metrics.Gauge(observability.MetricTasksLoaded, float64(len(tasks)), tags...)
	return tasks, nil
}
