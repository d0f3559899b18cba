// Package filesource reads tasks from a YAML file on disk.
package filesource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/nextup/internal/recommendation/domain"
	"github.com/felixgeelhaar/nextup/internal/recommendation/domain/value_objects"
)

// ErrNoPath is returned when the source has no file configured.
var ErrNoPath = errors.New("task file path is empty")

// document is the on-disk layout:
//
//	tasks:
//	  - id: report
//	    title: Write report
//	    priority: urgent
//	    due_date: 2026-03-10T17:00:00Z
//	    estimated_minutes: 25
//	    tags: [work]
//	    user: alice
type document struct {
	Tasks []taskEntry `yaml:"tasks"`
}

type taskEntry struct {
	ID               string     `yaml:"id"`
	Title            string     `yaml:"title"`
	Status           string     `yaml:"status"`
	Priority         string     `yaml:"priority"`
	DueDate          *time.Time `yaml:"due_date"`
	EstimatedMinutes int        `yaml:"estimated_minutes"`
	Tags             []string   `yaml:"tags"`
	UpdatedAt        *time.Time `yaml:"updated_at"`
	// User restricts the task to one user; empty means every user sees it.
	User string `yaml:"user"`
}

// Task is a parsed file entry together with its owner.
type Task struct {
	domain.TaskRef
	User string
}

// ReadTasks parses a task document. Entries without updated_at get
// fallbackUpdated so edits to the file change the fingerprint.
func ReadTasks(r io.Reader, fallbackUpdated time.Time) ([]Task, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse task file: %w", err)
	}

	tasks := make([]Task, 0, len(doc.Tasks))
	seen := make(map[string]bool, len(doc.Tasks))
	for i, e := range doc.Tasks {
		task, err := e.toTaskRef(fallbackUpdated)
		if err != nil {
			return nil, fmt.Errorf("task #%d: %w", i+1, err)
		}
		if seen[task.ID] {
			return nil, fmt.Errorf("task #%d: duplicate id %q", i+1, task.ID)
		}
		seen[task.ID] = true
		tasks = append(tasks, Task{TaskRef: task, User: e.User})
	}
	return tasks, nil
}

func (e taskEntry) toTaskRef(fallbackUpdated time.Time) (domain.TaskRef, error) {
	priority, err := value_objects.ParsePriority(e.Priority)
	if err != nil {
		return domain.TaskRef{}, fmt.Errorf("%w: %q", err, e.Priority)
	}
	estimate, err := value_objects.DurationFromMinutes(e.EstimatedMinutes)
	if err != nil {
		return domain.TaskRef{}, fmt.Errorf("estimated_minutes %d: %w", e.EstimatedMinutes, err)
	}

	status, err := domain.ParseStatus(e.Status)
	if err != nil {
		return domain.TaskRef{}, err
	}

	updated := fallbackUpdated
	if e.UpdatedAt != nil {
		updated = *e.UpdatedAt
	}

	task := domain.TaskRef{
		ID:                e.ID,
		Title:             e.Title,
		Status:            status,
		Priority:          priority,
		DueDate:           e.DueDate,
		EstimatedDuration: estimate,
		Tags:              e.Tags,
		UpdatedAt:         updated.UTC(),
	}
	return task, task.Validate()
}

// YAMLTaskSource implements domain.TaskSource over a YAML file. The file is
// re-read whenever its modification time changes.
type YAMLTaskSource struct {
	path string

	mu      sync.Mutex
	modTime time.Time
	tasks   []Task
}

// NewYAMLTaskSource creates a task source reading path.
func NewYAMLTaskSource(path string) *YAMLTaskSource {
	return &YAMLTaskSource{path: path}
}

// Path returns the file the source reads.
func (s *YAMLTaskSource) Path() string {
	return s.path
}

// ListTasks returns the tasks visible to userID.
func (s *YAMLTaskSource) ListTasks(ctx context.Context, userID string) ([]domain.TaskRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	all, err := s.load()
	if err != nil {
		return nil, err
	}

	var tasks []domain.TaskRef
	for _, t := range all {
		if t.User == "" || t.User == userID {
			tasks = append(tasks, t.TaskRef)
		}
	}
	return tasks, nil
}

// All returns every task in the file regardless of owner.
func (s *YAMLTaskSource) All() ([]Task, error) {
	return s.load()
}

func (s *YAMLTaskSource) load() ([]Task, error) {
	if s.path == "" {
		return nil, ErrNoPath
	}

	path, info, err := resolveTaskFile(s.path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tasks != nil && info.ModTime().Equal(s.modTime) {
		return s.tasks, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open task file: %w", err)
	}
	defer f.Close()

	tasks, err := ReadTasks(f, info.ModTime())
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []Task{}
	}

	s.tasks = tasks
	s.modTime = info.ModTime()
	return tasks, nil
}

var _ domain.TaskSource = (*YAMLTaskSource)(nil)
