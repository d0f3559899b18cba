package services

import (
	"time"

	"github.com/felixgeelhaar/nextup/internal/recommendation/domain"
)

// Analyze summarizes a task pool against a snapshot. Overdue and due-today
// counts are relative to the snapshot's capture time.
func Analyze(tasks []domain.TaskRef, eligible []domain.TaskRef, snapshot domain.ContextSnapshot) domain.Analysis {
	now := snapshot.CapturedAt
	analysis := domain.Analysis{
		TotalTasks:    len(tasks),
		EligibleTasks: len(eligible),
		ByPriority:    make(map[string]int),
		Snapshot:      snapshot,
		GeneratedAt:   now,
	}

	endOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	for _, task := range eligible {
		analysis.ByPriority[task.Priority.String()]++
		analysis.EstimatedMinutes += task.EstimatedMinutes()

		if task.DueDate == nil || now.IsZero() {
			continue
		}
		switch {
		case task.DueDate.Before(now):
			analysis.OverdueTasks++
		case task.DueDate.Before(endOfDay):
			analysis.DueTodayTasks++
		}
	}
	return analysis
}
