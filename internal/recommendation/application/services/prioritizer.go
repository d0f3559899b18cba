package services

import (
	"sort"

	"github.com/felixgeelhaar/nextup/internal/recommendation/domain"
)

// DefaultAlternatives is the number of runner-up tasks returned with a pick.
const DefaultAlternatives = 2

// Ranking is the outcome of prioritization.
type Ranking struct {
	Primary      domain.ScoredTask
	Alternatives []domain.ScoredTask
}

// Rank orders scored tasks by final score, then earlier due date (tasks
// without a due date last), then higher priority, then input order. It
// returns nil for empty input. A negative alternatives count uses
// DefaultAlternatives.
func Rank(scored []domain.ScoredTask, alternatives int) *Ranking {
	if len(scored) == 0 {
		return nil
	}
	if alternatives < 0 {
		alternatives = DefaultAlternatives
	}

	ordered := make([]domain.ScoredTask, len(scored))
	copy(ordered, scored)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ranksBefore(ordered[i], ordered[j])
	})

	end := 1 + alternatives
	if end > len(ordered) {
		end = len(ordered)
	}
	alts := make([]domain.ScoredTask, 0, end-1)
	alts = append(alts, ordered[1:end]...)

	return &Ranking{
		Primary:      ordered[0],
		Alternatives: alts,
	}
}

func ranksBefore(a, b domain.ScoredTask) bool {
	if a.FinalScore != b.FinalScore {
		return a.FinalScore > b.FinalScore
	}

	aDue, bDue := a.Task.DueDate, b.Task.DueDate
	switch {
	case aDue != nil && bDue == nil:
		return true
	case aDue == nil && bDue != nil:
		return false
	case aDue != nil && bDue != nil && !aDue.Equal(*bDue):
		return aDue.Before(*bDue)
	}

	return a.Task.Priority.Weight() > b.Task.Priority.Weight()
}
