package domain

import "time"

// ScoredTask is a task with its explanation and aggregate scores.
// All scores are within [0,100].
type ScoredTask struct {
	Task               TaskRef  `json:"task"`
	Factors            []Factor `json:"factors"`
	Confidence         float64  `json:"confidence"`
	SuccessProbability float64  `json:"success_probability"`
	FinalScore         float64  `json:"final_score"`
}

// Factor returns the factor with the given id.
func (s ScoredTask) Factor(id string) (Factor, bool) {
	for _, f := range s.Factors {
		if f.ID == id {
			return f, true
		}
	}
	return Factor{}, false
}

// Source tells where a result came from.
type Source string

const (
	SourceEstimate Source = "estimate"
	SourceComputed Source = "computed"
	SourceCache    Source = "cache"
)

// Result is a recommendation: the best task plus ranked alternatives.
type Result struct {
	Primary      ScoredTask      `json:"primary"`
	Alternatives []ScoredTask    `json:"alternatives"`
	Snapshot     ContextSnapshot `json:"snapshot"`
	GeneratedAt  time.Time       `json:"generated_at"`
	Source       Source          `json:"source"`
}

// WithSource returns a copy of the result tagged with s.
func (r Result) WithSource(s Source) *Result {
	r.Source = s
	return &r
}

// Analysis is an aggregate view over a task pool.
type Analysis struct {
	TotalTasks       int             `json:"total_tasks"`
	EligibleTasks    int             `json:"eligible_tasks"`
	OverdueTasks     int             `json:"overdue_tasks"`
	DueTodayTasks    int             `json:"due_today_tasks"`
	ByPriority       map[string]int  `json:"by_priority"`
	EstimatedMinutes int             `json:"estimated_minutes"`
	Snapshot         ContextSnapshot `json:"snapshot"`
	GeneratedAt      time.Time       `json:"generated_at"`
}
