package services

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/nextup/internal/recommendation/domain"
	"github.com/felixgeelhaar/nextup/internal/recommendation/domain/value_objects"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var afternoon = time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

func snapshotAt(now time.Time, energy domain.EnergyLevel, pattern domain.WorkPattern) domain.ContextSnapshot {
	return BuildSnapshot(now, domain.WorkHistory{EnergyLevel: energy, WorkPattern: pattern})
}

func dueIn(now time.Time, d time.Duration) *time.Time {
	due := now.Add(d)
	return &due
}

func TestFullScore_UrgentBeatsMediumDueSoon(t *testing.T) {
	snapshot := snapshotAt(afternoon, domain.EnergyHigh, domain.WorkPatternInactive)
	a := domain.TaskRef{ID: "a", Status: domain.StatusPending, Priority: value_objects.PriorityUrgent}
	b := domain.TaskRef{ID: "b", Status: domain.StatusPending, Priority: value_objects.PriorityMedium, DueDate: dueIn(afternoon, 12*time.Hour)}

	scoredA, err := FullScore(a, snapshot, DefaultScoringConfig())
	require.NoError(t, err)
	scoredB, err := FullScore(b, snapshot, DefaultScoringConfig())
	require.NoError(t, err)

	urgency, ok := scoredA.Factor(domain.FactorUrgency)
	require.True(t, ok)
	assert.Equal(t, 100.0, urgency.Weight)

	deadline, ok := scoredB.Factor(domain.FactorDeadline)
	require.True(t, ok)
	assert.Equal(t, 85.0, deadline.Weight)
	assert.Equal(t, domain.FactorPositive, deadline.Type)

	bUrgency, _ := scoredB.Factor(domain.FactorUrgency)
	assert.Equal(t, 60.0, bUrgency.Weight)

	assert.Equal(t, 76.67, scoredA.Confidence)
	assert.Equal(t, 65.0, scoredA.SuccessProbability)
	assert.Equal(t, 72.0, scoredA.FinalScore)
	assert.Equal(t, 68.33, scoredB.Confidence)
	assert.Equal(t, 50.0, scoredB.SuccessProbability)
	assert.Equal(t, 61.0, scoredB.FinalScore)

	ranking := Rank([]domain.ScoredTask{scoredB, scoredA}, DefaultAlternatives)
	require.NotNil(t, ranking)
	assert.Equal(t, "a", ranking.Primary.Task.ID)
}

func TestFullScore_FactorRules(t *testing.T) {
	morning := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	night := time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)

	t.Run("deadline buckets", func(t *testing.T) {
		tests := []struct {
			name     string
			due      time.Duration
			weight   float64
			positive bool
		}{
			{"overdue", -30 * time.Hour, 90, true},
			{"twelve hours", 12 * time.Hour, 85, true},
			{"two days", 47 * time.Hour, 60, true},
			{"three days", 72 * time.Hour, 60, true},
			{"a week", 7 * 24 * time.Hour, 30, false},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				task := domain.TaskRef{ID: "t", DueDate: dueIn(afternoon, tt.due)}
				scored, err := FullScore(task, snapshotAt(afternoon, domain.EnergyMedium, domain.WorkPatternLow), DefaultScoringConfig())
				require.NoError(t, err)
				f, ok := scored.Factor(domain.FactorDeadline)
				require.True(t, ok)
				assert.Equal(t, tt.weight, f.Weight)
				if tt.positive {
					assert.Equal(t, domain.FactorPositive, f.Type)
				} else {
					assert.Equal(t, domain.FactorNeutral, f.Type)
				}
			})
		}
	})

	t.Run("missing fields omit factors", func(t *testing.T) {
		scored, err := FullScore(domain.TaskRef{ID: "bare"}, snapshotAt(afternoon, domain.EnergyMedium, domain.WorkPatternLow), DefaultScoringConfig())
		require.NoError(t, err)
		require.Len(t, scored.Factors, 1)
		assert.Equal(t, domain.FactorEnergyMatch, scored.Factors[0].ID)
		assert.Equal(t, domain.FactorNeutral, scored.Factors[0].Type)
		assert.Zero(t, scored.Confidence)
		assert.Equal(t, 50.0, scored.SuccessProbability)
		assert.Equal(t, 20.0, scored.FinalScore)
	})

	t.Run("low energy favors short tasks", func(t *testing.T) {
		task := domain.TaskRef{ID: "s", Priority: value_objects.PriorityLow, EstimatedDuration: value_objects.MustDurationFromMinutes(10)}
		scored, err := FullScore(task, snapshotAt(afternoon, domain.EnergyLow, domain.WorkPatternModerate), DefaultScoringConfig())
		require.NoError(t, err)

		energy, _ := scored.Factor(domain.FactorEnergyMatch)
		assert.Equal(t, 8.0, energy.Weight)
		assert.Equal(t, domain.FactorPositive, energy.Type)

		duration, _ := scored.Factor(domain.FactorDurationFit)
		assert.Equal(t, 12.0, duration.Weight)

		// 50 + 20 aligned + 10 short + 5 moderate
		assert.Equal(t, 85.0, scored.SuccessProbability)
	})

	t.Run("long task without high energy has no duration factor", func(t *testing.T) {
		task := domain.TaskRef{ID: "l", EstimatedDuration: value_objects.MustDurationFromMinutes(120)}
		scored, err := FullScore(task, snapshotAt(afternoon, domain.EnergyLow, domain.WorkPatternLow), DefaultScoringConfig())
		require.NoError(t, err)
		_, ok := scored.Factor(domain.FactorDurationFit)
		assert.False(t, ok)
		assert.Equal(t, 40.0, scored.SuccessProbability)

		scored, err = FullScore(task, snapshotAt(afternoon, domain.EnergyHigh, domain.WorkPatternLow), DefaultScoringConfig())
		require.NoError(t, err)
		f, ok := scored.Factor(domain.FactorDurationFit)
		require.True(t, ok)
		assert.Equal(t, 5.0, f.Weight)
	})

	t.Run("session timing", func(t *testing.T) {
		important := domain.TaskRef{ID: "i", Priority: value_objects.PriorityHigh}
		scored, err := FullScore(important, snapshotAt(morning, domain.EnergyMedium, domain.WorkPatternLow), DefaultScoringConfig())
		require.NoError(t, err)
		f, ok := scored.Factor(domain.FactorSessionTiming)
		require.True(t, ok)
		assert.Equal(t, 10.0, f.Weight)

		long := domain.TaskRef{ID: "n", Priority: value_objects.PriorityLow, EstimatedDuration: value_objects.MustDurationFromMinutes(90)}
		scored, err = FullScore(long, snapshotAt(night, domain.EnergyMedium, domain.WorkPatternLow), DefaultScoringConfig())
		require.NoError(t, err)
		f, ok = scored.Factor(domain.FactorSessionTiming)
		require.True(t, ok)
		assert.Equal(t, domain.FactorNegative, f.Type)
		assert.Equal(t, -10.0, f.Weight)
		assert.Equal(t, 20.0, scored.Confidence)

		short := domain.TaskRef{ID: "e", EstimatedDuration: value_objects.MustDurationFromMinutes(25)}
		scored, err = FullScore(short, snapshotAt(night, domain.EnergyMedium, domain.WorkPatternLow), DefaultScoringConfig())
		require.NoError(t, err)
		f, ok = scored.Factor(domain.FactorSessionTiming)
		require.True(t, ok)
		assert.Equal(t, 5.0, f.Weight)
	})

	t.Run("factor order", func(t *testing.T) {
		task := domain.TaskRef{
			ID:                "o",
			Priority:          value_objects.PriorityUrgent,
			DueDate:           dueIn(morning, time.Hour),
			EstimatedDuration: value_objects.MustDurationFromMinutes(15),
		}
		scored, err := FullScore(task, snapshotAt(morning, domain.EnergyHigh, domain.WorkPatternProductive), DefaultScoringConfig())
		require.NoError(t, err)

		ids := make([]string, 0, len(scored.Factors))
		for _, f := range scored.Factors {
			ids = append(ids, f.ID)
		}
		assert.Equal(t, []string{
			domain.FactorUrgency,
			domain.FactorDeadline,
			domain.FactorEnergyMatch,
			domain.FactorDurationFit,
			domain.FactorSessionTiming,
		}, ids)
		assert.Equal(t, 95.0, scored.SuccessProbability)
	})
}

func TestFullScore_InvalidTask(t *testing.T) {
	_, err := FullScore(domain.TaskRef{}, snapshotAt(afternoon, domain.EnergyMedium, domain.WorkPatternLow), DefaultScoringConfig())
	require.Error(t, err)

	var compErr *domain.ComputationError
	assert.ErrorAs(t, err, &compErr)
	assert.ErrorIs(t, err, domain.ErrInvalidTask)
}

func TestFullScore_InvalidConfig(t *testing.T) {
	cfg := DefaultScoringConfig()
	cfg.ConfidenceNormalizer = 0

	_, err := FullScore(domain.TaskRef{ID: "t"}, snapshotAt(afternoon, domain.EnergyMedium, domain.WorkPatternLow), cfg)
	assert.ErrorIs(t, err, ErrInvalidScoringConfig)
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidScoringConfig)
	assert.NoError(t, DefaultScoringConfig().Validate())
}

func allPriorities() []value_objects.Priority {
	return []value_objects.Priority{
		value_objects.PriorityNone,
		value_objects.PriorityLow,
		value_objects.PriorityMedium,
		value_objects.PriorityHigh,
		value_objects.PriorityUrgent,
	}
}

func scoringGrid() ([]domain.ContextSnapshot, []domain.TaskRef) {
	hours := []int{3, 8, 14, 20, 23}
	energies := []domain.EnergyLevel{domain.EnergyHigh, domain.EnergyMedium, domain.EnergyLow}
	patterns := []domain.WorkPattern{domain.WorkPatternProductive, domain.WorkPatternModerate, domain.WorkPatternLow, domain.WorkPatternInactive}

	var snapshots []domain.ContextSnapshot
	for _, h := range hours {
		now := time.Date(2026, 3, 14, h, 0, 0, 0, time.UTC)
		for _, e := range energies {
			for _, p := range patterns {
				snapshots = append(snapshots, snapshotAt(now, e, p))
			}
		}
	}

	dues := []*time.Duration{nil}
	for _, d := range []time.Duration{-48 * time.Hour, 2 * time.Hour, 30 * time.Hour, 60 * time.Hour, 200 * time.Hour} {
		d := d
		dues = append(dues, &d)
	}
	minutes := []int{0, 10, 20, 30, 45, 120, 480}

	var tasks []domain.TaskRef
	for _, pr := range allPriorities() {
		for _, due := range dues {
			for _, m := range minutes {
				task := domain.TaskRef{ID: "grid", Priority: pr, EstimatedDuration: value_objects.MustDurationFromMinutes(m)}
				if due != nil {
					task.DueDate = dueIn(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC), *due)
				}
				tasks = append(tasks, task)
			}
		}
	}
	return snapshots, tasks
}

func TestScorers_Bounds(t *testing.T) {
	snapshots, tasks := scoringGrid()
	scorers := map[string]Scorer{
		"full":  NewFullScorer(DefaultScoringConfig()),
		"quick": QuickScorer{},
	}

	for name, scorer := range scorers {
		for _, snapshot := range snapshots {
			for _, task := range tasks {
				scored, err := scorer.Score(task, snapshot)
				require.NoError(t, err)
				for _, v := range []float64{scored.Confidence, scored.SuccessProbability, scored.FinalScore} {
					if v < 0 || v > 100 {
						t.Fatalf("%s: score %v out of bounds for %+v at %+v", name, v, task, snapshot)
					}
				}
			}
		}
	}
}

func TestScorers_MonotoneInPriority(t *testing.T) {
	snapshots, tasks := scoringGrid()
	scorers := map[string]Scorer{
		"full":  NewFullScorer(DefaultScoringConfig()),
		"quick": QuickScorer{},
	}

	for name, scorer := range scorers {
		for _, snapshot := range snapshots {
			for _, task := range tasks {
				if task.Priority != value_objects.PriorityMedium {
					continue
				}
				raised := task
				raised.Priority = value_objects.PriorityUrgent

				before, err := scorer.Score(task, snapshot)
				require.NoError(t, err)
				after, err := scorer.Score(raised, snapshot)
				require.NoError(t, err)
				if after.FinalScore < before.FinalScore {
					t.Fatalf("%s: raising priority lowered score %v -> %v", name, before.FinalScore, after.FinalScore)
				}
			}
		}
	}
}

func TestScorers_Deterministic(t *testing.T) {
	snapshot := snapshotAt(afternoon, domain.EnergyHigh, domain.WorkPatternModerate)
	task := domain.TaskRef{ID: "d", Priority: value_objects.PriorityHigh, DueDate: dueIn(afternoon, 40*time.Hour)}

	first, err := FullScore(task, snapshot, DefaultScoringConfig())
	require.NoError(t, err)
	second, err := FullScore(task, snapshot, DefaultScoringConfig())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestQuickScore(t *testing.T) {
	snapshot := snapshotAt(afternoon, domain.EnergyHigh, domain.WorkPatternInactive)

	t.Run("urgent with energy match", func(t *testing.T) {
		scored, err := QuickScore(domain.TaskRef{ID: "a", Priority: value_objects.PriorityUrgent}, snapshot)
		require.NoError(t, err)
		assert.Equal(t, 70.0, scored.FinalScore)
		assert.Equal(t, scored.FinalScore, scored.Confidence)
		assert.Equal(t, scored.FinalScore, scored.SuccessProbability)
	})

	t.Run("medium due soon", func(t *testing.T) {
		task := domain.TaskRef{ID: "b", Priority: value_objects.PriorityMedium, DueDate: dueIn(afternoon, 12*time.Hour)}
		scored, err := QuickScore(task, snapshot)
		require.NoError(t, err)
		assert.Equal(t, 64.5, scored.FinalScore)
	})

	t.Run("nothing known", func(t *testing.T) {
		scored, err := QuickScore(domain.TaskRef{ID: "c"}, snapshot)
		require.NoError(t, err)
		assert.Equal(t, 15.0, scored.FinalScore)
	})

	t.Run("invalid task", func(t *testing.T) {
		_, err := QuickScore(domain.TaskRef{}, snapshot)
		assert.ErrorIs(t, err, domain.ErrInvalidTask)
	})
}
