package services

import "github.com/felixgeelhaar/nextup/internal/recommendation/domain"

const (
	quickUrgencyWeight  = 0.4
	quickDeadlineWeight = 0.3
	quickEnergyWeight   = 0.3

	quickEnergyMatch    = 100
	quickEnergyMismatch = 50
)

// QuickScorer is the lightweight three-term scorer used for estimates.
type QuickScorer struct{}

// Score implements Scorer.
func (QuickScorer) Score(task domain.TaskRef, snapshot domain.ContextSnapshot) (domain.ScoredTask, error) {
	return QuickScore(task, snapshot)
}

// QuickScore combines urgency, deadline proximity and energy match. Missing
// urgency or deadline contribute 0. Confidence and success probability both
// equal the final score.
func QuickScore(task domain.TaskRef, snapshot domain.ContextSnapshot) (domain.ScoredTask, error) {
	if err := validateForScoring(task); err != nil {
		return domain.ScoredTask{}, err
	}

	factors := make([]domain.Factor, 0, 3)
	var urgency, deadline float64
	if f, ok := urgencyFactor(task); ok {
		urgency = f.Weight
		factors = append(factors, f)
	}
	if f, _, ok := deadlineFactor(task, snapshot); ok {
		deadline = f.Weight
		factors = append(factors, f)
	}
	energyFit := energyFactor(task, snapshot)
	factors = append(factors, energyFit)

	energy := float64(quickEnergyMismatch)
	if energyFit.Type == domain.FactorPositive {
		energy = quickEnergyMatch
	}

	score := round2(clampScore(urgency*quickUrgencyWeight + deadline*quickDeadlineWeight + energy*quickEnergyWeight))
	return domain.ScoredTask{
		Task:               task,
		Factors:            factors,
		Confidence:         score,
		SuccessProbability: score,
		FinalScore:         score,
	}, nil
}
