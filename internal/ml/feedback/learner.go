// Package feedback converts a user's recent manual-edit history into
// additive bias terms the Day Scheduler applies on top of the
// predictor's raw score, plus a scalar strength gating how much weight the
// biases (and the scheduler's exploration) are given.
package feedback

import (
	"math"
	"time"

	"github.com/optimatime/optimatime/internal/domain"
)

// HalfLifeDays controls the exponential recency decay applied to each
// feedback sample: weight = exp(-age_days / HalfLifeDays).
const HalfLifeDays = 14.0

// StrengthSaturation is the total accumulated weight at which feedback
// strength saturates to 1.0.
const StrengthSaturation = 8.0

// Sample is one feedback record joined with the task it was recorded
// against. Samples whose task could not be resolved (e.g. the task was
// since deleted) are simply omitted by the caller — they carry no bias
// signal.
type Sample struct {
	Category   domain.Category
	Importance domain.Importance
	Preferred  domain.PreferredTime
	Energy     domain.Energy
	Outcome    int // +1 or -1
	CreatedAt  time.Time
}

// Result is the output of Learn: an additive bias per key and a strength
// in [0, 1] reflecting how much recent, weighty feedback exists.
type Result struct {
	Bias     domain.BiasMap
	Strength float64
}

// Learn builds bias terms from recent feedback samples, order-independent.
// An empty or nil input yields a zero result.
func Learn(samples []Sample, now time.Time) Result {
	if len(samples) == 0 {
		return Result{Bias: domain.BiasMap{}, Strength: 0}
	}

	totals := map[string]float64{}
	weights := map[string]float64{}
	totalWeight := 0.0

	for _, s := range samples {
		createdAt := s.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		ageDays := now.Sub(createdAt).Hours() / 24.0
		if ageDays < 0 {
			ageDays = 0
		}
		weight := math.Exp(-ageDays / HalfLifeDays)
		totalWeight += weight

		for _, key := range keysFor(s) {
			totals[key] += float64(s.Outcome) * weight
			weights[key] += weight
		}
	}

	strength := 0.0
	if totalWeight > 0 {
		strength = math.Min(1.0, totalWeight/StrengthSaturation)
	}

	bias := domain.BiasMap{}
	if strength > 0 {
		for key, total := range totals {
			w := weights[key]
			if w <= 0 {
				continue
			}
			avg := total / w
			bias[key] = 2.0 * avg * strength
		}
	}

	return Result{Bias: bias, Strength: strength}
}

func keysFor(s Sample) [3]string {
	return [3]string{
		domain.BiasKeyTypeImportance(s.Category, s.Importance),
		domain.BiasKeyPreferredTime(s.Preferred),
		domain.BiasKeyEnergy(s.Energy),
	}
}
