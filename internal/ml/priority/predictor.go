package priority

import "sync"

// Predictor scores an encoded feature vector. It mirrors domain.PriorityPredictor
// so the scheduler can depend on the domain interface while this package
// supplies the concrete implementation.
type Predictor interface {
	Predict(features []float64) float64
	Importances() []float64
}

// LinearPredictor is a deterministic weighted-sum stand-in for the external
// artifact. Weights are hand-derived from the same signal directions the
// original training data's expert-scoring function rewards: importance and
// deadline pressure dominate, followed by profile×category affinity,
// duration penalty, energy, and weekend/day-of-week adjustments. It always
// produces a score on roughly the 0-100 scale the predictor contract
// expects, and exposes a fixed Importances() vector so model_confidence and
// top_features are always available — no process ever runs without a
// working predictor.
type LinearPredictor struct {
	weights      [9]float64
	bias         float64
	importances  [9]float64
}

// NewLinearPredictor builds the default predictor. Its weight vector follows
// FeatureOrder: user_type, duration_minutes, hours_until_deadline,
// importance, task_type, preferred_time, energy, plan_day_of_week, is_weekend.
func NewLinearPredictor() *LinearPredictor {
	return &LinearPredictor{
		weights: [9]float64{
			0,      // user_type: affinity is handled as a nonlinear bonus below, not linearly
			-0.02,  // duration_minutes: small penalty for long tasks
			-0.35,  // hours_until_deadline: less urgent the further away
			12.5,   // importance: 0/1/2 → adds 0/12.5/25 on top of the bias
			0,      // task_type: no standalone linear weight, handled via affinity bonus
			0,      // preferred_time: no standalone linear weight
			2.5,    // energy: high energy tasks score a bit higher
			0,      // plan_day_of_week: no standalone linear weight
			-2.0,   // is_weekend: slight dampening baseline, category bonus added separately
		},
		bias: 22.0,
		importances: [9]float64{
			0.05, 0.08, 0.22, 0.35, 0.10, 0.06, 0.05, 0.03, 0.06,
		},
	}
}

// Predict returns a priority score on a 0-100 relative scale. features must
// be in FeatureOrder; a nil vector returns the bias term alone, and a
// shorter vector adds only the weights of the features it has, without the
// affinity bonus.
func (p *LinearPredictor) Predict(features []float64) float64 {
	score := p.bias
	for i := 0; i < len(features) && i < len(p.weights); i++ {
		score += p.weights[i] * features[i]
	}
	if len(features) >= 9 {
		score += affinityBonus(features)
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// Importances returns the fixed per-feature importance vector.
func (p *LinearPredictor) Importances() []float64 {
	out := make([]float64, len(p.importances))
	copy(out, p.importances[:])
	return out
}

// affinityBonus reproduces the non-linear profile/category/day interactions
// the original synthetic scorer rewards, which a pure linear weight vector
// cannot express on its own.
func affinityBonus(f []float64) float64 {
	userType := f[0]
	taskType := f[4]
	preferredTime := f[5]
	planDayOfWeek := f[7]
	isWeekend := f[8]

	bonus := 0.0
	switch {
	case userType == 0 && taskType == 0: // student + study
		bonus += 10
	case userType == 1 && (taskType == 1 || taskType == 2): // worker + work/meeting
		bonus += 10
	case userType == 2 && (taskType == 1 || taskType == 5): // entrepreneur + work/admin
		bonus += 10
	}

	if isWeekend == 1 {
		if taskType == 4 || taskType == 3 { // social/personal
			bonus += 8
		}
		if taskType == 1 || taskType == 0 { // work/study
			bonus -= 5
		}
	} else if taskType == 1 || taskType == 2 { // work/meeting on a weekday
		bonus += 6
	}

	if preferredTime == 0 && planDayOfWeek <= 2 { // morning, early week
		bonus += 3
	}
	if preferredTime == 2 && planDayOfWeek >= 3 { // evening, later week
		bonus += 2
	}

	return bonus
}

// ─── Process-global cached artifact ─────────────────────────────────────────
// The predictor is loaded once per process and cached; reload is explicit.

var (
	cacheMu  sync.RWMutex
	cached   Predictor
	loadOnce sync.Once
)

// Load returns the process-wide cached predictor, constructing it on first
// use. Safe for concurrent callers.
func Load() Predictor {
	loadOnce.Do(func() {
		cacheMu.Lock()
		cached = NewLinearPredictor()
		cacheMu.Unlock()
	})
	cacheMu.RLock()
	defer cacheMu.RUnlock()
	return cached
}

// Reload replaces the cached predictor with a freshly constructed one,
// regardless of whether Load has run before. Intended for operator-triggered
// model refreshes; the scheduler never calls this on its own.
func Reload() Predictor {
	// Mark the one-shot load as done so a later first Load keeps this one.
	loadOnce.Do(func() {})
	cacheMu.Lock()
	defer cacheMu.Unlock()
	cached = NewLinearPredictor()
	return cached
}
