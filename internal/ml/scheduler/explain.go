package scheduler

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/optimatime/optimatime/internal/domain"
)

// featureLabels maps a Feature Encoder index to the human phrase used when
// that feature shows up among the predictor's top features.
var featureLabels = map[int]string{
	0: "user profile affinity",
	1: "shorter duration",
	2: "deadline proximity",
	3: "task importance",
	4: "task category",
	5: "preferred time",
	6: "energy requirement",
	7: "day-of-week fit",
	8: "weekend/weekday context",
}

func partOfDay(t time.Time) string {
	h := t.Hour()
	switch {
	case h >= 6 && h < 12:
		return "morning"
	case h >= 12 && h < 18:
		return "afternoon"
	default:
		return "evening"
	}
}

func topFeaturePhrases(topFeatures []int) []string {
	var phrases []string
	for _, idx := range topFeatures {
		if label, ok := featureLabels[idx]; ok {
			phrases = append(phrases, label)
		}
	}
	return phrases
}

// ActiveConstraints are the scheduling facts the Explanation Builder
// narrates: whether the placement landed in the preferred window, whether
// it runs right up against the deadline, and whether few context-switches
// resulted.
type ActiveConstraints struct {
	PreferredWindow bool
	DeadlineBinding bool
	LowConflicts    bool
}

// ExplanationInput carries everything GenerateExplanation needs to narrate
// a single placement.
type ExplanationInput struct {
	Task               domain.Task
	UserProfile        string
	Priority           float64
	Start, End         time.Time
	HoursUntilDeadline float64
	Constraints        ActiveConstraints
	TopFeatures        []int
	BiasReason         string
}

// GenerateExplanation assembles the structured, multi-sentence rationale
// for why a task was placed where it was.
func GenerateExplanation(in ExplanationInput) string {
	var parts []string

	switch in.Task.Importance {
	case domain.ImportanceHigh:
		parts = append(parts, "Marked as high importance.")
	case domain.ImportanceMedium:
		parts = append(parts, "Moderate importance, balanced with other tasks.")
	default:
		parts = append(parts, "Lower importance, scheduled after critical items.")
	}

	switch {
	case in.HoursUntilDeadline <= 4:
		parts = append(parts, "Deadline is imminent, so it was prioritized aggressively.")
	case in.HoursUntilDeadline <= 24:
		parts = append(parts, "Due within the day, elevated in the ranking.")
	case in.HoursUntilDeadline <= 72:
		parts = append(parts, "Due in a few days, kept near the middle of the day.")
	default:
		parts = append(parts, "Deadline is far out, giving flexibility.")
	}

	switch {
	case in.UserProfile == "student" && in.Task.Category == domain.CategoryStudy:
		parts = append(parts, "Study items boosted for your student profile.")
	case in.UserProfile == "worker" && (in.Task.Category == domain.CategoryWork || in.Task.Category == domain.CategoryMeeting):
		parts = append(parts, "Work/meeting tasks favored for a working profile.")
	case in.UserProfile == "entrepreneur" && (in.Task.Category == domain.CategoryWork || in.Task.Category == domain.CategoryAdmin):
		parts = append(parts, "Work/admin emphasized for entrepreneurial profile.")
	}

	scheduledPart := partOfDay(in.Start)
	if in.Task.Preferred != domain.PreferAnytime {
		if in.Constraints.PreferredWindow {
			parts = append(parts, fmt.Sprintf("Placed in the %s to match your preferred window.", scheduledPart))
		} else {
			parts = append(parts, fmt.Sprintf("Preferred %s but scheduled in the %s to satisfy constraints.", in.Task.Preferred, scheduledPart))
		}
	} else {
		parts = append(parts, fmt.Sprintf("Scheduled in the %s since no specific time preference was set.", scheduledPart))
	}

	if in.Constraints.DeadlineBinding {
		parts = append(parts, "Slot chosen to remain before the deadline.")
	}
	if in.Constraints.LowConflicts {
		parts = append(parts, "Position selected to reduce context switches.")
	}

	if phrases := topFeaturePhrases(in.TopFeatures); len(phrases) > 0 {
		parts = append(parts, "Key signals: "+strings.Join(phrases, ", ")+".")
	}

	if in.BiasReason != "" {
		parts = append(parts, in.BiasReason)
	}

	parts = append(parts, fmt.Sprintf("Learned priority score: %.1f (relative scale).", in.Priority))

	return strings.Join(parts, " ")
}

// ShortRationale builds the short, first-person companion explanation
// surfaced alongside the structured one (the "llm_explanation" field): a
// supplemented feature carried over from the predecessor system, not part
// of the structured explanation contract but not excluded by any Non-goal.
func ShortRationale(task domain.Task, start time.Time, userProfile string, priority float64, biasReason string) string {
	tail := biasReason
	if tail == "" {
		tail = "Kept preferences and deadline in mind."
	}
	return fmt.Sprintf("I placed '%s' at %s because you're a %s, priority %.1f. %s",
		task.Title, start.Format("15:04"), userProfile, priority, tail)
}

// topFeatureIndices returns the indices of the top n importances, sorted
// descending by weight, mirroring numpy's argsort(...)[::-1][:n].
func topFeatureIndices(importances []float64, n int) []int {
	if len(importances) == 0 {
		return nil
	}
	idx := make([]int, len(importances))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool { return importances[idx[i]] > importances[idx[j]] })
	if n > len(idx) {
		n = len(idx)
	}
	return idx[:n]
}

// modelConfidence sums the top-3 feature importances, or returns nil if no
// importances are available.
func modelConfidence(importances []float64) *float64 {
	if len(importances) == 0 {
		return nil
	}
	top := topFeatureIndices(importances, 3)
	sum := 0.0
	for _, i := range top {
		sum += importances[i]
	}
	return &sum
}
