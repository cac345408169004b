package scheduler

import (
	"hash/fnv"
	"math/rand"
	"sort"
	"time"

	"github.com/optimatime/optimatime/internal/domain"
	"github.com/optimatime/optimatime/internal/ml/feedback"
	"github.com/optimatime/optimatime/internal/ml/priority"
)

// ScheduledItem is one placement the Day Scheduler produced for a task.
type ScheduledItem struct {
	TaskID         string
	Title          string
	Start          time.Time
	End            time.Time
	Explanation    string
	LLMExplanation string
	Priority       float64
}

// DayScheduleResult is everything ScheduleDay returns: the placements, the
// tasks it could not place (with a reason each), and the predictor's
// confidence for this run (nil if the predictor has no feature importances).
type DayScheduleResult struct {
	Scheduled      []ScheduledItem
	Unscheduled    []domain.UnscheduledTask
	ModelConfidence *float64
}

// scoredTask is a task annotated with its computed priority and the bias
// rationale fragments that fed into it.
type scoredTask struct {
	task               domain.Task
	priority           float64
	hoursUntilDeadline float64
	bias               float64
	biasReasons        []string
}

// daySeed reproduces the predecessor's per-(date, profile) deterministic
// seed so the same inputs always explore the same candidates, while
// different days/users see independent randomness.
func daySeed(planDate time.Time, userProfile string) int64 {
	h := fnv.New32a()
	h.Write([]byte(planDate.Format("2006-01-02")))
	h.Write([]byte{'|'})
	h.Write([]byte(userProfile))
	return int64(h.Sum32() & 0xFFFFFFFF)
}

// ScheduleDay runs the Feature Encoder, Priority Predictor, and Feedback
// Learner to rank tasks, then the Placement Engine to place each one on the
// day's slots, then a local-improvement pass, then the Explanation Builder.
// occupiedIntervals marks time already taken by plan items from a prior run.
func ScheduleDay(
	tasks []domain.Task,
	userProfile string,
	planDate time.Time,
	predictor domain.PriorityPredictor,
	feedbackResult feedback.Result,
	startHour, endHour int,
	occupiedIntervals [][2]time.Time,
) DayScheduleResult {
	importances := predictor.Importances()
	topFeatures := topFeatureIndices(importances, 3)
	confidence := modelConfidence(importances)

	daySlots := BuildDaySlots(planDate, startHour, endHour)
	if len(daySlots) == 0 {
		unscheduled := make([]domain.UnscheduledTask, 0, len(tasks))
		for _, t := range tasks {
			unscheduled = append(unscheduled, domain.UnscheduledTask{Task: t, Reason: "No working hours configured for this day"})
		}
		return DayScheduleResult{Unscheduled: unscheduled, ModelConfidence: confidence}
	}
	nSlots := len(daySlots)

	occupied := make([]string, nSlots)
	ApplyOccupiedIntervals(occupied, daySlots, occupiedIntervals)

	planStart := daySlots[0]
	rng := rand.New(rand.NewSource(daySeed(planDate, userProfile)))

	scored := make([]scoredTask, 0, len(tasks))
	for _, t := range tasks {
		hoursUntilDeadline := 0.0
		if !t.Deadline.IsZero() {
			hoursUntilDeadline = t.Deadline.Sub(planStart).Hours()
		}
		if hoursUntilDeadline < 0 {
			hoursUntilDeadline = 0
		}

		features := priority.Encode(t, priority.Context{
			UserProfile: userProfile,
			PlanDate:    planDate,
			SlotStart:   planStart,
		})
		base := predictor.Predict(features)

		bias := 0.0
		var biasReasons []string
		typeKey := domain.BiasKeyTypeImportance(t.Category, t.Importance)
		if v, ok := feedbackResult.Bias[typeKey]; ok {
			bias += v
			biasReasons = append(biasReasons, string(t.Category)+" "+string(t.Importance))
		}
		prefKey := domain.BiasKeyPreferredTime(t.Preferred)
		if v, ok := feedbackResult.Bias[prefKey]; ok {
			bias += v
			if t.Preferred != domain.PreferAnytime {
				biasReasons = append(biasReasons, string(t.Preferred)+" time")
			} else {
				biasReasons = append(biasReasons, "time preference")
			}
		}
		energyKey := domain.BiasKeyEnergy(t.Energy)
		if v, ok := feedbackResult.Bias[energyKey]; ok {
			bias += v
			biasReasons = append(biasReasons, string(t.Energy)+" energy")
		}

		urgencyBoost := 0.0
		if hoursUntilDeadline < 48.0 {
			urgencyBoost = (48.0 - hoursUntilDeadline) / 48.0 * 1.5
			if hoursUntilDeadline < 24.0 {
				urgencyBoost += (24.0 - hoursUntilDeadline) / 24.0 * 1.5
			}
		}
		importanceBoost := 0.0
		if t.Importance == domain.ImportanceHigh {
			importanceBoost = 0.4
		}

		scored = append(scored, scoredTask{
			task:               t,
			priority:           base + bias + urgencyBoost + importanceBoost,
			hoursUntilDeadline: hoursUntilDeadline,
			bias:               bias,
			biasReasons:        biasReasons,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].priority > scored[j].priority })

	var scheduled []ScheduledItem
	var unscheduled []domain.UnscheduledTask
	assignments := map[string]*assignment{}
	var order []string

	for _, item := range scored {
		t := item.task
		requiredSlots := (t.DurationMinutes() + SlotMinutes - 1) / SlotMinutes

		if requiredSlots > nSlots {
			unscheduled = append(unscheduled, domain.UnscheduledTask{Task: t, Reason: "Duration exceeds available day length"})
			continue
		}

		dayHardClose := time.Date(planDate.Year(), planDate.Month(), planDate.Day(), endHour, 0, 0, 0, time.UTC)
		latestEnd := dayHardClose
		if !t.Deadline.IsZero() && t.Deadline.Before(latestEnd) {
			latestEnd = t.Deadline
		}

		prefStart, prefEnd := TimeWindowIndices(t.Preferred, nSlots, startHour, endHour)
		bestStart, ok := bestStartSlot(
			occupied, daySlots, requiredSlots, latestEnd,
			prefStart, prefEnd, t.Energy, t.DurationMinutes(),
			item.hoursUntilDeadline, feedbackResult.Strength, rng,
		)
		if !ok {
			unscheduled = append(unscheduled, domain.UnscheduledTask{Task: t, Reason: "No available slot before deadline/preference"})
			continue
		}

		for i := bestStart; i < bestStart+requiredSlots; i++ {
			occupied[i] = t.ID
		}

		startDt := daySlots[bestStart]
		endDt := startDt.Add(time.Duration(t.DurationMinutes()) * time.Minute)

		constraints := ActiveConstraints{
			PreferredWindow: bestStart >= prefStart && bestStart < prefEnd,
			DeadlineBinding: !t.Deadline.IsZero() && !endDt.Before(t.Deadline.Add(-time.Hour)),
			LowConflicts:    true,
		}

		biasText := ""
		if item.bias != 0 && len(biasReasonsJoined(item.biasReasons)) > 0 {
			direction := "later"
			if item.bias > 0 {
				direction = "earlier"
			}
			biasText = "Personalization: adjusted " + direction + " based on your feedback for " + biasReasonsJoined(item.biasReasons) + "."
		}

		explanation := GenerateExplanation(ExplanationInput{
			Task:               t,
			UserProfile:        userProfile,
			Priority:           item.priority,
			Start:              startDt,
			End:                endDt,
			HoursUntilDeadline: item.hoursUntilDeadline,
			Constraints:        constraints,
			TopFeatures:        topFeatures,
			BiasReason:         biasText,
		})
		llmExp := ShortRationale(t, startDt, userProfile, item.priority, biasText)

		scheduled = append(scheduled, ScheduledItem{
			TaskID:         t.ID,
			Title:          t.Title,
			Start:          startDt,
			End:            endDt,
			Explanation:    explanation,
			LLMExplanation: llmExp,
			Priority:       item.priority,
		})

		assignments[t.ID] = &assignment{
			taskID:             t.ID,
			startIdx:           bestStart,
			endIdx:             bestStart + requiredSlots,
			requiredSlots:      requiredSlots,
			latestEnd:          latestEnd,
			prefStart:          prefStart,
			prefEnd:            prefEnd,
			energy:             t.Energy,
			durationMinutes:    t.DurationMinutes(),
			hoursUntilDeadline: item.hoursUntilDeadline,
		}
		order = append(order, t.ID)
	}

	shiftEarlier(order, assignments, occupied, daySlots)

	for i := range scheduled {
		info, ok := assignments[scheduled[i].TaskID]
		if !ok {
			continue
		}
		scheduled[i].Start = daySlots[info.startIdx]
		scheduled[i].End = daySlots[info.endIdx-1].Add(SlotMinutes * time.Minute)
	}

	return DayScheduleResult{Scheduled: scheduled, Unscheduled: unscheduled, ModelConfidence: confidence}
}

func biasReasonsJoined(reasons []string) string {
	if len(reasons) == 0 {
		return ""
	}
	out := reasons[0]
	for _, r := range reasons[1:] {
		out += ", " + r
	}
	return out
}
