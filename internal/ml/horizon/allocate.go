// Package horizon implements the Horizon Allocator: it assigns each
// eligible task to one day within the rolling planning horizon before the
// Day Scheduler places it on that day's slots.
package horizon

import (
	"sort"
	"time"

	"github.com/optimatime/optimatime/internal/domain"
)

func importanceRank(imp domain.Importance) int {
	switch imp {
	case domain.ImportanceHigh:
		return 0
	case domain.ImportanceLow:
		return 2
	default:
		return 1
	}
}

// Result is the allocator's output: which tasks landed on which day, and
// why any task could not be placed on any horizon day at all.
type Result struct {
	TasksByDay  map[string][]domain.Task // key: day formatted as "2006-01-02"
	Unscheduled map[string]string        // task ID -> reason
}

func dayKey(d time.Time) string {
	return d.Format("2006-01-02")
}

// Allocate assigns each task to the best day in horizonDates, balancing
// existing load per day against deadline pressure. horizonDates must be in
// ascending order and each entry's time-of-day component is ignored (only
// the calendar date matters). existingMinutesByDay reflects time already
// committed to plan items prior to this run.
func Allocate(
	tasks []domain.Task,
	horizonDates []time.Time,
	planStartDate time.Time,
	existingMinutesByDay map[string]int,
	startHour, endHour int,
) Result {
	tasksByDay := map[string][]domain.Task{}
	assignedMinutes := map[string]int{}
	for _, d := range horizonDates {
		k := dayKey(d)
		tasksByDay[k] = nil
		assignedMinutes[k] = 0
	}
	unscheduled := map[string]string{}

	if len(horizonDates) == 0 {
		for _, t := range tasks {
			unscheduled[t.ID] = "Deadline outside horizon"
		}
		return Result{TasksByDay: tasksByDay, Unscheduled: unscheduled}
	}

	dayCapacityMinutes := (endHour - startHour) * 60
	if dayCapacityMinutes < 1 {
		dayCapacityMinutes = 1
	}

	sorted := make([]domain.Task, len(tasks))
	copy(sorted, tasks)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Deadline.Equal(sorted[j].Deadline) {
			return sorted[i].Deadline.Before(sorted[j].Deadline)
		}
		return importanceRank(sorted[i].Importance) < importanceRank(sorted[j].Importance)
	})

	planStartDay := truncateToDay(planStartDate)

	for _, task := range sorted {
		deadlineDay := truncateToDay(task.Deadline)

		var candidates []time.Time
		for _, d := range horizonDates {
			if !truncateToDay(d).After(deadlineDay) {
				candidates = append(candidates, d)
			}
		}
		if len(candidates) == 0 {
			unscheduled[task.ID] = "Deadline outside horizon"
			continue
		}

		farDeadline := daysBetween(planStartDay, deadlineDay) >= 4

		var bestDay *time.Time
		bestScore := 0.0
		for i := range candidates {
			day := candidates[i]
			k := dayKey(day)
			dayLoadMinutes := existingMinutesByDay[k] + assignedMinutes[k]
			loadFraction := float64(dayLoadMinutes) / float64(dayCapacityMinutes)
			loadPenalty := loadFraction * loadFraction * 8.0

			daysUntilDeadline := daysBetween(truncateToDay(day), deadlineDay)
			if daysUntilDeadline < 0 {
				daysUntilDeadline = 0
			}
			deadlinePenalty := 0.0
			if daysUntilDeadline > 1 {
				deadlinePenalty = float64(daysUntilDeadline) * 0.6
				if deadlinePenalty > 6.0 {
					deadlinePenalty = 6.0
				}
			}

			horizonOffset := daysBetween(planStartDay, truncateToDay(day))
			earlyIfFarPenalty := 0.0
			if farDeadline && horizonOffset <= 1 {
				earlyIfFarPenalty = 2.5
			}

			score := loadPenalty + deadlinePenalty + earlyIfFarPenalty

			switch {
			case bestDay == nil || score < bestScore:
				bestScore = score
				d := day
				bestDay = &d
			case score == bestScore:
				if farDeadline {
					if day.After(*bestDay) {
						d := day
						bestDay = &d
					}
				} else if day.Before(*bestDay) {
					d := day
					bestDay = &d
				}
			}
		}

		if bestDay == nil {
			unscheduled[task.ID] = "Deadline outside horizon"
			continue
		}

		k := dayKey(*bestDay)
		tasksByDay[k] = append(tasksByDay[k], task)
		assignedMinutes[k] += task.DurationMinutes()
	}

	return Result{TasksByDay: tasksByDay, Unscheduled: unscheduled}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
