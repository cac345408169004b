package scheduler

import (
	"testing"
	"time"

	"github.com/optimatime/optimatime/internal/domain"
	"github.com/optimatime/optimatime/internal/ml/feedback"
	"github.com/optimatime/optimatime/internal/ml/priority"
)

func mkTask(id, title string, duration time.Duration, deadline time.Time, imp domain.Importance) domain.Task {
	return domain.Task{
		ID:         id,
		Title:      title,
		Duration:   duration,
		Deadline:   deadline,
		Category:   domain.CategoryWork,
		Importance: imp,
		Preferred:  domain.PreferAnytime,
		Energy:     domain.EnergyMedium,
		Status:     domain.TaskPending,
	}
}

func TestScheduleDayPlacesNonOverlappingItems(t *testing.T) {
	planDate := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	deadline := planDate.Add(20 * time.Hour)
	tasks := []domain.Task{
		mkTask("t1", "Write report", 90*time.Minute, deadline, domain.ImportanceHigh),
		mkTask("t2", "Review PRs", 60*time.Minute, deadline, domain.ImportanceMedium),
		mkTask("t3", "Plan sprint", 120*time.Minute, deadline, domain.ImportanceLow),
	}

	result := ScheduleDay(tasks, "worker", planDate, priority.NewLinearPredictor(), feedback.Result{Bias: domain.BiasMap{}}, 8, 18, nil)

	if len(result.Scheduled) == 0 {
		t.Fatal("expected at least one scheduled item")
	}
	for i := 0; i < len(result.Scheduled); i++ {
		for j := i + 1; j < len(result.Scheduled); j++ {
			a, b := result.Scheduled[i], result.Scheduled[j]
			if a.Start.Before(b.End) && b.Start.Before(a.End) {
				t.Errorf("items %s and %s overlap: [%s,%s) vs [%s,%s)", a.TaskID, b.TaskID, a.Start, a.End, b.Start, b.End)
			}
		}
	}
}

func TestScheduleDayRespectsDeadline(t *testing.T) {
	planDate := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	tightDeadline := planDate.Add(9 * time.Hour) // 09:00
	tasks := []domain.Task{
		mkTask("t1", "Urgent", 30*time.Minute, tightDeadline, domain.ImportanceHigh),
	}

	result := ScheduleDay(tasks, "worker", planDate, priority.NewLinearPredictor(), feedback.Result{Bias: domain.BiasMap{}}, 8, 18, nil)
	if len(result.Scheduled) != 1 {
		t.Fatalf("expected 1 scheduled item, got %d", len(result.Scheduled))
	}
	if !result.Scheduled[0].End.Before(tightDeadline.Add(time.Second)) {
		t.Errorf("item ends at %s, which is not before the deadline %s", result.Scheduled[0].End, tightDeadline)
	}
}

func TestScheduleDayTooLongForDayIsUnscheduled(t *testing.T) {
	planDate := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	tasks := []domain.Task{
		mkTask("t1", "Marathon", 20*time.Hour, planDate.Add(40*time.Hour), domain.ImportanceMedium),
	}
	result := ScheduleDay(tasks, "worker", planDate, priority.NewLinearPredictor(), feedback.Result{Bias: domain.BiasMap{}}, 8, 18, nil)
	if len(result.Scheduled) != 0 {
		t.Fatalf("expected 0 scheduled, got %d", len(result.Scheduled))
	}
	if len(result.Unscheduled) != 1 || result.Unscheduled[0].Reason != "Duration exceeds available day length" {
		t.Fatalf("unexpected unscheduled result: %+v", result.Unscheduled)
	}
}

func TestScheduleDayHonoursOccupiedIntervals(t *testing.T) {
	planDate := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	deadline := planDate.Add(20 * time.Hour)
	occupied := [][2]time.Time{
		{time.Date(2026, 8, 3, 8, 0, 0, 0, time.UTC), time.Date(2026, 8, 3, 17, 30, 0, 0, time.UTC)},
	}
	tasks := []domain.Task{
		mkTask("t1", "Squeeze in", 30*time.Minute, deadline, domain.ImportanceMedium),
	}
	result := ScheduleDay(tasks, "worker", planDate, priority.NewLinearPredictor(), feedback.Result{Bias: domain.BiasMap{}}, 8, 18, occupied)
	if len(result.Scheduled) != 1 {
		t.Fatalf("expected the task to fit in the remaining 30 minutes, got %d scheduled", len(result.Scheduled))
	}
	if !result.Scheduled[0].Start.Equal(time.Date(2026, 8, 3, 17, 30, 0, 0, time.UTC)) {
		t.Errorf("expected placement at 17:30, got %s", result.Scheduled[0].Start)
	}
}

func TestScheduleDayNoWorkingHoursUnschedulesEverything(t *testing.T) {
	planDate := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	tasks := []domain.Task{
		mkTask("t1", "Anything", 30*time.Minute, planDate.Add(10*time.Hour), domain.ImportanceLow),
	}
	result := ScheduleDay(tasks, "worker", planDate, priority.NewLinearPredictor(), feedback.Result{Bias: domain.BiasMap{}}, 9, 9, nil)
	if len(result.Unscheduled) != 1 || result.Unscheduled[0].Reason != "No working hours configured for this day" {
		t.Fatalf("unexpected result: %+v", result)
	}
}
