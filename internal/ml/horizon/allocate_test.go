package horizon

import (
	"testing"
	"time"

	"github.com/optimatime/optimatime/internal/domain"
)

func day(offset int) time.Time {
	return time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func TestAllocateBalancesLoadAcrossDays(t *testing.T) {
	horizonDates := []time.Time{day(0), day(1), day(2)}
	farDeadline := day(6)
	tasks := []domain.Task{
		{ID: "t1", Duration: 60 * time.Minute, Deadline: farDeadline, Importance: domain.ImportanceMedium},
		{ID: "t2", Duration: 60 * time.Minute, Deadline: farDeadline, Importance: domain.ImportanceMedium},
	}
	existing := map[string]int{dayKey(day(0)): 500} // day 0 already heavily loaded

	result := Allocate(tasks, horizonDates, day(0), existing, 8, 18)
	if len(result.Unscheduled) != 0 {
		t.Fatalf("expected no unscheduled tasks, got %v", result.Unscheduled)
	}
	if len(result.TasksByDay[dayKey(day(0))]) > 0 {
		t.Errorf("expected day 0 (heavily loaded) to receive no new tasks, got %d", len(result.TasksByDay[dayKey(day(0))]))
	}
}

func TestAllocateDeadlineOutsideHorizonIsUnscheduled(t *testing.T) {
	horizonDates := []time.Time{day(0), day(1)}
	tasks := []domain.Task{
		// Deadline already in the past relative to every horizon day: no
		// candidate day can come at or before it.
		{ID: "t1", Duration: 30 * time.Minute, Deadline: day(-1), Importance: domain.ImportanceHigh},
	}
	result := Allocate(tasks, horizonDates, day(0), map[string]int{}, 8, 18)
	if reason, ok := result.Unscheduled["t1"]; !ok || reason != "Deadline outside horizon" {
		t.Errorf("expected t1 unscheduled with horizon reason, got %v", result.Unscheduled)
	}
}

func TestAllocateEmptyHorizonUnschedulesAll(t *testing.T) {
	tasks := []domain.Task{
		{ID: "t1", Duration: 30 * time.Minute, Deadline: day(1), Importance: domain.ImportanceHigh},
	}
	result := Allocate(tasks, nil, day(0), map[string]int{}, 8, 18)
	if len(result.Unscheduled) != 1 {
		t.Fatalf("expected 1 unscheduled task, got %d", len(result.Unscheduled))
	}
}

func TestAllocateUrgentTaskPrefersImmediateDay(t *testing.T) {
	horizonDates := []time.Time{day(0), day(1), day(2)}
	tasks := []domain.Task{
		{ID: "urgent", Duration: 30 * time.Minute, Deadline: day(0).Add(20 * time.Hour), Importance: domain.ImportanceHigh},
	}
	result := Allocate(tasks, horizonDates, day(0), map[string]int{}, 8, 18)
	if len(result.TasksByDay[dayKey(day(0))]) != 1 {
		t.Errorf("expected urgent task assigned to day 0, got distribution %v", result.TasksByDay)
	}
}
