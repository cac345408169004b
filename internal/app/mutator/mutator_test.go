package mutator

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/optimatime/optimatime/internal/domain"
)

func seedPlanWithItem(store *fakeStore, userID string, planDate time.Time, start, end time.Time) (domain.Plan, domain.PlanItem, domain.Task) {
	task := domain.Task{
		ID:         uuid.NewString(),
		OwnerID:    userID,
		Title:      "Write report",
		Duration:   end.Sub(start),
		Deadline:   planDate.Add(48 * time.Hour),
		Category:   domain.CategoryWork,
		Importance: domain.ImportanceHigh,
		Preferred:  domain.PreferAnytime,
		Energy:     domain.EnergyMedium,
		Status:     domain.TaskScheduled,
	}
	store.tasks[task.ID] = task

	plan := domain.Plan{
		ID:           uuid.NewString(),
		UserID:       userID,
		PlanDate:     planDate,
		ModelVersion: "priority_model_v1",
		Status:       domain.PlanGenerated,
		CreatedAt:    time.Now().UTC(),
	}
	store.plans[plan.ID] = plan
	store.byDate[planKey(userID, planDate)] = plan.ID

	item := domain.PlanItem{
		ID:       uuid.NewString(),
		PlanID:   plan.ID,
		TaskID:   task.ID,
		Start:    start,
		End:      end,
		Position: 0,
		Source:   domain.SourceAI,
	}
	store.items[plan.ID] = []domain.PlanItem{item}

	return plan, item, task
}

func TestMoveItemWithinSameDay(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	user := domain.AuthenticatedUser{ID: "u1"}
	planDate := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	_, item, _ := seedPlanWithItem(store, "u1", planDate, planDate.Add(9*time.Hour), planDate.Add(10*time.Hour))

	newStart := planDate.Add(14 * time.Hour)
	newEnd := planDate.Add(15 * time.Hour)
	result, err := svc.MoveItem(context.Background(), user, item.ID, newStart, newEnd)
	if err != nil {
		t.Fatalf("MoveItem() error: %v", err)
	}
	if !result.Item.Start.Equal(newStart) || !result.Item.End.Equal(newEnd) {
		t.Errorf("unexpected item times: %+v", result.Item)
	}
	if result.Item.Source != domain.SourceManual {
		t.Errorf("Source = %q, want manual", result.Item.Source)
	}
}

func TestMoveItemRejectsOverlap(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	user := domain.AuthenticatedUser{ID: "u1"}
	planDate := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	_, item1, _ := seedPlanWithItem(store, "u1", planDate, planDate.Add(9*time.Hour), planDate.Add(10*time.Hour))

	plan, err := store.GetPlanByID(context.Background(), item1.PlanID)
	if err != nil {
		t.Fatalf("GetPlanByID() error: %v", err)
	}
	secondTask := domain.Task{ID: uuid.NewString(), OwnerID: "u1", Title: "Other", Status: domain.TaskScheduled}
	store.tasks[secondTask.ID] = secondTask
	item2 := domain.PlanItem{
		ID:     uuid.NewString(),
		PlanID: plan.ID,
		TaskID: secondTask.ID,
		Start:  planDate.Add(13 * time.Hour),
		End:    planDate.Add(14 * time.Hour),
		Source: domain.SourceAI,
	}
	store.items[plan.ID] = append(store.items[plan.ID], item2)

	_, err = svc.MoveItem(context.Background(), user, item1.ID, planDate.Add(13*time.Hour+30*time.Minute), planDate.Add(14*time.Hour+30*time.Minute))
	if err == nil {
		t.Fatal("expected an overlap error, got nil")
	}
}

func TestMoveItemAcrossDaysCreatesTargetPlan(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	user := domain.AuthenticatedUser{ID: "u1"}
	planDate := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	_, item, _ := seedPlanWithItem(store, "u1", planDate, planDate.Add(9*time.Hour), planDate.Add(10*time.Hour))

	nextDay := planDate.AddDate(0, 0, 1)
	newStart := nextDay.Add(9 * time.Hour)
	newEnd := nextDay.Add(10 * time.Hour)

	result, err := svc.MoveItem(context.Background(), user, item.ID, newStart, newEnd)
	if err != nil {
		t.Fatalf("MoveItem() error: %v", err)
	}

	movedPlan, err := store.GetPlanByID(context.Background(), result.Item.PlanID)
	if err != nil {
		t.Fatalf("GetPlanByID() error: %v", err)
	}
	if !movedPlan.PlanDate.Equal(nextDay) {
		t.Errorf("expected item to move to plan dated %s, got %s", nextDay, movedPlan.PlanDate)
	}
}

func TestMoveItemRejectsEndBeforeStart(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	user := domain.AuthenticatedUser{ID: "u1"}
	planDate := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	_, item, _ := seedPlanWithItem(store, "u1", planDate, planDate.Add(9*time.Hour), planDate.Add(10*time.Hour))

	_, err := svc.MoveItem(context.Background(), user, item.ID, planDate.Add(10*time.Hour), planDate.Add(9*time.Hour))
	if err == nil {
		t.Fatal("expected an error for end before start")
	}
}

func TestMoveItemEarlierRecordsPositiveFeedback(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	user := domain.AuthenticatedUser{ID: "u1"}
	planDate := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	_, item, task := seedPlanWithItem(store, "u1", planDate, planDate.Add(14*time.Hour), planDate.Add(15*time.Hour))

	_, err := svc.MoveItem(context.Background(), user, item.ID, planDate.Add(9*time.Hour), planDate.Add(10*time.Hour))
	if err != nil {
		t.Fatalf("MoveItem() error: %v", err)
	}

	logs := store.feedback["u1"]
	if len(logs) != 1 {
		t.Fatalf("expected 1 feedback log, got %d", len(logs))
	}
	if logs[0].Outcome != 1 || logs[0].TaskID != task.ID {
		t.Errorf("unexpected feedback log: %+v", logs[0])
	}
}

func TestDeleteItemRevertsTaskToUnscheduledWhenNoSiblingsRemain(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	user := domain.AuthenticatedUser{ID: "u1"}
	planDate := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	_, item, task := seedPlanWithItem(store, "u1", planDate, planDate.Add(9*time.Hour), planDate.Add(10*time.Hour))

	if err := svc.DeleteItem(context.Background(), user, item.ID); err != nil {
		t.Fatalf("DeleteItem() error: %v", err)
	}

	got, err := store.GetTask(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("GetTask() error: %v", err)
	}
	if got.Status != domain.TaskUnscheduled {
		t.Errorf("Status = %q, want unscheduled", got.Status)
	}

	if _, err := store.GetPlanItem(context.Background(), item.ID); err != domain.ErrPlanItemNotFound {
		t.Errorf("expected item to be gone, got err %v", err)
	}
}

func TestDeleteItemRejectsOtherUsersPlan(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	planDate := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	_, item, _ := seedPlanWithItem(store, "u1", planDate, planDate.Add(9*time.Hour), planDate.Add(10*time.Hour))

	intruder := domain.AuthenticatedUser{ID: "u2"}
	if err := svc.DeleteItem(context.Background(), intruder, item.ID); err != domain.ErrPlanItemNotFound {
		t.Fatalf("expected ErrPlanItemNotFound, got %v", err)
	}
}
