// Package mutator implements manual edits to an already-generated plan:
// moving a plan item to a new time (possibly a different day) and removing
// one outright. Moving feeds the Feedback Learner by recording the direction
// of a user's manual time adjustment; removing records no feedback.
package mutator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/optimatime/optimatime/internal/domain"
)

const movedEarlierNote = "User manually adjusted schedule"

// Service mutates plan items directly, outside of a planning run.
type Service struct {
	store domain.PlanStore
}

// NewService builds a mutator backed by store.
func NewService(store domain.PlanStore) *Service {
	return &Service{store: store}
}

// MoveResult is what MoveItem returns after a successful move.
type MoveResult struct {
	Item domain.PlanItem
}

// MoveItem changes a plan item's start/end time, relocating it to a
// different day's plan if the new start falls on another calendar date. It
// rejects the move if the target window overlaps another item on that day,
// and records a feedback sample reflecting whether the user moved the task
// earlier or later than its previous placement.
func (s *Service) MoveItem(ctx context.Context, user domain.AuthenticatedUser, itemID string, start, end time.Time) (MoveResult, error) {
	start = domain.NormalizeToUTC(start)
	end = domain.NormalizeToUTC(end)
	if !end.After(start) {
		return MoveResult{}, fmt.Errorf("mutator: %w: end must be after start", domain.ErrInvalidDateRange)
	}

	item, err := s.store.GetPlanItem(ctx, itemID)
	if err != nil {
		return MoveResult{}, err
	}
	currentPlan, err := s.planOwnedBy(ctx, item.PlanID, user.ID)
	if err != nil {
		return MoveResult{}, err
	}

	originalStart := item.Start
	newPlanDate := truncateToDay(start)
	targetPlan := currentPlan

	if !truncateToDay(currentPlan.PlanDate).Equal(newPlanDate) {
		existing, err := s.store.GetPlan(ctx, user.ID, newPlanDate)
		if err == nil {
			targetPlan = *existing
		} else if err == domain.ErrPlanNotFound {
			targetPlan = domain.Plan{
				ID:           uuid.NewString(),
				UserID:       user.ID,
				PlanDate:     newPlanDate,
				ModelVersion: currentPlan.ModelVersion,
				Status:       domain.PlanAdjusted,
				CreatedAt:    time.Now().UTC(),
			}
		} else {
			return MoveResult{}, err
		}
	}

	siblings, err := s.store.PlanItems(ctx, targetPlan.ID)
	if err != nil {
		return MoveResult{}, fmt.Errorf("mutator: load target day items: %w", err)
	}
	sort.Slice(siblings, func(i, j int) bool { return siblings[i].Start.Before(siblings[j].Start) })

	candidate := domain.PlanItem{Start: start, End: end}
	for _, sib := range siblings {
		if sib.ID == item.ID {
			continue
		}
		if candidate.Overlaps(sib) {
			conflictTitle := "another task"
			if task, err := s.store.GetTask(ctx, sib.TaskID); err == nil {
				conflictTitle = task.Title
			}
			return MoveResult{}, fmt.Errorf("mutator: %w: Time slot already occupied by '%s' from %s to %s.",
				domain.ErrSlotOccupied, conflictTitle, sib.Start.Format("15:04"), sib.End.Format("15:04"))
		}
	}

	if targetPlan.ID != currentPlan.ID {
		if err := s.store.UpsertPlan(ctx, targetPlan); err != nil {
			return MoveResult{}, fmt.Errorf("mutator: create target plan: %w", err)
		}
		item.PlanID = targetPlan.ID
		item.Position = 0
	}

	item.Start = start
	item.End = end
	item.Source = domain.SourceManual

	if err := s.store.UpdatePlanItem(ctx, *item); err != nil {
		return MoveResult{}, fmt.Errorf("mutator: update plan item: %w", err)
	}
	if err := s.store.UpdateTaskStatus(ctx, item.TaskID, domain.TaskScheduled); err != nil {
		return MoveResult{}, fmt.Errorf("mutator: update task status: %w", err)
	}

	if err := s.recordMoveFeedback(ctx, user.ID, item.TaskID, originalStart, start); err != nil {
		return MoveResult{}, fmt.Errorf("mutator: record feedback: %w", err)
	}

	return MoveResult{Item: *item}, nil
}

// recordMoveFeedback logs +1 when the task moved earlier, -1 when later,
// and skips logging when the start time did not actually change.
func (s *Service) recordMoveFeedback(ctx context.Context, userID, taskID string, originalStart, newStart time.Time) error {
	delta := newStart.Sub(originalStart)
	var outcome int
	switch {
	case delta < 0:
		outcome = 1
	case delta > 0:
		outcome = -1
	default:
		return nil
	}

	return s.store.AppendFeedback(ctx, domain.FeedbackLog{
		ID:        uuid.NewString(),
		UserID:    userID,
		TaskID:    taskID,
		Outcome:   outcome,
		Note:      movedEarlierNote,
		CreatedAt: time.Now().UTC(),
	})
}

// DeleteItem removes a plan item from its plan. If no other plan item
// still references the underlying task, the task reverts to unscheduled so
// it is picked up by the next planning run.
func (s *Service) DeleteItem(ctx context.Context, user domain.AuthenticatedUser, itemID string) error {
	item, err := s.store.GetPlanItem(ctx, itemID)
	if err != nil {
		return err
	}
	if _, err := s.planOwnedBy(ctx, item.PlanID, user.ID); err != nil {
		return err
	}

	if err := s.store.DeletePlanItem(ctx, itemID); err != nil {
		return err
	}

	// Search every plan of the user, not only the one the item came from.
	siblings, err := s.store.PlanItemsInRange(ctx, user.ID, time.Time{}, time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		return fmt.Errorf("mutator: check remaining items: %w", err)
	}
	for _, sib := range siblings {
		if sib.TaskID == item.TaskID {
			return nil
		}
	}

	if err := s.store.UpdateTaskStatus(ctx, item.TaskID, domain.TaskUnscheduled); err != nil {
		return fmt.Errorf("mutator: revert task status: %w", err)
	}
	return nil
}

// planOwnedBy loads planID and verifies it belongs to userID, returning
// domain.ErrPlanItemNotFound if it belongs to someone else — the mutator
// never reveals another user's plan by distinguishing "not found" from
// "not yours".
func (s *Service) planOwnedBy(ctx context.Context, planID, userID string) (domain.Plan, error) {
	plan, err := s.store.GetPlanByID(ctx, planID)
	if err != nil {
		return domain.Plan{}, err
	}
	if plan.UserID != userID {
		return domain.Plan{}, domain.ErrPlanItemNotFound
	}
	return *plan, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
