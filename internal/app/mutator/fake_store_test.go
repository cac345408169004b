package mutator

import (
	"context"
	"time"

	"github.com/optimatime/optimatime/internal/domain"
)

// fakeStore is an in-memory domain.PlanStore used to exercise the mutator
// logic in this package without a real database.
type fakeStore struct {
	settings map[string]domain.UserSettings
	tasks    map[string]domain.Task
	plans    map[string]domain.Plan
	byDate   map[string]string
	items    map[string][]domain.PlanItem
	feedback map[string][]domain.FeedbackLog
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		settings: map[string]domain.UserSettings{},
		tasks:    map[string]domain.Task{},
		plans:    map[string]domain.Plan{},
		byDate:   map[string]string{},
		items:    map[string][]domain.PlanItem{},
		feedback: map[string][]domain.FeedbackLog{},
	}
}

func (f *fakeStore) GetUserSettings(ctx context.Context, userID string) (*domain.UserSettings, error) {
	s, ok := f.settings[userID]
	if !ok {
		return nil, domain.ErrSettingsNotFound
	}
	return &s, nil
}

func (f *fakeStore) PutUserSettings(ctx context.Context, s domain.UserSettings) error {
	f.settings[s.UserID] = s
	return nil
}

func (f *fakeStore) PendingTasks(ctx context.Context, userID string) ([]domain.Task, error) {
	var out []domain.Task
	for _, t := range f.tasks {
		if t.OwnerID == userID && (t.Status == domain.TaskPending || t.Status == domain.TaskUnscheduled) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	t, ok := f.tasks[taskID]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return &t, nil
}

func (f *fakeStore) UpdateTaskStatus(ctx context.Context, taskID string, status domain.TaskStatus) error {
	t, ok := f.tasks[taskID]
	if !ok {
		return domain.ErrTaskNotFound
	}
	t.Status = status
	f.tasks[taskID] = t
	return nil
}

func planKey(userID string, planDate time.Time) string {
	return userID + "|" + planDate.Format("2006-01-02")
}

func (f *fakeStore) GetPlan(ctx context.Context, userID string, planDate time.Time) (*domain.Plan, error) {
	id, ok := f.byDate[planKey(userID, planDate)]
	if !ok {
		return nil, domain.ErrPlanNotFound
	}
	p := f.plans[id]
	return &p, nil
}

func (f *fakeStore) GetPlanByID(ctx context.Context, planID string) (*domain.Plan, error) {
	p, ok := f.plans[planID]
	if !ok {
		return nil, domain.ErrPlanNotFound
	}
	return &p, nil
}

func (f *fakeStore) UpsertPlan(ctx context.Context, p domain.Plan) error {
	f.plans[p.ID] = p
	f.byDate[planKey(p.UserID, p.PlanDate)] = p.ID
	return nil
}

func (f *fakeStore) PlanItems(ctx context.Context, planID string) ([]domain.PlanItem, error) {
	return append([]domain.PlanItem{}, f.items[planID]...), nil
}

func (f *fakeStore) PlanItemsInRange(ctx context.Context, userID string, from, to time.Time) ([]domain.PlanItem, error) {
	var out []domain.PlanItem
	for _, p := range f.plans {
		if p.UserID != userID {
			continue
		}
		if p.PlanDate.Before(from) || p.PlanDate.After(to) {
			continue
		}
		out = append(out, f.items[p.ID]...)
	}
	return out, nil
}

func (f *fakeStore) ReplacePlanItems(ctx context.Context, planID string, items []domain.PlanItem) error {
	existing := f.items[planID]
	byID := map[string]domain.PlanItem{}
	for _, it := range existing {
		byID[it.ID] = it
	}
	for _, it := range items {
		byID[it.ID] = it
	}
	merged := make([]domain.PlanItem, 0, len(byID))
	for _, it := range byID {
		merged = append(merged, it)
	}
	f.items[planID] = merged
	return nil
}

func (f *fakeStore) GetPlanItem(ctx context.Context, itemID string) (*domain.PlanItem, error) {
	for _, items := range f.items {
		for _, it := range items {
			if it.ID == itemID {
				cp := it
				return &cp, nil
			}
		}
	}
	return nil, domain.ErrPlanItemNotFound
}

func (f *fakeStore) UpdatePlanItem(ctx context.Context, item domain.PlanItem) error {
	for planID, items := range f.items {
		for i, it := range items {
			if it.ID == item.ID {
				if planID != item.PlanID {
					f.items[planID] = append(items[:i], items[i+1:]...)
					f.items[item.PlanID] = append(f.items[item.PlanID], item)
					return nil
				}
				items[i] = item
				f.items[planID] = items
				return nil
			}
		}
	}
	return domain.ErrPlanItemNotFound
}

func (f *fakeStore) DeletePlanItem(ctx context.Context, itemID string) error {
	for planID, items := range f.items {
		for i, it := range items {
			if it.ID == itemID {
				f.items[planID] = append(items[:i], items[i+1:]...)
				return nil
			}
		}
	}
	return domain.ErrPlanItemNotFound
}

func (f *fakeStore) RecentFeedback(ctx context.Context, userID string, limit int) ([]domain.FeedbackLog, error) {
	logs := append([]domain.FeedbackLog{}, f.feedback[userID]...)
	if len(logs) > limit {
		logs = logs[:limit]
	}
	return logs, nil
}

func (f *fakeStore) AppendFeedback(ctx context.Context, fb domain.FeedbackLog) error {
	f.feedback[fb.UserID] = append([]domain.FeedbackLog{fb}, f.feedback[fb.UserID]...)
	return nil
}
