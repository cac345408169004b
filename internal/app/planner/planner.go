// Package planner orchestrates the day-planner's core request: given a
// user and a date, expand the rolling horizon, allocate tasks to days, run
// the Day Scheduler on each day, and persist the results.
package planner

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/optimatime/optimatime/internal/domain"
	"github.com/optimatime/optimatime/internal/infra/observability"
	"github.com/optimatime/optimatime/internal/ml/feedback"
	"github.com/optimatime/optimatime/internal/ml/horizon"
	"github.com/optimatime/optimatime/internal/ml/priority"
	"github.com/optimatime/optimatime/internal/ml/scheduler"
)

// ModelVersion tags every plan generated by this build of the planner.
const ModelVersion = "priority_model_v1"

// LookaheadDays bounds how far into the future a task's deadline may sit
// and still be eligible for this planning run.
const LookaheadDays = 14

// HorizonDays is the number of calendar days (including the requested
// date) the rolling horizon spans.
const HorizonDays = 7

// FeedbackHistoryLimit caps how many recent feedback logs feed the
// Feedback Learner.
const FeedbackHistoryLimit = 500

// ScheduledItem is one placement in a generated or stored plan.
type ScheduledItem struct {
	PlanItemID     string
	TaskID         string
	Title          string
	Start          time.Time
	End            time.Time
	Explanation    string
	LLMExplanation string
	Priority       float64
}

// UnscheduledItem is a task that could not be placed, with the reason why.
type UnscheduledItem struct {
	domain.Task
	Reason string
}

// Result is what a planning run (or a plan lookup) returns to the caller.
type Result struct {
	ModelVersion    string
	ModelConfidence *float64
	Scheduled       []ScheduledItem
	Unscheduled     []UnscheduledItem
}

// Service orchestrates plan generation and retrieval.
type Service struct {
	store  domain.PlanStore
	tracer *observability.Tracer

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewService builds a planner backed by store. The predictor used for
// scoring comes from priority.Load(), the package-level cached artifact.
// A tracer is always created with observability.DefaultTracerConfig() so a
// run's stages can be inspected after the fact; NewService offers no way to
// supply a different or disabled tracer.
func NewService(store domain.PlanStore) *Service {
	return &Service{
		store:  store,
		tracer: observability.NewTracer(observability.DefaultTracerConfig()),
		locks:  make(map[string]*sync.Mutex),
	}
}

// lockFor returns the mutex guarding concurrent plan generation for a
// single (user, date) pair, creating it on first use.
func (s *Service) lockFor(userID, dateKey string) *sync.Mutex {
	key := userID + "|" + dateKey
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	mu, ok := s.locks[key]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[key] = mu
	}
	return mu
}

// GeneratePlan builds and persists a plan for user starting on planDate,
// expanding across the rolling horizon and allocating every eligible
// pending task to a day before scheduling each day independently.
func (s *Service) GeneratePlan(ctx context.Context, user domain.AuthenticatedUser, planDate time.Time) (Result, error) {
	planDate = domain.NormalizeToUTC(planDate)
	dateKey := planDate.Format("2006-01-02")

	mu := s.lockFor(user.ID, dateKey)
	mu.Lock()
	defer mu.Unlock()

	settings, err := s.ensureSettings(ctx, user.ID)
	if err != nil {
		return Result{}, fmt.Errorf("planner: load settings: %w", err)
	}
	startHour, endHour := settings.WorkingHours()

	horizonDates := buildHorizonDates(planDate, settings)

	plansByDate, err := s.ensurePlans(ctx, user.ID, horizonDates)
	if err != nil {
		return Result{}, fmt.Errorf("planner: ensure plans: %w", err)
	}

	existingItemsByDate := map[string][]domain.PlanItem{}
	occupiedByDate := map[string][][2]time.Time{}
	existingMinutesByDate := map[string]int{}
	existingTaskIDs := map[string]bool{}

	for _, d := range horizonDates {
		key := dayKey(d)
		items, err := s.store.PlanItems(ctx, plansByDate[key].ID)
		if err != nil {
			return Result{}, fmt.Errorf("planner: load plan items for %s: %w", key, err)
		}
		existingItemsByDate[key] = items

		minutes := 0
		var occupied [][2]time.Time
		for _, it := range items {
			existingTaskIDs[it.TaskID] = true
			occupied = append(occupied, [2]time.Time{it.Start, it.End})
			minutes += int(it.End.Sub(it.Start).Minutes())
		}
		occupiedByDate[key] = occupied
		existingMinutesByDate[key] = minutes
	}

	startOfDay := planDate
	lookaheadEnd := startOfDay.AddDate(0, 0, LookaheadDays)

	pending, err := s.store.PendingTasks(ctx, user.ID)
	if err != nil {
		return Result{}, fmt.Errorf("planner: load pending tasks: %w", err)
	}

	var tasksToAssign []domain.Task
	for _, t := range pending {
		if existingTaskIDs[t.ID] {
			continue
		}
		if t.Deadline.Before(startOfDay) || t.Deadline.After(lookaheadEnd) {
			continue
		}
		tasksToAssign = append(tasksToAssign, t)
	}

	anyExisting := false
	for _, items := range existingItemsByDate {
		if len(items) > 0 {
			anyExisting = true
			break
		}
	}
	if len(tasksToAssign) == 0 && !anyExisting {
		return Result{}, domain.ErrNoPendingTasks
	}

	feedbackResult, err := s.loadFeedbackResult(ctx, user.ID)
	if err != nil {
		return Result{}, fmt.Errorf("planner: load feedback: %w", err)
	}

	existingMinutesByDay := map[string]int{}
	for k, v := range existingMinutesByDate {
		existingMinutesByDay[k] = v
	}

	allocSpan := s.tracer.StartSpan(ctx, "planner.allocate", map[string]string{
		"user_id":   user.ID,
		"plan_date": dateKey,
	})
	allocation := horizon.Allocate(tasksToAssign, horizonDates, planDate, existingMinutesByDay, startHour, endHour)
	s.tracer.EndSpan(allocSpan, nil)

	unscheduledReasons := map[string]string{}
	for id, reason := range allocation.Unscheduled {
		unscheduledReasons[id] = reason
	}
	scheduledIDs := map[string]bool{}
	resultsByDate := map[string]scheduler.DayScheduleResult{}

	predictor := priority.Load()

	for _, d := range horizonDates {
		key := dayKey(d)
		dayTasks := allocation.TasksByDay[key]

		var dayResult scheduler.DayScheduleResult
		if len(dayTasks) > 0 {
			daySpan := s.tracer.StartSpan(ctx, "planner.schedule_day", map[string]string{
				"user_id":   user.ID,
				"plan_date": key,
				"tasks":     fmt.Sprintf("%d", len(dayTasks)),
			})
			dayResult = scheduler.ScheduleDay(dayTasks, user.Profile, d, predictor, feedbackResult, startHour, endHour, occupiedByDate[key])
			s.tracer.EndSpan(daySpan, nil)
		}
		resultsByDate[key] = dayResult

		for _, u := range dayResult.Unscheduled {
			unscheduledReasons[u.ID] = u.Reason
		}
		for _, sc := range dayResult.Scheduled {
			scheduledIDs[sc.TaskID] = true
		}

		existingItems := existingItemsByDate[key]
		nextPosition := 0
		for _, it := range existingItems {
			if it.Position >= nextPosition {
				nextPosition = it.Position + 1
			}
		}

		newItems := make([]domain.PlanItem, 0, len(dayResult.Scheduled))
		for _, sc := range dayResult.Scheduled {
			newItems = append(newItems, domain.PlanItem{
				ID:             uuid.NewString(),
				PlanID:         plansByDate[key].ID,
				TaskID:         sc.TaskID,
				Start:          sc.Start,
				End:            sc.End,
				Position:       nextPosition,
				Explanation:    sc.Explanation,
				LLMExplanation: sc.LLMExplanation,
				Priority:       sc.Priority,
				Source:         domain.SourceAI,
			})
			nextPosition++
		}
		persistSpan := s.tracer.StartSpan(ctx, "planner.persist", map[string]string{
			"user_id":   user.ID,
			"plan_date": key,
		})
		persistErr := func() error {
			if len(newItems) > 0 {
				if err := s.store.ReplacePlanItems(ctx, plansByDate[key].ID, newItems); err != nil {
					return fmt.Errorf("planner: persist items for %s: %w", key, err)
				}
			}

			totalScheduled := len(existingItems) + len(newItems)
			plan := plansByDate[key]
			plan.Summary = fmt.Sprintf("%d scheduled, %d unscheduled", totalScheduled, len(dayResult.Unscheduled))
			if err := s.store.UpsertPlan(ctx, plan); err != nil {
				return fmt.Errorf("planner: update plan summary for %s: %w", key, err)
			}
			plansByDate[key] = plan
			return nil
		}()
		s.tracer.EndSpan(persistSpan, persistErr)
		if persistErr != nil {
			return Result{}, persistErr
		}
	}

	for _, items := range existingItemsByDate {
		for _, it := range items {
			if err := s.store.UpdateTaskStatus(ctx, it.TaskID, domain.TaskScheduled); err != nil {
				log.Printf("[planner] update status for existing item task %s: %v", it.TaskID, err)
			}
		}
	}
	for _, t := range tasksToAssign {
		status := domain.TaskUnscheduled
		if scheduledIDs[t.ID] {
			status = domain.TaskScheduled
		}
		if err := s.store.UpdateTaskStatus(ctx, t.ID, status); err != nil {
			log.Printf("[planner] update status for task %s: %v", t.ID, err)
		}
	}

	return s.buildResult(ctx, user.ID, planDate, resultsByDate[dateKey], unscheduledReasons)
}

// GetPlan returns the already-persisted plan for the given date, or
// domain.ErrPlanNotFound if none exists yet.
func (s *Service) GetPlan(ctx context.Context, user domain.AuthenticatedUser, planDate time.Time) (Result, error) {
	planDate = domain.NormalizeToUTC(planDate)
	plan, err := s.store.GetPlan(ctx, user.ID, planDate)
	if err != nil {
		return Result{}, err
	}

	items, err := s.store.PlanItems(ctx, plan.ID)
	if err != nil {
		return Result{}, fmt.Errorf("planner: load plan items: %w", err)
	}

	scheduled := make([]ScheduledItem, 0, len(items))
	for _, it := range items {
		task, err := s.store.GetTask(ctx, it.TaskID)
		title := ""
		if err == nil {
			title = task.Title
		}
		scheduled = append(scheduled, ScheduledItem{
			PlanItemID:  it.ID,
			TaskID:      it.TaskID,
			Title:       title,
			Start:       it.Start,
			End:         it.End,
			Explanation: it.Explanation,
		})
	}

	unscheduled, err := s.unscheduledSince(ctx, user.ID, planDate, nil, "Not placed in the last plan")
	if err != nil {
		return Result{}, err
	}

	return Result{
		ModelVersion: plan.ModelVersion,
		Scheduled:    scheduled,
		Unscheduled:  unscheduled,
	}, nil
}

// CalendarDay is one day's summary for a calendar range view.
type CalendarDay struct {
	PlanDate     time.Time
	ModelVersion string
	Summary      string
	Scheduled    []ScheduledItem
}

// Calendar returns every plan between from and to (inclusive), ordered by
// date, each with its scheduled items.
func (s *Service) Calendar(ctx context.Context, user domain.AuthenticatedUser, from, to time.Time) ([]CalendarDay, error) {
	from = domain.NormalizeToUTC(from)
	to = domain.NormalizeToUTC(to)

	items, err := s.store.PlanItemsInRange(ctx, user.ID, from, to)
	if err != nil {
		return nil, fmt.Errorf("planner: load items in range: %w", err)
	}

	byPlan := map[string][]domain.PlanItem{}
	for _, it := range items {
		byPlan[it.PlanID] = append(byPlan[it.PlanID], it)
	}

	var days []CalendarDay
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		plan, err := s.store.GetPlan(ctx, user.ID, d)
		if err != nil {
			continue
		}
		planItems := byPlan[plan.ID]
		sort.Slice(planItems, func(i, j int) bool { return planItems[i].Position < planItems[j].Position })

		scheduled := make([]ScheduledItem, 0, len(planItems))
		for _, it := range planItems {
			task, err := s.store.GetTask(ctx, it.TaskID)
			title := ""
			if err == nil {
				title = task.Title
			}
			scheduled = append(scheduled, ScheduledItem{
				PlanItemID:  it.ID,
				TaskID:      it.TaskID,
				Title:       title,
				Start:       it.Start,
				End:         it.End,
				Explanation: it.Explanation,
			})
		}

		days = append(days, CalendarDay{
			PlanDate:     plan.PlanDate,
			ModelVersion: plan.ModelVersion,
			Summary:      plan.Summary,
			Scheduled:    scheduled,
		})
	}

	return days, nil
}

func (s *Service) ensureSettings(ctx context.Context, userID string) (domain.UserSettings, error) {
	settings, err := s.store.GetUserSettings(ctx, userID)
	if err == domain.ErrSettingsNotFound {
		fresh := domain.DefaultUserSettings(userID)
		if putErr := s.store.PutUserSettings(ctx, fresh); putErr != nil {
			return domain.UserSettings{}, putErr
		}
		return fresh, nil
	}
	if err != nil {
		return domain.UserSettings{}, err
	}
	return *settings, nil
}

func (s *Service) ensurePlans(ctx context.Context, userID string, horizonDates []time.Time) (map[string]domain.Plan, error) {
	out := make(map[string]domain.Plan, len(horizonDates))
	for _, d := range horizonDates {
		key := dayKey(d)
		plan, err := s.store.GetPlan(ctx, userID, d)
		if err == domain.ErrPlanNotFound {
			fresh := domain.Plan{
				ID:           uuid.NewString(),
				UserID:       userID,
				PlanDate:     d,
				ModelVersion: ModelVersion,
				Status:       domain.PlanGenerated,
				CreatedAt:    time.Now().UTC(),
			}
			if putErr := s.store.UpsertPlan(ctx, fresh); putErr != nil {
				return nil, putErr
			}
			out[key] = fresh
			continue
		}
		if err != nil {
			return nil, err
		}
		out[key] = *plan
	}
	return out, nil
}

func (s *Service) loadFeedbackResult(ctx context.Context, userID string) (feedback.Result, error) {
	logs, err := s.store.RecentFeedback(ctx, userID, FeedbackHistoryLimit)
	if err != nil {
		return feedback.Result{}, err
	}

	samples := make([]feedback.Sample, 0, len(logs))
	for _, l := range logs {
		if l.TaskID == "" {
			continue
		}
		task, err := s.store.GetTask(ctx, l.TaskID)
		if err != nil {
			continue
		}
		samples = append(samples, feedback.Sample{
			Category:   task.Category,
			Importance: task.Importance,
			Preferred:  task.Preferred,
			Energy:     task.Energy,
			Outcome:    l.Outcome,
			CreatedAt:  l.CreatedAt,
		})
	}

	return feedback.Learn(samples, time.Now().UTC()), nil
}

func (s *Service) buildResult(ctx context.Context, userID string, planDate time.Time, dayResult scheduler.DayScheduleResult, reasons map[string]string) (Result, error) {
	plan, err := s.store.GetPlan(ctx, userID, planDate)
	if err != nil {
		return Result{}, err
	}
	items, err := s.store.PlanItems(ctx, plan.ID)
	if err != nil {
		return Result{}, err
	}

	payloadByTask := map[string]scheduler.ScheduledItem{}
	for _, sc := range dayResult.Scheduled {
		payloadByTask[sc.TaskID] = sc
	}

	scheduled := make([]ScheduledItem, 0, len(items))
	for _, it := range items {
		task, err := s.store.GetTask(ctx, it.TaskID)
		title := ""
		if err == nil {
			title = task.Title
		}
		payload, hasPayload := payloadByTask[it.TaskID]
		item := ScheduledItem{
			PlanItemID:  it.ID,
			TaskID:      it.TaskID,
			Title:       title,
			Start:       it.Start,
			End:         it.End,
			Explanation: it.Explanation,
		}
		if hasPayload {
			item.Priority = payload.Priority
			item.LLMExplanation = payload.LLMExplanation
		}
		scheduled = append(scheduled, item)
	}

	unscheduled, err := s.unscheduledSince(ctx, userID, planDate, reasons, "")
	if err != nil {
		return Result{}, err
	}

	return Result{
		ModelVersion:    plan.ModelVersion,
		ModelConfidence: dayResult.ModelConfidence,
		Scheduled:       scheduled,
		Unscheduled:     unscheduled,
	}, nil
}

// unscheduledSince lists every task in the unscheduled status with a
// deadline on or after from. Each item's Reason comes from reasons (keyed
// by task ID) when present, falling back to defaultReason otherwise.
func (s *Service) unscheduledSince(ctx context.Context, userID string, from time.Time, reasons map[string]string, defaultReason string) ([]UnscheduledItem, error) {
	pending, err := s.store.PendingTasks(ctx, userID)
	if err != nil {
		return nil, err
	}
	var out []UnscheduledItem
	for _, t := range pending {
		if t.Status != domain.TaskUnscheduled {
			continue
		}
		if t.Deadline.Before(from) {
			continue
		}
		reason := defaultReason
		if r, ok := reasons[t.ID]; ok {
			reason = r
		}
		out = append(out, UnscheduledItem{Task: t, Reason: reason})
	}
	return out, nil
}

func buildHorizonDates(planDate time.Time, settings domain.UserSettings) []time.Time {
	dates := []time.Time{planDate}
	for offset := 1; offset < HorizonDays; offset++ {
		d := planDate.AddDate(0, 0, offset)
		weekdayMon0 := (int(d.Weekday()) + 6) % 7
		if settings.IsWorkday(weekdayMon0) {
			dates = append(dates, d)
		}
	}
	return dates
}

func dayKey(d time.Time) string {
	return d.Format("2006-01-02")
}
