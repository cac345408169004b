package domain

import (
	"context"
	"time"
)

// ─── Service Interfaces ─────────────────────────────────────────────────────
// These interfaces define boundaries between layers. Infrastructure
// implements them; application layer depends on them.

// AuthenticatedUser is the narrow identity the planning engine needs.
// Token issuance and profile management live outside this repo; a request
// arrives already resolved to this shape by the trusted-header middleware.
type AuthenticatedUser struct {
	ID      string
	Profile string
}

// PriorityPredictor scores a feature vector produced by the encoder.
// A concrete implementation may be a hand-tuned linear model, a loaded
// artifact, or a remote model-serving client — the scheduler only depends
// on this interface.
type PriorityPredictor interface {
	Predict(features []float64) float64
	// Importances returns a per-feature importance vector, or nil if the
	// underlying model does not expose one.
	Importances() []float64
}

// PlanStore persists plans, plan items, tasks, settings, and feedback.
type PlanStore interface {
	GetUserSettings(ctx context.Context, userID string) (*UserSettings, error)
	PutUserSettings(ctx context.Context, s UserSettings) error

	PendingTasks(ctx context.Context, userID string) ([]Task, error)
	GetTask(ctx context.Context, taskID string) (*Task, error)
	UpdateTaskStatus(ctx context.Context, taskID string, status TaskStatus) error

	GetPlan(ctx context.Context, userID string, planDate time.Time) (*Plan, error)
	GetPlanByID(ctx context.Context, planID string) (*Plan, error)
	UpsertPlan(ctx context.Context, p Plan) error
	PlanItems(ctx context.Context, planID string) ([]PlanItem, error)
	PlanItemsInRange(ctx context.Context, userID string, from, to time.Time) ([]PlanItem, error)

	ReplacePlanItems(ctx context.Context, planID string, items []PlanItem) error
	GetPlanItem(ctx context.Context, itemID string) (*PlanItem, error)
	UpdatePlanItem(ctx context.Context, item PlanItem) error
	DeletePlanItem(ctx context.Context, itemID string) error

	RecentFeedback(ctx context.Context, userID string, limit int) ([]FeedbackLog, error)
	AppendFeedback(ctx context.Context, f FeedbackLog) error
}
