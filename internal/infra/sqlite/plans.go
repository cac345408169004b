package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/optimatime/optimatime/internal/domain"
)

const dateLayout = "2006-01-02"

// PlanStoreMigrations returns the schema migration statements for the
// planning engine's tables, one statement per entry, executed in order by
// Open.
func PlanStoreMigrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS tasks (
			id               TEXT PRIMARY KEY,
			owner_id         TEXT NOT NULL,
			title            TEXT NOT NULL,
			description      TEXT NOT NULL DEFAULT '',
			duration_minutes INTEGER NOT NULL,
			deadline         TEXT NOT NULL,
			category         TEXT NOT NULL,
			importance       TEXT NOT NULL,
			preferred_time   TEXT NOT NULL,
			energy           TEXT NOT NULL,
			status           TEXT NOT NULL DEFAULT 'pending',
			created_at       TEXT NOT NULL,
			updated_at       TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_owner_status ON tasks(owner_id, status)`,

		`CREATE TABLE IF NOT EXISTS user_settings (
			user_id        TEXT PRIMARY KEY,
			work_start     TEXT NOT NULL,
			work_end       TEXT NOT NULL,
			work_days_mask TEXT NOT NULL,
			created_at     TEXT NOT NULL,
			updated_at     TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS plans (
			id            TEXT PRIMARY KEY,
			user_id       TEXT NOT NULL,
			plan_date     TEXT NOT NULL,
			model_version TEXT NOT NULL,
			status        TEXT NOT NULL,
			summary       TEXT NOT NULL DEFAULT '',
			created_at    TEXT NOT NULL,
			UNIQUE(user_id, plan_date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_plans_user_date ON plans(user_id, plan_date)`,

		`CREATE TABLE IF NOT EXISTS plan_items (
			id              TEXT PRIMARY KEY,
			plan_id         TEXT NOT NULL,
			task_id         TEXT NOT NULL,
			start_at        TEXT NOT NULL,
			end_at          TEXT NOT NULL,
			position        INTEGER NOT NULL DEFAULT 0,
			explanation     TEXT NOT NULL DEFAULT '',
			llm_explanation TEXT NOT NULL DEFAULT '',
			priority        REAL NOT NULL DEFAULT 0,
			source          TEXT NOT NULL DEFAULT 'ai'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_plan_items_plan ON plan_items(plan_id)`,
		`CREATE INDEX IF NOT EXISTS idx_plan_items_task ON plan_items(task_id)`,

		`CREATE TABLE IF NOT EXISTS feedback_logs (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			task_id    TEXT NOT NULL DEFAULT '',
			outcome    INTEGER NOT NULL,
			note       TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_feedback_user_created ON feedback_logs(user_id, created_at DESC)`,
	}
}

// ─── User Settings ──────────────────────────────────────────────────────────

func (db *DB) GetUserSettings(ctx context.Context, userID string) (*domain.UserSettings, error) {
	row := db.db.QueryRowContext(ctx, `
		SELECT user_id, work_start, work_end, work_days_mask, created_at, updated_at
		FROM user_settings WHERE user_id = ?`, userID)

	var s domain.UserSettings
	var createdAt, updatedAt string
	err := row.Scan(&s.UserID, &s.WorkStart, &s.WorkEnd, &s.WorkDaysMask, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSettingsNotFound
	}
	if err != nil {
		return nil, err
	}
	s.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	s.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &s, nil
}

func (db *DB) PutUserSettings(ctx context.Context, s domain.UserSettings) error {
	_, err := db.db.ExecContext(ctx, `
		INSERT INTO user_settings (user_id, work_start, work_end, work_days_mask, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			work_start = excluded.work_start,
			work_end = excluded.work_end,
			work_days_mask = excluded.work_days_mask,
			updated_at = excluded.updated_at`,
		s.UserID, s.WorkStart, s.WorkEnd, s.WorkDaysMask,
		s.CreatedAt.UTC().Format(time.RFC3339), s.UpdatedAt.UTC().Format(time.RFC3339))
	return err
}

// ─── Tasks ──────────────────────────────────────────────────────────────────

func (db *DB) PendingTasks(ctx context.Context, userID string) ([]domain.Task, error) {
	rows, err := db.db.QueryContext(ctx, `
		SELECT id, owner_id, title, description, duration_minutes, deadline, category,
		       importance, preferred_time, energy, status, created_at, updated_at
		FROM tasks
		WHERE owner_id = ? AND status IN ('pending', 'unscheduled')
		ORDER BY deadline ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTasks(rows)
}

func (db *DB) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	row := db.db.QueryRowContext(ctx, `
		SELECT id, owner_id, title, description, duration_minutes, deadline, category,
		       importance, preferred_time, energy, status, created_at, updated_at
		FROM tasks WHERE id = ?`, taskID)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (db *DB) UpdateTaskStatus(ctx context.Context, taskID string, status domain.TaskStatus) error {
	res, err := db.db.ExecContext(ctx, `UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC().Format(time.RFC3339), taskID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var t domain.Task
	var durationMinutes int
	var deadline, createdAt, updatedAt string
	err := row.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Description, &durationMinutes, &deadline,
		&t.Category, &t.Importance, &t.Preferred, &t.Energy, &t.Status, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	t.Duration = time.Duration(durationMinutes) * time.Minute
	t.Deadline, _ = time.Parse(time.RFC3339, deadline)
	t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	t.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &t, nil
}

func scanTasks(rows *sql.Rows) ([]domain.Task, error) {
	var out []domain.Task
	for rows.Next() {
		var t domain.Task
		var durationMinutes int
		var deadline, createdAt, updatedAt string
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Description, &durationMinutes, &deadline,
			&t.Category, &t.Importance, &t.Preferred, &t.Energy, &t.Status, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		t.Duration = time.Duration(durationMinutes) * time.Minute
		t.Deadline, _ = time.Parse(time.RFC3339, deadline)
		t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		t.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		out = append(out, t)
	}
	return out, rows.Err()
}

// ─── Plans ──────────────────────────────────────────────────────────────────

func (db *DB) GetPlan(ctx context.Context, userID string, planDate time.Time) (*domain.Plan, error) {
	row := db.db.QueryRowContext(ctx, `
		SELECT id, user_id, plan_date, model_version, status, summary, created_at
		FROM plans WHERE user_id = ? AND plan_date = ?`, userID, planDate.UTC().Format(dateLayout))

	var p domain.Plan
	var planDateStr, createdAt string
	err := row.Scan(&p.ID, &p.UserID, &planDateStr, &p.ModelVersion, &p.Status, &p.Summary, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}
	p.PlanDate, _ = time.ParseInLocation(dateLayout, planDateStr, time.UTC)
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &p, nil
}

func (db *DB) GetPlanByID(ctx context.Context, planID string) (*domain.Plan, error) {
	row := db.db.QueryRowContext(ctx, `
		SELECT id, user_id, plan_date, model_version, status, summary, created_at
		FROM plans WHERE id = ?`, planID)

	var p domain.Plan
	var planDateStr, createdAt string
	err := row.Scan(&p.ID, &p.UserID, &planDateStr, &p.ModelVersion, &p.Status, &p.Summary, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}
	p.PlanDate, _ = time.ParseInLocation(dateLayout, planDateStr, time.UTC)
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &p, nil
}

func (db *DB) UpsertPlan(ctx context.Context, p domain.Plan) error {
	_, err := db.db.ExecContext(ctx, `
		INSERT INTO plans (id, user_id, plan_date, model_version, status, summary, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, plan_date) DO UPDATE SET
			model_version = excluded.model_version,
			status = excluded.status,
			summary = excluded.summary`,
		p.ID, p.UserID, p.PlanDate.UTC().Format(dateLayout), p.ModelVersion,
		string(p.Status), p.Summary, p.CreatedAt.UTC().Format(time.RFC3339))
	return err
}

// ─── Plan Items ─────────────────────────────────────────────────────────────

func (db *DB) PlanItems(ctx context.Context, planID string) ([]domain.PlanItem, error) {
	rows, err := db.db.QueryContext(ctx, `
		SELECT id, plan_id, task_id, start_at, end_at, position, explanation,
		       llm_explanation, priority, source
		FROM plan_items WHERE plan_id = ? ORDER BY position ASC`, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPlanItems(rows)
}

func (db *DB) PlanItemsInRange(ctx context.Context, userID string, from, to time.Time) ([]domain.PlanItem, error) {
	rows, err := db.db.QueryContext(ctx, `
		SELECT pi.id, pi.plan_id, pi.task_id, pi.start_at, pi.end_at, pi.position,
		       pi.explanation, pi.llm_explanation, pi.priority, pi.source
		FROM plan_items pi
		JOIN plans p ON p.id = pi.plan_id
		WHERE p.user_id = ? AND p.plan_date >= ? AND p.plan_date <= ?
		ORDER BY p.plan_date ASC, pi.position ASC`,
		userID, from.UTC().Format(dateLayout), to.UTC().Format(dateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPlanItems(rows)
}

func scanPlanItems(rows *sql.Rows) ([]domain.PlanItem, error) {
	var out []domain.PlanItem
	for rows.Next() {
		it, startAt, endAt, err := scanPlanItemRow(rows)
		if err != nil {
			return nil, err
		}
		it.Start, _ = time.Parse(time.RFC3339, startAt)
		it.End, _ = time.Parse(time.RFC3339, endAt)
		out = append(out, it)
	}
	return out, rows.Err()
}

func scanPlanItemRow(row rowScanner) (domain.PlanItem, string, string, error) {
	var it domain.PlanItem
	var startAt, endAt string
	err := row.Scan(&it.ID, &it.PlanID, &it.TaskID, &startAt, &endAt, &it.Position,
		&it.Explanation, &it.LLMExplanation, &it.Priority, &it.Source)
	return it, startAt, endAt, err
}

// ReplacePlanItems inserts items into planID, updating any whose ID already
// exists, in one transaction. Items of the plan that are not in items are
// left untouched; nothing is deleted. Used by the orchestration layer after
// a scheduling pass: existing manually-placed items are preserved since the
// Day Scheduler never touches occupied slots, only new AI placements are
// written here.
func (db *DB) ReplacePlanItems(ctx context.Context, planID string, items []domain.PlanItem) error {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, it := range items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO plan_items (id, plan_id, task_id, start_at, end_at, position,
			                        explanation, llm_explanation, priority, source)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				start_at = excluded.start_at,
				end_at = excluded.end_at,
				position = excluded.position,
				explanation = excluded.explanation,
				llm_explanation = excluded.llm_explanation,
				priority = excluded.priority,
				source = excluded.source`,
			it.ID, planID, it.TaskID, it.Start.UTC().Format(time.RFC3339), it.End.UTC().Format(time.RFC3339),
			it.Position, it.Explanation, it.LLMExplanation, it.Priority, string(it.Source))
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (db *DB) GetPlanItem(ctx context.Context, itemID string) (*domain.PlanItem, error) {
	row := db.db.QueryRowContext(ctx, `
		SELECT id, plan_id, task_id, start_at, end_at, position, explanation,
		       llm_explanation, priority, source
		FROM plan_items WHERE id = ?`, itemID)
	it, startAt, endAt, err := scanPlanItemRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPlanItemNotFound
	}
	if err != nil {
		return nil, err
	}
	it.Start, _ = time.Parse(time.RFC3339, startAt)
	it.End, _ = time.Parse(time.RFC3339, endAt)
	return &it, nil
}

func (db *DB) UpdatePlanItem(ctx context.Context, item domain.PlanItem) error {
	res, err := db.db.ExecContext(ctx, `
		UPDATE plan_items SET plan_id = ?, start_at = ?, end_at = ?, position = ?, source = ?
		WHERE id = ?`,
		item.PlanID, item.Start.UTC().Format(time.RFC3339), item.End.UTC().Format(time.RFC3339),
		item.Position, string(item.Source), item.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrPlanItemNotFound
	}
	return nil
}

func (db *DB) DeletePlanItem(ctx context.Context, itemID string) error {
	res, err := db.db.ExecContext(ctx, `DELETE FROM plan_items WHERE id = ?`, itemID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrPlanItemNotFound
	}
	return nil
}

// ─── Feedback ───────────────────────────────────────────────────────────────

func (db *DB) RecentFeedback(ctx context.Context, userID string, limit int) ([]domain.FeedbackLog, error) {
	rows, err := db.db.QueryContext(ctx, `
		SELECT id, user_id, task_id, outcome, note, created_at
		FROM feedback_logs WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.FeedbackLog
	for rows.Next() {
		var f domain.FeedbackLog
		var createdAt string
		if err := rows.Scan(&f.ID, &f.UserID, &f.TaskID, &f.Outcome, &f.Note, &createdAt); err != nil {
			return nil, err
		}
		f.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, f)
	}
	return out, rows.Err()
}

func (db *DB) AppendFeedback(ctx context.Context, f domain.FeedbackLog) error {
	_, err := db.db.ExecContext(ctx, `
		INSERT INTO feedback_logs (id, user_id, task_id, outcome, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		f.ID, f.UserID, f.TaskID, f.Outcome, f.Note, f.CreatedAt.UTC().Format(time.RFC3339))
	return err
}
