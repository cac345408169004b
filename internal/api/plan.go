package api

import (
	"net/http"
	"time"

	"github.com/optimatime/optimatime/internal/app/planner"
	"github.com/optimatime/optimatime/internal/infra/observability"
)

const dateLayout = "2006-01-02"

// scheduledItemOut is the wire shape of one placed task.
type scheduledItemOut struct {
	PlanItemID     string  `json:"plan_item_id"`
	TaskID         string  `json:"task_id"`
	Title          string  `json:"title"`
	Start          string  `json:"start"`
	End            string  `json:"end"`
	Explanation    string  `json:"explanation"`
	Priority       float64 `json:"priority"`
	LLMExplanation string  `json:"llm_explanation,omitempty"`
}

// unscheduledTaskOut is the wire shape of a task that could not be placed.
type unscheduledTaskOut struct {
	TaskID          string `json:"task_id"`
	Title           string `json:"title"`
	DurationMinutes int    `json:"duration_minutes"`
	Deadline        string `json:"deadline"`
	Category        string `json:"category"`
	Importance      string `json:"importance"`
	Preferred       string `json:"preferred"`
	Energy          string `json:"energy"`
	Status          string `json:"status"`
	Reason          string `json:"reason"`
}

// planOut is the PlanOut response shape.
type planOut struct {
	ModelVersion    string               `json:"model_version"`
	ModelConfidence *float64             `json:"model_confidence"`
	Scheduled       []scheduledItemOut   `json:"scheduled"`
	Unscheduled     []unscheduledTaskOut `json:"unscheduled"`
}

func toPlanOut(r planner.Result) planOut {
	scheduled := make([]scheduledItemOut, 0, len(r.Scheduled))
	for _, it := range r.Scheduled {
		scheduled = append(scheduled, scheduledItemOut{
			PlanItemID:     it.PlanItemID,
			TaskID:         it.TaskID,
			Title:          it.Title,
			Start:          it.Start.Format(time.RFC3339),
			End:            it.End.Format(time.RFC3339),
			Explanation:    it.Explanation,
			Priority:       it.Priority,
			LLMExplanation: it.LLMExplanation,
		})
	}
	unscheduled := make([]unscheduledTaskOut, 0, len(r.Unscheduled))
	for _, u := range r.Unscheduled {
		unscheduled = append(unscheduled, unscheduledTaskOut{
			TaskID:          u.ID,
			Title:           u.Title,
			DurationMinutes: u.DurationMinutes(),
			Deadline:        u.Deadline.Format(time.RFC3339),
			Category:        string(u.Category),
			Importance:      string(u.Importance),
			Preferred:       string(u.Preferred),
			Energy:          string(u.Energy),
			Status:          string(u.Status),
			Reason:          u.Reason,
		})
	}
	return planOut{
		ModelVersion:    r.ModelVersion,
		ModelConfidence: r.ModelConfidence,
		Scheduled:       scheduled,
		Unscheduled:     unscheduled,
	}
}

type generatePlanRequest struct {
	Date string `json:"date"`
}

func (s *Server) handleGeneratePlan(w http.ResponseWriter, r *http.Request) {
	var req generatePlanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	planDate, err := time.ParseInLocation(dateLayout, req.Date, time.UTC)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	start := time.Now()
	result, err := s.planner.GeneratePlan(r.Context(), userFromContext(r.Context()), planDate)
	observability.PlanRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		observability.PlanRequests.WithLabelValues("error").Inc()
		writeServiceError(w, err)
		return
	}
	observability.PlanRequests.WithLabelValues("ok").Inc()
	observability.PlanItemsScheduled.Add(float64(len(result.Scheduled)))
	for _, u := range result.Unscheduled {
		observability.PlanItemsUnscheduled.WithLabelValues(u.Reason).Inc()
	}

	writeJSON(w, http.StatusOK, toPlanOut(result))
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	dateParam := r.URL.Query().Get("plan_date")
	planDate, err := time.ParseInLocation(dateLayout, dateParam, time.UTC)
	if err != nil {
		writeError(w, http.StatusBadRequest, "plan_date must be YYYY-MM-DD")
		return
	}

	result, err := s.planner.GetPlan(r.Context(), userFromContext(r.Context()), planDate)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanOut(result))
}

type calendarDayOut struct {
	PlanDate     string             `json:"plan_date"`
	ModelVersion string             `json:"model_version"`
	Summary      string             `json:"summary"`
	Scheduled    []scheduledItemOut `json:"scheduled"`
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	startParam := r.URL.Query().Get("start_date")
	endParam := r.URL.Query().Get("end_date")
	from, err := time.ParseInLocation(dateLayout, startParam, time.UTC)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start_date must be YYYY-MM-DD")
		return
	}
	to, err := time.ParseInLocation(dateLayout, endParam, time.UTC)
	if err != nil {
		writeError(w, http.StatusBadRequest, "end_date must be YYYY-MM-DD")
		return
	}

	days, err := s.planner.Calendar(r.Context(), userFromContext(r.Context()), from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]calendarDayOut, 0, len(days))
	for _, d := range days {
		scheduled := make([]scheduledItemOut, 0, len(d.Scheduled))
		for _, it := range d.Scheduled {
			scheduled = append(scheduled, scheduledItemOut{
				PlanItemID:  it.PlanItemID,
				TaskID:      it.TaskID,
				Title:       it.Title,
				Start:       it.Start.Format(time.RFC3339),
				End:         it.End.Format(time.RFC3339),
				Explanation: it.Explanation,
			})
		}
		out = append(out, calendarDayOut{
			PlanDate:     d.PlanDate.Format(dateLayout),
			ModelVersion: d.ModelVersion,
			Summary:      d.Summary,
			Scheduled:    scheduled,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"days": out})
}
