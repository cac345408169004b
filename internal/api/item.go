package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/optimatime/optimatime/internal/infra/observability"
)

func (s *Server) handleMoveItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "id")

	startParam := r.URL.Query().Get("start")
	endParam := r.URL.Query().Get("end")
	start, err := time.Parse(time.RFC3339, startParam)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start must be an RFC3339 instant")
		return
	}
	end, err := time.Parse(time.RFC3339, endParam)
	if err != nil {
		writeError(w, http.StatusBadRequest, "end must be an RFC3339 instant")
		return
	}

	result, err := s.mutator.MoveItem(r.Context(), userFromContext(r.Context()), itemID, start, end)
	if err != nil {
		observability.ItemMutations.WithLabelValues("move_rejected").Inc()
		writeServiceError(w, err)
		return
	}
	observability.ItemMutations.WithLabelValues("move").Inc()

	writeJSON(w, http.StatusOK, scheduledItemOut{
		PlanItemID:     result.Item.ID,
		TaskID:         result.Item.TaskID,
		Start:          result.Item.Start.Format(time.RFC3339),
		End:            result.Item.End.Format(time.RFC3339),
		Explanation:    result.Item.Explanation,
		Priority:       result.Item.Priority,
		LLMExplanation: result.Item.LLMExplanation,
	})
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "id")

	if err := s.mutator.DeleteItem(r.Context(), userFromContext(r.Context()), itemID); err != nil {
		observability.ItemMutations.WithLabelValues("delete_rejected").Inc()
		writeServiceError(w, err)
		return
	}
	observability.ItemMutations.WithLabelValues("delete").Inc()

	writeJSON(w, http.StatusOK, map[string]string{"detail": "Removed from calendar"})
}
