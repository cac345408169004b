package api

import (
	"errors"
	"net/http"

	"github.com/optimatime/optimatime/internal/domain"
)

// statusFor maps a domain sentinel error to its HTTP status code. Errors
// that don't match any sentinel are treated as internal.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrTaskNotFound),
		errors.Is(err, domain.ErrPlanNotFound),
		errors.Is(err, domain.ErrPlanItemNotFound),
		errors.Is(err, domain.ErrSettingsNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidDuration),
		errors.Is(err, domain.ErrInvalidCategory),
		errors.Is(err, domain.ErrInvalidImportance),
		errors.Is(err, domain.ErrInvalidPreferred),
		errors.Is(err, domain.ErrInvalidEnergy),
		errors.Is(err, domain.ErrInvalidDateRange),
		errors.Is(err, domain.ErrNoPendingTasks),
		errors.Is(err, domain.ErrSlotOccupied),
		errors.Is(err, domain.ErrPlanExists):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError writes the JSON error response matching err's mapped
// status code.
func writeServiceError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}
