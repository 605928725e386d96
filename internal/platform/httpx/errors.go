package httpx

import (
	"errors"
	"net/http"

	"github.com/meridian-esw/meridian-esw/internal/shared"
)

// RespondError maps workflow errors to HTTP responses using RFC7807.
// Failures are surfaced with their human-readable message; nothing is
// swallowed here.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrInvalidStateTransition):
		Problem(w, http.StatusConflict, "Invalid State Transition", err.Error())
	case errors.Is(err, shared.ErrNoChangesDetected):
		Problem(w, http.StatusUnprocessableEntity, "No Changes Detected", err.Error())
	case errors.Is(err, shared.ErrConflictExists):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, shared.ErrNotLatestApprovedRevision):
		Problem(w, http.StatusConflict, "Not Latest Approved Revision", err.Error())
	case errors.Is(err, shared.ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, shared.ErrInvalidCredentials):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case errors.Is(err, shared.ErrIdempotencyConflict):
		Problem(w, http.StatusConflict, "Duplicate Request", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
