package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mohd-abex/abex-okr/internal/access"
	"github.com/mohd-abex/abex-okr/internal/domain"
	"github.com/mohd-abex/abex-okr/internal/repository"
)

// writeJSON writes JSON response with status code.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError sends an error message.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusForError maps the error taxonomy onto HTTP statuses. Anything outside
// the taxonomy counts as a store failure.
func statusForError(err error) int {
	switch {
	case errors.Is(err, access.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, access.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrConflict):
		return http.StatusConflict
	default:
		// access.ErrInvalidIdentityState and raw store errors included.
		return http.StatusInternalServerError
	}
}

// respondError writes the mapped status. Internal causes are not echoed to
// the client.
func respondError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeError(w, status, msg)
}
