package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/actuallystonmai/user-directory/internal/domain"
)

const (
	msgInvalidID   = "Invalid user id."
	msgInvalidForm = "Invalid data. Please fill in all fields correctly."
	msgNotFound    = "User not found."
	msgPageMissing = "Page Not Found"
)

type HealthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// writeServiceError maps a service error onto the response. prefix names the
// failed operation in 500 bodies.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, prefix string, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidUser):
		writeText(w, http.StatusBadRequest, msgInvalidForm)
	case errors.Is(err, domain.ErrUserNotFound):
		writeText(w, http.StatusNotFound, msgNotFound)
	default:
		log.Printf("[handler] %s %s: %s: %v", r.Method, r.URL.Path, prefix, err)
		if h.exposeDBErrors {
			writeText(w, http.StatusInternalServerError, prefix+": "+err.Error())
			return
		}
		writeText(w, http.StatusInternalServerError, prefix+": internal error")
	}
}

// NotFound answers every unmatched path or method.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, msgPageMissing)
}
