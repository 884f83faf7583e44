package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/phamrachel17/plan-pal/internal/calendar"
	"github.com/phamrachel17/plan-pal/internal/parser"
	"github.com/phamrachel17/plan-pal/internal/schedule"
	"github.com/phamrachel17/plan-pal/internal/service"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// writeDomainError maps service-layer errors onto HTTP statuses. Calendar
// auth failures become 401 so the client can trigger re-authentication
// instead of showing a generic failure.
func writeDomainError(w http.ResponseWriter, err error) {
	var vErr *schedule.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, vErr.Error())
	case errors.Is(err, service.ErrConversationNotFound):
		writeError(w, http.StatusNotFound, "conversation not found")
	case errors.Is(err, calendar.ErrAuth):
		writeError(w, http.StatusUnauthorized, "calendar authentication expired, please sign in again")
	case errors.Is(err, calendar.ErrPermission):
		writeError(w, http.StatusForbidden, "calendar access denied")
	case errors.Is(err, parser.ErrParse):
		writeError(w, http.StatusUnprocessableEntity, "could not extract an event from the message")
	case errors.Is(err, calendar.ErrRemote):
		writeError(w, http.StatusBadGateway, "calendar request failed")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
