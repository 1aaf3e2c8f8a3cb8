package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// BaseHandler provides common handler functionality
type BaseHandler struct {
	Logger *zap.Logger
}

// RespondJSON sends a JSON response
func (h *BaseHandler) RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// RespondError sends an error JSON response
func (h *BaseHandler) RespondError(w http.ResponseWriter, status int, message string) {
	h.RespondJSON(w, status, map[string]string{"error": message})
}

// RespondServiceError maps a service error onto an HTTP status. Missing
// records become 404, validation failures 400, everything else 500.
func (h *BaseHandler) RespondServiceError(w http.ResponseWriter, err error) {
	message := err.Error()
	switch {
	case strings.Contains(message, "not found"):
		h.RespondError(w, http.StatusNotFound, message)
	case strings.Contains(message, "invalid") ||
		strings.Contains(message, "cannot") ||
		strings.Contains(message, "already exists") ||
		strings.Contains(message, "unknown") ||
		strings.Contains(message, "unsupported") ||
		strings.Contains(message, "must") ||
		strings.Contains(message, "no original content") ||
		strings.Contains(message, "empty"):
		h.RespondError(w, http.StatusBadRequest, message)
	default:
		h.Logger.Error("request failed", zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, message)
	}
}
