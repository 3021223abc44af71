// File: internal/handlers/helpers.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/askdeck/askdeck/internal/domain"
	"github.com/askdeck/askdeck/internal/services/engine"
)

// writeJSON is a helper for sending JSON responses.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError is a helper for sending JSON error responses.
func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps service errors to HTTP statuses. Unknown
// errors surface as 500 with a generic message.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, "Not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrLimitExceeded):
		writeError(w, "Limit exceeded", http.StatusConflict)
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, "Unauthorized", http.StatusUnauthorized)
	case errors.Is(err, domain.ErrUnsupportedFormat):
		writeError(w, "Unsupported file format", http.StatusUnsupportedMediaType)
	case errors.Is(err, domain.ErrNoActiveSession):
		writeError(w, "No active chat session", http.StatusBadRequest)
	case errors.Is(err, domain.ErrSessionSuperseded):
		writeError(w, "Chat session was superseded", http.StatusConflict)
	default:
		var engErr *engine.EngineError
		if errors.As(err, &engErr) {
			if engErr.Type == engine.ErrTypeRateLimit || engErr.Type == engine.ErrTypeQuota {
				writeError(w, "Provider is rate limited, try again later", http.StatusTooManyRequests)
				return
			}
			writeError(w, "Provider error: "+engErr.Message, http.StatusBadGateway)
			return
		}
		writeError(w, "Internal server error", http.StatusInternalServerError)
	}
}

// pathID parses the named uint path variable from the request.
func pathID(r *http.Request, name string) (uint, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
