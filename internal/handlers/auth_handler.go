// File: internal/handlers/auth_handler.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/askdeck/askdeck/internal/services"
)

type AuthHandler struct {
	AccessService *services.AccessService
}

func NewAuthHandler(as *services.AccessService) *AuthHandler {
	return &AuthHandler{AccessService: as}
}

// IssueToken exchanges the admin secret for a bearer token. This is the
// only unauthenticated route besides health.
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Subject string `json:"subject"`
		Secret  string `json:"secret"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Bad Request", http.StatusBadRequest)
		return
	}

	token, err := h.AccessService.IssueToken(req.Subject, req.Secret)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}
