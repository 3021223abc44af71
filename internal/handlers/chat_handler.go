// File: internal/handlers/chat_handler.go
package handlers

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"

	"github.com/yuin/goldmark"

	"github.com/askdeck/askdeck/internal/domain"
	"github.com/askdeck/askdeck/internal/middleware"
	"github.com/askdeck/askdeck/internal/services"
)

type ChatHandler struct {
	SessionService *services.SessionService
}

func NewChatHandler(ss *services.SessionService) *ChatHandler {
	return &ChatHandler{SessionService: ss}
}

// resolveStore decides which store the call targets. API-key scopes are
// bound to their key's store; naming a different one is refused without
// revealing whether it exists. Primary scopes must name a store.
func resolveStore(scope *services.Scope, requested uint) (uint, error) {
	if scope.StoreID != nil {
		if requested != 0 && requested != *scope.StoreID {
			return 0, domain.ErrUnauthorized
		}
		return *scope.StoreID, nil
	}
	if requested == 0 {
		return 0, domain.ErrNotFound
	}
	return requested, nil
}

// StartChat opens a new session for the caller, replacing any prior
// one. A key's pinned or fallback prompt overrides the store's active
// prompt; a primary caller may pass an explicit prompt override.
func (h *ChatHandler) StartChat(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFromContext(r.Context())
	if scope == nil {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		StoreID uint   `json:"store_id"`
		ModelID string `json:"model_id"`
		Prompt  string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Bad Request", http.StatusBadRequest)
		return
	}

	storeID, err := resolveStore(scope, req.StoreID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	promptOverride := req.Prompt
	if scope.PromptContent != "" {
		promptOverride = scope.PromptContent
	}

	result, err := h.SessionService.StartChat(r.Context(), scope.Principal, storeID, req.ModelID, promptOverride)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if scope.FallbackUsed {
		log.Printf("[ChatHandler] %s started chat with fallback prompt on store %d", scope.Principal, storeID)
	}
	writeJSON(w, http.StatusCreated, result)
}

// SendMessage appends a user turn and returns the model's answer, both
// raw and rendered to HTML.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFromContext(r.Context())
	if scope == nil {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		writeError(w, "message is required", http.StatusBadRequest)
		return
	}

	answer, err := h.SessionService.SendMessage(r.Context(), scope.Principal, req.Message)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"answer":      answer,
		"answer_html": renderMarkdown(answer),
	})
}

// GetHistory returns the session transcript in order.
func (h *ChatHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFromContext(r.Context())
	if scope == nil {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	history, err := h.SessionService.GetHistory(scope.Principal)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"messages": history})
}

// EndChat terminates the caller's session, if any.
func (h *ChatHandler) EndChat(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFromContext(r.Context())
	if scope == nil {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	h.SessionService.Terminate(scope.Principal)
	w.WriteHeader(http.StatusNoContent)
}

// Query answers a single question without session state.
func (h *ChatHandler) Query(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFromContext(r.Context())
	if scope == nil {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		StoreID  uint   `json:"store_id"`
		Question string `json:"question"`
		ModelID  string `json:"model_id"`
		Prompt   string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Question == "" {
		writeError(w, "question is required", http.StatusBadRequest)
		return
	}

	storeID, err := resolveStore(scope, req.StoreID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	promptOverride := req.Prompt
	if scope.PromptContent != "" {
		promptOverride = scope.PromptContent
	}

	answer, err := h.SessionService.Query(r.Context(), storeID, req.Question, req.ModelID, promptOverride)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"answer":      answer,
		"answer_html": renderMarkdown(answer),
	})
}

func renderMarkdown(text string) string {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(text), &buf); err != nil {
		return ""
	}
	return buf.String()
}
