// File: internal/handlers/prompt_handler.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/askdeck/askdeck/internal/services"
)

type PromptHandler struct {
	PromptService *services.PromptService
}

func NewPromptHandler(ps *services.PromptService) *PromptHandler {
	return &PromptHandler{PromptService: ps}
}

// ListPrompts returns the store's prompts with the active one marked.
func (h *PromptHandler) ListPrompts(w http.ResponseWriter, r *http.Request) {
	storeID, err := pathID(r, "id")
	if err != nil {
		writeError(w, "Invalid store ID", http.StatusBadRequest)
		return
	}

	list, err := h.PromptService.ListPrompts(r.Context(), storeID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *PromptHandler) CreatePrompt(w http.ResponseWriter, r *http.Request) {
	storeID, err := pathID(r, "id")
	if err != nil {
		writeError(w, "Invalid store ID", http.StatusBadRequest)
		return
	}

	var req struct {
		Name    string `json:"name"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" || req.Content == "" {
		writeError(w, "name and content are required", http.StatusBadRequest)
		return
	}

	created, err := h.PromptService.CreatePrompt(r.Context(), storeID, req.Name, req.Content)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *PromptHandler) UpdatePrompt(w http.ResponseWriter, r *http.Request) {
	promptID, err := pathID(r, "promptID")
	if err != nil {
		writeError(w, "Invalid prompt ID", http.StatusBadRequest)
		return
	}

	var req struct {
		Name    *string `json:"name"`
		Content *string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if req.Name == nil && req.Content == nil {
		writeError(w, "Nothing to update", http.StatusBadRequest)
		return
	}

	updated, err := h.PromptService.UpdatePrompt(r.Context(), promptID, req.Name, req.Content)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *PromptHandler) DeletePrompt(w http.ResponseWriter, r *http.Request) {
	promptID, err := pathID(r, "promptID")
	if err != nil {
		writeError(w, "Invalid prompt ID", http.StatusBadRequest)
		return
	}

	if err := h.PromptService.DeletePrompt(r.Context(), promptID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetActivePrompt makes the prompt the store's single active one.
func (h *PromptHandler) SetActivePrompt(w http.ResponseWriter, r *http.Request) {
	storeID, err := pathID(r, "id")
	if err != nil {
		writeError(w, "Invalid store ID", http.StatusBadRequest)
		return
	}
	promptID, err := pathID(r, "promptID")
	if err != nil {
		writeError(w, "Invalid prompt ID", http.StatusBadRequest)
		return
	}

	if err := h.PromptService.SetActivePrompt(r.Context(), storeID, promptID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
