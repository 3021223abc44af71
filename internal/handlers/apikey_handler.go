// File: internal/handlers/apikey_handler.go
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/askdeck/askdeck/internal/services"
)

type ApiKeyHandler struct {
	ApiKeyService *services.ApiKeyService
}

func NewApiKeyHandler(ks *services.ApiKeyService) *ApiKeyHandler {
	return &ApiKeyHandler{ApiKeyService: ks}
}

// CreateApiKey mints a key scoped to one store. The plaintext secret
// appears in this response and nowhere else.
func (h *ApiKeyHandler) CreateApiKey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		StoreID     uint   `json:"store_id"`
		PromptIndex *int   `json:"prompt_index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" || req.StoreID == 0 {
		writeError(w, "name and store_id are required", http.StatusBadRequest)
		return
	}

	created, err := h.ApiKeyService.CreateApiKey(r.Context(), req.Name, req.StoreID, req.PromptIndex)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"key":    created.Key,
		"record": created.Record,
	})
}

// ListApiKeys returns key metadata, optionally filtered by the store_id
// query parameter. Secrets and hashes are never included.
func (h *ApiKeyHandler) ListApiKeys(w http.ResponseWriter, r *http.Request) {
	var storeID *uint
	if raw := r.URL.Query().Get("store_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			writeError(w, "Invalid store_id", http.StatusBadRequest)
			return
		}
		id := uint(parsed)
		storeID = &id
	}

	keys, err := h.ApiKeyService.ListApiKeys(r.Context(), storeID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"keys": keys})
}

func (h *ApiKeyHandler) DeleteApiKey(w http.ResponseWriter, r *http.Request) {
	keyID, err := pathID(r, "id")
	if err != nil {
		writeError(w, "Invalid key ID", http.StatusBadRequest)
		return
	}

	if err := h.ApiKeyService.DeleteApiKey(r.Context(), keyID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
