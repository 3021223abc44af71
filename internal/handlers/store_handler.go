// File: internal/handlers/store_handler.go
package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/askdeck/askdeck/internal/services"
)

// maxUploadBytes caps multipart uploads at 50 MiB.
const maxUploadBytes = 50 << 20

type StoreHandler struct {
	StoreService *services.StoreService
}

func NewStoreHandler(ss *services.StoreService) *StoreHandler {
	return &StoreHandler{StoreService: ss}
}

// CreateStore provisions a new knowledge store both on the provider and
// in the local registry.
func (h *StoreHandler) CreateStore(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DisplayName == "" {
		writeError(w, "display_name is required", http.StatusBadRequest)
		return
	}

	store, err := h.StoreService.CreateStore(r.Context(), req.DisplayName)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, store)
}

func (h *StoreHandler) ListStores(w http.ResponseWriter, r *http.Request) {
	stores, err := h.StoreService.ListStores(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"stores": stores})
}

func (h *StoreHandler) GetStore(w http.ResponseWriter, r *http.Request) {
	storeID, err := pathID(r, "id")
	if err != nil {
		writeError(w, "Invalid store ID", http.StatusBadRequest)
		return
	}

	store, err := h.StoreService.GetStore(r.Context(), storeID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, store)
}

// DeleteStore removes the store and everything that depends on it:
// files, prompts, API keys and live chat sessions.
func (h *StoreHandler) DeleteStore(w http.ResponseWriter, r *http.Request) {
	storeID, err := pathID(r, "id")
	if err != nil {
		writeError(w, "Invalid store ID", http.StatusBadRequest)
		return
	}

	if err := h.StoreService.DeleteStore(r.Context(), storeID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadFile accepts a multipart "file" field and indexes it into the
// store. The original filename is kept for format detection.
func (h *StoreHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	storeID, err := pathID(r, "id")
	if err != nil {
		writeError(w, "Invalid store ID", http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, "A 'file' form field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, "Could not read upload", http.StatusBadRequest)
		return
	}

	record, err := h.StoreService.UploadFile(r.Context(), storeID, content, header.Filename)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

func (h *StoreHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	storeID, err := pathID(r, "id")
	if err != nil {
		writeError(w, "Invalid store ID", http.StatusBadRequest)
		return
	}

	files, err := h.StoreService.ListFiles(r.Context(), storeID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"files": files})
}

func (h *StoreHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	fileID, err := pathID(r, "fileID")
	if err != nil {
		writeError(w, "Invalid file ID", http.StatusBadRequest)
		return
	}

	if err := h.StoreService.DeleteFile(r.Context(), fileID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
