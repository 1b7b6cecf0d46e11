package handler

import (
	"net/http"
	"strconv"

	"github.com/salesdesk/crm-api/internal/domain"
	"github.com/salesdesk/crm-api/internal/service"
	"go.uber.org/zap"
)

type NoteHandler struct {
	noteService *service.NoteService
	logger      *zap.Logger
}

func NewNoteHandler(noteService *service.NoteService, logger *zap.Logger) *NoteHandler {
	return &NoteHandler{noteService: noteService, logger: logger}
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateNoteRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	note, err := h.noteService.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create note", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, note)
}

// ListForEntity returns the notes on one record, addressed by
// entityType and entityId query parameters.
func (h *NoteHandler) ListForEntity(w http.ResponseWriter, r *http.Request) {
	entityType := domain.NoteEntityType(r.URL.Query().Get("entityType"))
	entityID, err := strconv.ParseUint(r.URL.Query().Get("entityId"), 10, 64)
	if err != nil || entityID == 0 {
		respondAPIError(w, domain.NewValidationError("Query parameters entityType and entityId are required", nil))
		return
	}

	notes, err := h.noteService.ListForEntity(r.Context(), entityType, uint(entityID))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, notes)
}

func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondAPIError(w, domain.NewValidationError("Invalid note ID", nil))
		return
	}

	if err := h.noteService.Delete(r.Context(), id); err != nil {
		h.logger.Error("failed to delete note", zap.Error(err), zap.Uint("note_id", id))
		respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
