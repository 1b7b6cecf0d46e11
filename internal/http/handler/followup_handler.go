package handler

import (
	"net/http"
	"time"

	"github.com/salesdesk/crm-api/internal/domain"
	"github.com/salesdesk/crm-api/internal/repository"
	"github.com/salesdesk/crm-api/internal/service"
	"go.uber.org/zap"
)

type FollowupHandler struct {
	followupService *service.FollowupService
	logger          *zap.Logger
}

func NewFollowupHandler(followupService *service.FollowupService, logger *zap.Logger) *FollowupHandler {
	return &FollowupHandler{followupService: followupService, logger: logger}
}

func (h *FollowupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateFollowupRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	followup, err := h.followupService.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create followup", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, followup)
}

func (h *FollowupHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondAPIError(w, domain.NewValidationError("Invalid followup ID", nil))
		return
	}

	followup, err := h.followupService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, followup)
}

func (h *FollowupHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)

	filters := repository.FollowupFilters{
		CustomerID: queryUint(r, "customerId"),
	}
	if status := r.URL.Query().Get("status"); status != "" {
		s := domain.FollowupStatus(status)
		if !s.IsValid() {
			respondAPIError(w, domain.NewValidationError("Unknown followup status", nil))
			return
		}
		filters.Status = &s
	}
	if due := r.URL.Query().Get("dueBefore"); due != "" {
		parsed, err := time.Parse(domain.DateLayout, due)
		if err != nil {
			respondAPIError(w, domain.NewValidationError("dueBefore must be YYYY-MM-DD", nil))
			return
		}
		filters.DueBefore = &parsed
	}

	result, err := h.followupService.List(r.Context(), filters, page, pageSize)
	if err != nil {
		h.logger.Error("failed to list followups", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (h *FollowupHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondAPIError(w, domain.NewValidationError("Invalid followup ID", nil))
		return
	}

	var req domain.UpdateFollowupRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	followup, err := h.followupService.Update(r.Context(), id, &req)
	if err != nil {
		h.logger.Error("failed to update followup", zap.Error(err), zap.Uint("followup_id", id))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, followup)
}

func (h *FollowupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondAPIError(w, domain.NewValidationError("Invalid followup ID", nil))
		return
	}

	if err := h.followupService.Delete(r.Context(), id); err != nil {
		h.logger.Error("failed to delete followup", zap.Error(err), zap.Uint("followup_id", id))
		respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
