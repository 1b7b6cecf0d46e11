package handler

import (
	"net/http"

	"github.com/salesdesk/crm-api/internal/domain"
	"github.com/salesdesk/crm-api/internal/service"
	"go.uber.org/zap"
)

type LeadSourceHandler struct {
	sourceService *service.LeadSourceService
	logger        *zap.Logger
}

func NewLeadSourceHandler(sourceService *service.LeadSourceService, logger *zap.Logger) *LeadSourceHandler {
	return &LeadSourceHandler{sourceService: sourceService, logger: logger}
}

func (h *LeadSourceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateLeadSourceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	source, err := h.sourceService.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create lead source", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, source)
}

func (h *LeadSourceHandler) List(w http.ResponseWriter, r *http.Request) {
	sources, err := h.sourceService.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list lead sources", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, sources)
}

func (h *LeadSourceHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondAPIError(w, domain.NewValidationError("Invalid lead source ID", nil))
		return
	}

	var req domain.UpdateLeadSourceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	source, err := h.sourceService.Update(r.Context(), id, &req)
	if err != nil {
		h.logger.Error("failed to update lead source", zap.Error(err), zap.Uint("source_id", id))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, source)
}
