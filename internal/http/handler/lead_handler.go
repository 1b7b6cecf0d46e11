package handler

import (
	"net/http"
	"strconv"

	"github.com/salesdesk/crm-api/internal/domain"
	"github.com/salesdesk/crm-api/internal/repository"
	"github.com/salesdesk/crm-api/internal/service"
	"go.uber.org/zap"
)

type LeadHandler struct {
	leadService *service.LeadService
	logger      *zap.Logger
}

func NewLeadHandler(leadService *service.LeadService, logger *zap.Logger) *LeadHandler {
	return &LeadHandler{leadService: leadService, logger: logger}
}

// Register handles the public inbound form. Duplicate submissions inside
// the dedup window return 200 with the existing lead id; fresh ones 201.
func (h *LeadHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterLeadRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.leadService.Register(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to register lead", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	respondJSON(w, status, result)
}

func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateLeadRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	lead, err := h.leadService.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create lead", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, lead)
}

func (h *LeadHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondAPIError(w, domain.NewValidationError("Invalid lead ID", nil))
		return
	}

	lead, err := h.leadService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, lead)
}

func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)

	filters := repository.LeadFilters{
		Search:     r.URL.Query().Get("search"),
		AssignedTo: queryUint(r, "assignedTo"),
		SourceID:   queryUint(r, "sourceId"),
	}
	if status := r.URL.Query().Get("status"); status != "" {
		s := domain.LeadStatus(status)
		if !s.IsValid() {
			respondAPIError(w, domain.NewValidationError("Unknown lead status", nil))
			return
		}
		filters.Status = &s
	}

	result, err := h.leadService.List(r.Context(), filters, page, pageSize)
	if err != nil {
		h.logger.Error("failed to list leads", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (h *LeadHandler) Assign(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondAPIError(w, domain.NewValidationError("Invalid lead ID", nil))
		return
	}

	var req domain.AssignLeadRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	lead, err := h.leadService.Assign(r.Context(), id, req.AssignedTo)
	if err != nil {
		h.logger.Error("failed to assign lead", zap.Error(err), zap.Uint("lead_id", id))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, lead)
}

// Update applies field and status changes. The response carries the
// customer action taken when the lead moved to contacted.
func (h *LeadHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondAPIError(w, domain.NewValidationError("Invalid lead ID", nil))
		return
	}

	var req domain.UpdateLeadRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.leadService.Update(r.Context(), id, &req)
	if err != nil {
		h.logger.Error("failed to update lead", zap.Error(err), zap.Uint("lead_id", id))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (h *LeadHandler) ListLost(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)

	result, err := h.leadService.ListLost(r.Context(), page, pageSize)
	if err != nil {
		h.logger.Error("failed to list lost leads", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetLost looks up the archive entry by the original lead id.
func (h *LeadHandler) GetLost(w http.ResponseWriter, r *http.Request) {
	leadID, err := strconv.ParseUint(r.URL.Query().Get("leadId"), 10, 64)
	if err != nil || leadID == 0 {
		respondAPIError(w, domain.NewValidationError("Query parameter leadId is required", nil))
		return
	}

	lost, err := h.leadService.GetLostByLeadID(r.Context(), uint(leadID))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, lost)
}
