package handler

import (
	"net/http"

	"github.com/salesdesk/crm-api/internal/domain"
	"github.com/salesdesk/crm-api/internal/repository"
	"github.com/salesdesk/crm-api/internal/service"
	"go.uber.org/zap"
)

type DealHandler struct {
	dealService *service.DealService
	logger      *zap.Logger
}

func NewDealHandler(dealService *service.DealService, logger *zap.Logger) *DealHandler {
	return &DealHandler{dealService: dealService, logger: logger}
}

func (h *DealHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateDealRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	deal, err := h.dealService.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create deal", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, deal)
}

func (h *DealHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondAPIError(w, domain.NewValidationError("Invalid deal ID", nil))
		return
	}

	deal, err := h.dealService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, deal)
}

func (h *DealHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)

	filters := repository.DealFilters{
		CustomerID: queryUint(r, "customerId"),
		OwnerID:    queryUint(r, "ownerId"),
	}
	if stage := r.URL.Query().Get("stage"); stage != "" {
		st := domain.DealStage(stage)
		if !st.IsValid() || !st.IsOpen() {
			respondAPIError(w, domain.NewValidationError("Unknown or closed deal stage", nil))
			return
		}
		filters.Stage = &st
	}

	result, err := h.dealService.List(r.Context(), filters, page, pageSize)
	if err != nil {
		h.logger.Error("failed to list deals", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Update applies field changes and stage moves; won and lost archive
// the deal.
func (h *DealHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondAPIError(w, domain.NewValidationError("Invalid deal ID", nil))
		return
	}

	var req domain.UpdateDealRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	deal, err := h.dealService.Update(r.Context(), id, &req)
	if err != nil {
		h.logger.Error("failed to update deal", zap.Error(err), zap.Uint("deal_id", id))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, deal)
}

func (h *DealHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondAPIError(w, domain.NewValidationError("Invalid deal ID", nil))
		return
	}

	if err := h.dealService.Delete(r.Context(), id); err != nil {
		h.logger.Error("failed to delete deal", zap.Error(err), zap.Uint("deal_id", id))
		respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *DealHandler) ListWon(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)

	result, err := h.dealService.ListWon(r.Context(), page, pageSize)
	if err != nil {
		h.logger.Error("failed to list won deals", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (h *DealHandler) GetWonByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondAPIError(w, domain.NewValidationError("Invalid deal ID", nil))
		return
	}

	deal, err := h.dealService.GetWonByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, deal)
}

func (h *DealHandler) ListLost(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)

	result, err := h.dealService.ListLost(r.Context(), page, pageSize)
	if err != nil {
		h.logger.Error("failed to list lost deals", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (h *DealHandler) GetLostByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondAPIError(w, domain.NewValidationError("Invalid deal ID", nil))
		return
	}

	deal, err := h.dealService.GetLostByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, deal)
}
