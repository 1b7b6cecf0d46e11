package handler

import (
	"net/http"

	"github.com/salesdesk/crm-api/internal/domain"
	"github.com/salesdesk/crm-api/internal/repository"
	"github.com/salesdesk/crm-api/internal/service"
	"go.uber.org/zap"
)

type CustomerHandler struct {
	customerService *service.CustomerService
	logger          *zap.Logger
}

func NewCustomerHandler(customerService *service.CustomerService, logger *zap.Logger) *CustomerHandler {
	return &CustomerHandler{customerService: customerService, logger: logger}
}

func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateCustomerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	customer, err := h.customerService.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create customer", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, customer)
}

// Import accepts a batch of parsed rows and reports per-row failures.
func (h *CustomerHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req domain.ImportCustomersRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.customerService.Import(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to import customers", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (h *CustomerHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondAPIError(w, domain.NewValidationError("Invalid customer ID", nil))
		return
	}

	customer, err := h.customerService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, customer)
}

func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)

	filters := repository.CustomerFilters{
		Search:     r.URL.Query().Get("search"),
		AssignedTo: queryUint(r, "assignedTo"),
		SourceID:   queryUint(r, "sourceId"),
	}

	result, err := h.customerService.List(r.Context(), filters, page, pageSize)
	if err != nil {
		h.logger.Error("failed to list customers", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondAPIError(w, domain.NewValidationError("Invalid customer ID", nil))
		return
	}

	var req domain.UpdateCustomerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	customer, err := h.customerService.Update(r.Context(), id, &req)
	if err != nil {
		h.logger.Error("failed to update customer", zap.Error(err), zap.Uint("customer_id", id))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, customer)
}

func (h *CustomerHandler) Assign(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondAPIError(w, domain.NewValidationError("Invalid customer ID", nil))
		return
	}

	var req domain.AssignCustomerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	customer, err := h.customerService.Assign(r.Context(), id, req.AssignedTo)
	if err != nil {
		h.logger.Error("failed to assign customer", zap.Error(err), zap.Uint("customer_id", id))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, customer)
}

func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondAPIError(w, domain.NewValidationError("Invalid customer ID", nil))
		return
	}

	if err := h.customerService.Delete(r.Context(), id); err != nil {
		h.logger.Error("failed to delete customer", zap.Error(err), zap.Uint("customer_id", id))
		respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
