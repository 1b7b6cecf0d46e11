package handler

import (
	"net/http"
	"strconv"

	"github.com/salesdesk/crm-api/internal/domain"
	"github.com/salesdesk/crm-api/internal/repository"
	"github.com/salesdesk/crm-api/internal/service"
	"go.uber.org/zap"
)

type ProductHandler struct {
	productService *service.ProductService
	logger         *zap.Logger
}

func NewProductHandler(productService *service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{productService: productService, logger: logger}
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateProductRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	product, err := h.productService.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create product", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, product)
}

func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondAPIError(w, domain.NewValidationError("Invalid product ID", nil))
		return
	}

	product, err := h.productService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)

	result, err := h.productService.List(r.Context(), productFilters(r), page, pageSize)
	if err != nil {
		h.logger.Error("failed to list products", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// ListPublic serves the unauthenticated storefront catalogue.
func (h *ProductHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)

	result, err := h.productService.ListPublic(r.Context(), productFilters(r), page, pageSize)
	if err != nil {
		h.logger.Error("failed to list public products", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondAPIError(w, domain.NewValidationError("Invalid product ID", nil))
		return
	}

	var req domain.UpdateProductRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	product, err := h.productService.Update(r.Context(), id, &req)
	if err != nil {
		h.logger.Error("failed to update product", zap.Error(err), zap.Uint("product_id", id))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondAPIError(w, domain.NewValidationError("Invalid product ID", nil))
		return
	}

	if err := h.productService.Delete(r.Context(), id); err != nil {
		h.logger.Error("failed to delete product", zap.Error(err), zap.Uint("product_id", id))
		respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func productFilters(r *http.Request) repository.ProductFilters {
	filters := repository.ProductFilters{
		Search:     r.URL.Query().Get("search"),
		CategoryID: queryUint(r, "categoryId"),
	}
	if raw := r.URL.Query().Get("isPublic"); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			filters.IsPublic = &v
		}
	}
	return filters
}
