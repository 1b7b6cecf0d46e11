package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/salesdesk/crm-api/internal/domain"
	"github.com/salesdesk/crm-api/internal/service"
)

var validate = validator.New()

const maxPageSize = 200

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func respondAPIError(w http.ResponseWriter, apiErr *domain.APIError) {
	respondJSON(w, apiErr.Status, apiErr)
}

// respondServiceError maps the service sentinel errors onto the API
// error taxonomy. Unrecognized errors become a 500 with a generic
// detail; the cause stays in the handler's log line.
func respondServiceError(w http.ResponseWriter, err error) {
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) {
		respondAPIError(w, apiErr)
		return
	}

	switch {
	case errors.Is(err, service.ErrNotFound):
		respondAPIError(w, domain.NewNotFoundError("Resource not found"))
	case errors.Is(err, service.ErrAccessDenied):
		respondAPIError(w, domain.NewAccessDeniedError("You do not have access to this resource"))
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrInvalidTransition):
		respondAPIError(w, domain.NewValidationError(err.Error(), nil))
	case errors.Is(err, service.ErrConflict), errors.Is(err, service.ErrDuplicateOpenDeal):
		respondAPIError(w, domain.NewConflictError(err.Error()))
	case errors.Is(err, service.ErrInvalidAssignee):
		respondAPIError(w, domain.NewInvalidAssigneeError(err.Error()))
	case errors.Is(err, service.ErrOwnerMismatch):
		respondAPIError(w, domain.NewOwnerMismatchError(err.Error()))
	case errors.Is(err, service.ErrTransactionFailed):
		respondAPIError(w, domain.NewTransactionFailedError())
	default:
		respondAPIError(w, domain.NewInternalError())
	}
}

// respondValidationError sends per-field messages for request payloads
// that fail struct validation.
func respondValidationError(w http.ResponseWriter, err error) {
	fields := make(map[string]string)
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fields[toJSONFieldName(fe.Field())] = formatValidationError(fe)
		}
	}
	respondAPIError(w, domain.NewValidationError("One or more fields failed validation", fields))
}

func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", toJSONFieldName(fe.Field()))
	case "email":
		return "Must be a valid email address"
	case "max":
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("Must be at least %s", fe.Param())
	case "gte":
		return fmt.Sprintf("Must be greater than or equal to %s", fe.Param())
	case "dive":
		return "Contains an invalid entry"
	default:
		return "Invalid value"
	}
}

// toJSONFieldName converts a Go struct field name to its snake_case
// JSON equivalent.
func toJSONFieldName(field string) string {
	var b strings.Builder
	for i, r := range field {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// parseIDParam reads a positive integer id from the route.
func parseIDParam(r *http.Request, name string) (uint, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return uint(id), nil
}

// parsePagination reads page and pageSize query parameters with
// defaults and a cap.
func parsePagination(r *http.Request) (page, pageSize int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(r.URL.Query().Get("pageSize"))
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

// decodeAndValidate parses the JSON body into req and runs struct
// validation, writing the error response itself. Returns false when the
// request has already been answered.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		respondAPIError(w, domain.NewValidationError("Invalid request body", nil))
		return false
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return false
	}
	return true
}

func queryUint(r *http.Request, name string) *uint {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil
	}
	u := uint(v)
	return &u
}
