package domain

import "net/http"

// APIError is the structured error body returned to API clients.
// Internal store errors are never exposed here; they go to the logs only.
type APIError struct {
	Type   string            `json:"type"`
	Title  string            `json:"title"`
	Status int               `json:"status"`
	Detail string            `json:"detail,omitempty"`
	Errors map[string]string `json:"errors,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Title + ": " + e.Detail
}

// NewUnauthenticatedError creates a 401 error for missing credentials
func NewUnauthenticatedError(detail string) *APIError {
	return &APIError{
		Type:   "unauthenticated",
		Title:  "Authentication required",
		Status: http.StatusUnauthorized,
		Detail: detail,
	}
}

// NewInvalidCredentialError creates a 401 error for malformed or expired credentials
func NewInvalidCredentialError(detail string) *APIError {
	return &APIError{
		Type:   "invalid_credential",
		Title:  "Invalid credential",
		Status: http.StatusUnauthorized,
		Detail: detail,
	}
}

// NewAccessDeniedError creates a 403 error for role or ownership mismatches
func NewAccessDeniedError(detail string) *APIError {
	return &APIError{
		Type:   "access_denied",
		Title:  "Access denied",
		Status: http.StatusForbidden,
		Detail: detail,
	}
}

// NewNotFoundError creates a 404 error
func NewNotFoundError(detail string) *APIError {
	return &APIError{
		Type:   "not_found",
		Title:  "Resource not found",
		Status: http.StatusNotFound,
		Detail: detail,
	}
}

// NewValidationError creates a 422 error with per-field messages
func NewValidationError(detail string, fieldErrors map[string]string) *APIError {
	return &APIError{
		Type:   "validation_failed",
		Title:  "Validation failed",
		Status: http.StatusUnprocessableEntity,
		Detail: detail,
		Errors: fieldErrors,
	}
}

// NewConflictError creates a 409 error for duplicate unique fields or
// duplicate open deals
func NewConflictError(detail string) *APIError {
	return &APIError{
		Type:   "conflict",
		Title:  "Conflict",
		Status: http.StatusConflict,
		Detail: detail,
	}
}

// NewInvalidAssigneeError creates a 422 error for assignment targets that
// do not exist or are not sales users
func NewInvalidAssigneeError(detail string) *APIError {
	return &APIError{
		Type:   "invalid_assignee",
		Title:  "Invalid assignee",
		Status: http.StatusUnprocessableEntity,
		Detail: detail,
	}
}

// NewOwnerMismatchError creates a 422 error for deal owners that conflict
// with the customer's assignment
func NewOwnerMismatchError(detail string) *APIError {
	return &APIError{
		Type:   "owner_mismatch",
		Title:  "Owner mismatch",
		Status: http.StatusUnprocessableEntity,
		Detail: detail,
	}
}

// NewTransactionFailedError creates a 500 error for rolled-back writes.
// The underlying cause stays in the logs.
func NewTransactionFailedError() *APIError {
	return &APIError{
		Type:   "transaction_failed",
		Title:  "Transaction failed",
		Status: http.StatusInternalServerError,
		Detail: "The operation could not be completed and no changes were applied",
	}
}

// NewInternalError creates a generic 500 error
func NewInternalError() *APIError {
	return &APIError{
		Type:   "internal_error",
		Title:  "Internal server error",
		Status: http.StatusInternalServerError,
		Detail: "An unexpected error occurred",
	}
}
