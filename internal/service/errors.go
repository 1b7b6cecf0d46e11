package service

import "errors"

// Common service errors. Handlers map these onto the API error taxonomy;
// anything not listed here surfaces as a transaction or internal failure
// with the cause kept in the logs.
var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrAccessDenied is returned on role or ownership mismatches
	ErrAccessDenied = errors.New("access denied")

	// ErrValidation is returned when input fails a semantic check the
	// request validator cannot express
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned on duplicate unique fields
	ErrConflict = errors.New("resource conflict")

	// ErrInvalidAssignee is returned when an assignment target does not
	// exist or is not a sales user
	ErrInvalidAssignee = errors.New("assignee must be an existing sales user")

	// ErrOwnerMismatch is returned when a supplied deal owner conflicts
	// with the customer's assignment
	ErrOwnerMismatch = errors.New("owner does not match customer assignment")

	// ErrDuplicateOpenDeal is returned when the customer already has an
	// open deal
	ErrDuplicateOpenDeal = errors.New("customer already has an open deal")

	// ErrInvalidTransition is returned for undefined lifecycle moves
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrTransactionFailed is returned when a multi-statement write rolled
	// back; the cause is logged, never exposed
	ErrTransactionFailed = errors.New("transaction failed")
)
