package domain

import "fmt"

// Error types for consistent error handling across the BFF.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrExternalService indicates a failure in a backend API call.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrTimeout indicates an operation exceeded its deadline.
type ErrTimeout struct {
	Operation string
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("operation timed out: %s", e.Operation)
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrInvalidCNPJ indicates the backend (or local validation) rejected a CNPJ.
// Hint carries the backend's suggestion verbatim when present.
type ErrInvalidCNPJ struct {
	CNPJ string
	Hint string
}

func (e *ErrInvalidCNPJ) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("invalid CNPJ %q: %s", e.CNPJ, e.Hint)
	}
	return fmt.Sprintf("invalid CNPJ %q", e.CNPJ)
}

// ErrDuplicateInvoice indicates the backend found an already-confirmed
// invoice matching the one being submitted (HTTP 409 contract).
// Conflict carries the conflicting record's summary for the duplicate dialog.
type ErrDuplicateInvoice struct {
	Conflict PotentialDuplicate
}

func (e *ErrDuplicateInvoice) Error() string {
	return fmt.Sprintf("duplicate invoice: number=%s issuer=%s", e.Conflict.Number, e.Conflict.IssuerName)
}

// ErrReviewBlocked indicates confirm was aborted by pre-validation;
// the blocking field errors are preserved on the session.
type ErrReviewBlocked struct {
	Fields []string
}

func (e *ErrReviewBlocked) Error() string {
	return fmt.Sprintf("review has blocking field errors: %v", e.Fields)
}

// ErrUnauthorized indicates a missing or rejected auth token.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrForbidden indicates the user lacks permission for the operation.
type ErrForbidden struct {
	Action string
}

func (e *ErrForbidden) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Action)
}

// ErrPaymentRequired indicates the subscription does not cover the operation.
type ErrPaymentRequired struct {
	Feature string
}

func (e *ErrPaymentRequired) Error() string {
	return fmt.Sprintf("subscription required for: %s", e.Feature)
}

// ErrConflict indicates a generic resource conflict (e.g. duplicate coupon code).
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	return e.Message
}
