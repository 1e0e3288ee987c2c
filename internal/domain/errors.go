package domain

import (
	"errors"
	"fmt"
)

// Error classes. Coordinators return errors that match exactly one of these via errors.Is.
var (
	ErrValidation        = errors.New("Validation failed")
	ErrUnauthorized      = errors.New("Unauthorized")
	ErrInvalidAccount    = errors.New("No usable signing account")
	ErrLedgerRejected    = errors.New("Ledger rejected transaction")
	ErrLedgerUnavailable = errors.New("Ledger unavailable")
	ErrStateConflict     = errors.New("Property state does not allow this operation")
	ErrPropertyNotFound  = errors.New("Property not found")
)

// ValidationError reports missing or malformed input. It is never sent to the ledger.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("Invalid %s", e.Field)
	}
	return fmt.Sprintf("Invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Err}
}

// Missing is shorthand for a required field that was not supplied.
func Missing(field string) error {
	return &ValidationError{Field: field, Err: errors.New("required")}
}

// LedgerError carries a ledger-originated failure. Error returns the ledger's reason verbatim.
type LedgerError struct {
	Kind   error // ErrLedgerRejected or ErrLedgerUnavailable
	Method string
	Reason string
	Err    error
}

func (e *LedgerError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.Error()
}

func (e *LedgerError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Rejected builds a LedgerError for a submission the ledger refused.
func Rejected(method, reason string) error {
	return &LedgerError{Kind: ErrLedgerRejected, Method: method, Reason: reason}
}

// Unavailable builds a LedgerError for a transport or connectivity failure.
func Unavailable(method string, err error) error {
	return &LedgerError{Kind: ErrLedgerUnavailable, Method: method, Err: err}
}

// Conflict reports a state precondition that a fresh ledger read showed to be false.
func Conflict(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrStateConflict, fmt.Sprintf(format, args...))
}

// Class names the error class for metrics and logs.
func Class(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrInvalidAccount):
		return "invalid_account"
	case errors.Is(err, ErrStateConflict):
		return "state_conflict"
	case errors.Is(err, ErrPropertyNotFound):
		return "not_found"
	case errors.Is(err, ErrLedgerRejected):
		return "ledger_rejected"
	case errors.Is(err, ErrLedgerUnavailable):
		return "ledger_unavailable"
	default:
		return "internal"
	}
}
