package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Wallet amounts go over the wire as JSON numbers, not quoted strings.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// Error kinds. Handlers map them to HTTP statuses with errors.Is.
var (
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrTransport    = errors.New("transport error")
	ErrInternal     = errors.New("internal error")
)

// Error is a classified error whose message is safe to show to clients.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

// Classified errors returned by the services
var (
	ErrMissingFields      = &Error{Kind: ErrValidation, Msg: "Missing required fields"}
	ErrInvalidRole        = &Error{Kind: ErrValidation, Msg: "Invalid role"}
	ErrInvalidAmount      = &Error{Kind: ErrValidation, Msg: "Invalid amount"}
	ErrInsufficientFunds  = &Error{Kind: ErrValidation, Msg: "Insufficient funds"}
	ErrInvalidCredentials = &Error{Kind: ErrUnauthorized, Msg: "Invalid credentials"}
	ErrPendingApproval    = &Error{Kind: ErrForbidden, Msg: "Account pending approval"}
	ErrAccountBlocked     = &Error{Kind: ErrForbidden, Msg: "Account blocked"}
	ErrUserNotFound       = &Error{Kind: ErrNotFound, Msg: "User not found"}
	ErrUserExists         = &Error{Kind: ErrConflict, Msg: "User already exists"}
)

// Internal wraps an unexpected failure so that it maps to a 500 without exposing its text.
func Internal(err error) error {
	return fmt.Errorf("%w: %w", ErrInternal, err)
}
