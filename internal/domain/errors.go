package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies ledger failures so adapters can map them without
// inspecting messages.
type ErrorKind string

const (
	KindNotFound          ErrorKind = "not_found"
	KindInvalidAmount     ErrorKind = "invalid_amount"
	KindInsufficientFunds ErrorKind = "insufficient_funds"
	KindSelfTransfer      ErrorKind = "self_transfer"
	KindInvalidMode       ErrorKind = "invalid_mode"
	KindConflict          ErrorKind = "conflict"
	KindStorageFailure    ErrorKind = "storage_failure"
	KindDuplicateID       ErrorKind = "duplicate_id"
	KindCurrencyMismatch  ErrorKind = "currency_mismatch"
	KindUnauthorized      ErrorKind = "unauthorized"
)

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrInvalidAmount     = &Error{Kind: KindInvalidAmount}
	ErrInsufficientFunds = &Error{Kind: KindInsufficientFunds}
	ErrSelfTransfer      = &Error{Kind: KindSelfTransfer}
	ErrInvalidMode       = &Error{Kind: KindInvalidMode}
	ErrConflict          = &Error{Kind: KindConflict}
	ErrStorageFailure    = &Error{Kind: KindStorageFailure}
	ErrDuplicateID       = &Error{Kind: KindDuplicateID}
	ErrCurrencyMismatch  = &Error{Kind: KindCurrencyMismatch}
	ErrUnauthorized      = &Error{Kind: KindUnauthorized}
)

// Error is the typed failure returned by every ledger operation and port.
type Error struct {
	Kind    ErrorKind
	Op      string
	Message string
	Err     error
}

// NewError builds an *Error of the given kind.
func NewError(kind ErrorKind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// WrapError builds an *Error of the given kind around a lower level cause.
func WrapError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports kind equality so the package sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Message == "" && t.Err == nil
}

// KindOf returns the kind of the first *Error in err's chain, or "" when err
// carries none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsRetryable reports whether the operation that produced err may be retried
// as a whole.
func IsRetryable(err error) bool {
	return KindOf(err) == KindConflict
}
