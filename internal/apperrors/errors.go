package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies application errors the way the UI surfaces them.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindNotFound          Kind = "not_found"
	KindInsufficientStock Kind = "insufficient_stock"
	KindPersistence       Kind = "persistence"
	KindSideEffect        Kind = "side_effect"
)

// AppError carries a kind alongside the message so callers can branch on it.
type AppError struct {
	Kind     Kind
	Message  string
	Internal error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Kind, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the internal error.
func (e *AppError) Unwrap() error {
	return e.Internal
}

// Is matches another AppError by kind.
func (e *AppError) Is(target error) bool {
	if t, ok := target.(*AppError); ok {
		return e.Kind == t.Kind
	}
	return errors.Is(e.Internal, target)
}

// New creates a new AppError.
func New(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

// Wrap wraps an existing error into an AppError.
func Wrap(err error, kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message, Internal: err}
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// Convenience constructors for the kinds the coordinator raises.

func NewValidationError(message string) *AppError {
	return New(KindValidation, message)
}

func NewNotFoundError(message string) *AppError {
	return New(KindNotFound, message)
}

func NewInsufficientStockError(message string) *AppError {
	return New(KindInsufficientStock, message)
}

func NewPersistenceError(err error) *AppError {
	return Wrap(err, KindPersistence, "storage operation failed")
}

func NewSideEffectError(err error, what string) *AppError {
	return Wrap(err, KindSideEffect, fmt.Sprintf("%s failed", what))
}
