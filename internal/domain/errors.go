package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by repositories and by the product service, whose
// handlers let echo's error handler translate them.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("resource conflict")
)

// Order store errors for state that changed under a concurrent writer.
var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrOrderNotPending   = errors.New("order is not pending")
)

// StockError reports the product that could not cover a requested quantity.
type StockError struct {
	ProductID int64
	Name      string
	Requested int
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("product %d: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

func (e *StockError) Unwrap() error {
	return ErrInsufficientStock
}

// ValidationError represents a field-level validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ErrorType is the closed set of expected failure categories.
type ErrorType string

const (
	ErrorNotFound     ErrorType = "not_found"
	ErrorValidation   ErrorType = "validation"
	ErrorConflict     ErrorType = "conflict"
	ErrorUnauthorized ErrorType = "unauthorized"
	ErrorForbidden    ErrorType = "forbidden"
	ErrorBusinessRule ErrorType = "business_rule"
	ErrorInternal     ErrorType = "internal"
)

// AppError is an expected failure carried through a Result.
// The cause, when set, is for server-side logs only.
type AppError struct {
	Type             ErrorType
	Message          string
	ValidationErrors []ValidationError
	cause            error
}

func (e *AppError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Type))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.cause != nil {
		b.WriteString(": ")
		b.WriteString(e.cause.Error())
	}
	return b.String()
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// Is matches another *AppError of the same Type.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Type == e.Type && (t.Message == "" || t.Message == e.Message)
}

func NewNotFound(message string) *AppError {
	return &AppError{Type: ErrorNotFound, Message: message}
}

// NewValidation builds a Validation error. The field violations keep their order.
func NewValidation(message string, violations ...ValidationError) *AppError {
	return &AppError{Type: ErrorValidation, Message: message, ValidationErrors: violations}
}

func NewConflict(message string) *AppError {
	return &AppError{Type: ErrorConflict, Message: message}
}

func NewUnauthorized(message string) *AppError {
	return &AppError{Type: ErrorUnauthorized, Message: message}
}

func NewForbidden(message string) *AppError {
	return &AppError{Type: ErrorForbidden, Message: message}
}

func NewBusinessRule(message string) *AppError {
	return &AppError{Type: ErrorBusinessRule, Message: message}
}

// NewInternal wraps an unexpected fault, usually from persistence.
func NewInternal(message string, cause error) *AppError {
	return &AppError{Type: ErrorInternal, Message: message, cause: cause}
}
