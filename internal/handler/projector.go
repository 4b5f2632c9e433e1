package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sumire/storefront/internal/domain"
	"github.com/sumire/storefront/internal/result"
)

const internalErrorMessage = "An unexpected error occurred"

// StatusFor maps an error type onto its HTTP status. Unknown types are 500.
func StatusFor(t domain.ErrorType) int {
	switch t {
	case domain.ErrorNotFound:
		return http.StatusNotFound
	case domain.ErrorValidation, domain.ErrorBusinessRule:
		return http.StatusBadRequest
	case domain.ErrorConflict:
		return http.StatusConflict
	case domain.ErrorUnauthorized:
		return http.StatusUnauthorized
	case domain.ErrorForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// CodeFor returns the machine-readable error code for t.
func CodeFor(t domain.ErrorType) string {
	switch t {
	case domain.ErrorNotFound:
		return "not_found"
	case domain.ErrorValidation:
		return "validation_error"
	case domain.ErrorConflict:
		return "conflict"
	case domain.ErrorUnauthorized:
		return "unauthorized"
	case domain.ErrorForbidden:
		return "forbidden"
	case domain.ErrorBusinessRule:
		return "business_rule"
	default:
		return "internal_error"
	}
}

// apiErrorFor builds the response body for e. Internal messages and causes
// never leave the server.
func apiErrorFor(e *domain.AppError) APIError {
	if StatusFor(e.Type) == http.StatusInternalServerError {
		return APIError{Code: CodeFor(e.Type), Message: internalErrorMessage}
	}

	apiErr := APIError{Code: CodeFor(e.Type), Message: e.Message}
	for _, v := range e.ValidationErrors {
		apiErr.Details = append(apiErr.Details, FieldError{Field: v.Field, Message: v.Message})
	}
	return apiErr
}

func writeAppError(c echo.Context, e *domain.AppError) error {
	status := StatusFor(e.Type)
	if status == http.StatusInternalServerError {
		requestLogger(c, nil).Error("Request failed", zap.Error(e))
	}
	apiErr := apiErrorFor(e)
	return c.JSON(status, Envelope{Error: &apiErr})
}

// Respond writes a successful Result with status and a failure per StatusFor.
func Respond[T any](c echo.Context, r domain.Result[T], status int) error {
	return result.Match(r,
		func(v T) error { return JSON(c, status, v) },
		func(e *domain.AppError) error { return writeAppError(c, e) },
	)
}

// OK responds 200 on success.
func OK[T any](c echo.Context, r domain.Result[T]) error {
	return Respond(c, r, http.StatusOK)
}

// Created responds 201 with a Location header built from the new resource.
func Created[T any](c echo.Context, r domain.Result[T], location func(T) string) error {
	return result.Match(r,
		func(v T) error {
			c.Response().Header().Set(echo.HeaderLocation, location(v))
			return JSON(c, http.StatusCreated, v)
		},
		func(e *domain.AppError) error { return writeAppError(c, e) },
	)
}

// NoContent responds 204 without a body on success.
func NoContent(c echo.Context, r domain.Result[result.Unit]) error {
	return result.Match(r,
		func(result.Unit) error { return c.NoContent(http.StatusNoContent) },
		func(e *domain.AppError) error { return writeAppError(c, e) },
	)
}

// Reject writes e without a Result, for failures found at the edge.
func Reject(c echo.Context, e *domain.AppError) error {
	return writeAppError(c, e)
}
