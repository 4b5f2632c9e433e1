package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_IsMatchesType(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewConflict("username is already taken"))

	if !errors.Is(err, &AppError{Type: ErrorConflict}) {
		t.Error("expected wrapped conflict to match by type")
	}
	if errors.Is(err, &AppError{Type: ErrorNotFound}) {
		t.Error("conflict should not match not_found")
	}
}

func TestAppError_InternalUnwrapsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewInternal("failed to load category", cause)

	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable")
	}
	if err.Error() != "internal: failed to load category: connection reset" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestNewValidation_KeepsOrder(t *testing.T) {
	err := NewValidation("invalid sign up",
		ValidationError{Field: "username", Message: "too short"},
		ValidationError{Field: "email", Message: "malformed"},
	)

	if len(err.ValidationErrors) != 2 || err.ValidationErrors[0].Field != "username" || err.ValidationErrors[1].Field != "email" {
		t.Errorf("unexpected violations %+v", err.ValidationErrors)
	}
}

func TestFail_CarriesError(t *testing.T) {
	r := Fail[int](NewNotFound("category not found"))
	if r.Error().Type != ErrorNotFound {
		t.Errorf("expected not_found, got %s", r.Error().Type)
	}
}
