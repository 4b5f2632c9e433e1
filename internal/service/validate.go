package service

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/sumire/storefront/internal/domain"
	"github.com/sumire/storefront/internal/result"
)

const (
	nameMinLength        = 3
	nameMaxLength        = 100
	descriptionMaxLength = 500
	usernameMinLength    = 3
	usernameMaxLength    = 50
	passwordMinLength    = 6
	passwordMaxBytes     = 72
)

var formats = validator.New()

// violations collects field-level failures in the order they are found.
type violations []domain.ValidationError

func (v *violations) add(field, format string, args ...any) {
	*v = append(*v, domain.ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (v *violations) required(field, value string) bool {
	if strings.TrimSpace(value) == "" {
		v.add(field, "%s is required", field)
		return false
	}
	return true
}

func (v *violations) length(field, value string, min, max int) {
	n := utf8.RuneCountInString(strings.TrimSpace(value))
	switch {
	case n < min:
		v.add(field, "%s must be at least %d characters", field, min)
	case max > 0 && n > max:
		v.add(field, "%s must be at most %d characters", field, max)
	}
}

// password applies the length rules. bcrypt only reads the first 72 bytes, so
// longer passwords are refused rather than silently truncated.
func (v *violations) password(field, value string) {
	v.length(field, value, passwordMinLength, 0)
	if len(value) > passwordMaxBytes {
		v.add(field, "%s must be at most %d bytes", field, passwordMaxBytes)
	}
}

func (v *violations) email(field, value string) {
	if formats.Var(value, "required,email") != nil {
		v.add(field, "%s must be a valid email address", field)
	}
}

// check returns a success carrying value when nothing was collected.
func check[T any](v violations, value T) domain.Result[T] {
	if len(v) == 0 {
		return domain.Ok(value)
	}
	messages := make([]string, 0, len(v))
	for _, f := range v {
		messages = append(messages, f.Message)
	}
	return domain.Fail[T](domain.NewValidation(strings.Join(messages, "; "), v...))
}

// found converts a store lookup into a Result. what names the resource in messages.
func found[T any](record *T, err error, what string) domain.Result[*T] {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return domain.Fail[*T](domain.NewNotFound(what + " not found"))
	case err != nil:
		return domain.Fail[*T](domain.NewInternal("load "+what, err))
	}
	return domain.Ok(record)
}

// stored converts a store write into a Result.
func stored[T any](record *T, err error, what string) domain.Result[*T] {
	if err != nil {
		return domain.Fail[*T](domain.NewInternal("store "+what, err))
	}
	return domain.Ok(record)
}

// unique converts a lookup by unique key into a Result. A hit on selfID is not a
// conflict, so a record can be updated to its own unchanged value.
func unique(hitID int64, err error, selfID int64, conflict string) domain.Result[result.Unit] {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return domain.Done()
	case err != nil:
		return domain.Fail[result.Unit](domain.NewInternal("check uniqueness", err))
	case hitID == selfID:
		return domain.Done()
	}
	return domain.Fail[result.Unit](domain.NewConflict(conflict))
}

// carry replaces the Unit payload of a passed check with value.
func carry[T any](check domain.Result[result.Unit], value T) domain.Result[T] {
	return result.Map(check, func(result.Unit) T { return value })
}

func discard[T any](r domain.Result[T]) domain.Result[result.Unit] {
	return result.Map(r, func(T) result.Unit { return result.Unit{} })
}
