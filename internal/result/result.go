// Package result provides a success-or-typed-error value for expected failures.
//
// A Result is built once at the end of an operation and is either consumed by Match
// or chained into a new Result with Map, Bind and Tap. Once a Result is a failure,
// no later step in a chain runs; the original error reaches the end unchanged.
//
// Go methods cannot introduce type parameters, so the combinators that change the
// value type (Map, Bind, Match and their ctx variants) are package functions.
package result

import (
	"context"
	"fmt"
	"reflect"
)

// Result holds either a value of type T or an error of type E, never both.
type Result[T any, E error] struct {
	value T
	err   E
	ok    bool
}

// Success wraps value in a successful Result.
func Success[T any, E error](value T) Result[T, E] {
	return Result[T, E]{value: value, ok: true}
}

// Failure wraps err in a failed Result. It panics if err is nil.
func Failure[T any, E error](err E) Result[T, E] {
	if isNil(err) {
		panic("result: Failure called with a nil error")
	}
	return Result[T, E]{err: err}
}

// IsSuccess reports whether r holds a value.
func (r Result[T, E]) IsSuccess() bool {
	return r.ok
}

// IsFailure reports whether r holds an error.
func (r Result[T, E]) IsFailure() bool {
	return !r.ok
}

// Value returns the success value. It panics on a failed Result.
func (r Result[T, E]) Value() T {
	if !r.ok {
		panic(fmt.Sprintf("result: Value called on a failure: %v", r.err))
	}
	return r.value
}

// Error returns the failure. It panics on a successful Result.
func (r Result[T, E]) Error() E {
	if r.ok {
		panic("result: Error called on a success")
	}
	return r.err
}

// Tap runs fn with the value when r is a success and returns r unchanged.
func (r Result[T, E]) Tap(fn func(T)) Result[T, E] {
	if r.ok {
		fn(r.value)
	}
	return r
}

// TapError runs fn with the error when r is a failure and returns r unchanged.
func (r Result[T, E]) TapError(fn func(E)) Result[T, E] {
	if !r.ok {
		fn(r.err)
	}
	return r
}

// Match runs exactly one of onSuccess or onFailure and returns its output.
func Match[T any, E error, R any](r Result[T, E], onSuccess func(T) R, onFailure func(E) R) R {
	if r.ok {
		return onSuccess(r.value)
	}
	return onFailure(r.err)
}

// Map applies fn to the value of a successful Result.
func Map[T, U any, E error](r Result[T, E], fn func(T) U) Result[U, E] {
	if !r.ok {
		return Result[U, E]{err: r.err}
	}
	return Success[U, E](fn(r.value))
}

// Bind hands the value of a successful Result to fn and returns fn's Result as is.
func Bind[T, U any, E error](r Result[T, E], fn func(T) Result[U, E]) Result[U, E] {
	if !r.ok {
		return Result[U, E]{err: r.err}
	}
	return fn(r.value)
}

// MapCtx is Map for steps that block on I/O.
func MapCtx[T, U any, E error](ctx context.Context, r Result[T, E], fn func(context.Context, T) U) Result[U, E] {
	if !r.ok {
		return Result[U, E]{err: r.err}
	}
	return Success[U, E](fn(ctx, r.value))
}

// BindCtx is Bind for steps that block on I/O.
func BindCtx[T, U any, E error](ctx context.Context, r Result[T, E], fn func(context.Context, T) Result[U, E]) Result[U, E] {
	if !r.ok {
		return Result[U, E]{err: r.err}
	}
	return fn(ctx, r.value)
}

// TapCtx is Tap for side effects that need a context.
func TapCtx[T any, E error](ctx context.Context, r Result[T, E], fn func(context.Context, T)) Result[T, E] {
	if r.ok {
		fn(ctx, r.value)
	}
	return r
}

func isNil(err error) bool {
	if err == nil {
		return true
	}
	v := reflect.ValueOf(err)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}
