package domain

import "github.com/sumire/storefront/internal/result"

// Result is the outcome of a service operation.
type Result[T any] = result.Result[T, *AppError]

// Ok returns a successful Result.
func Ok[T any](value T) Result[T] {
	return result.Success[T, *AppError](value)
}

// Fail returns a failed Result.
func Fail[T any](err *AppError) Result[T] {
	return result.Failure[T](err)
}

// Done returns a successful Result for effect-only operations.
func Done() Result[result.Unit] {
	return result.Done[*AppError]()
}
