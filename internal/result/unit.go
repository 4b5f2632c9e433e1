package result

// Unit is the payload of a Result for operations that only have an effect.
type Unit struct{}

// Done returns a successful Result carrying Unit.
func Done[E error]() Result[Unit, E] {
	return Success[Unit, E](Unit{})
}
