package tax

import "errors"

var (
	// ErrInvalidInput is returned when an income or deduction amount is negative.
	ErrInvalidInput = errors.New("invalid tax input")
	// ErrUnknownRegime is returned when a regime selector is neither old nor new.
	ErrUnknownRegime = errors.New("unknown tax regime")
)
