package gate

import (
	"fmt"
	"math"
)

// Validate checks that values has exactly length elements and that every
// element is a finite number. The returned error wraps ErrInvalidArgument
// and names op.
func Validate(op string, values []float64, length int) error {
	if len(values) != length {
		return &ArgumentError{
			Op:      op,
			Index:   -1,
			Details: fmt.Sprintf("want %d values, got %d", length, len(values)),
			Err:     ErrInvalidArgument,
		}
	}
	return ValidateFinite(op, values)
}

// ValidateFinite checks that every element of values is finite.
func ValidateFinite(op string, values []float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &ArgumentError{
				Op:      op,
				Index:   i,
				Details: fmt.Sprintf("%v is not a finite number", v),
				Err:     ErrInvalidArgument,
			}
		}
	}
	return nil
}

// assign validates values and returns a private copy of them.
func assign(op string, values []float64, length int) ([]float64, error) {
	if err := Validate(op, values, length); err != nil {
		return nil, err
	}
	out := make([]float64, length)
	copy(out, values)
	return out, nil
}

// ready reports whether both inputs and parameters have been set.
func ready(op string, inputs, params []float64) error {
	switch {
	case inputs == nil && params == nil:
		return notReady(op, "inputs and parameters not set")
	case inputs == nil:
		return notReady(op, "inputs not set")
	case params == nil:
		return notReady(op, "parameters not set")
	}
	return nil
}
