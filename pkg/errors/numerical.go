package errors

import (
	"fmt"
	"math"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// NumericalInstabilityError is returned when a fit produces NaN or Inf,
// usually because the input held non-finite values.
type NumericalInstabilityError struct {
	Operation string
	Values    []float64 // the first offending values
}

func (e *NumericalInstabilityError) Error() string {
	vals := make([]string, 0, len(e.Values))
	for _, v := range e.Values {
		vals = append(vals, fmt.Sprintf("%.6g", v))
	}
	return fmt.Sprintf("penguinml: numerical instability in %s: [%s]", e.Operation, strings.Join(vals, ", "))
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (e *NumericalInstabilityError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Operation).
		Floats64("values", e.Values).
		Str("type", "NumericalInstabilityError")
}

// NewNumericalInstabilityError creates a NumericalInstabilityError with a
// stack trace.
func NewNumericalInstabilityError(operation string, values []float64) error {
	return errors.WithStack(&NumericalInstabilityError{Operation: operation, Values: values})
}

const maxReportedValues = 5

// CheckFinite returns a NumericalInstabilityError naming up to five NaN or
// Inf entries of values, or nil when every entry is finite.
func CheckFinite(operation string, values ...float64) error {
	var bad []float64
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			bad = append(bad, v)
			if len(bad) == maxReportedValues {
				break
			}
		}
	}
	if len(bad) == 0 {
		return nil
	}
	return NewNumericalInstabilityError(operation, bad)
}
