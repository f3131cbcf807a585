package efc

import (
	"errors"
	"fmt"
)

// Domain errors for model evaluation and validation.
var (
	// ErrInvalidParameter indicates a configuration value outside its domain.
	ErrInvalidParameter = errors.New("efc: invalid parameter")

	// ErrInvalidInput indicates a malformed or out-of-domain radius.
	ErrInvalidInput = errors.New("efc: invalid input")

	// ErrDatasetFormat indicates a reference dataset that cannot be parsed or is empty.
	ErrDatasetFormat = errors.New("efc: dataset format error")

	// ErrPropagated marks an evaluator failure raised during validation.
	ErrPropagated = errors.New("efc: evaluation failed during validation")
)

// ParameterError names the parameter that failed validation.
type ParameterError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s=%v: %s", e.Field, e.Value, e.Reason)
}

func (e *ParameterError) Unwrap() error {
	return ErrInvalidParameter
}

// InputError reports the first offending coordinate.
type InputError struct {
	Index  int
	Value  float64
	Reason string
}

func (e *InputError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid radius %v: %s", e.Value, e.Reason)
	}
	return fmt.Sprintf("invalid radius %v at index %d: %s", e.Value, e.Index, e.Reason)
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

// DatasetError wraps a reference dataset parse failure with its location.
// Line is 0 when the failure is not tied to a specific line.
type DatasetError struct {
	Path   string
	Line   int
	Reason string
	Err    error
}

func (e *DatasetError) Error() string {
	msg := e.Reason
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	if e.Line > 0 {
		return fmt.Sprintf("dataset %s line %d: %s", e.Path, e.Line, msg)
	}
	return fmt.Sprintf("dataset %s: %s", e.Path, msg)
}

func (e *DatasetError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrDatasetFormat, e.Err}
	}
	return []error{ErrDatasetFormat}
}

// PropagatedError carries an evaluator error raised at a reference radius.
type PropagatedError struct {
	Radius  float64
	Wrapped error
}

func (e *PropagatedError) Error() string {
	return fmt.Sprintf("evaluating radius %v: %v", e.Radius, e.Wrapped)
}

func (e *PropagatedError) Unwrap() []error {
	return []error{ErrPropagated, e.Wrapped}
}

// Kind classifies an error into the taxonomy printed by the CLI.
// Propagated errors are reported before the kind they wrap.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPropagated):
		return "PropagatedError"
	case errors.Is(err, ErrInvalidParameter):
		return "InvalidParameter"
	case errors.Is(err, ErrInvalidInput):
		return "InvalidInput"
	case errors.Is(err, ErrDatasetFormat):
		return "DatasetFormatError"
	default:
		return "Error"
	}
}
