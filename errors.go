package rangeserve

import "errors"

var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("not found")
	// ErrInternal is returned when an internal error occurs
	ErrInternal = errors.New("internal error")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrRangeNotSatisfiable is returned when a Range header cannot be parsed,
	// names more than one range, or starts at or beyond the end of the object.
	ErrRangeNotSatisfiable = errors.New("range not satisfiable")
)
