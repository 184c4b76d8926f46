package engine

import (
	"errors"
	"fmt"
)

// errNestTooDeep marks a cursor-valued column left unmaterialized because
// its nesting exceeded the configured depth limit.
var errNestTooDeep = errors.New("cursor nesting too deep")

// BindError reports a parameter that could not be bound: an unresolvable
// type or a literal that does not convert to it. The statement is never
// executed.
type BindError struct {
	Index int
	Cause error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("parameter #%d: %v", e.Index, e.Cause)
}

func (e *BindError) Unwrap() error {
	return e.Cause
}

// DriverError reports a failure from the database collaborator, including
// cancellation-induced failures. Statement and cursor resources are always
// released before one propagates.
type DriverError struct {
	Op    string
	Cause error
}

func (e *DriverError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

func (e *DriverError) Unwrap() error {
	return e.Cause
}
