// Package driver defines the capability contract the execution engine
// requires of a database collaborator. Implementations wrap a concrete
// client library; the engine only ever talks to these interfaces.
package driver

import (
	"context"
	"time"
)

// Conn is an open database connection capable of preparing statements.
type Conn interface {
	// Prepare compiles a plain SQL statement.
	Prepare(ctx context.Context, query string) (Stmt, error)

	// PrepareCall compiles a stored-procedure call statement
	// ({ [?=] call ... } syntax, placeholders already normalized to "?").
	PrepareCall(ctx context.Context, query string) (Stmt, error)

	// CursorType reports the concrete type code this connection uses to
	// represent cursor-valued parameters. Callers cache the result.
	CursorType() TypeCode

	// Close releases the connection.
	Close() error
}

// Stmt is a prepared statement. It is not safe for concurrent use, with
// the single exception of Cancel, which may be invoked from any goroutine
// while an Execute is in flight.
type Stmt interface {
	// ParameterMeta describes the parameter at the given 1-based position.
	// Implementations that cannot introspect parameters return a *Limitation.
	ParameterMeta(index int) (ParamMeta, error)

	// BindValue binds an input value at the given 1-based position.
	BindValue(index int, code TypeCode, value any) error

	// BindNull binds a typed null at the given 1-based position.
	BindNull(index int, code TypeCode) error

	// RegisterOut registers an output parameter at the given 1-based position.
	RegisterOut(index int, code TypeCode) error

	// SetMaxRows asks the driver to cap result sets at n rows.
	SetMaxRows(n int) error

	// SetFetchSize hints how many rows to fetch per round trip.
	SetFetchSize(n int) error

	// Execute runs the statement. It reports true when the first result is
	// row-shaped and false when it is an update count.
	Execute(ctx context.Context) (hasRows bool, err error)

	// ResultSet returns the current row-shaped result.
	ResultSet() (Rows, error)

	// UpdateCount returns the current update count, or -1 when none remains.
	UpdateCount() (int64, error)

	// MoreResults advances to the next result and reports whether it is
	// row-shaped. Implementations that cannot advance return a *Limitation.
	MoreResults() (bool, error)

	// Outputs exposes registered output parameter values after execution,
	// addressed by their 1-based parameter position.
	Outputs() ValueSource

	// Cancel aborts the in-flight execution. Safe from any goroutine.
	Cancel() error

	// Close releases the statement and any open results.
	Close() error
}

// Rows is a row-shaped result. Value accessors address the current row by
// 1-based column position.
type Rows interface {
	ValueSource

	// Columns describes the result columns.
	Columns() ([]Column, error)

	// Next advances to the next row, reporting false when exhausted.
	Next() (bool, error)

	// Close releases the result.
	Close() error
}

// ValueSource fetches values by 1-based position. Dedicated accessors for
// timestamp and character data exist because some drivers misbehave when
// asked for those types through the generic accessor.
type ValueSource interface {
	Timestamp(index int) (time.Time, error)
	String(index int) (string, error)
	Value(index int) (any, error)

	// WasNull reports whether the most recently fetched value was SQL NULL.
	WasNull() bool
}

// Column describes one result column.
type Column struct {
	Name        string
	Type        TypeCode
	Precision   int
	Scale       int
	DisplaySize int
}

// ParamMeta describes one statement parameter.
type ParamMeta struct {
	Type      TypeCode
	TypeName  string
	Precision int
	Scale     int
}
