package driver

import "fmt"

// TypeCode identifies a SQL data type independently of any client library's
// native type system.
type TypeCode int

const (
	// Undetermined marks a parameter whose type is not yet known; the
	// binder resolves it against statement metadata before execution.
	Undetermined TypeCode = iota
	String
	Boolean
	Integer
	Smallint
	Bigint
	Double
	Float
	Numeric
	Date
	Time
	Timestamp
	Binary
	// Cursor is the pseudo-type for cursor-valued parameters and columns;
	// Conn.CursorType reports what a connection actually binds for it.
	Cursor
	Other
)

var typeNames = map[TypeCode]string{
	Undetermined: "UNDETERMINED",
	String:       "STRING",
	Boolean:      "BOOLEAN",
	Integer:      "INTEGER",
	Smallint:     "SMALLINT",
	Bigint:       "BIGINT",
	Double:       "DOUBLE",
	Float:        "FLOAT",
	Numeric:      "NUMERIC",
	Date:         "DATE",
	Time:         "TIME",
	Timestamp:    "TIMESTAMP",
	Binary:       "BINARY",
	Cursor:       "CURSOR",
	Other:        "OTHER",
}

func (t TypeCode) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TYPE(%d)", int(t))
}

// Limitation is a recognized, named driver non-conformance: the driver
// lacks a capability the contract declares optional, as opposed to failing
// while exercising one it has. Callers downgrade these to warnings.
type Limitation struct {
	Driver string
	Op     string
}

func (e *Limitation) Error() string {
	return fmt.Sprintf("driver %s does not support %s", e.Driver, e.Op)
}
