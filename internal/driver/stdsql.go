package driver

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"
)

// StdConn adapts a database/sql handle to the Conn contract. database/sql
// cannot express every capability the contract declares; the gaps surface
// as *Limitation so the engine can degrade instead of failing.
type StdConn struct {
	db   *sql.DB
	name string
}

// OpenStd wraps an already-opened database/sql handle. The name is used in
// limitation messages ("pgx", "sqlite", ...).
func OpenStd(db *sql.DB, name string) *StdConn {
	return &StdConn{db: db, name: name}
}

// Prepare compiles a plain SQL statement.
func (c *StdConn) Prepare(ctx context.Context, query string) (Stmt, error) {
	stmt, err := c.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("prepare: %w", err)
	}
	return &stdStmt{conn: c, stmt: stmt, query: query, updateCount: -1}, nil
}

// PrepareCall compiles a call statement. database/sql has no dedicated
// callable form, so the statement is prepared as-is and output parameters
// are carried through sql.Out at bind time.
func (c *StdConn) PrepareCall(ctx context.Context, query string) (Stmt, error) {
	return c.Prepare(ctx, query)
}

// CursorType reports what this connection binds for cursor parameters.
func (c *StdConn) CursorType() TypeCode {
	return String
}

// Close releases the underlying handle.
func (c *StdConn) Close() error {
	return c.db.Close()
}

// isRowProducing reports whether a statement should be executed through the
// query path (rows expected) rather than the exec path (update count).
func isRowProducing(query string) bool {
	s := strings.TrimSpace(query)
	for strings.HasPrefix(s, "{") || strings.HasPrefix(s, "(") {
		s = strings.TrimSpace(s[1:])
	}
	word := s
	if i := strings.IndexFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '('
	}); i >= 0 {
		word = s[:i]
	}
	// A "?" or "?=" return-value marker means call syntax.
	if strings.HasPrefix(word, "?") {
		return true
	}
	switch strings.ToUpper(word) {
	case "SELECT", "WITH", "VALUES", "SHOW", "EXPLAIN", "TABLE", "CALL", "FETCH":
		return true
	}
	return false
}

type boundArg struct {
	index int
	value any
}

type stdStmt struct {
	conn  *StdConn
	stmt  *sql.Stmt
	query string

	args []boundArg
	outs map[int]*any

	rows        *sql.Rows
	updateCount int64

	mu     sync.Mutex
	cancel context.CancelFunc
}

func (s *stdStmt) ParameterMeta(index int) (ParamMeta, error) {
	return ParamMeta{}, &Limitation{Driver: s.conn.name, Op: "parameter metadata"}
}

func (s *stdStmt) BindValue(index int, code TypeCode, value any) error {
	s.args = append(s.args, boundArg{index: index, value: value})
	return nil
}

func (s *stdStmt) BindNull(index int, code TypeCode) error {
	s.args = append(s.args, boundArg{index: index, value: nil})
	return nil
}

func (s *stdStmt) RegisterOut(index int, code TypeCode) error {
	if s.outs == nil {
		s.outs = make(map[int]*any)
	}
	dest := new(any)
	s.outs[index] = dest
	s.args = append(s.args, boundArg{index: index, value: sql.Out{Dest: dest}})
	return nil
}

func (s *stdStmt) SetMaxRows(n int) error {
	return &Limitation{Driver: s.conn.name, Op: "max rows"}
}

func (s *stdStmt) SetFetchSize(n int) error {
	return &Limitation{Driver: s.conn.name, Op: "fetch size"}
}

// orderedArgs flattens the positional binds. A position bound as both input
// and output becomes an In-marked sql.Out seeded with the input value.
func (s *stdStmt) orderedArgs() []any {
	max := 0
	inputs := make(map[int]any, len(s.args))
	hasInput := make(map[int]bool, len(s.args))
	for _, a := range s.args {
		if a.index > max {
			max = a.index
		}
		if _, isOut := a.value.(sql.Out); isOut {
			continue
		}
		inputs[a.index] = a.value
		hasInput[a.index] = true
	}

	out := make([]any, max)
	for i := 1; i <= max; i++ {
		if dest, registered := s.outs[i]; registered {
			o := sql.Out{Dest: dest}
			if hasInput[i] {
				*dest = inputs[i]
				o.In = true
			}
			out[i-1] = o
			continue
		}
		out[i-1] = inputs[i]
	}
	return out
}

func (s *stdStmt) Execute(ctx context.Context) (bool, error) {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	args := s.orderedArgs()
	if isRowProducing(s.query) {
		rows, err := s.stmt.QueryContext(ctx, args...)
		if err != nil {
			return false, fmt.Errorf("execute: %w", err)
		}
		s.rows = rows
		s.updateCount = -1
		return true, nil
	}

	res, err := s.stmt.ExecContext(ctx, args...)
	if err != nil {
		return false, fmt.Errorf("execute: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		s.updateCount = -1
	} else {
		s.updateCount = n
	}
	return false, nil
}

func (s *stdStmt) ResultSet() (Rows, error) {
	if s.rows == nil {
		return nil, fmt.Errorf("no result set is open")
	}
	return newStdRows(s.rows)
}

func (s *stdStmt) UpdateCount() (int64, error) {
	return s.updateCount, nil
}

func (s *stdStmt) MoreResults() (bool, error) {
	s.updateCount = -1
	if s.rows == nil {
		return false, nil
	}
	if s.rows.NextResultSet() {
		return true, nil
	}
	if err := s.rows.Err(); err != nil {
		return false, fmt.Errorf("advance results: %w", err)
	}
	return false, nil
}

func (s *stdStmt) Outputs() ValueSource {
	return &outValues{outs: s.outs}
}

func (s *stdStmt) Cancel() error {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return nil
}

func (s *stdStmt) Close() error {
	if s.rows != nil {
		s.rows.Close()
		s.rows = nil
	}
	return s.stmt.Close()
}

// stdTypeCodes maps database/sql type names (as reported by
// ColumnType.DatabaseTypeName) onto the contract's type codes.
var stdTypeCodes = map[string]TypeCode{
	"VARCHAR": String, "TEXT": String, "CHAR": String, "BPCHAR": String,
	"NAME": String, "NVARCHAR": String, "UUID": String, "JSON": String,
	"JSONB": String, "XML": String,
	"BOOL": Boolean, "BOOLEAN": Boolean, "BIT": Boolean,
	"INT2": Smallint, "SMALLINT": Smallint, "TINYINT": Smallint,
	"INT4": Integer, "INT": Integer, "INTEGER": Integer, "SERIAL": Integer,
	"INT8": Bigint, "BIGINT": Bigint, "BIGSERIAL": Bigint,
	"FLOAT4": Float, "REAL": Float,
	"FLOAT8": Double, "DOUBLE": Double, "DOUBLE PRECISION": Double,
	"NUMERIC": Numeric, "DECIMAL": Numeric, "MONEY": Numeric,
	"DATE":      Date,
	"TIME":      Time, "TIMETZ": Time,
	"TIMESTAMP": Timestamp, "TIMESTAMPTZ": Timestamp, "DATETIME": Timestamp,
	"BYTEA": Binary, "BLOB": Binary, "VARBINARY": Binary,
	"REFCURSOR": Cursor, "CURSOR": Cursor,
}

func codeForTypeName(name string) TypeCode {
	if code, ok := stdTypeCodes[strings.ToUpper(name)]; ok {
		return code
	}
	return Other
}

type stdRows struct {
	rows     *sql.Rows
	columns  []Column
	current  []any
	lastNull bool
}

func newStdRows(rows *sql.Rows) (*stdRows, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("column metadata: %w", err)
	}
	columns := make([]Column, len(types))
	for i, t := range types {
		col := Column{Name: t.Name(), Type: codeForTypeName(t.DatabaseTypeName())}
		if length, ok := t.Length(); ok {
			col.DisplaySize = int(length)
		}
		if precision, scale, ok := t.DecimalSize(); ok {
			col.Precision = int(precision)
			col.Scale = int(scale)
		}
		columns[i] = col
	}
	return &stdRows{rows: rows, columns: columns}, nil
}

func (r *stdRows) Columns() ([]Column, error) {
	return r.columns, nil
}

func (r *stdRows) Next() (bool, error) {
	if !r.rows.Next() {
		if err := r.rows.Err(); err != nil {
			return false, fmt.Errorf("fetch row: %w", err)
		}
		return false, nil
	}
	r.current = make([]any, len(r.columns))
	ptrs := make([]any, len(r.columns))
	for i := range r.current {
		ptrs[i] = &r.current[i]
	}
	if err := r.rows.Scan(ptrs...); err != nil {
		return false, fmt.Errorf("scan row: %w", err)
	}
	return true, nil
}

func (r *stdRows) Value(index int) (any, error) {
	if index < 1 || index > len(r.current) {
		return nil, fmt.Errorf("column %d out of range", index)
	}
	v := r.current[index-1]
	r.lastNull = v == nil
	return v, nil
}

func (r *stdRows) String(index int) (string, error) {
	v, err := r.Value(index)
	if err != nil || v == nil {
		return "", err
	}
	if b, ok := v.([]byte); ok {
		return string(b), nil
	}
	return fmt.Sprint(v), nil
}

func (r *stdRows) Timestamp(index int) (time.Time, error) {
	v, err := r.Value(index)
	if err != nil || v == nil {
		return time.Time{}, err
	}
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		return time.Parse(time.RFC3339, t)
	default:
		return time.Time{}, fmt.Errorf("column %d is not a timestamp (%T)", index, v)
	}
}

func (r *stdRows) WasNull() bool {
	return r.lastNull
}

func (r *stdRows) Close() error {
	// The statement owns *sql.Rows across NextResultSet calls; closing here
	// would tear down any results still pending.
	return nil
}

// outValues exposes sql.Out destinations as a ValueSource.
type outValues struct {
	outs     map[int]*any
	lastNull bool
}

func (o *outValues) Value(index int) (any, error) {
	dest, ok := o.outs[index]
	if !ok {
		return nil, fmt.Errorf("parameter %d is not registered as output", index)
	}
	v := *dest
	o.lastNull = v == nil
	return v, nil
}

func (o *outValues) String(index int) (string, error) {
	v, err := o.Value(index)
	if err != nil || v == nil {
		return "", err
	}
	if b, ok := v.([]byte); ok {
		return string(b), nil
	}
	return fmt.Sprint(v), nil
}

func (o *outValues) Timestamp(index int) (time.Time, error) {
	v, err := o.Value(index)
	if err != nil || v == nil {
		return time.Time{}, err
	}
	if t, ok := v.(time.Time); ok {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("parameter %d is not a timestamp (%T)", index, v)
}

func (o *outValues) WasNull() bool {
	return o.lastNull
}
