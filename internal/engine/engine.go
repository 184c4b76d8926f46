// Package engine executes buffered SQL against a live connection: it binds
// call parameters, drives the multi-result protocol to completion under a
// row-limiting policy, materializes rows into a renderer sink, and stays
// cancellable mid-flight while tolerating known driver misbehavior.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/LevittS/jsqsh/internal/call"
	"github.com/LevittS/jsqsh/internal/driver"
	"github.com/LevittS/jsqsh/internal/render"
)

// LimitPolicy is the strategy used to cap displayed rows.
type LimitPolicy int

const (
	// LimitDiscard keeps fetching past the cap but stops handing rows to
	// the renderer. The most portable policy, and the default.
	LimitDiscard LimitPolicy = iota

	// LimitDriver asks the driver to cap rows before executing. Cheapest,
	// but on some drivers it also caps affected-row counts on writes; that
	// is the documented trade-off of this policy, not a bug.
	LimitDriver

	// LimitCancel aborts the whole statement once the cap is exceeded.
	// Stops multi-result batches dead, so use with care.
	LimitCancel
)

func (p LimitPolicy) String() string {
	switch p {
	case LimitDriver:
		return "driver"
	case LimitCancel:
		return "cancel"
	default:
		return "discard"
	}
}

// ParseLimitPolicy maps a policy name onto its LimitPolicy.
func ParseLimitPolicy(name string) (LimitPolicy, error) {
	switch strings.ToLower(name) {
	case "discard":
		return LimitDiscard, nil
	case "driver":
		return LimitDriver, nil
	case "cancel":
		return LimitCancel, nil
	}
	return LimitDiscard, fmt.Errorf(
		"invalid row limit policy %q: valid values are 'cancel', 'discard' or 'driver'", name)
}

// ErrorMarker is displayed for a cell whose value could not be fetched.
const ErrorMarker = "*ERROR*"

// Engine executes statements on a single connection. One statement runs at
// a time; the only concurrent caller is whoever delivers interrupts via
// Cancels().CancelCurrent.
type Engine struct {
	conn       driver.Conn
	formatter  *render.Formatter
	cancels    *CancelStack
	log        *slog.Logger
	cursorType driver.TypeCode

	// MaxRows caps rendered rows per result set; <= 0 means unlimited.
	MaxRows int

	// LimitPolicy picks how MaxRows is enforced.
	LimitPolicy LimitPolicy

	// NoCount suppresses "N row(s) affected" footers.
	NoCount bool

	// ShowTimings appends elapsed-time statistics to the final footer.
	ShowTimings bool

	// MaxUpdateCount stops processing after this many consecutive update
	// counts. Workaround for drivers that never signal completion; <= 0
	// disables it.
	MaxUpdateCount int

	// FetchSize is handed to the driver as a rows-per-round-trip hint when
	// positive.
	FetchSize int

	// MaxNestDepth bounds recursive materialization of cursor-valued
	// columns so a pathological driver cannot recurse forever.
	MaxNestDepth int

	// fetchSizeUnsupported remembers that the driver rejected the fetch
	// size hint; later statements skip it without touching FetchSize.
	fetchSizeUnsupported bool
}

// New creates an engine over the given connection.
func New(conn driver.Conn, formatter *render.Formatter) *Engine {
	if formatter == nil {
		formatter = render.NewFormatter()
	}
	return &Engine{
		conn:         conn,
		formatter:    formatter,
		cancels:      NewCancelStack(),
		log:          slog.Default(),
		cursorType:   conn.CursorType(),
		ShowTimings:  true,
		MaxNestDepth: 8,
	}
}

// Cancels exposes the cancellation controller so an interrupt handler can
// abort the in-flight statement.
func (e *Engine) Cancels() *CancelStack {
	return e.cancels
}

// execState is the transient bookkeeping of one execution.
type execState struct {
	startTime    time.Time
	firstRowTime time.Time
	updateStreak int
	done         bool
}

// Execute runs a plain SQL statement and streams its results into the sink.
func (e *Engine) Execute(ctx context.Context, sink render.Renderer, sql string) error {
	stmt, err := e.conn.Prepare(ctx, sql)
	if err != nil {
		return &DriverError{Op: "prepare", Cause: err}
	}
	defer stmt.Close()

	return e.executeStatement(ctx, sink, stmt)
}

// ExecutePrepared runs a prepared statement with the given input
// parameters bound. Parameters with batch column back-references must have
// received values already.
func (e *Engine) ExecutePrepared(ctx context.Context, sink render.Renderer, sql string, params []*call.Parameter) error {
	stmt, err := e.conn.Prepare(ctx, sql)
	if err != nil {
		return &DriverError{Op: "prepare", Cause: err}
	}
	defer stmt.Close()

	e.resolveParameters(stmt, params)
	if err := e.checkResolved(params); err != nil {
		return err
	}
	if err := e.bindInputs(stmt, params); err != nil {
		return err
	}

	return e.executeStatement(ctx, sink, stmt)
}

// ExecuteCall parses and runs a { [?=] call ... } statement. Descriptors
// supplied by the caller are merged with those parsed from inline "?=value"
// placeholders: explicit descriptors win at their positions.
func (e *Engine) ExecuteCall(ctx context.Context, sink render.Renderer, sql string, params []*call.Parameter) error {
	normalized, parsed := call.ParseCall(sql)
	merged := mergeParameters(parsed, params)

	stmt, err := e.conn.PrepareCall(ctx, normalized)
	if err != nil {
		return &DriverError{Op: "prepare call", Cause: err}
	}
	defer stmt.Close()

	e.resolveParameters(stmt, merged)
	if err := e.checkResolved(merged); err != nil {
		return err
	}
	if err := e.bindInputs(stmt, merged); err != nil {
		return err
	}
	outputs, err := e.registerOutputs(stmt, merged)
	if err != nil {
		return err
	}

	if err := e.executeStatement(ctx, sink, stmt); err != nil {
		return err
	}
	if len(outputs) > 0 {
		return e.renderOutputs(sink, stmt, outputs)
	}
	return nil
}

// mergeParameters overlays caller-supplied descriptors onto the parsed
// ones by position and appends any beyond the parsed count.
func mergeParameters(parsed, supplied []*call.Parameter) []*call.Parameter {
	if len(supplied) == 0 {
		return parsed
	}
	merged := make([]*call.Parameter, len(parsed))
	copy(merged, parsed)
	for _, p := range supplied {
		if p.Index >= 1 && p.Index <= len(merged) {
			merged[p.Index-1] = p
		} else {
			merged = append(merged, p)
		}
	}
	return merged
}

// executeStatement owns the common execute path: statement setup, the
// cancel handle's scoped push/pop, timing, and the result loop.
func (e *Engine) executeStatement(ctx context.Context, sink render.Renderer, stmt driver.Stmt) error {
	e.initStatement(stmt)

	release := e.cancels.Push(stmt)
	defer release()

	st := &execState{startTime: time.Now()}
	id := uuid.NewString()
	e.log.Debug("executing statement", "execution_id", id)

	hasRows, err := stmt.Execute(ctx)
	if err != nil {
		return &DriverError{Op: "execute", Cause: err}
	}
	if err := e.runResults(sink, stmt, st, hasRows); err != nil {
		e.log.Debug("execution failed", "execution_id", id, "error", err)
		return err
	}
	return nil
}

// initStatement applies session settings to a fresh statement. Neither
// setting is load-bearing, so a driver limitation only logs a warning.
func (e *Engine) initStatement(stmt driver.Stmt) {
	if e.LimitPolicy == LimitDriver && e.MaxRows > 0 {
		if err := stmt.SetMaxRows(e.MaxRows); err != nil {
			e.log.Warn("driver row limit unavailable", "error", err)
		}
	}
	if e.FetchSize > 0 && !e.fetchSizeUnsupported {
		if err := stmt.SetFetchSize(e.FetchSize); err != nil {
			e.log.Warn("requested fetch size is invalid, ignoring",
				"fetch_size", e.FetchSize, "error", err)
			e.fetchSizeUnsupported = true
		}
	}
}

// runResults iterates result sets and update counts until the statement is
// done, flushing footer text to the sink after every iteration that
// produced any. The open result cursor is released on every exit path.
func (e *Engine) runResults(sink render.Renderer, stmt driver.Stmt, st *execState, hasRows bool) (err error) {
	var openRows driver.Rows
	defer func() {
		if openRows != nil {
			openRows.Close()
		}
	}()

	updateCount := int64(-1)
	if !hasRows {
		if updateCount, err = stmt.UpdateCount(); err != nil {
			return &DriverError{Op: "update count", Cause: err}
		}
		if updateCount >= 0 {
			st.updateStreak++
		}
	}

	var footer strings.Builder
	for {
		if hasRows {
			rows, err := stmt.ResultSet()
			if err != nil {
				return &DriverError{Op: "result set", Cause: err}
			}
			openRows = rows

			var nRows int
			var truncated bool
			if sink.IsDiscard() {
				nRows, truncated, err = e.discardRows(stmt, rows, st)
			} else {
				nRows, truncated, err = e.displayRows(sink, stmt, rows, st, nil)
			}
			if err != nil {
				return err
			}
			// A negative count means the sink refused the rows; bail
			// without treating it as an execution failure.
			if nRows < 0 {
				return nil
			}

			fmt.Fprintf(&footer, "%d row%s in results", nRows, plural(nRows))
			if truncated {
				if e.LimitPolicy == LimitCancel {
					footer.WriteString(", query cancelled to limit results ")
					st.done = true
				} else {
					fmt.Fprintf(&footer, ", first %d rows shown ", e.MaxRows)
				}
			}

			rows.Close()
			openRows = nil
		} else if !e.NoCount {
			if updateCount >= 0 {
				fmt.Fprintf(&footer, "%d row%s affected ", updateCount, plural(int(updateCount)))
			} else {
				footer.WriteString("ok. ")
			}
		}

		// A statement cancelled to limit results is finished; asking it for
		// further results would fail or hang on many drivers.
		if !st.done {
			more, err := stmt.MoreResults()
			if err != nil {
				var lim *driver.Limitation
				if errors.As(err, &lim) {
					// A recognized limitation, not a failure: stop iterating
					// cleanly rather than blowing up the whole statement.
					e.log.Warn("driver cannot advance to further results", "limitation", lim.Error())
					hasRows = false
					st.done = true
				} else {
					return &DriverError{Op: "advance results", Cause: err}
				}
			} else {
				hasRows = more
				if hasRows {
					st.updateStreak = 0
				}
			}
		}

		if !st.done && !hasRows {
			if updateCount, err = stmt.UpdateCount(); err != nil {
				return &DriverError{Op: "update count", Cause: err}
			}
			if updateCount >= 0 {
				st.updateStreak++
			}
		}

		st.done = st.done ||
			(!hasRows && updateCount < 0) ||
			(e.MaxUpdateCount > 0 && st.updateStreak >= e.MaxUpdateCount)

		if st.done && e.ShowTimings {
			e.appendTimings(&footer, st)
		}
		if footer.Len() > 0 {
			sink.Footer(footer.String())
			footer.Reset()
		}
		if st.done {
			return nil
		}
	}
}

// discardRows drains a result set without materializing values, honoring
// the row cap exactly as materialization would.
func (e *Engine) discardRows(stmt driver.Stmt, rows driver.Rows, st *execState) (int, bool, error) {
	count := 0
	truncated := false
	for {
		ok, err := rows.Next()
		if err != nil {
			return 0, false, &DriverError{Op: "fetch", Cause: err}
		}
		if !ok {
			return count, truncated, nil
		}
		if st.firstRowTime.IsZero() {
			st.firstRowTime = time.Now()
		}
		if e.MaxRows > 0 && count >= e.MaxRows {
			truncated = true
			if e.LimitPolicy == LimitCancel {
				_ = stmt.Cancel()
				return count, truncated, nil
			}
			continue
		}
		count++
	}
}

// renderOutputs presents registered output parameter values as a one-row
// result, recursing into any cursor-valued outputs.
func (e *Engine) renderOutputs(sink render.Renderer, stmt driver.Stmt, outputs []*call.Parameter) error {
	columns := make([]render.ColumnDescription, len(outputs))
	for i, p := range outputs {
		columns[i] = e.formatter.DescribeParameter(p.Index, p.Type)
	}
	result := render.NewResult(columns)

	source := stmt.Outputs()
	row := make([]string, len(outputs))
	for i, p := range outputs {
		row[i] = e.displayValue(source, stmt, 1, p.Index, columns[i], result, nil, e.MaxNestDepth)
	}
	result.AddRow(row)

	if render.RenderTree(sink, result) < 0 {
		return nil
	}
	return nil
}

func (e *Engine) appendTimings(footer *strings.Builder, st *execState) {
	total := time.Since(st.startTime)
	if !st.firstRowTime.IsZero() {
		fmt.Fprintf(footer, "(first row: %s; total: %s)",
			formatDuration(st.firstRowTime.Sub(st.startTime)), formatDuration(total))
	} else {
		fmt.Fprintf(footer, "(total: %s)", formatDuration(total))
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		d = time.Millisecond
	}
	return d.Truncate(time.Millisecond).String()
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
