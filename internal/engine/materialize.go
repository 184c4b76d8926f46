package engine

import (
	"time"

	"github.com/LevittS/jsqsh/internal/driver"
	"github.com/LevittS/jsqsh/internal/render"
)

// displayRows materializes a result set and streams it into the sink,
// rendering any contained (cursor-valued) results after the top level.
// displayCols, when non-nil, is the set of 1-based column positions to
// materialize; all others are skipped at the source. The returned count is
// the number of rows handed to the sink, -1 when the sink aborted;
// truncated reports that the row cap cut the result short.
func (e *Engine) displayRows(sink render.Renderer, stmt driver.Stmt, rows driver.Rows, st *execState, displayCols map[int]bool) (int, bool, error) {
	result, truncated, err := e.prerender(stmt, rows, st, displayCols, e.MaxNestDepth)
	if err != nil {
		return 0, false, err
	}
	count := render.RenderTree(sink, result)
	return count, truncated, nil
}

// prerender builds the materialized result tree for one result set,
// enforcing the row-limiting policy as rows are fetched: under CANCEL the
// owning statement is cancelled and fetching stops; under DISCARD (and
// DRIVER, should the driver overshoot) surplus rows are fetched but never
// appended. depth bounds recursion into cursor-valued columns.
func (e *Engine) prerender(stmt driver.Stmt, rows driver.Rows, st *execState, displayCols map[int]bool, depth int) (*render.Result, bool, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, false, &DriverError{Op: "column metadata", Cause: err}
	}

	descriptions := make([]render.ColumnDescription, 0, len(columns))
	for i, col := range columns {
		if displayCols == nil || displayCols[i+1] {
			descriptions = append(descriptions, e.formatter.Describe(col))
		}
	}
	result := render.NewResult(descriptions)

	rowCount := 0
	truncated := false
	for {
		ok, err := rows.Next()
		if err != nil {
			return nil, false, &DriverError{Op: "fetch", Cause: err}
		}
		if !ok {
			break
		}
		rowCount++
		if st != nil && st.firstRowTime.IsZero() {
			st.firstRowTime = time.Now()
		}

		if e.MaxRows > 0 && rowCount > e.MaxRows {
			truncated = true
			if e.LimitPolicy == LimitCancel {
				_ = stmt.Cancel()
				break
			}
			continue
		}

		row := make([]string, result.NumColumns())
		idx := 0
		for i := 1; i <= len(columns); i++ {
			if displayCols != nil && !displayCols[i] {
				continue
			}
			row[idx] = e.displayValue(rows, stmt, rowCount, i, result.Column(idx), result, st, depth)
			idx++
		}
		result.AddRow(row)
	}
	return result, truncated, nil
}

// displayValue fetches one value and turns it into its display string. The
// accessor is chosen by the column's native type because some drivers
// return garbage from the generic accessor for timestamp and character
// data. A cursor-valued column is recursively materialized into a
// contained result and displayed as its back-reference tag. A fetch
// failure degrades to the error marker for that cell only.
func (e *Engine) displayValue(source driver.ValueSource, stmt driver.Stmt, rowNum, col int, desc render.ColumnDescription, result *render.Result, st *execState, depth int) string {
	var value any
	var err error

	switch desc.NativeType {
	case driver.Timestamp, driver.Date, driver.Time:
		value, err = source.Timestamp(col)
	case driver.String:
		value, err = source.String(col)
	default:
		value, err = source.Value(col)
	}

	if err == nil {
		if nested, ok := value.(driver.Rows); ok {
			value, err = e.containCursor(stmt, nested, result, depth)
		}
	}
	if err != nil {
		e.log.Warn("driver error decoding value",
			"row", rowNum, "column", col, "error", err)
		return ErrorMarker
	}

	if source.WasNull() {
		return e.formatter.NullMarker
	}
	if value == nil {
		e.log.Warn("driver indicated a value present but returned nothing",
			"row", rowNum, "column", col)
		return e.formatter.NullMarker
	}
	return desc.Format(value)
}

// containCursor materializes a cursor-valued column into a contained
// result and returns its back-reference tag. The nested cursor is closed
// once fully materialized. At the depth limit the cursor is closed unread:
// a driver returning a self-referential cursor chain must not hang us.
func (e *Engine) containCursor(stmt driver.Stmt, nested driver.Rows, result *render.Result, depth int) (any, error) {
	defer nested.Close()

	if depth <= 0 {
		e.log.Warn("cursor nesting exceeds maximum depth, not materialized",
			"max_depth", e.MaxNestDepth)
		return nil, errNestTooDeep
	}
	contained, _, err := e.prerender(stmt, nested, nil, nil, depth-1)
	if err != nil {
		return nil, err
	}
	n := result.AddContained(contained)
	return render.BackReference(n), nil
}
