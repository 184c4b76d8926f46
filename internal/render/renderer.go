// Package render defines the sink contract the execution engine feeds
// formatted rows into, the materialized result tree, and a small set of
// concrete renderers (table, csv, discard).
package render

import (
	"fmt"
	"io"

	"github.com/LevittS/jsqsh/internal/driver"
)

// Alignment positions a value within its column.
type Alignment int

const (
	Left Alignment = iota
	Right
)

// Overflow says what happens to a value wider than its column.
type Overflow int

const (
	Wrap Overflow = iota
	Truncate
)

// ColumnDescription says how to present one result column. Built once per
// result set from driver metadata; read-only afterward.
type ColumnDescription struct {
	Name       string
	NativeType driver.TypeCode
	Alignment  Alignment
	Overflow   Overflow

	// MaxWidth caps the display width; <= 0 means unbounded.
	MaxWidth int

	// Format turns a fetched value into its display string.
	Format func(any) string
}

// Renderer is the only contract the rendering pipeline requires of its
// output collaborator.
type Renderer interface {
	// Header announces the columns of the result about to be rendered.
	Header(columns []ColumnDescription)

	// Row emits one row of formatted values. Returning false aborts
	// materialization; the caller reports a negative row count.
	Row(values []string) bool

	// Flush completes the current result. Returning false aborts.
	Flush() bool

	// Footer emits summary text (row counts, timings, labels).
	Footer(text string)

	// IsDiscard reports that the renderer wants no materialized values at
	// all, only a count; the engine then skips materialization entirely.
	IsDiscard() bool
}

// Result is a fully materialized result set: display columns, formatted
// rows, and any contained results produced by cursor-valued columns. The
// column count is fixed at construction and every row has exactly that
// many entries.
type Result struct {
	columns   []ColumnDescription
	rows      [][]string
	contained []*Result
}

// NewResult creates an empty result over the given columns.
func NewResult(columns []ColumnDescription) *Result {
	return &Result{columns: columns}
}

// Columns returns the column descriptions.
func (r *Result) Columns() []ColumnDescription { return r.columns }

// Column returns the description at the given 0-based display position.
func (r *Result) Column(idx int) ColumnDescription { return r.columns[idx] }

// Rows returns the formatted rows.
func (r *Result) Rows() [][]string { return r.rows }

// NumColumns returns the number of display columns.
func (r *Result) NumColumns() int { return len(r.columns) }

// NumRows returns the number of materialized rows.
func (r *Result) NumRows() int { return len(r.rows) }

// AddRow appends a formatted row. The row must have exactly NumColumns
// entries.
func (r *Result) AddRow(row []string) {
	r.rows = append(r.rows, row)
}

// AddContained appends a nested result (a cursor-valued column's content)
// and returns its 1-based back-reference number.
func (r *Result) AddContained(nested *Result) int {
	r.contained = append(r.contained, nested)
	return len(r.contained)
}

// Contained returns the nested results in back-reference order.
func (r *Result) Contained() []*Result { return r.contained }

// Render streams a materialized result into a sink: header, rows, flush.
// It returns the number of rows rendered, or -1 when the sink aborted.
func Render(sink Renderer, result *Result) int {
	sink.Header(result.Columns())
	for _, row := range result.Rows() {
		if !sink.Row(row) {
			return -1
		}
	}
	if !sink.Flush() {
		return -1
	}
	return result.NumRows()
}

// BackReference is the tag displayed in place of a cursor-valued column
// whose content was materialized as the n-th contained result.
func BackReference(n int) string {
	return fmt.Sprintf("[RESULTSET#%d]", n)
}

// RenderTree renders a result and then each contained result in turn under
// a "[RESULTSET#n]:" label, recursively. It returns the top-level row
// count, or -1 when the sink aborted.
func RenderTree(sink Renderer, result *Result) int {
	count := Render(sink, result)
	if count < 0 {
		return count
	}
	for i, nested := range result.Contained() {
		sink.Footer(fmt.Sprintf("[RESULTSET#%d]:", i+1))
		if RenderTree(sink, nested) < 0 {
			return -1
		}
	}
	return count
}

// Discard is a sink that declares it wants no rows at all: the engine
// counts rows without materializing them. Footers still go to the writer.
type Discard struct {
	Out io.Writer
}

func (Discard) Header(columns []ColumnDescription) {}
func (Discard) Row(values []string) bool           { return true }
func (Discard) Flush() bool                        { return true }
func (Discard) IsDiscard() bool                    { return true }

func (d Discard) Footer(text string) {
	if d.Out != nil {
		fmt.Fprintln(d.Out, text)
	}
}
