package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LevittS/jsqsh/internal/driver"
)

func TestNullValuesRenderAsMarker(t *testing.T) {
	data := &tableData{
		columns: []driver.Column{
			{Name: "a", Type: driver.Integer},
			{Name: "b", Type: driver.String},
		},
		rows: [][]any{{nil, "x"}, {2, nil}},
	}
	stmt := newFakeStmt(rowsOutcome(data))
	eng := New(newFakeConn(stmt), nil)
	sink := &recordSink{}

	require.NoError(t, eng.Execute(context.Background(), sink, "select a, b from t"))

	require.Len(t, sink.rows, 2)
	assert.Equal(t, []string{"[NULL]", "x"}, sink.rows[0])
	assert.Equal(t, []string{"2", "[NULL]"}, sink.rows[1])
}

func TestFetchFailureDegradesToErrorMarker(t *testing.T) {
	data := simpleData(1)
	stmt := newFakeStmt(rowsOutcome(data))
	eng := New(newFakeConn(stmt), nil)

	// Decoding column 1 fails; column 2 still renders.
	rows := &fakeRows{data: data, errCols: map[int]error{1: errors.New("bad decode")}}
	result, _, err := eng.prerender(stmt, rows, nil, nil, eng.MaxNestDepth)
	require.NoError(t, err)

	require.Equal(t, 1, result.NumRows())
	assert.Equal(t, []string{ErrorMarker, "row-1"}, result.Rows()[0])
}

func TestNestedCursorMaterializesAsBackReference(t *testing.T) {
	inner := simpleData(2)
	outer := &tableData{
		columns: []driver.Column{
			{Name: "dept", Type: driver.String},
			{Name: "members", Type: driver.Other},
		},
	}
	nested := &fakeRows{data: inner}
	outer.rows = [][]any{{"eng", nested}}

	stmt := newFakeStmt(rowsOutcome(outer))
	eng := New(newFakeConn(stmt), nil)
	eng.ShowTimings = false
	sink := &recordSink{}

	require.NoError(t, eng.Execute(context.Background(), sink, "select * from depts"))

	// Top-level row shows the tag, the contained result follows under its
	// label, and the nested cursor is closed.
	require.Len(t, sink.headers, 2)
	assert.Equal(t, []string{"dept", "members"}, sink.headers[0])
	assert.Equal(t, []string{"id", "name"}, sink.headers[1])

	require.Len(t, sink.rows, 3)
	assert.Equal(t, []string{"eng", "[RESULTSET#1]"}, sink.rows[0])
	assert.Equal(t, []string{"1", "row-1"}, sink.rows[1])

	assert.Contains(t, sink.footers, "[RESULTSET#1]:")
	assert.True(t, nested.closed)
}

func TestNestedCursorDepthLimit(t *testing.T) {
	innermost := &fakeRows{data: simpleData(1)}
	middle := &tableData{
		columns: []driver.Column{{Name: "deeper", Type: driver.Other}},
		rows:    [][]any{{innermost}},
	}
	middleRows := &fakeRows{data: middle}
	outer := &tableData{
		columns: []driver.Column{{Name: "deep", Type: driver.Other}},
		rows:    [][]any{{middleRows}},
	}

	stmt := newFakeStmt(rowsOutcome(outer))
	eng := New(newFakeConn(stmt), nil)
	eng.MaxNestDepth = 1
	eng.ShowTimings = false
	sink := &recordSink{}

	require.NoError(t, eng.Execute(context.Background(), sink, "select * from t"))

	// The first nesting level materializes; the one below the limit shows
	// the error marker. Both cursors are released either way.
	require.Len(t, sink.rows, 2)
	assert.Equal(t, []string{"[RESULTSET#1]"}, sink.rows[0])
	assert.Equal(t, []string{ErrorMarker}, sink.rows[1])
	assert.True(t, middleRows.closed)
	assert.True(t, innermost.closed)
}

func TestDisplayColumnSubset(t *testing.T) {
	data := &tableData{
		columns: []driver.Column{
			{Name: "a", Type: driver.Integer},
			{Name: "b", Type: driver.String},
			{Name: "c", Type: driver.Integer},
		},
		rows: [][]any{{1, "x", 3}},
	}
	stmt := newFakeStmt(rowsOutcome(data))
	eng := New(newFakeConn(stmt), nil)

	rows := &fakeRows{data: data}
	result, _, err := eng.prerender(stmt, rows, nil, map[int]bool{1: true, 3: true}, eng.MaxNestDepth)
	require.NoError(t, err)

	require.Equal(t, 2, result.NumColumns())
	assert.Equal(t, "a", result.Column(0).Name)
	assert.Equal(t, "c", result.Column(1).Name)
	assert.Equal(t, []string{"1", "3"}, result.Rows()[0])
}
