package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LevittS/jsqsh/internal/call"
	"github.com/LevittS/jsqsh/internal/driver"
)

func TestBindInputsConvertsLiterals(t *testing.T) {
	stmt := newFakeStmt(updateOutcome(1))
	eng := New(newFakeConn(stmt), nil)
	eng.ShowTimings = false
	sink := &recordSink{}

	params := mustDescriptors(t, "i:42", "j:9000000000", "z:true", "d:2.5", "s:hi")
	err := eng.ExecutePrepared(context.Background(), sink, "insert into t values (?,?,?,?,?)", params)
	require.NoError(t, err)

	assert.Equal(t, int32(42), stmt.bound[1])
	assert.Equal(t, int64(9000000000), stmt.bound[2])
	assert.Equal(t, true, stmt.bound[3])
	assert.Equal(t, 2.5, stmt.bound[4])
	assert.Equal(t, "hi", stmt.bound[5])
}

func TestBindInputsExplicitNull(t *testing.T) {
	stmt := newFakeStmt(updateOutcome(1))
	eng := New(newFakeConn(stmt), nil)
	eng.ShowTimings = false
	sink := &recordSink{}

	params := mustDescriptors(t, "i!")
	err := eng.ExecutePrepared(context.Background(), sink, "insert into t values (?)", params)
	require.NoError(t, err)

	assert.Equal(t, driver.Integer, stmt.nulls[1])
	assert.Empty(t, stmt.bound)
}

func TestBindInputsConversionFailure(t *testing.T) {
	stmt := newFakeStmt(updateOutcome(1))
	eng := New(newFakeConn(stmt), nil)
	sink := &recordSink{}

	params := mustDescriptors(t, "i:notanumber")
	err := eng.ExecutePrepared(context.Background(), sink, "insert into t values (?)", params)
	require.Error(t, err)

	var be *BindError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, 1, be.Index)
	assert.Contains(t, err.Error(), `invalid value "notanumber"`)
	assert.Empty(t, stmt.bound)
}

func TestUntaggedReturnWithoutMetadataRegistersString(t *testing.T) {
	// The fake has no parameter metadata; the untagged "?=" return still
	// executes, registered as a generic string output.
	stmt := newFakeStmt(updateOutcome(-1))
	stmt.outVals = map[int]any{1: "done"}
	eng := New(newFakeConn(stmt), nil)
	eng.ShowTimings = false
	sink := &recordSink{}

	err := eng.ExecuteCall(context.Background(), sink, "{ ?= call f() }", nil)
	require.NoError(t, err)

	assert.Equal(t, driver.String, stmt.outs[1])
	assert.Empty(t, stmt.nulls)
	require.Len(t, sink.rows, 1)
	assert.Equal(t, []string{"done"}, sink.rows[0])
}

func TestUndeterminedInputWithoutMetadataFails(t *testing.T) {
	// An input-bound parameter whose type never resolves has no way to
	// convert its value and must refuse to execute.
	stmt := newFakeStmt(updateOutcome(1))
	eng := New(newFakeConn(stmt), nil)
	sink := &recordSink{}

	p := call.NewParameter(1)
	p.SetValue("x")
	err := eng.ExecutePrepared(context.Background(), sink,
		"insert into t values (?)", []*call.Parameter{p})
	require.Error(t, err)

	var be *BindError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, 1, be.Index)
	assert.Contains(t, err.Error(), "type is undetermined")
	assert.Empty(t, stmt.bound)
}

func TestUndeterminedOutputRegistersAsString(t *testing.T) {
	// A plain "?" placeholder is output-only; with no metadata it falls
	// back to a generic string registration instead of failing.
	stmt := newFakeStmt(updateOutcome(-1))
	stmt.outVals = map[int]any{1: "hello"}
	eng := New(newFakeConn(stmt), nil)
	eng.ShowTimings = false
	sink := &recordSink{}

	err := eng.ExecuteCall(context.Background(), sink, "{call f(?)}", nil)
	require.NoError(t, err)

	assert.Equal(t, driver.String, stmt.outs[1])
	require.Len(t, sink.rows, 1)
	assert.Equal(t, []string{"hello"}, sink.rows[0])
}

func TestCursorParametersUseConnectionCursorType(t *testing.T) {
	stmt := newFakeStmt(updateOutcome(-1))
	stmt.outVals = map[int]any{1: "ref"}
	conn := newFakeConn(stmt)
	conn.cursorType = driver.Other
	eng := New(conn, nil)
	eng.ShowTimings = false
	sink := &recordSink{}

	params := mustDescriptors(t, "R^")
	err := eng.ExecuteCall(context.Background(), sink, "{call open_cur(?)}", params)
	require.NoError(t, err)

	assert.Equal(t, driver.Other, stmt.outs[1])
}

func TestResolveParametersDetectsCursorByTypeName(t *testing.T) {
	stmt := newFakeStmt(updateOutcome(-1))
	stmt.meta = map[int]driver.ParamMeta{
		1: {Type: driver.Other, TypeName: "REFCURSOR"},
	}
	eng := New(newFakeConn(stmt), nil)

	p, err := call.ParseDescriptor("U^", 1)
	require.NoError(t, err)

	eng.resolveParameters(stmt, []*call.Parameter{p})
	assert.Equal(t, driver.Cursor, p.Type)
}

func TestResolveParametersCompletesFromMetadata(t *testing.T) {
	stmt := newFakeStmt(updateOutcome(-1))
	stmt.meta = map[int]driver.ParamMeta{
		1: {Type: driver.Numeric, Precision: 12, Scale: 4},
	}
	eng := New(newFakeConn(stmt), nil)

	p := call.NewParameter(1)
	eng.resolveParameters(stmt, []*call.Parameter{p})

	assert.Equal(t, driver.Numeric, p.Type)
	assert.Equal(t, 12, p.Precision)
	assert.Equal(t, 4, p.Scale)
	assert.True(t, p.HasPrecision())
}

func TestResolveParametersLeavesDeterminedTypesAlone(t *testing.T) {
	stmt := newFakeStmt(updateOutcome(-1))
	stmt.meta = map[int]driver.ParamMeta{
		1: {Type: driver.Double},
	}
	eng := New(newFakeConn(stmt), nil)

	params := mustDescriptors(t, "i:1")
	eng.resolveParameters(stmt, params)
	assert.Equal(t, driver.Integer, params[0].Type)
}
