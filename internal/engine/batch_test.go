package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteBatch(t *testing.T) {
	stmts := []*fakeStmt{
		newFakeStmt(updateOutcome(1)),
		newFakeStmt(updateOutcome(1)),
	}
	conn := newFakeConn(stmts...)
	eng := New(conn, nil)
	eng.ShowTimings = false
	sink := &recordSink{}

	params := mustDescriptors(t, "s:#1", "i:#2")
	input := strings.NewReader("alice,30\nbob,41\n")

	err := eng.ExecuteBatch(context.Background(), sink,
		"insert into people values (?, ?)", params, input, BatchOptions{})
	require.NoError(t, err)

	assert.Equal(t, "alice", stmts[0].bound[1])
	assert.Equal(t, int32(30), stmts[0].bound[2])
	assert.Equal(t, "bob", stmts[1].bound[1])
	assert.Equal(t, int32(41), stmts[1].bound[2])
	assert.Len(t, sink.footers, 2)
}

func TestExecuteBatchSkipsHeader(t *testing.T) {
	stmts := []*fakeStmt{newFakeStmt(updateOutcome(1))}
	eng := New(newFakeConn(stmts...), nil)
	eng.ShowTimings = false
	sink := &recordSink{}

	params := mustDescriptors(t, "s:#1")
	input := strings.NewReader("name\ncarol\n")

	err := eng.ExecuteBatch(context.Background(), sink,
		"insert into people values (?)", params, input, BatchOptions{HasHeader: true})
	require.NoError(t, err)

	assert.Equal(t, "carol", stmts[0].bound[1])
}

func TestExecuteBatchSynthesizesDescriptors(t *testing.T) {
	stmts := []*fakeStmt{newFakeStmt(updateOutcome(1))}
	eng := New(newFakeConn(stmts...), nil)
	eng.ShowTimings = false
	sink := &recordSink{}

	input := strings.NewReader("x,y\n")
	err := eng.ExecuteBatch(context.Background(), sink,
		"insert into t values (?, ?)", nil, input, BatchOptions{})
	require.NoError(t, err)

	assert.Equal(t, "x", stmts[0].bound[1])
	assert.Equal(t, "y", stmts[0].bound[2])
}

func TestExecuteBatchMissingColumn(t *testing.T) {
	eng := New(newFakeConn(newFakeStmt(updateOutcome(1))), nil)
	sink := &recordSink{}

	params := mustDescriptors(t, "i:#2")
	input := strings.NewReader("only-one-column\n")

	err := eng.ExecuteBatch(context.Background(), sink,
		"insert into t values (?)", params, input, BatchOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line #1 does not contain requested column #2")
}

func TestExecuteBatchContinueOnError(t *testing.T) {
	stmts := []*fakeStmt{
		newFakeStmt(updateOutcome(1)),
		newFakeStmt(updateOutcome(1)),
	}
	eng := New(newFakeConn(stmts...), nil)
	eng.ShowTimings = false
	sink := &recordSink{}

	params := mustDescriptors(t, "i:#1")
	input := strings.NewReader("notanumber\n7\n")

	err := eng.ExecuteBatch(context.Background(), sink,
		"insert into t values (?)", params, input, BatchOptions{ContinueOnError: true})
	require.NoError(t, err)

	// The first record fails conversion and is skipped; the second runs on
	// a fresh statement.
	assert.Empty(t, stmts[0].bound)
	assert.Equal(t, int32(7), stmts[1].bound[1])
}

func TestExecuteBatchAbortsOnError(t *testing.T) {
	stmts := []*fakeStmt{
		newFakeStmt(updateOutcome(1)),
		newFakeStmt(updateOutcome(1)),
	}
	eng := New(newFakeConn(stmts...), nil)
	sink := &recordSink{}

	params := mustDescriptors(t, "i:#1")
	input := strings.NewReader("notanumber\n7\n")

	err := eng.ExecuteBatch(context.Background(), sink,
		"insert into t values (?)", params, input, BatchOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch line #1")
}
