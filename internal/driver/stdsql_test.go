package driver

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRowProducing(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"select 1", true},
		{"SELECT * FROM t", true},
		{"  with cte as (select 1) select * from cte", true},
		{"values (1)", true},
		{"show server_version", true},
		{"explain select 1", true},
		{"table t", true},
		{"call proc()", true},
		{"{call proc()}", true},
		{"{ ?= call proc(?) }", true},
		{"fetch all from cur", true},
		{"(select 1)", true},
		{"insert into t values (1)", false},
		{"update t set a = 1", false},
		{"delete from t", false},
		{"create table t (a int)", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, isRowProducing(tt.query))
		})
	}
}

func TestCodeForTypeName(t *testing.T) {
	assert.Equal(t, String, codeForTypeName("varchar"))
	assert.Equal(t, Integer, codeForTypeName("INT4"))
	assert.Equal(t, Numeric, codeForTypeName("NUMERIC"))
	assert.Equal(t, Timestamp, codeForTypeName("TIMESTAMPTZ"))
	assert.Equal(t, Cursor, codeForTypeName("REFCURSOR"))
	assert.Equal(t, Other, codeForTypeName("GEOGRAPHY"))
}

func TestOrderedArgs(t *testing.T) {
	s := &stdStmt{}
	_ = s.BindValue(2, Integer, 7)
	_ = s.BindValue(1, String, "a")
	_ = s.BindNull(3, String)

	assert.Equal(t, []any{"a", 7, nil}, s.orderedArgs())
}

func TestOrderedArgsInOutKeepsInputValue(t *testing.T) {
	s := &stdStmt{}
	_ = s.BindValue(1, Integer, int32(21))
	_ = s.RegisterOut(1, Integer)

	args := s.orderedArgs()
	require.Len(t, args, 1)

	out, ok := args[0].(sql.Out)
	require.True(t, ok)
	assert.True(t, out.In)
	require.IsType(t, (*any)(nil), out.Dest)
	assert.Equal(t, int32(21), *(out.Dest.(*any)))
}

func TestOrderedArgsOutputOnly(t *testing.T) {
	s := &stdStmt{}
	_ = s.RegisterOut(1, String)

	args := s.orderedArgs()
	require.Len(t, args, 1)

	out, ok := args[0].(sql.Out)
	require.True(t, ok)
	assert.False(t, out.In)
}
