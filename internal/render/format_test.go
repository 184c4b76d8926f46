package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/LevittS/jsqsh/internal/driver"
)

func TestDescribeAlignment(t *testing.T) {
	f := NewFormatter()

	num := f.Describe(driver.Column{Name: "n", Type: driver.Integer})
	assert.Equal(t, Right, num.Alignment)
	assert.Equal(t, Truncate, num.Overflow)

	str := f.Describe(driver.Column{Name: "s", Type: driver.String, DisplaySize: 20})
	assert.Equal(t, Left, str.Alignment)
	assert.Equal(t, Wrap, str.Overflow)
	assert.Equal(t, 20, str.MaxWidth)

	// Unknown types present like strings.
	other := f.Describe(driver.Column{Name: "o", Type: driver.Other})
	assert.Equal(t, Left, other.Alignment)
	assert.Equal(t, Wrap, other.Overflow)
}

func TestDescribeParameter(t *testing.T) {
	f := NewFormatter()
	col := f.DescribeParameter(3, driver.Integer)
	assert.Equal(t, "Param #3", col.Name)
	assert.Equal(t, Right, col.Alignment)
}

func TestFormatValues(t *testing.T) {
	f := NewFormatter()
	ts := time.Date(2024, 3, 7, 14, 30, 45, 120_000_000, time.UTC)

	tests := []struct {
		name string
		code driver.TypeCode
		in   any
		want string
	}{
		{"string", driver.String, "hello", "hello"},
		{"string from bytes", driver.String, []byte("raw"), "raw"},
		{"integer", driver.Integer, 42, "42"},
		{"double", driver.Double, 2.5, "2.5"},
		{"boolean", driver.Boolean, true, "true"},
		{"timestamp", driver.Timestamp, ts, "2024-03-07 14:30:45.120"},
		{"date", driver.Date, ts, "2024-03-07"},
		{"time", driver.Time, ts, "14:30:45"},
		{"binary", driver.Binary, []byte{0xde, 0xad}, "0xdead"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col := f.describe("c", tt.code, 0)
			assert.Equal(t, tt.want, col.Format(tt.in))
		})
	}
}
