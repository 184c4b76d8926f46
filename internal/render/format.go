package render

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/LevittS/jsqsh/internal/driver"
)

// Formatter holds session-wide display settings shared by every column.
type Formatter struct {
	// NullMarker is rendered in place of SQL NULL values.
	NullMarker string

	TimestampLayout string
	DateLayout      string
	TimeLayout      string
}

// NewFormatter returns a formatter with the stock display settings.
func NewFormatter() *Formatter {
	return &Formatter{
		NullMarker:      "[NULL]",
		TimestampLayout: "2006-01-02 15:04:05.000",
		DateLayout:      "2006-01-02",
		TimeLayout:      "15:04:05",
	}
}

// typeSpec is one entry of the data-driven type-to-presentation table:
// alignment, overflow behavior and value formatter per type code.
type typeSpec struct {
	alignment Alignment
	overflow  Overflow
	format    func(f *Formatter, v any) string
}

var typeSpecs = map[driver.TypeCode]typeSpec{
	driver.String:   {Left, Wrap, formatString},
	driver.Boolean:  {Left, Truncate, formatGeneric},
	driver.Integer:  {Right, Truncate, formatGeneric},
	driver.Smallint: {Right, Truncate, formatGeneric},
	driver.Bigint:   {Right, Truncate, formatGeneric},
	driver.Double:   {Right, Truncate, formatGeneric},
	driver.Float:    {Right, Truncate, formatGeneric},
	driver.Numeric:  {Right, Truncate, formatGeneric},
	driver.Date:     {Left, Truncate, func(f *Formatter, v any) string { return formatTemporal(v, f.DateLayout) }},
	driver.Time:     {Left, Truncate, func(f *Formatter, v any) string { return formatTemporal(v, f.TimeLayout) }},
	driver.Timestamp: {Left, Truncate, func(f *Formatter, v any) string {
		return formatTemporal(v, f.TimestampLayout)
	}},
	driver.Binary: {Left, Wrap, formatBinary},
	driver.Cursor: {Left, Wrap, formatString},
}

var defaultSpec = typeSpec{Left, Wrap, formatString}

// Describe builds the display description for one driver column using the
// type-to-presentation table.
func (f *Formatter) Describe(col driver.Column) ColumnDescription {
	return f.describe(col.Name, col.Type, col.DisplaySize)
}

// DescribeParameter builds the display description for an output parameter
// at the given 1-based position.
func (f *Formatter) DescribeParameter(index int, code driver.TypeCode) ColumnDescription {
	return f.describe(fmt.Sprintf("Param #%d", index), code, 0)
}

func (f *Formatter) describe(name string, code driver.TypeCode, width int) ColumnDescription {
	spec, ok := typeSpecs[code]
	if !ok {
		spec = defaultSpec
	}
	return ColumnDescription{
		Name:       name,
		NativeType: code,
		Alignment:  spec.alignment,
		Overflow:   spec.overflow,
		MaxWidth:   width,
		Format:     func(v any) string { return spec.format(f, v) },
	}
}

func formatString(_ *Formatter, v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprint(v)
	}
}

func formatGeneric(_ *Formatter, v any) string {
	return fmt.Sprint(v)
}

func formatTemporal(v any, layout string) string {
	if t, ok := v.(time.Time); ok {
		return t.Format(layout)
	}
	return fmt.Sprint(v)
}

func formatBinary(_ *Formatter, v any) string {
	if b, ok := v.([]byte); ok {
		return "0x" + hex.EncodeToString(b)
	}
	return fmt.Sprint(v)
}
