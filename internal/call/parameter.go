// Package call parses stored-procedure call syntax ({ [?=] call ... })
// and the compact parameter descriptor mini-language into typed,
// directional parameter bindings.
package call

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/LevittS/jsqsh/internal/driver"
)

// Direction says which way a parameter's value flows.
type Direction int

const (
	Input Direction = iota
	Output
	InOut
)

func (d Direction) String() string {
	switch d {
	case Input:
		return "INPUT"
	case Output:
		return "OUTPUT"
	default:
		return "INOUT"
	}
}

// Parameter describes one statement parameter: its 1-based position, flow
// direction, declared type, and optional literal value or batch-input
// column back-reference. Direction is fixed at creation; only the type,
// precision and scale may be completed later against driver metadata.
type Parameter struct {
	Index     int
	Direction Direction
	Type      driver.TypeCode
	Precision int
	Scale     int

	// ColumnIdx is a 0-based index into an external batch-input row, or -1.
	// A parameter carrying a back-reference receives its value per record.
	ColumnIdx int

	value    *string
	hasValue bool
}

// NewParameter returns a parameter at the given 1-based position with no
// value and an undetermined type.
func NewParameter(index int) *Parameter {
	return &Parameter{
		Index:     index,
		Type:      driver.Undetermined,
		Precision: -1,
		Scale:     -1,
		ColumnIdx: -1,
	}
}

// Value returns the literal value, if one is set. A set-but-nil value means
// an explicit SQL NULL.
func (p *Parameter) Value() (string, bool) {
	if !p.hasValue || p.value == nil {
		return "", false
	}
	return *p.value, true
}

// SetValue sets the literal value bound for this parameter.
func (p *Parameter) SetValue(v string) {
	p.value = &v
	p.hasValue = true
}

// SetNull marks the parameter as carrying an explicit null value.
func (p *Parameter) SetNull() {
	p.value = nil
	p.hasValue = true
}

// HasInput reports whether the parameter supplies any input at all
// (a literal, an explicit null, or a pending column back-reference).
func (p *Parameter) HasInput() bool {
	return p.hasValue || p.ColumnIdx >= 0
}

// SetMetaDetails completes an undetermined parameter from driver metadata.
func (p *Parameter) SetMetaDetails(code driver.TypeCode, precision, scale int) {
	p.Type = code
	p.Precision = precision
	p.Scale = scale
}

// HasPrecision reports whether driver metadata supplied a precision.
func (p *Parameter) HasPrecision() bool {
	return p.Precision != -1
}

var typeLetters = map[byte]driver.TypeCode{
	'S': driver.String,
	'C': driver.String,
	'Z': driver.Boolean,
	'D': driver.Double,
	'F': driver.Float,
	'I': driver.Integer,
	'J': driver.Bigint,
	'R': driver.Cursor,
	'U': driver.Undetermined,
}

// ParseDescriptor parses one compact descriptor token into a parameter at
// the given 1-based position.
//
// The token is <TypeLetter><Marker>[<Value>]: the type letter is one of
// S/C (string), Z (boolean), D (double), F (float), I (integer), J (long),
// R (cursor) or U (undetermined), lowercase meaning input-only and
// uppercase meaning inout/output. The marker is ":" followed by a value
// (or "#<n>" to back-reference column n of a batch-input row), "!" for an
// explicit null, or "^" for no input value at all. A token with no marker
// is shorthand for an inout string carrying the token itself as value.
func ParseDescriptor(token string, index int) (*Parameter, error) {
	p := NewParameter(index)

	typeLetter := byte('S')
	hasInput := true

	if len(token) >= 2 && strings.IndexByte(":!^", token[1]) != -1 {
		typeLetter = token[0]
		switch token[1] {
		case ':':
			p.setValueToken(token[2:])
		case '!':
			p.SetNull()
		case '^':
			hasInput = false
		}
	} else {
		p.setValueToken(token)
	}

	upper := byte(strings.ToUpper(string(typeLetter))[0])
	code, ok := typeLetters[upper]
	if !ok {
		return nil, fmt.Errorf("unknown parameter type letter %q in %q", string(typeLetter), token)
	}
	p.Type = code

	if typeLetter != upper {
		p.Direction = Input
	} else if hasInput {
		p.Direction = InOut
	} else {
		p.Direction = Output
	}
	return p, nil
}

// setValueToken records either a literal value or, when it starts with
// "#", a batch-input column back-reference. A bare "#" references the
// column at the parameter's own position.
func (p *Parameter) setValueToken(v string) {
	if strings.HasPrefix(v, "#") {
		if len(v) == 1 {
			p.ColumnIdx = p.Index - 1
			return
		}
		if n, err := strconv.Atoi(v[1:]); err == nil {
			p.ColumnIdx = n - 1
			return
		}
	}
	p.SetValue(v)
}
