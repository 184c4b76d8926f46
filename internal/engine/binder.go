package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cast"

	"github.com/LevittS/jsqsh/internal/call"
	"github.com/LevittS/jsqsh/internal/driver"
)

// resolveParameters completes every undetermined parameter type against
// the statement's parameter metadata. Metadata lookup failing is not an
// error here; the parameter simply stays undetermined and checkResolved
// decides whether that is fatal.
func (e *Engine) resolveParameters(stmt driver.Stmt, params []*call.Parameter) {
	for _, p := range params {
		if p.Type != driver.Undetermined {
			continue
		}
		meta, err := stmt.ParameterMeta(p.Index)
		if err != nil {
			e.log.Debug("parameter metadata unavailable", "index", p.Index, "error", err)
			continue
		}
		code := meta.Type
		if code == driver.Other && isCursorTypeName(meta.TypeName) {
			code = driver.Cursor
		}
		p.SetMetaDetails(code, meta.Precision, meta.Scale)
	}
}

func isCursorTypeName(name string) bool {
	switch strings.ToUpper(name) {
	case "CURSOR", "REFCURSOR":
		return true
	}
	return false
}

// checkResolved fails when an input-bound parameter's type is still
// undetermined after resolution: there is no way to convert its value, so
// the statement cannot execute. Output-only parameters are exempt; they
// fall back to a generic string registration.
func (e *Engine) checkResolved(params []*call.Parameter) error {
	for _, p := range params {
		if p.Direction == call.Output {
			continue
		}
		if p.Type == driver.Undetermined {
			return &BindError{
				Index: p.Index,
				Cause: errors.New("type is undetermined, cannot execute"),
			}
		}
	}
	return nil
}

// bindInputs binds every INPUT and INOUT parameter: the literal value
// converted to the declared type, or a typed null when no value is set.
// A conversion failure binds nothing and names the offending value.
func (e *Engine) bindInputs(stmt driver.Stmt, params []*call.Parameter) error {
	for _, p := range params {
		if p.Direction != call.Input && p.Direction != call.InOut {
			continue
		}

		code := p.Type
		if code == driver.Cursor {
			code = e.cursorType
		}

		value, ok := p.Value()
		if !ok {
			if err := stmt.BindNull(p.Index, code); err != nil {
				return &DriverError{Op: "bind null", Cause: err}
			}
			continue
		}

		converted, err := convertLiteral(p.Type, value)
		if err != nil {
			return &BindError{Index: p.Index, Cause: err}
		}
		if converted == nil {
			// Cursor-typed inputs bind as a null of the connection's
			// concrete cursor type.
			if err := stmt.BindNull(p.Index, code); err != nil {
				return &DriverError{Op: "bind null", Cause: err}
			}
			continue
		}
		if err := stmt.BindValue(p.Index, code, converted); err != nil {
			return &DriverError{Op: "bind value", Cause: err}
		}
	}
	return nil
}

// convertLiteral turns a literal string into the Go value bound for the
// given type. A nil result with no error means "bind a typed null".
func convertLiteral(code driver.TypeCode, value string) (any, error) {
	switch code {
	case driver.String:
		return value, nil
	case driver.Boolean:
		v, err := cast.ToBoolE(value)
		return v, conversionError(err, value, code)
	case driver.Double:
		v, err := cast.ToFloat64E(value)
		return v, conversionError(err, value, code)
	case driver.Float:
		v, err := cast.ToFloat32E(value)
		return v, conversionError(err, value, code)
	case driver.Integer:
		v, err := cast.ToInt32E(value)
		return v, conversionError(err, value, code)
	case driver.Bigint:
		v, err := cast.ToInt64E(value)
		return v, conversionError(err, value, code)
	case driver.Cursor:
		return nil, nil
	default:
		return nil, fmt.Errorf("unrecognized parameter type %s", code)
	}
}

func conversionError(err error, value string, code driver.TypeCode) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("invalid value %q for type %s: %w", value, code, err)
}

// registerOutputs registers every OUTPUT and INOUT parameter with the
// driver and returns them in positional order for later display. A still
// undetermined output registers as a generic string return.
func (e *Engine) registerOutputs(stmt driver.Stmt, params []*call.Parameter) ([]*call.Parameter, error) {
	var bound []*call.Parameter
	for _, p := range params {
		if p.Direction != call.Output && p.Direction != call.InOut {
			continue
		}
		code := p.Type
		switch code {
		case driver.Cursor:
			code = e.cursorType
		case driver.Undetermined:
			code = driver.String
		}
		if err := stmt.RegisterOut(p.Index, code); err != nil {
			return nil, &DriverError{Op: "register output", Cause: err}
		}
		bound = append(bound, p)
	}
	return bound, nil
}
