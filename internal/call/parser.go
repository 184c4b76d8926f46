package call

import (
	"strings"
	"unicode"

	"github.com/LevittS/jsqsh/internal/driver"
)

// IsCall reports whether the SQL text looks like a stored-procedure call:
// optional leading whitespace followed by an opening brace.
func IsCall(sql string) bool {
	idx := skipWhitespace(sql, 0)
	return idx < len(sql) && sql[idx] == '{'
}

// ParseCall parses a { [?=] call ... } statement, extracting parameter
// descriptors for every placeholder and rewriting inline inout values
// ("?=21") to bare "?" so the result is safe to hand to a driver's
// prepare step.
//
// A leading "?=" return-value marker becomes parameter #1; "?^I=" style
// markers carry an explicit return type letter. Placeholders inside quoted
// literals are never touched. Input that is not a call statement is
// returned unchanged with no parameters: malformed call syntax degrades to
// plain SQL, it is never an error.
func ParseCall(sql string) (string, []*Parameter) {
	var params []*Parameter
	idx, length := 0, len(sql)
	chunkStart := 0
	paramIdx := 1

	idx = skipWhitespace(sql, idx)
	if idx >= length || sql[idx] != '{' {
		return sql, nil
	}
	idx++
	idx = skipWhitespace(sql, idx)
	if idx >= length {
		return sql, nil
	}

	var sb strings.Builder
	sb.Grow(length)

	// Optional "?=" return-value marker.
	if sql[idx] == '?' {
		idx++
		if idx < length-1 && sql[idx] == '^' && unicode.IsLetter(rune(sql[idx+1])) {
			sb.WriteString(sql[chunkStart:idx])
			p, err := ParseDescriptor(string(sql[idx+1])+"^", paramIdx)
			if err != nil {
				return sql, nil
			}
			params = append(params, p)
			paramIdx++
			idx += 2
			chunkStart = idx
		} else {
			// No explicit type tag: an output-only return whose concrete
			// type the binder resolves (a generic string when it cannot).
			p, _ := ParseDescriptor("U^", paramIdx)
			params = append(params, p)
			paramIdx++
		}

		idx = skipWhitespace(sql, idx)
		if idx >= length || sql[idx] != '=' {
			return sql, nil
		}
		idx++
		idx = skipWhitespace(sql, idx)
	}

	// The "call" keyword is mandatory; anything else is not a call.
	if idx+4 > length || !strings.EqualFold(sql[idx:idx+4], "call") {
		return sql, nil
	}
	idx += 4

	// Scan the body for placeholders outside of quoted strings.
	for idx < length {
		switch sql[idx] {
		case '\'', '"':
			idx = skipQuoted(sql, idx)

		case '?':
			idx++
			idx = skipWhitespace(sql, idx)

			if idx < length && sql[idx] == '=' {
				// Inline inout value: emit everything up to the "=" and
				// swallow "=<value>" so only the bare "?" remains.
				sb.WriteString(sql[chunkStart:idx])
				idx++
				idx = skipWhitespace(sql, idx)

				var value string
				switch {
				case idx >= length:
					value = ""
				case sql[idx] == '\'' || sql[idx] == '"':
					quote := sql[idx]
					start := idx
					idx = skipQuoted(sql, idx)
					value = strings.ReplaceAll(
						sql[start+1:idx-1],
						string(quote)+string(quote),
						string(quote))
				default:
					start := idx
					for idx < length && !isValueEnd(sql[idx]) {
						idx++
					}
					value = sql[start:idx]
				}

				p := NewParameter(paramIdx)
				p.Direction = InOut
				p.Type = driver.String
				p.SetValue(value)
				params = append(params, p)
				paramIdx++
				chunkStart = idx
			} else {
				// Plain placeholder: untyped, output-bound.
				p, _ := ParseDescriptor("U^", paramIdx)
				params = append(params, p)
				paramIdx++
			}

		default:
			idx++
		}
	}

	sb.WriteString(sql[chunkStart:])
	return sb.String(), params
}

func isValueEnd(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' ||
		c == ',' || c == '(' || c == ')'
}

func skipWhitespace(s string, idx int) int {
	for idx < len(s) && unicode.IsSpace(rune(s[idx])) {
		idx++
	}
	return idx
}

// skipQuoted returns the index just past the closing quote, treating a
// doubled quote as an escaped character. An unclosed string consumes the
// remainder of the input.
func skipQuoted(s string, idx int) int {
	quote := s[idx]
	idx++
	for idx < len(s) {
		if s[idx] == quote {
			if idx+1 < len(s) && s[idx+1] == quote {
				idx += 2
				continue
			}
			return idx + 1
		}
		idx++
	}
	return idx
}
