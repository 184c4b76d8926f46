// Package analyzer decides whether a buffered block of SQL text is a
// complete statement, per SQL dialect. The input-buffering layer consults
// the active analyzer before handing the buffer to the execution engine.
package analyzer

import (
	"fmt"
	"sort"
	"strings"
)

// Analyzer is the single capability every dialect variant implements.
type Analyzer interface {
	// Name identifies the dialect ("ansi", "plpgsql", ...).
	Name() string

	// IsTerminated reports whether sql forms a complete statement ending
	// in the given terminator character.
	IsTerminated(sql string, terminator rune) bool
}

var registry = map[string]Analyzer{
	"ansi":    ANSI{},
	"plpgsql": PLpgSQL{},
	"plsql":   PLSQL{},
	"tsql":    TSQL{},
	"none":    None{},
}

// Get returns the analyzer registered under the given dialect name.
func Get(name string) (Analyzer, error) {
	a, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown SQL dialect %q (known: %s)",
			name, strings.Join(Names(), ", "))
	}
	return a, nil
}

// Names lists the registered dialect names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ANSI treats SQL as block-free: a statement is complete as soon as the
// last token is the terminator outside of quotes and comments.
type ANSI struct{}

func (ANSI) Name() string { return "ansi" }

func (ANSI) IsTerminated(sql string, terminator rune) bool {
	tokens := newTokenizer(sql).all()
	return lastIsTerminator(tokens, terminator)
}

// PLpgSQL understands PostgreSQL dollar-quoted blocks ($tag$ ... $tag$).
// The same token both opens and closes a block, so occurrences toggle:
// push when the stack top differs, pop when it matches. An odd number of
// identical markers therefore always leaves the block open.
type PLpgSQL struct{}

func (PLpgSQL) Name() string { return "plpgsql" }

func (PLpgSQL) IsTerminated(sql string, terminator rune) bool {
	tok := newTokenizer(sql)
	tok.addTokenCharacters("$")

	var stack []string
	var last string
	seen := false
	for {
		token, ok := tok.next()
		if !ok {
			break
		}
		if isDollarQuote(token) {
			if len(stack) == 0 || stack[len(stack)-1] != token {
				stack = append(stack, token)
			} else {
				stack = stack[:len(stack)-1]
			}
		}
		last = token
		seen = true
	}
	return len(stack) == 0 && seen && last == string(terminator)
}

func isDollarQuote(token string) bool {
	return len(token) >= 2 && token[0] == '$' && token[len(token)-1] == '$'
}

// PLSQL tracks Oracle-style compound blocks: BEGIN, CASE, LOOP and IF open
// a block; END closes one. "END LOOP", "END CASE" and "END IF" close the
// block as a unit without the trailing keyword opening a fresh one.
type PLSQL struct{}

func (PLSQL) Name() string { return "plsql" }

func (PLSQL) IsTerminated(sql string, terminator rune) bool {
	tokens := newTokenizer(sql).all()

	depth := 0
	for i := 0; i < len(tokens); i++ {
		switch tokens[i] {
		case "BEGIN", "CASE", "LOOP", "IF":
			depth++
		case "END":
			if depth > 0 {
				depth--
			} else {
				depth++
			}
			if i+1 < len(tokens) {
				switch tokens[i+1] {
				case "LOOP", "CASE", "IF":
					i++
				}
			}
		}
	}
	return depth == 0 && lastIsTerminator(tokens, terminator)
}

// TSQL tracks Transact-SQL BEGIN/END pairs. BEGIN TRAN, BEGIN TRANSACTION
// and BEGIN DISTRIBUTED do not open a block; CASE expressions do and are
// closed by END.
type TSQL struct{}

func (TSQL) Name() string { return "tsql" }

func (TSQL) IsTerminated(sql string, terminator rune) bool {
	tokens := newTokenizer(sql).all()

	depth := 0
	for i := 0; i < len(tokens); i++ {
		switch tokens[i] {
		case "BEGIN":
			if i+1 < len(tokens) {
				switch tokens[i+1] {
				case "TRAN", "TRANSACTION", "DISTRIBUTED":
					continue
				}
			}
			depth++
		case "CASE":
			depth++
		case "END":
			if depth > 0 {
				depth--
			} else {
				depth++
			}
		}
	}
	return depth == 0 && lastIsTerminator(tokens, terminator)
}

// None reports every non-empty buffer as complete; used when the input
// layer submits whole buffers itself.
type None struct{}

func (None) Name() string { return "none" }

func (None) IsTerminated(sql string, terminator rune) bool {
	return strings.TrimSpace(sql) != ""
}

// lastIsTerminator reports whether the final token is exactly the
// terminator character. Empty input is never terminated.
func lastIsTerminator(tokens []string, terminator rune) bool {
	if len(tokens) == 0 {
		return false
	}
	return tokens[len(tokens)-1] == string(terminator)
}
