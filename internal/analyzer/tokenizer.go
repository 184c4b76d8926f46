package analyzer

import (
	"strings"
	"unicode"
)

// tokenizer produces a coarse keyword stream from SQL text: quoted strings
// and comments are skipped wholesale, word tokens are uppercased, and every
// other non-space character comes out as a standalone single-character
// token (the statement terminator included).
type tokenizer struct {
	input []rune
	pos   int
	extra string
}

func newTokenizer(sql string) *tokenizer {
	return &tokenizer{input: []rune(sql)}
}

// addTokenCharacters extends the set of characters treated as part of a
// word token. PL/pgSQL registers "$" so that $tag$ delimiters come out as
// single tokens.
func (t *tokenizer) addTokenCharacters(chars string) {
	t.extra += chars
}

func (t *tokenizer) isWordChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' ||
		strings.ContainsRune(t.extra, r)
}

// next returns the following token, or false when the input is exhausted.
func (t *tokenizer) next() (string, bool) {
	for t.pos < len(t.input) {
		r := t.input[t.pos]

		switch {
		case unicode.IsSpace(r):
			t.pos++

		case r == '\'' || r == '"':
			t.skipQuoted(r)

		case r == '-' && t.peekAt(1) == '-':
			t.skipLineComment()

		case r == '/' && t.peekAt(1) == '*':
			t.skipBlockComment()

		case t.isWordChar(r):
			start := t.pos
			for t.pos < len(t.input) && t.isWordChar(t.input[t.pos]) {
				t.pos++
			}
			return strings.ToUpper(string(t.input[start:t.pos])), true

		default:
			t.pos++
			return string(r), true
		}
	}
	return "", false
}

// all drains the tokenizer. Dialects that need lookahead work off the slice.
func (t *tokenizer) all() []string {
	var tokens []string
	for {
		tok, ok := t.next()
		if !ok {
			return tokens
		}
		tokens = append(tokens, tok)
	}
}

func (t *tokenizer) peekAt(offset int) rune {
	if t.pos+offset >= len(t.input) {
		return 0
	}
	return t.input[t.pos+offset]
}

// skipQuoted consumes a quoted string, honoring doubled-quote escapes
// ('O''Brien'). An unclosed quote consumes the rest of the input.
func (t *tokenizer) skipQuoted(quote rune) {
	t.pos++
	for t.pos < len(t.input) {
		if t.input[t.pos] == quote {
			if t.peekAt(1) == quote {
				t.pos += 2
				continue
			}
			t.pos++
			return
		}
		t.pos++
	}
}

func (t *tokenizer) skipLineComment() {
	for t.pos < len(t.input) && t.input[t.pos] != '\n' {
		t.pos++
	}
}

func (t *tokenizer) skipBlockComment() {
	t.pos += 2
	for t.pos < len(t.input) {
		if t.input[t.pos] == '*' && t.peekAt(1) == '/' {
			t.pos += 2
			return
		}
		t.pos++
	}
}
