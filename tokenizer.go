// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package gridcalc

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokString
	tokBool
	tokError
	tokCellRef
	tokSheetRef
	tokIdent
	tokOp
	tokLparen
	tokRparen
	tokLbrace
	tokRbrace
	tokComma
	tokSemicolon
	tokColon
)

type token struct {
	kind tokenKind
	text string
	num  float64
	err  CellError
}

func (t token) String() string {
	if t.kind == tokEOF {
		return "end of formula"
	}
	return fmt.Sprintf("'%s'", t.text)
}

// tokenizer is a single lookahead lexer. Tokens are produced one at a time as
// the parser asks for them.
type tokenizer struct {
	src    []rune
	pos    int
	peeked *token
}

func newTokenizer(src string) *tokenizer {
	return &tokenizer{
		src: []rune(src),
	}
}

func (t *tokenizer) peek() (token, error) {
	if t.peeked == nil {
		tok, err := t.scan()
		if err != nil {
			return token{}, err
		}
		t.peeked = &tok
	}
	return *t.peeked, nil
}

func (t *tokenizer) next() (token, error) {
	tok, err := t.peek()
	if err != nil {
		return token{}, err
	}
	t.peeked = nil
	return tok, nil
}

func (t *tokenizer) char(offset int) (rune, bool) {
	if t.pos+offset < len(t.src) {
		return t.src[t.pos+offset], true
	}
	return 0, false
}

func (t *tokenizer) charIs(offset int, c rune) bool {
	actual, ok := t.char(offset)
	return ok && actual == c
}

func (t *tokenizer) scan() (token, error) {
	for t.pos < len(t.src) && unicode.IsSpace(t.src[t.pos]) {
		t.pos++
	}
	c, ok := t.char(0)
	if !ok {
		return token{kind: tokEOF}, nil
	}

	switch {
	case isDigit(c):
		return t.scanNumber(), nil
	case c == '.':
		if next, ok := t.char(1); ok && isDigit(next) {
			return t.scanNumber(), nil
		}
		return token{}, errParse("unexpected character '.' at %d", t.pos)
	case c == '"':
		return t.scanString()
	case c == '\'':
		return t.scanQuotedSheet()
	case c == '#':
		return t.scanError(), nil
	case isIdentRune(c):
		return t.scanIdentifier(), nil
	}

	t.pos++
	switch c {
	case '+', '-', '*', '/', '^', '%', '&', '=':
		return token{kind: tokOp, text: string(c)}, nil
	case '<':
		if t.charIs(0, '=') || t.charIs(0, '>') {
			t.pos++
			return token{kind: tokOp, text: "<" + string(t.src[t.pos-1])}, nil
		}
		return token{kind: tokOp, text: "<"}, nil
	case '>':
		if t.charIs(0, '=') {
			t.pos++
			return token{kind: tokOp, text: ">="}, nil
		}
		return token{kind: tokOp, text: ">"}, nil
	case '(':
		return token{kind: tokLparen, text: "("}, nil
	case ')':
		return token{kind: tokRparen, text: ")"}, nil
	case '{':
		return token{kind: tokLbrace, text: "{"}, nil
	case '}':
		return token{kind: tokRbrace, text: "}"}, nil
	case ',':
		return token{kind: tokComma, text: ","}, nil
	case ';':
		return token{kind: tokSemicolon, text: ";"}, nil
	case ':':
		return token{kind: tokColon, text: ":"}, nil
	}
	return token{}, errParse("unexpected character '%c' at %d", c, t.pos-1)
}

func isDigit(c rune) bool {
	return '0' <= c && c <= '9'
}

func isIdentRune(c rune) bool {
	return c == '_' || c == '$' || c == '.' || unicode.IsLetter(c) || unicode.IsDigit(c)
}

func (t *tokenizer) scanNumber() token {
	start := t.pos
	for t.pos < len(t.src) && isDigit(t.src[t.pos]) {
		t.pos++
	}
	if t.charIs(0, '.') {
		t.pos++
		for t.pos < len(t.src) && isDigit(t.src[t.pos]) {
			t.pos++
		}
	}
	if t.charIs(0, 'e') || t.charIs(0, 'E') {
		offset := 1
		if t.charIs(1, '+') || t.charIs(1, '-') {
			offset = 2
		}
		if c, ok := t.char(offset); ok && isDigit(c) {
			t.pos += offset
			for t.pos < len(t.src) && isDigit(t.src[t.pos]) {
				t.pos++
			}
		}
	}
	text := string(t.src[start:t.pos])
	num, err := strconv.ParseFloat(text, 64)
	if err != nil {
		// unexpected since text only holds digits, a dot, and an exponent
		panic(fmt.Sprintf("unexpected %s", err))
	}
	return token{kind: tokNumber, text: text, num: num}
}

func (t *tokenizer) scanString() (token, error) {
	start := t.pos
	t.pos++

	var b strings.Builder
	for {
		c, ok := t.char(0)
		if !ok {
			return token{}, errParse("unterminated string starting at %d", start)
		}
		t.pos++
		if c == '"' {
			if t.charIs(0, '"') {
				t.pos++
				b.WriteRune('"')
				continue
			}
			return token{kind: tokString, text: b.String()}, nil
		}
		b.WriteRune(c)
	}
}

func (t *tokenizer) scanQuotedSheet() (token, error) {
	start := t.pos
	t.pos++

	var b strings.Builder
	for {
		c, ok := t.char(0)
		if !ok {
			return token{}, errParse("unterminated sheet name starting at %d", start)
		}
		t.pos++
		if c == '\'' {
			if t.charIs(0, '\'') {
				t.pos++
				b.WriteRune('\'')
				continue
			}
			break
		}
		b.WriteRune(c)
	}
	if !t.charIs(0, '!') {
		return token{}, errParse("expecting ! after sheet name '%s'", b.String())
	}
	t.pos++
	return token{kind: tokSheetRef, text: b.String()}, nil
}

func (t *tokenizer) scanError() token {
	start := t.pos
	t.pos++
	for t.pos < len(t.src) {
		c := t.src[t.pos]
		if c < unicode.MaxASCII && (unicode.IsLetter(c) || unicode.IsDigit(c) || c == '!' || c == '/' || c == '?' || c == '_') {
			t.pos++
			continue
		}
		break
	}
	text := string(t.src[start:t.pos])
	if err, ok := LookupCellError(text); ok {
		return token{kind: tokError, text: text, err: err}
	}
	return token{kind: tokIdent, text: text}
}

func (t *tokenizer) scanIdentifier() token {
	start := t.pos
	for t.pos < len(t.src) && isIdentRune(t.src[t.pos]) {
		t.pos++
	}
	text := string(t.src[start:t.pos])

	if t.charIs(0, '!') {
		t.pos++
		return token{kind: tokSheetRef, text: text}
	}

	// a name followed by a parenthesis is always a function call, which
	// disambiguates e.g. TRUE() and LOG10(100)
	call := t.charIs(0, '(')
	if !call {
		switch strings.ToUpper(text) {
		case "TRUE":
			return token{kind: tokBool, text: text, num: 1}
		case "FALSE":
			return token{kind: tokBool, text: text}
		}
		if pCellRef.MatchString(text) {
			return token{kind: tokCellRef, text: text}
		}
	}
	return token{kind: tokIdent, text: text}
}
