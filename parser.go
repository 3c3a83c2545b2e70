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
	"strings"
)

type parser struct {
	t     *tokenizer
	depth int
}

// maxParseDepth bounds the recursion of the parser. Nesting up to maxDepth
// always parses; the evaluator bounds it.
const maxParseDepth = 4 * maxDepth

func (p *parser) descend() error {
	p.depth++
	if p.depth > maxParseDepth {
		return errParse("formula nesting exceeds %d levels", maxParseDepth)
	}
	return nil
}

func (p *parser) ascend() {
	p.depth--
}

func newParser(src string) *parser {
	return &parser{
		t: newTokenizer(src),
	}
}

// Parse parses formula text, which must start with `=`, into an expression.
// The whole text must be consumed.
func Parse(formula string) (Expression, error) {
	text := strings.TrimSpace(formula)
	if !strings.HasPrefix(text, "=") {
		return nil, errParse("formula must start with =")
	}

	p := newParser(text[1:])
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	tok, err := p.t.peek()
	if err != nil {
		return nil, err
	}
	if tok.kind != tokEOF {
		return nil, errParse("unexpected %s after expression", tok)
	}
	return expr, nil
}

// MustParse parses a formula, and panics on failure.
func MustParse(formula string) Expression {
	expr, err := Parse(formula)
	if err != nil {
		panic(err)
	}
	return expr
}

// parseExpression
//
//  := comparison
func (p *parser) parseExpression() (Expression, error) {
	return p.parseComparison()
}

var comparisonOps = map[string]tOp{
	"=":  opEq,
	"<>": opNe,
	"<":  opLt,
	"<=": opLe,
	">":  opGt,
	">=": opGe,
}

// parseComparison
//
//  := concat (( = <> < <= > >= ) concat)*
func (p *parser) parseComparison() (Expression, error) {
	return p.parseLeftAssoc(p.parseConcat, comparisonOps)
}

// parseConcat
//
//  := additive (& additive)*
func (p *parser) parseConcat() (Expression, error) {
	return p.parseLeftAssoc(p.parseAdditive, map[string]tOp{
		"&": opConcat,
	})
}

// parseAdditive
//
//  := multiplicative (( + - ) multiplicative)*
func (p *parser) parseAdditive() (Expression, error) {
	return p.parseLeftAssoc(p.parseMultiplicative, map[string]tOp{
		"+": opAdd,
		"-": opSub,
	})
}

// parseMultiplicative
//
//  := exponent (( * / ) exponent)*
func (p *parser) parseMultiplicative() (Expression, error) {
	return p.parseLeftAssoc(p.parseExponent, map[string]tOp{
		"*": opMul,
		"/": opDiv,
	})
}

func (p *parser) parseLeftAssoc(operand func() (Expression, error), ops map[string]tOp) (Expression, error) {
	left, err := operand()
	if err != nil {
		return nil, err
	}
	for {
		op, ok, err := p.peekOp(ops)
		if err != nil {
			return nil, err
		} else if !ok {
			return left, nil
		}
		p.t.next()

		right, err := operand()
		if err != nil {
			return nil, err
		}
		left = &tBinop{op, left, right}
	}
}

func (p *parser) peekOp(ops map[string]tOp) (tOp, bool, error) {
	tok, err := p.t.peek()
	if err != nil {
		return "", false, err
	}
	if tok.kind != tokOp {
		return "", false, nil
	}
	op, ok := ops[tok.text]
	return op, ok, nil
}

// parseExponent
//
//  := unary (^ exponent)?
//
// Exponentiation is right associative, so 2^3^2 is 2^(3^2).
func (p *parser) parseExponent() (Expression, error) {
	if err := p.descend(); err != nil {
		return nil, err
	}
	defer p.ascend()

	base, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if _, ok, err := p.peekOp(map[string]tOp{"^": opPow}); err != nil {
		return nil, err
	} else if !ok {
		return base, nil
	}
	p.t.next()

	exponent, err := p.parseExponent()
	if err != nil {
		return nil, err
	}
	return &tBinop{opPow, base, exponent}, nil
}

// parseUnary
//
//  := - unary
//   | + unary
//   | postfix
func (p *parser) parseUnary() (Expression, error) {
	if err := p.descend(); err != nil {
		return nil, err
	}
	defer p.ascend()

	tok, err := p.t.peek()
	if err != nil {
		return nil, err
	}
	if tok.kind == tokOp && (tok.text == "-" || tok.text == "+") {
		p.t.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if tok.text == "+" {
			return operand, nil
		}
		return &tUnop{opNegate, operand}, nil
	}
	return p.parsePostfix()
}

// parsePostfix
//
//  := range %*
func (p *parser) parsePostfix() (Expression, error) {
	expr, err := p.parseRange()
	if err != nil {
		return nil, err
	}
	for {
		tok, err := p.t.peek()
		if err != nil {
			return nil, err
		}
		if tok.kind != tokOp || tok.text != "%" {
			return expr, nil
		}
		p.t.next()
		expr = &tUnop{opPercent, expr}
	}
}

// parseRange
//
//  := primary (: primary)?
//
// Two cell references collapse into a range reference. An unqualified end
// reference belongs to the sheet of the start reference.
func (p *parser) parseRange() (Expression, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	tok, err := p.t.peek()
	if err != nil {
		return nil, err
	}
	if tok.kind != tokColon {
		return left, nil
	}
	p.t.next()

	right, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	start, lok := left.(*tCellRef)
	end, rok := right.(*tCellRef)
	if lok && rok {
		sheet := start.sheet
		if end.sheet != "" && !strings.EqualFold(end.sheet, sheet) {
			return nil, errParse("range %s:%s spans multiple sheets", start, end)
		}
		return &tRangeRef{sheet, start.ref, end.ref}, nil
	}
	return &tBinop{opRange, left, right}, nil
}

// parsePrimary
//
//  := number | string | bool | error
//   | ( expression )
//   | { array }
//   | sheet! cellref
//   | cellref
//   | name ( args )
//   | name
func (p *parser) parsePrimary() (Expression, error) {
	tok, err := p.t.next()
	if err != nil {
		return nil, err
	}

	switch tok.kind {
	case tokNumber:
		return &tNumber{tok.num}, nil

	case tokString:
		return &tText{tok.text}, nil

	case tokBool:
		return &tBool{tok.num != 0}, nil

	case tokError:
		return &tError{tok.err}, nil

	case tokLparen:
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.nextAndCheck(tokRparen); err != nil {
			return nil, err
		}
		return expr, nil

	case tokLbrace:
		return p.parseArray()

	case tokSheetRef:
		ref, err := p.nextAndCheck(tokCellRef)
		if err != nil {
			return nil, fmt.Errorf("expecting cell reference after %s!: %w", tok.text, err)
		}
		return newCellRef(tok.text, ref.text)

	case tokCellRef:
		return newCellRef("", tok.text)

	case tokIdent:
		next, err := p.t.peek()
		if err != nil {
			return nil, err
		}
		if next.kind == tokLparen {
			return p.parseCall(tok.text)
		}
		return &tNameRef{tok.text}, nil

	default:
		return nil, errParse("unexpected %s", tok)
	}
}

func newCellRef(sheet, text string) (Expression, error) {
	ref, err := ParseCellRef(text)
	if err != nil {
		return nil, errParse("%s", err)
	}
	return &tCellRef{sheet, ref}, nil
}

// parseCall
//
//  := name ( (expression (, expression)*)? )
func (p *parser) parseCall(name string) (Expression, error) {
	if _, err := p.nextAndCheck(tokLparen); err != nil {
		return nil, err
	}

	call := &tCall{name: strings.ToUpper(name)}

	tok, err := p.t.peek()
	if err != nil {
		return nil, err
	}
	if tok.kind == tokRparen {
		p.t.next()
		return call, nil
	}

	for {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		call.args = append(call.args, arg)

		tok, err := p.t.next()
		if err != nil {
			return nil, err
		}
		switch tok.kind {
		case tokComma:
			continue
		case tokRparen:
			return call, nil
		default:
			return nil, errParse("expecting , or ) in call to %s, found %s", call.name, tok)
		}
	}
}

// parseArray
//
//  := { row (; row)* }
//  row := expression (, expression)*
func (p *parser) parseArray() (Expression, error) {
	arr := &tArray{}

	tok, err := p.t.peek()
	if err != nil {
		return nil, err
	}
	if tok.kind == tokRbrace {
		p.t.next()
		return arr, nil
	}

	var row []Expression
	for {
		element, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		row = append(row, element)

		tok, err := p.t.next()
		if err != nil {
			return nil, err
		}
		switch tok.kind {
		case tokComma:
		case tokSemicolon:
			arr.rows = append(arr.rows, row)
			row = nil
		case tokRbrace:
			arr.rows = append(arr.rows, row)
			for _, r := range arr.rows {
				if len(r) != len(arr.rows[0]) {
					return nil, errParse("array rows must all have the same number of columns")
				}
			}
			return arr, nil
		default:
			return nil, errParse("expecting , ; or } in array, found %s", tok)
		}
	}
}

var tokenNames = map[tokenKind]string{
	tokCellRef: "cell reference",
	tokLparen:  "(",
	tokRparen:  ")",
}

func (p *parser) nextAndCheck(expected tokenKind) (token, error) {
	tok, err := p.t.next()
	if err != nil {
		return token{}, err
	}
	if tok.kind != expected {
		return token{}, errParse("expected %s, found %s", tokenNames[expected], tok)
	}
	return tok, nil
}
