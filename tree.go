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
	"strings"
)

type tNumber struct {
	value float64
}

type tText struct {
	value string
}

type tBool struct {
	value bool
}

type tError struct {
	err CellError
}

type tCellRef struct {
	// sheet is empty when the reference is to the current sheet.
	sheet string
	ref   CellRef
}

type tRangeRef struct {
	sheet      string
	start, end CellRef
}

type tNameRef struct {
	name string
}

type tOp string

const (
	opAdd       tOp = "+"
	opSub       tOp = "-"
	opMul       tOp = "*"
	opDiv       tOp = "/"
	opPow       tOp = "^"
	opConcat    tOp = "&"
	opEq        tOp = "="
	opNe        tOp = "<>"
	opLt        tOp = "<"
	opLe        tOp = "<="
	opGt        tOp = ">"
	opGe        tOp = ">="
	opRange     tOp = ":"
	opUnion     tOp = ","
	opIntersect tOp = " "

	opNegate  tOp = "neg"
	opPercent tOp = "%"
)

type tBinop struct {
	op          tOp
	left, right Expression
}

type tUnop struct {
	op   tOp
	expr Expression
}

type tCall struct {
	name string
	args []Expression
}

type tArray struct {
	rows [][]Expression
}

// opPrecedence ranks binary operators from loosest to tightest.
var opPrecedence = map[tOp]int{
	opEq:        1,
	opNe:        1,
	opLt:        1,
	opLe:        1,
	opGt:        1,
	opGe:        1,
	opConcat:    2,
	opAdd:       3,
	opSub:       3,
	opMul:       4,
	opDiv:       4,
	opPow:       5,
	opUnion:     6,
	opIntersect: 6,
	opRange:     7,
}

func (e *tNumber) String() string {
	return formatNumber(e.value)
}

func (e *tText) String() string {
	return `"` + strings.Replace(e.value, `"`, `""`, -1) + `"`
}

func (e *tBool) String() string {
	return NewBool(e.value).String()
}

func (e *tError) String() string {
	return e.err.String()
}

func sheetPrefix(sheet string) string {
	if sheet == "" {
		return ""
	}
	for _, c := range sheet {
		if !isIdentRune(c) || c == '.' {
			return "'" + strings.Replace(sheet, "'", "''", -1) + "'!"
		}
	}
	return sheet + "!"
}

func (e *tCellRef) String() string {
	return sheetPrefix(e.sheet) + e.ref.String()
}

func (e *tRangeRef) String() string {
	return sheetPrefix(e.sheet) + e.start.String() + ":" + e.end.String()
}

func (e *tNameRef) String() string {
	return e.name
}

func (e *tBinop) String() string {
	prec := opPrecedence[e.op]
	left, right := e.left.String(), e.right.String()
	if l, ok := e.left.(*tBinop); ok && opPrecedence[l.op] < prec {
		left = "(" + left + ")"
	}
	if r, ok := e.right.(*tBinop); ok && opPrecedence[r.op] <= prec {
		right = "(" + right + ")"
	}
	if e.op == opRange {
		return left + ":" + right
	}
	return left + string(e.op) + right
}

func (e *tUnop) String() string {
	inner := e.expr.String()
	if _, ok := e.expr.(*tBinop); ok {
		inner = "(" + inner + ")"
	}
	if e.op == opPercent {
		return inner + "%"
	}
	return "-" + inner
}

func (e *tCall) String() string {
	args := make([]string, len(e.args))
	for i, arg := range e.args {
		args[i] = arg.String()
	}
	return e.name + "(" + strings.Join(args, ",") + ")"
}

func (e *tArray) String() string {
	rows := make([]string, len(e.rows))
	for i, row := range e.rows {
		cols := make([]string, len(row))
		for j, element := range row {
			cols[j] = element.String()
		}
		rows[i] = strings.Join(cols, ",")
	}
	return "{" + strings.Join(rows, ";") + "}"
}

// Format renders a parsed formula back to text, including the leading `=`.
func Format(expr Expression) string {
	return "=" + expr.String()
}
