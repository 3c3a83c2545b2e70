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
	"math"
)

// Expression is a parsed formula. Expressions are immutable, and evaluating
// the same expression twice against an unchanged context yields the same
// value.
type Expression interface {
	compute(ctx *Context) (Value, error)

	// String renders the expression as formula text, without the leading `=`.
	String() string
}

// Assert that all expressions implement the Expression interface
var _ = []Expression{
	&tNumber{},
	&tText{},
	&tBool{},
	&tError{},
	&tCellRef{},
	&tRangeRef{},
	&tNameRef{},
	&tBinop{},
	&tUnop{},
	&tCall{},
	&tArray{},
}

// maxDepth bounds the nesting of expressions being evaluated.
const maxDepth = 256

// Evaluate evaluates an expression against a context. Cell errors are
// returned as values, engine failures as errors.
func Evaluate(expr Expression, ctx *Context) (Value, error) {
	return ctx.eval(expr)
}

// EvaluateFormula parses and evaluates a formula without any workbook.
func EvaluateFormula(formula string) (Value, error) {
	expr, err := Parse(formula)
	if err != nil {
		return nil, err
	}
	return Evaluate(expr, SimpleContext())
}

func (ctx *Context) eval(expr Expression) (Value, error) {
	if ctx.depth >= maxDepth {
		return nil, errEvaluation("formula nesting exceeds %d levels", maxDepth)
	}
	ctx.depth++
	defer func() { ctx.depth-- }()
	return expr.compute(ctx)
}

func (e *tNumber) compute(ctx *Context) (Value, error) {
	return &Number{e.value}, nil
}

func (e *tText) compute(ctx *Context) (Value, error) {
	return &Text{e.value}, nil
}

func (e *tBool) compute(ctx *Context) (Value, error) {
	return NewBool(e.value), nil
}

func (e *tError) compute(ctx *Context) (Value, error) {
	return &ErrorValue{e.err}, nil
}

func (e *tCellRef) compute(ctx *Context) (Value, error) {
	return ctx.cellValue(e.sheet, e.ref.Row, e.ref.Col), nil
}

func (e *tRangeRef) compute(ctx *Context) (Value, error) {
	return ctx.rangeValues(e.sheet, e.start, e.end), nil
}

func (e *tNameRef) compute(ctx *Context) (Value, error) {
	return ctx.resolveName(e.name)
}

func (e *tBinop) compute(ctx *Context) (Value, error) {
	left, err := ctx.eval(e.left)
	if err != nil {
		return nil, err
	}
	right, err := ctx.eval(e.right)
	if err != nil {
		return nil, err
	}

	// the left error wins
	if lerr, ok := left.(*ErrorValue); ok {
		return lerr, nil
	}
	if rerr, ok := right.(*ErrorValue); ok {
		return rerr, nil
	}

	switch e.op {
	case opAdd, opSub, opMul, opDiv, opPow:
		return arithmetic(e.op, left, right)

	case opEq, opNe, opLt, opLe, opGt, opGe:
		return comparison(e.op, compareValues(left, right)), nil

	case opConcat:
		_, lok := left.(*Array)
		_, rok := right.(*Array)
		if lok || rok {
			return &ErrorValue{ErrValue}, nil
		}
		return &Text{left.String() + right.String()}, nil

	case opRange, opUnion, opIntersect:
		return nil, errEvaluation("operator %s is not supported on %s", e.op, e)

	default:
		panic(fmt.Sprintf("unexpected operator %s", e.op))
	}
}

func arithmetic(op tOp, left, right Value) (Value, error) {
	l, ok := asNumber(left)
	if !ok {
		return nil, errEvaluation("cannot convert %s to a number", describe(left))
	}
	r, ok := asNumber(right)
	if !ok {
		return nil, errEvaluation("cannot convert %s to a number", describe(right))
	}

	switch op {
	case opAdd:
		return &Number{l + r}, nil
	case opSub:
		return &Number{l - r}, nil
	case opMul:
		return &Number{l * r}, nil
	case opDiv:
		if r == 0 {
			return &ErrorValue{ErrDiv0}, nil
		}
		return &Number{l / r}, nil
	case opPow:
		result := math.Pow(l, r)
		if math.IsNaN(result) || math.IsInf(result, 0) {
			return &ErrorValue{ErrNum}, nil
		}
		return &Number{result}, nil
	default:
		panic(fmt.Sprintf("unexpected operator %s", op))
	}
}

func comparison(op tOp, cmp int) Value {
	switch op {
	case opEq:
		return NewBool(cmp == 0)
	case opNe:
		return NewBool(cmp != 0)
	case opLt:
		return NewBool(cmp < 0)
	case opLe:
		return NewBool(cmp <= 0)
	case opGt:
		return NewBool(cmp > 0)
	case opGe:
		return NewBool(cmp >= 0)
	default:
		panic(fmt.Sprintf("unexpected operator %s", op))
	}
}

func (e *tUnop) compute(ctx *Context) (Value, error) {
	operand, err := ctx.eval(e.expr)
	if err != nil {
		return nil, err
	}
	if operr, ok := operand.(*ErrorValue); ok {
		return operr, nil
	}

	n, ok := asNumber(operand)
	if !ok {
		return nil, errEvaluation("cannot apply %s to %s", e.op, describe(operand))
	}
	switch e.op {
	case opNegate:
		return &Number{-n}, nil
	case opPercent:
		return &Number{n / 100}, nil
	default:
		panic(fmt.Sprintf("unexpected operator %s", e.op))
	}
}

// compute evaluates every argument before dispatching, even those of IF-like
// functions whose branch is not taken.
func (e *tCall) compute(ctx *Context) (Value, error) {
	fn, ok := lookupFunction(e.name)
	if !ok {
		return nil, errUnknownFunction(e.name)
	}
	if err := fn.checkArgCount(len(e.args)); err != nil {
		return nil, err
	}

	args := make([]Value, len(e.args))
	for i, arg := range e.args {
		value, err := ctx.eval(arg)
		if err != nil {
			return nil, err
		}
		args[i] = value
	}

	return fn.call(ctx, e.args, args)
}

func (e *tArray) compute(ctx *Context) (Value, error) {
	rows := make([][]Value, len(e.rows))
	for i, row := range e.rows {
		rows[i] = make([]Value, len(row))
		for j, element := range row {
			value, err := ctx.eval(element)
			if err != nil {
				return nil, err
			}
			rows[i][j] = value
		}
	}
	return &Array{rows}, nil
}

func describe(value Value) string {
	switch v := value.(type) {
	case *Text:
		return `"` + v.value + `"`
	case *Array:
		return "array"
	case *Empty:
		return "blank"
	default:
		return value.String()
	}
}
