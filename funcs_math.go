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
	"math"
)

var mathFunctions = []*function{
	{name: "SUM", min: 1, max: unlimited, impl: fnSum},
	{name: "AVERAGE", min: 1, max: unlimited, impl: fnAverage},
	{name: "MIN", min: 1, max: unlimited, impl: fnMin},
	{name: "MAX", min: 1, max: unlimited, impl: fnMax},
	{name: "COUNT", min: 1, max: unlimited, impl: fnCount},
	{name: "RAND", min: 0, max: 0, impl: fnRand, volatile: true},
	{name: "RANDBETWEEN", min: 2, max: 2, impl: fnRandBetween, volatile: true},
	{name: "ABS", min: 1, max: 1, impl: unary(func(n float64) Value { return &Number{math.Abs(n)} })},
	{name: "ROUND", min: 1, max: 2, impl: fnRound},
	{name: "ROUNDUP", min: 2, max: 2, impl: fnRoundUp},
	{name: "ROUNDDOWN", min: 2, max: 2, impl: fnRoundDown},
	{name: "MOD", min: 2, max: 2, impl: fnMod},
	{name: "INT", min: 1, max: 1, impl: unary(func(n float64) Value { return &Number{math.Floor(n)} })},
	{name: "TRUNC", min: 1, max: 2, impl: fnRoundDown},
	{name: "SIGN", min: 1, max: 1, impl: unary(fnSign)},
	{name: "SQRT", min: 1, max: 1, impl: unary(fnSqrt)},
	{name: "POWER", min: 2, max: 2, impl: fnPower},
	{name: "LOG", min: 1, max: 2, impl: fnLog},
	{name: "LOG10", min: 1, max: 1, impl: unary(positive(math.Log10))},
	{name: "LN", min: 1, max: 1, impl: unary(positive(math.Log))},
	{name: "EXP", min: 1, max: 1, impl: unary(func(n float64) Value { return numResult(math.Exp(n)) })},
	{name: "PI", min: 0, max: 0, impl: constant(&Number{math.Pi})},
	{name: "SIN", min: 1, max: 1, impl: unary(func(n float64) Value { return &Number{math.Sin(n)} })},
	{name: "COS", min: 1, max: 1, impl: unary(func(n float64) Value { return &Number{math.Cos(n)} })},
	{name: "TAN", min: 1, max: 1, impl: unary(func(n float64) Value { return numResult(math.Tan(n)) })},
	{name: "ASIN", min: 1, max: 1, impl: unary(unitDomain(math.Asin))},
	{name: "ACOS", min: 1, max: 1, impl: unary(unitDomain(math.Acos))},
	{name: "ATAN", min: 1, max: 1, impl: unary(func(n float64) Value { return &Number{math.Atan(n)} })},
	{name: "ATAN2", min: 2, max: 2, impl: fnAtan2},
	{name: "DEGREES", min: 1, max: 1, impl: unary(func(n float64) Value { return &Number{n * 180 / math.Pi} })},
	{name: "RADIANS", min: 1, max: 1, impl: unary(func(n float64) Value { return &Number{n * math.Pi / 180} })},
	{name: "CEILING.MATH", min: 1, max: 3, impl: fnCeilingMath},
	{name: "FLOOR.MATH", min: 1, max: 3, impl: fnFloorMath},
	{name: "ODD", min: 1, max: 1, impl: unary(fnOdd)},
	{name: "EVEN", min: 1, max: 1, impl: unary(fnEven)},
	{name: "SUMIF", min: 2, max: 3, impl: fnSumIf},
	{name: "SUMIFS", min: 3, max: unlimited, impl: fnSumIfs},
	{name: "SUMPRODUCT", min: 1, max: unlimited, impl: fnSumProduct},
}

func fnSum(ctx *Context, args []Value) (Value, error) {
	var sum float64
	if e := eachNumber(args, func(n float64) { sum += n }); e != nil {
		return e, nil
	}
	return &Number{sum}, nil
}

func fnAverage(ctx *Context, args []Value) (Value, error) {
	var sum float64
	var count int
	if e := eachNumber(args, func(n float64) { sum += n; count++ }); e != nil {
		return e, nil
	}
	if count == 0 {
		return errDiv0, nil
	}
	return &Number{sum / float64(count)}, nil
}

// fnMin and fnMax are 0 when no number is found.
func fnMin(ctx *Context, args []Value) (Value, error) {
	return extremum(args, math.Min)
}

func fnMax(ctx *Context, args []Value) (Value, error) {
	return extremum(args, math.Max)
}

func extremum(args []Value, pick func(a, b float64) float64) (Value, error) {
	var result float64
	found := false
	e := eachNumber(args, func(n float64) {
		if !found {
			result, found = n, true
		} else {
			result = pick(result, n)
		}
	})
	if e != nil {
		return e, nil
	}
	return &Number{result}, nil
}

func fnCount(ctx *Context, args []Value) (Value, error) {
	var count int
	for _, arg := range flatten(args) {
		if _, ok := arg.(*Number); ok {
			count++
		}
	}
	return &Number{float64(count)}, nil
}

func fnRand(ctx *Context, args []Value) (Value, error) {
	return &Number{ctx.rand.Float64()}, nil
}

func fnRandBetween(ctx *Context, args []Value) (Value, error) {
	bottom, e := numberArg(args[0])
	if e != nil {
		return e, nil
	}
	top, e := numberArg(args[1])
	if e != nil {
		return e, nil
	}
	low, high := math.Ceil(bottom), math.Floor(top)
	if low > high {
		return errNum, nil
	}
	return &Number{low + math.Floor(ctx.rand.Float64()*(high-low+1))}, nil
}

// roundHalfAway rounds to digits decimal places, halves going away from
// zero. Negative digits round to the left of the decimal point.
func roundHalfAway(n float64, digits int) float64 {
	return scaled(n, digits, func(x float64) float64 {
		if x >= 0 {
			return math.Floor(x + 0.5)
		}
		return math.Ceil(x - 0.5)
	})
}

// scaled applies rounding at a number of decimal digits. Scaling divides by
// a whole power of ten for negative digits, which keeps e.g. 1250 at -2
// exact.
func scaled(n float64, digits int, round func(float64) float64) float64 {
	if digits >= 0 {
		m := math.Pow(10, float64(digits))
		return round(n*m) / m
	}
	m := math.Pow(10, float64(-digits))
	return round(n/m) * m
}

func roundingArgs(args []Value) (float64, int, *ErrorValue) {
	n, e := numberArg(args[0])
	if e != nil {
		return 0, 0, e
	}
	digits, e := optIntArg(args, 1, 0)
	if e != nil {
		return 0, 0, e
	}
	return n, digits, nil
}

func fnRound(ctx *Context, args []Value) (Value, error) {
	n, digits, e := roundingArgs(args)
	if e != nil {
		return e, nil
	}
	return &Number{roundHalfAway(n, digits)}, nil
}

func fnRoundUp(ctx *Context, args []Value) (Value, error) {
	n, digits, e := roundingArgs(args)
	if e != nil {
		return e, nil
	}
	return &Number{scaled(n, digits, func(x float64) float64 {
		if x >= 0 {
			return math.Ceil(x)
		}
		return math.Floor(x)
	})}, nil
}

// fnRoundDown also implements TRUNC.
func fnRoundDown(ctx *Context, args []Value) (Value, error) {
	n, digits, e := roundingArgs(args)
	if e != nil {
		return e, nil
	}
	return &Number{scaled(n, digits, math.Trunc)}, nil
}

// fnMod follows the sign of the divisor.
func fnMod(ctx *Context, args []Value) (Value, error) {
	n, e := numberArg(args[0])
	if e != nil {
		return e, nil
	}
	d, e := numberArg(args[1])
	if e != nil {
		return e, nil
	}
	if d == 0 {
		return errDiv0, nil
	}
	result := n - d*math.Floor(n/d)
	if d > 0 && (result < 0 || result >= d) || d < 0 && (result > 0 || result <= d) {
		return errValue, nil
	}
	return &Number{result}, nil
}

func fnSign(n float64) Value {
	switch {
	case n > 0:
		return &Number{1}
	case n < 0:
		return &Number{-1}
	default:
		return &Number{0}
	}
}

func fnSqrt(n float64) Value {
	if n < 0 {
		return errNum
	}
	return &Number{math.Sqrt(n)}
}

func fnPower(ctx *Context, args []Value) (Value, error) {
	base, e := numberArg(args[0])
	if e != nil {
		return e, nil
	}
	exponent, e := numberArg(args[1])
	if e != nil {
		return e, nil
	}
	return numResult(math.Pow(base, exponent)), nil
}

func fnLog(ctx *Context, args []Value) (Value, error) {
	n, e := numberArg(args[0])
	if e != nil {
		return e, nil
	}
	base, e := optNumberArg(args, 1, 10)
	if e != nil {
		return e, nil
	}
	if n <= 0 || base <= 0 || base == 1 {
		return errNum, nil
	}
	return &Number{math.Log(n) / math.Log(base)}, nil
}

func positive(fn func(float64) float64) func(float64) Value {
	return func(n float64) Value {
		if n <= 0 {
			return errNum
		}
		return &Number{fn(n)}
	}
}

func unitDomain(fn func(float64) float64) func(float64) Value {
	return func(n float64) Value {
		if n < -1 || n > 1 {
			return errNum
		}
		return &Number{fn(n)}
	}
}

// fnAtan2 takes x first, unlike math.Atan2.
func fnAtan2(ctx *Context, args []Value) (Value, error) {
	x, e := numberArg(args[0])
	if e != nil {
		return e, nil
	}
	y, e := numberArg(args[1])
	if e != nil {
		return e, nil
	}
	if x == 0 && y == 0 {
		return errDiv0, nil
	}
	return &Number{math.Atan2(y, x)}, nil
}

// multipleArgs reads the number and significance of CEILING.MATH and
// FLOOR.MATH, and checks their mode for errors. A zero significance
// short-circuits the result to 0.
func multipleArgs(args []Value) (float64, float64, Value) {
	n, e := numberArg(args[0])
	if e != nil {
		return 0, 0, e
	}
	significance, e := optNumberArg(args, 1, 1)
	if e != nil {
		return 0, 0, e
	}
	if significance == 0 {
		return 0, 0, &Number{0}
	}
	if len(args) > 2 {
		if v, ok := args[2].(*ErrorValue); ok {
			return 0, 0, v
		}
	}
	return n, math.Abs(significance), nil
}

// fnCeilingMath rounds up to a multiple of significance. Mode is validated
// but leaves the result alone: negative numbers always round toward zero.
func fnCeilingMath(ctx *Context, args []Value) (Value, error) {
	n, significance, early := multipleArgs(args)
	if early != nil {
		return early, nil
	}
	return &Number{math.Ceil(n/significance) * significance}, nil
}

// fnFloorMath rounds down to a multiple of significance. As with
// CEILING.MATH, mode does not change the result: negative numbers always
// round away from zero.
func fnFloorMath(ctx *Context, args []Value) (Value, error) {
	n, significance, early := multipleArgs(args)
	if early != nil {
		return early, nil
	}
	return &Number{math.Floor(n/significance) * significance}, nil
}

func fnOdd(n float64) Value {
	if n == 0 {
		return &Number{1}
	}
	c := math.Ceil(math.Abs(n))
	if math.Mod(c, 2) == 0 {
		c++
	}
	return &Number{math.Copysign(c, n)}
}

func fnEven(n float64) Value {
	if n == 0 {
		return &Number{0}
	}
	c := math.Ceil(math.Abs(n))
	if math.Mod(c, 2) == 1 {
		c++
	}
	return &Number{math.Copysign(c, n)}
}

func fnSumIf(ctx *Context, args []Value) (Value, error) {
	if e := firstError(args[0], args[1]); e != nil {
		return e, nil
	}
	rng := grid(args[0])
	matcher := newCriteria(args[1])
	values := rng
	if len(args) > 2 {
		if e := firstError(args[2]); e != nil {
			return e, nil
		}
		values = grid(args[2])
	}

	var sum float64
	for i, row := range rng {
		for j, cell := range row {
			if !matcher.matches(cell) {
				continue
			}
			switch v := cellAt(values, i, j).(type) {
			case *Number:
				sum += v.value
			case *ErrorValue:
				return v, nil
			}
		}
	}
	return &Number{sum}, nil
}

// cellAt reads a grid, blank when out of bounds.
func cellAt(g [][]Value, row, col int) Value {
	if row < len(g) && col < len(g[row]) {
		return g[row][col]
	}
	return vEmpty
}

func fnSumIfs(ctx *Context, args []Value) (Value, error) {
	if len(args)%2 != 1 {
		return errValue, nil
	}
	if e := firstError(args[0]); e != nil {
		return e, nil
	}
	values := grid(args[0])
	matched, early := matchAll(values, args[1:])
	if early != nil {
		return early, nil
	}

	var sum float64
	for _, pos := range matched {
		switch v := values[pos[0]][pos[1]].(type) {
		case *Number:
			sum += v.value
		case *ErrorValue:
			return v, nil
		}
	}
	return &Number{sum}, nil
}

// fnSumProduct multiplies same-sized arrays element-wise. Booleans count as
// 0 or 1, other non-numbers as 0.
func fnSumProduct(ctx *Context, args []Value) (Value, error) {
	var products []float64
	var rows, cols int
	for i, arg := range args {
		switch v := arg.(type) {
		case *ErrorValue:
			return v, nil
		case *Text:
			return errValue, nil
		}
		g := grid(arg)
		r, c := gridDims(g)
		if i == 0 {
			if r == 0 || c == 0 {
				return errValue, nil
			}
			rows, cols = r, c
			products = make([]float64, r*c)
			for k := range products {
				products[k] = 1
			}
		} else if r != rows || c != cols {
			return errValue, nil
		}
		for k, cell := range flatten([]Value{NewArray(g)}) {
			switch v := cell.(type) {
			case *Number:
				products[k] *= v.value
			case *Bool:
				if !v.value {
					products[k] = 0
				}
			case *ErrorValue:
				products[k] = math.NaN()
			default:
				products[k] = 0
			}
		}
	}

	var sum float64
	for _, p := range products {
		if !math.IsNaN(p) {
			sum += p
		}
	}
	return &Number{sum}, nil
}
