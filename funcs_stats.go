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
	"sort"
)

var statFunctions = []*function{
	{name: "COUNTA", min: 1, max: unlimited, impl: fnCountA},
	{name: "COUNTBLANK", min: 1, max: unlimited, impl: fnCountBlank},
	{name: "COUNTIF", min: 2, max: 2, impl: fnCountIf},
	{name: "COUNTIFS", min: 2, max: unlimited, impl: fnCountIfs},
	{name: "AVERAGEIF", min: 2, max: 3, impl: fnAverageIf},
	{name: "AVERAGEIFS", min: 3, max: unlimited, impl: fnAverageIfs},
	{name: "MEDIAN", min: 1, max: unlimited, impl: fnMedian},
	{name: "LARGE", min: 2, max: 2, impl: fnLarge},
	{name: "SMALL", min: 2, max: 2, impl: fnSmall},
	{name: "PRODUCT", min: 1, max: unlimited, impl: fnProduct},
	{name: "VAR", min: 1, max: unlimited, impl: fnVar},
	{name: "STDEV", min: 1, max: unlimited, impl: fnStdev},
}

func isBlank(value Value) bool {
	switch v := value.(type) {
	case *Empty:
		return true
	case *Text:
		return v.value == ""
	}
	return false
}

func fnCountA(ctx *Context, args []Value) (Value, error) {
	var count int
	for _, arg := range flatten(args) {
		if !isBlank(arg) {
			count++
		}
	}
	return &Number{float64(count)}, nil
}

func fnCountBlank(ctx *Context, args []Value) (Value, error) {
	var count int
	for _, arg := range flatten(args) {
		if isBlank(arg) {
			count++
		}
	}
	return &Number{float64(count)}, nil
}

func fnCountIf(ctx *Context, args []Value) (Value, error) {
	if e := firstError(args[0], args[1]); e != nil {
		return e, nil
	}
	matcher := newCriteria(args[1])
	var count int
	for _, cell := range flatten([]Value{args[0]}) {
		if matcher.matches(cell) {
			count++
		}
	}
	return &Number{float64(count)}, nil
}

func fnCountIfs(ctx *Context, args []Value) (Value, error) {
	if len(args)%2 != 0 {
		return errValue, nil
	}
	if e := firstError(args[0]); e != nil {
		return e, nil
	}
	matched, early := matchAll(grid(args[0]), args)
	if early != nil {
		return early, nil
	}
	return &Number{float64(len(matched))}, nil
}

func fnAverageIf(ctx *Context, args []Value) (Value, error) {
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
	var count int
	for i, row := range rng {
		for j, cell := range row {
			if !matcher.matches(cell) {
				continue
			}
			switch v := cellAt(values, i, j).(type) {
			case *Number:
				sum += v.value
				count++
			case *ErrorValue:
				return v, nil
			}
		}
	}
	if count == 0 {
		return errDiv0, nil
	}
	return &Number{sum / float64(count)}, nil
}

func fnAverageIfs(ctx *Context, args []Value) (Value, error) {
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
	var count int
	for _, pos := range matched {
		switch v := values[pos[0]][pos[1]].(type) {
		case *Number:
			sum += v.value
			count++
		case *ErrorValue:
			return v, nil
		}
	}
	if count == 0 {
		return errDiv0, nil
	}
	return &Number{sum / float64(count)}, nil
}

// sortedNumbers collects the numbers of the arguments in ascending order.
func sortedNumbers(args []Value) ([]float64, *ErrorValue) {
	var numbers []float64
	if e := eachNumber(args, func(n float64) { numbers = append(numbers, n) }); e != nil {
		return nil, e
	}
	sort.Float64s(numbers)
	return numbers, nil
}

func fnMedian(ctx *Context, args []Value) (Value, error) {
	numbers, e := sortedNumbers(args)
	if e != nil {
		return e, nil
	}
	n := len(numbers)
	switch {
	case n == 0:
		return errNum, nil
	case n%2 == 1:
		return &Number{numbers[n/2]}, nil
	default:
		return &Number{(numbers[n/2-1] + numbers[n/2]) / 2}, nil
	}
}

// kth reads the numbers and rank k of LARGE and SMALL. The rank is rounded
// with round, and must lie within the numbers.
func kth(args []Value, round func(float64) float64) ([]float64, int, *ErrorValue) {
	numbers, e := sortedNumbers(args[:1])
	if e != nil {
		return nil, 0, e
	}
	if _, ok := args[1].(*Number); !ok {
		if e := firstError(args[1]); e != nil {
			return nil, 0, e
		}
		return nil, 0, errValue
	}
	k, _ := numberArg(args[1])
	k = round(k)
	if k < 1 || int(k) > len(numbers) {
		return nil, 0, errNum
	}
	return numbers, int(k), nil
}

func fnLarge(ctx *Context, args []Value) (Value, error) {
	numbers, k, e := kth(args, math.Ceil)
	if e != nil {
		return e, nil
	}
	return &Number{numbers[len(numbers)-k]}, nil
}

func fnSmall(ctx *Context, args []Value) (Value, error) {
	numbers, k, e := kth(args, math.Floor)
	if e != nil {
		return e, nil
	}
	return &Number{numbers[k-1]}, nil
}

func fnProduct(ctx *Context, args []Value) (Value, error) {
	product, found := 1.0, false
	if e := eachNumber(args, func(n float64) { product *= n; found = true }); e != nil {
		return e, nil
	}
	if !found {
		return &Number{0}, nil
	}
	return &Number{product}, nil
}

// variance is the sample variance of the numbers of the arguments.
func variance(args []Value) (float64, *ErrorValue) {
	var numbers []float64
	if e := eachNumber(args, func(n float64) { numbers = append(numbers, n) }); e != nil {
		return 0, e
	}
	if len(numbers) < 2 {
		return 0, errDiv0
	}
	var mean float64
	for _, n := range numbers {
		mean += n
	}
	mean /= float64(len(numbers))
	var squares float64
	for _, n := range numbers {
		squares += (n - mean) * (n - mean)
	}
	return squares / float64(len(numbers)-1), nil
}

func fnVar(ctx *Context, args []Value) (Value, error) {
	v, e := variance(args)
	if e != nil {
		return e, nil
	}
	return &Number{v}, nil
}

func fnStdev(ctx *Context, args []Value) (Value, error) {
	v, e := variance(args)
	if e != nil {
		return e, nil
	}
	return &Number{math.Sqrt(v)}, nil
}
