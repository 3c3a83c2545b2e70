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
	"strings"
)

type criteriaKind int

const (
	critNothing criteriaKind = iota
	critBlank
	critNumber
	critText
)

// criteria is the condition of the *IF and *IFS functions, e.g. 5, "apple",
// ">=10" or "<>red".
type criteria struct {
	kind criteriaKind
	op   tOp
	num  float64
	text string
}

// criteriaOps are tried longest first.
var criteriaOps = []tOp{opGe, opLe, opNe, opGt, opLt, opEq}

func newCriteria(value Value) *criteria {
	switch v := value.(type) {
	case *Number:
		return &criteria{kind: critNumber, op: opEq, num: v.value}
	case *Bool:
		n, _ := asNumber(v)
		return &criteria{kind: critNumber, op: opEq, num: n}
	case *Empty:
		return &criteria{kind: critBlank}
	case *Text:
		return parseCriteria(v.value)
	default:
		return &criteria{kind: critNothing}
	}
}

func parseCriteria(s string) *criteria {
	s = strings.TrimSpace(s)
	if s == "" {
		return &criteria{kind: critBlank}
	}

	op, rest := opEq, s
	explicit := false
	for _, candidate := range criteriaOps {
		if strings.HasPrefix(s, string(candidate)) {
			op, rest, explicit = candidate, strings.TrimSpace(s[len(candidate):]), true
			break
		}
	}
	if n, ok := parseNumber(rest); ok {
		return &criteria{kind: critNumber, op: op, num: n}
	}
	if !explicit {
		return &criteria{kind: critText, op: opEq, text: s}
	}
	return &criteria{kind: critText, op: op, text: rest}
}

func (c *criteria) matches(value Value) bool {
	switch c.kind {
	case critBlank:
		switch v := value.(type) {
		case *Empty:
			return true
		case *Text:
			return v.value == ""
		}
		return false

	case critNumber:
		// text that looks like a number never matches a numeric criteria
		var n float64
		switch v := value.(type) {
		case *Number:
			n = v.value
		case *Bool:
			n, _ = asNumber(v)
		default:
			return false
		}
		return compareCriteria(c.op, n-c.num)

	case critText:
		text, ok := value.(*Text)
		if !ok {
			return c.op == opNe
		}
		cmp := strings.Compare(strings.ToLower(text.value), strings.ToLower(c.text))
		return compareCriteria(c.op, float64(cmp))

	default:
		return false
	}
}

// compareCriteria applies an operator to the difference between a value and
// the criteria operand.
func compareCriteria(op tOp, diff float64) bool {
	const epsilon = 1e-10
	switch op {
	case opEq:
		return math.Abs(diff) < epsilon
	case opNe:
		return math.Abs(diff) >= epsilon
	case opLt:
		return diff < 0
	case opLe:
		return diff <= 0
	case opGt:
		return diff > 0
	case opGe:
		return diff >= 0
	default:
		return false
	}
}

// matchAll evaluates (range, criteria) pairs against grids shaped like
// values, and returns the positions where every criteria holds. Ranges of a
// different shape are #VALUE!.
func matchAll(values [][]Value, pairs []Value) ([][2]int, Value) {
	if len(pairs) == 0 || len(pairs)%2 != 0 {
		return nil, errValue
	}
	rows, cols := gridDims(values)

	var ranges [][][]Value
	var matchers []*criteria
	for i := 0; i < len(pairs); i += 2 {
		if e := firstError(pairs[i], pairs[i+1]); e != nil {
			return nil, e
		}
		g := grid(pairs[i])
		if r, c := gridDims(g); r != rows || c != cols {
			return nil, errValue
		}
		ranges = append(ranges, g)
		matchers = append(matchers, newCriteria(pairs[i+1]))
	}

	var matched [][2]int
	for row := 0; row < rows; row++ {
	cells:
		for col := 0; col < cols; col++ {
			for k, matcher := range matchers {
				if !matcher.matches(ranges[k][row][col]) {
					continue cells
				}
			}
			matched = append(matched, [2]int{row, col})
		}
	}
	return matched, nil
}
