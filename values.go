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
	"strconv"
	"strings"
)

// Value represents a value produced while evaluating a formula.
type Value interface {
	// String returns the display text of the value, i.e. what the value
	// becomes when concatenated.
	String() string

	// Equal returns a structural comparison of this value against that value.
	Equal(that Value) bool
}

var _ []Value = []Value{
	// Assert that all formula values are Value.
	&Number{},
	&Text{},
	&Bool{},
	&ErrorValue{},
	&Array{},
	&Empty{},
}

var (
	vEmpty = &Empty{}
	vTrue  = &Bool{true}
	vFalse = &Bool{false}
)

// Number represents a double precision number.
type Number struct {
	value float64
}

// Text represents a string.
type Text struct {
	value string
}

// Bool represents a boolean.
type Bool struct {
	value bool
}

// ErrorValue represents a cell error flowing through evaluation.
type ErrorValue struct {
	err CellError
}

// Array represents a rectangular, row-major, two dimensional array of values.
type Array struct {
	rows [][]Value
}

// Empty represents the absence of a value, e.g. a blank cell.
type Empty struct{}

func NewNumber(value float64) *Number {
	return &Number{value}
}

func NewText(value string) *Text {
	return &Text{value}
}

func NewBool(value bool) *Bool {
	if value {
		return vTrue
	}
	return vFalse
}

func NewErrorValue(err CellError) *ErrorValue {
	return &ErrorValue{err}
}

func NewEmpty() *Empty {
	return vEmpty
}

// NewArray creates an array from its rows. Rows are expected to all have the
// same length.
func NewArray(rows [][]Value) *Array {
	return &Array{rows}
}

func (value *Number) Value() float64 {
	return value.value
}

func (value *Number) String() string {
	return formatNumber(value.value)
}

func (value *Number) Equal(that Value) bool {
	typed, ok := that.(*Number)
	if !ok {
		return false
	}
	return value.value == typed.value
}

// formatNumber prints integral numbers below 1e15 without a decimal point.
func formatNumber(n float64) string {
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func (value *Text) Value() string {
	return value.value
}

func (value *Text) String() string {
	return value.value
}

func (value *Text) Equal(that Value) bool {
	typed, ok := that.(*Text)
	if !ok {
		return false
	}
	return value.value == typed.value
}

func (value *Bool) Value() bool {
	return value.value
}

func (value *Bool) String() string {
	if value.value {
		return "TRUE"
	}
	return "FALSE"
}

func (value *Bool) Equal(that Value) bool {
	typed, ok := that.(*Bool)
	if !ok {
		return false
	}
	return value.value == typed.value
}

func (value *ErrorValue) Err() CellError {
	return value.err
}

func (value *ErrorValue) String() string {
	return value.err.String()
}

func (value *ErrorValue) Equal(that Value) bool {
	typed, ok := that.(*ErrorValue)
	if !ok {
		return false
	}
	return value.err == typed.err
}

func (value *Empty) String() string {
	return ""
}

func (value *Empty) Equal(that Value) bool {
	_, ok := that.(*Empty)
	return ok
}

// Rows returns the rows of the array.
func (value *Array) Rows() [][]Value {
	return value.rows
}

// Dims returns the number of rows and columns of the array.
func (value *Array) Dims() (int, int) {
	if len(value.rows) == 0 {
		return 0, 0
	}
	return len(value.rows), len(value.rows[0])
}

// At returns the element at the 0-based row and column.
func (value *Array) At(row, col int) Value {
	return value.rows[row][col]
}

// IsEmpty reports whether the array has no element.
func (value *Array) IsEmpty() bool {
	rows, cols := value.Dims()
	return rows == 0 || cols == 0
}

func (value *Array) String() string {
	return ErrValue.String()
}

func (value *Array) Equal(that Value) bool {
	typed, ok := that.(*Array)
	if !ok {
		return false
	}
	if len(value.rows) != len(typed.rows) {
		return false
	}
	for i := range value.rows {
		if len(value.rows[i]) != len(typed.rows[i]) {
			return false
		}
		for j := range value.rows[i] {
			if !value.rows[i][j].Equal(typed.rows[i][j]) {
				return false
			}
		}
	}
	return true
}

// each calls fn on every element, row-major, stopping early if fn returns
// false.
func (value *Array) each(fn func(Value) bool) {
	for _, row := range value.rows {
		for _, element := range row {
			if !fn(element) {
				return
			}
		}
	}
}

// flatten lists all scalar values, expanding arrays row-major.
func flatten(values []Value) []Value {
	var result []Value
	for _, value := range values {
		if arr, ok := value.(*Array); ok {
			arr.each(func(element Value) bool {
				result = append(result, element)
				return true
			})
		} else {
			result = append(result, value)
		}
	}
	return result
}

// asNumber coerces numbers, booleans, numeric text and blanks.
func asNumber(value Value) (float64, bool) {
	switch v := value.(type) {
	case *Number:
		return v.value, true
	case *Bool:
		if v.value {
			return 1, true
		}
		return 0, true
	case *Text:
		return parseNumber(v.value)
	case *Empty:
		return 0, true
	default:
		return 0, false
	}
}

func parseNumber(s string) (float64, bool) {
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// asBool coerces booleans, numbers, and the texts TRUE and FALSE.
func asBool(value Value) (bool, bool) {
	switch v := value.(type) {
	case *Bool:
		return v.value, true
	case *Number:
		return v.value != 0, true
	case *Text:
		switch strings.ToUpper(v.value) {
		case "TRUE":
			return true, true
		case "FALSE":
			return false, true
		}
	}
	return false, false
}

// typeRank orders values of distinct types: numbers, then text, then
// booleans.
func typeRank(value Value) int {
	switch value.(type) {
	case *Number, *Empty:
		return 0
	case *Text:
		return 1
	case *Bool:
		return 2
	case *ErrorValue:
		return 3
	default:
		return 4
	}
}

// compareValues is the three-way comparator behind every comparison operator.
// Blank compares as 0, text is compared case-insensitively, false is less
// than true, and errors are ordered by code.
func compareValues(left, right Value) int {
	if _, ok := left.(*Empty); ok {
		left = &Number{0}
	}
	if _, ok := right.(*Empty); ok {
		right = &Number{0}
	}
	switch l := left.(type) {
	case *Number:
		if r, ok := right.(*Number); ok {
			return compareFloats(l.value, r.value)
		}
	case *Text:
		if r, ok := right.(*Text); ok {
			return strings.Compare(strings.ToLower(l.value), strings.ToLower(r.value))
		}
	case *Bool:
		if r, ok := right.(*Bool); ok {
			return compareBools(l.value, r.value)
		}
	case *ErrorValue:
		if r, ok := right.(*ErrorValue); ok {
			return compareInts(l.err.Code(), r.err.Code())
		}
	}
	lRank, rRank := typeRank(left), typeRank(right)
	if lRank < 3 && rRank < 3 {
		return compareInts(lRank, rRank)
	}
	return 0
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareInts(a, b int) int {
	return compareFloats(float64(a), float64(b))
}

func compareBools(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

// valuesEqual is the lookup equality used by MATCH, VLOOKUP and SWITCH: text
// matches case-insensitively, and numeric text matches numbers.
func valuesEqual(left, right Value) bool {
	switch l := left.(type) {
	case *Number:
		switch r := right.(type) {
		case *Number:
			return math.Abs(l.value-r.value) < 1e-10
		case *Text:
			n, ok := parseNumber(r.value)
			return ok && math.Abs(l.value-n) < 1e-10
		}
	case *Text:
		switch r := right.(type) {
		case *Text:
			return strings.EqualFold(l.value, r.value)
		case *Number:
			return valuesEqual(r, l)
		}
	case *Bool:
		if r, ok := right.(*Bool); ok {
			return l.value == r.value
		}
	case *Empty:
		_, ok := right.(*Empty)
		return ok
	case *ErrorValue:
		if r, ok := right.(*ErrorValue); ok {
			return l.err == r.err
		}
	}
	return false
}
