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

// CellValue represents the content of a cell as stored in a worksheet.
type CellValue interface {
	// literal returns the text NewCellValue reads the content back from.
	literal() string
}

// Assert that all cell contents are CellValue.
var _ []CellValue = []CellValue{
	&Number{},
	&Text{},
	&Bool{},
	&ErrorValue{},
	&Empty{},
	&Formula{},
	&SpillTarget{},
}

// Formula is a formula cell, with the result of its last calculation.
type Formula struct {
	text string

	// cached is the calculated value, nil until the formula is calculated.
	cached Value

	// array retains the full result of a formula which spilled.
	array *Array
}

// SpillTarget marks a cell covered by the spilled array of a formula. Offsets
// are relative to the source, at the top left of the array.
type SpillTarget struct {
	SourceRow, SourceCol int
	OffsetRow, OffsetCol int
}

// NewFormula creates a formula cell from its text, e.g. `=A1+1`.
func NewFormula(text string) *Formula {
	return &Formula{text: text}
}

// Text returns the text of the formula, including the leading `=`.
func (f *Formula) Text() string {
	return f.text
}

// Cached returns the calculated value of the formula, or Empty if it was
// never calculated.
func (f *Formula) Cached() Value {
	if f.cached == nil {
		return vEmpty
	}
	return f.cached
}

func (value *Number) literal() string {
	return value.String()
}

// literal quotes text which would otherwise read back as another kind of
// content.
func (value *Text) literal() string {
	if cv, err := NewCellValue(value.value); err == nil {
		if read, ok := cv.(Value); ok && read.Equal(value) {
			return value.value
		}
	}
	return `"` + strings.Replace(value.value, `"`, `""`, -1) + `"`
}

func (value *Bool) literal() string {
	return value.String()
}

func (value *ErrorValue) literal() string {
	return value.String()
}

func (value *Empty) literal() string {
	return ""
}

func (f *Formula) literal() string {
	return f.text
}

func (t *SpillTarget) literal() string {
	return ""
}

// Literal writes cell content as text. Spill targets, which are derived
// from their source, write as blanks.
func Literal(cv CellValue) string {
	return cv.literal()
}

// NewCellValue reads cell content from its literal text:
//
//	=A1+1	a formula
//	"text"	text, with "" escaping a quote
//	TRUE	a boolean
//	#N/A	an error
//	42.5	a number
//
// The empty literal is a blank, and anything else is text.
func NewCellValue(literal string) (CellValue, error) {
	switch {
	case literal == "":
		return vEmpty, nil
	case strings.HasPrefix(literal, "="):
		return NewFormula(literal), nil
	case strings.HasPrefix(literal, `"`):
		if len(literal) < 2 || !strings.HasSuffix(literal, `"`) {
			return nil, fmt.Errorf("unterminated text literal %s", literal)
		}
		inner := literal[1 : len(literal)-1]
		if strings.Contains(strings.Replace(inner, `""`, "", -1), `"`) {
			return nil, fmt.Errorf("unescaped quote in text literal %s", literal)
		}
		return &Text{strings.Replace(inner, `""`, `"`, -1)}, nil
	}

	switch strings.ToUpper(literal) {
	case "TRUE":
		return vTrue, nil
	case "FALSE":
		return vFalse, nil
	}
	if e, ok := LookupCellError(literal); ok {
		return &ErrorValue{e}, nil
	}
	if n, ok := parseNumber(literal); ok {
		return &Number{n}, nil
	}
	return &Text{literal}, nil
}

// MustNewCellValue is NewCellValue, panicking on malformed literals.
func MustNewCellValue(literal string) CellValue {
	cv, err := NewCellValue(literal)
	if err != nil {
		panic(err)
	}
	return cv
}

// toValue converts cell content to the value formulas see. Spill targets
// need the workbook to resolve, and are handled by Worksheet.Value.
func toValue(cv CellValue) Value {
	switch v := cv.(type) {
	case *Formula:
		return v.Cached()
	case *SpillTarget:
		return vEmpty
	case Value:
		return v
	default:
		panic(fmt.Sprintf("unexpected cell value %T", cv))
	}
}

// toCellValue converts a scalar result to cell content. Arrays cannot be
// stored in a single cell and become #VALUE!.
func toCellValue(value Value) Value {
	if _, ok := value.(*Array); ok {
		return errValue
	}
	return value
}
