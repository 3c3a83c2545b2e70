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
	"math/rand"
	"strings"
	"time"
)

// CellSource is the read-only view of a workbook used during evaluation.
type CellSource interface {
	// SheetIndex finds a sheet by name, case-insensitively.
	SheetIndex(name string) (int, bool)

	// CellValue returns the current value of a cell. Spill targets resolve
	// to the element of their source's array, and missing cells are Empty.
	CellValue(sheet, row, col int) (Value, bool)

	// NamedRange returns the definition text of a name.
	NamedRange(name string) (string, bool)

	// Date1904 reports whether serial dates use the 1904 epoch.
	Date1904() bool
}

// Clock provides the current time to NOW and TODAY.
type Clock interface {
	Now() time.Time
}

// RandomSource provides uniform numbers in [0, 1) to RAND and RANDBETWEEN.
type RandomSource interface {
	Float64() float64
}

type wallClock struct{}

func (wallClock) Now() time.Time {
	return time.Now()
}

// sharedRandom draws from the math/rand top-level source, which is safe for
// concurrent use.
type sharedRandom struct{}

func (sharedRandom) Float64() float64 {
	return rand.Float64()
}

// Context carries everything an expression is evaluated against.
type Context struct {
	book            CellSource
	sheet, row, col int

	clock Clock
	rand  RandomSource

	depth     int
	resolving map[string]bool
}

// NewContext creates a context positioned on a cell of a workbook.
func NewContext(book CellSource, sheet, row, col int) *Context {
	return &Context{
		book:      book,
		sheet:     sheet,
		row:       row,
		col:       col,
		clock:     wallClock{},
		rand:      sharedRandom{},
		resolving: make(map[string]bool),
	}
}

// SimpleContext creates a context without any workbook. References evaluate
// to blanks, and names cannot be resolved.
func SimpleContext() *Context {
	return NewContext(nil, 0, 0, 0)
}

// WithClock replaces the clock of the context.
func (ctx *Context) WithClock(clock Clock) *Context {
	ctx.clock = clock
	return ctx
}

// WithRandom replaces the random source of the context.
func (ctx *Context) WithRandom(source RandomSource) *Context {
	ctx.rand = source
	return ctx
}

func (ctx *Context) date1904() bool {
	return ctx.book != nil && ctx.book.Date1904()
}

func (ctx *Context) sheetIndex(sheet string) (int, bool) {
	if sheet == "" {
		return ctx.sheet, true
	}
	return ctx.book.SheetIndex(sheet)
}

func (ctx *Context) cellValue(sheet string, row, col int) Value {
	if ctx.book == nil {
		return vEmpty
	}
	idx, ok := ctx.sheetIndex(sheet)
	if !ok {
		return &ErrorValue{ErrRef}
	}
	value, ok := ctx.book.CellValue(idx, row, col)
	if !ok {
		return &ErrorValue{ErrRef}
	}
	return value
}

func (ctx *Context) rangeValues(sheet string, start, end CellRef) Value {
	if ctx.book == nil {
		return &Array{}
	}
	idx, ok := ctx.sheetIndex(sheet)
	if !ok {
		return &ErrorValue{ErrRef}
	}

	top, bottom := ordered(start.Row, end.Row)
	left, right := ordered(start.Col, end.Col)
	rows := make([][]Value, 0, bottom-top+1)
	for row := top; row <= bottom; row++ {
		cols := make([]Value, 0, right-left+1)
		for col := left; col <= right; col++ {
			value, ok := ctx.book.CellValue(idx, row, col)
			if !ok {
				return &ErrorValue{ErrRef}
			}
			cols = append(cols, value)
		}
		rows = append(rows, cols)
	}
	return &Array{rows}
}

func ordered(a, b int) (int, int) {
	if a > b {
		return b, a
	}
	return a, b
}

func (ctx *Context) resolveName(name string) (Value, error) {
	if ctx.book == nil {
		return nil, errInvalidReference("no workbook to resolve %s", name)
	}
	def, ok := ctx.book.NamedRange(name)
	if !ok {
		return nil, errInvalidReference("unknown name %s", name)
	}

	key := strings.ToUpper(name)
	if ctx.resolving[key] {
		return nil, newError(KindCircularReference, "name %s refers to itself", name)
	}
	ctx.resolving[key] = true
	defer delete(ctx.resolving, key)

	expr, err := parseDefinition(def)
	if err != nil {
		return nil, err
	}
	return ctx.eval(expr)
}

// parseDefinition interprets the text a name refers to. It is either a
// formula (leading `=`), a number or boolean constant, or a possibly sheet
// qualified cell or range reference such as `'My Sheet'!$A$1:$B$4`.
func parseDefinition(def string) (Expression, error) {
	text := strings.TrimSpace(def)
	if strings.HasPrefix(text, "=") {
		return Parse(text)
	}
	if n, ok := parseNumber(text); ok {
		return &tNumber{n}, nil
	}
	switch strings.ToUpper(text) {
	case "TRUE":
		return &tBool{true}, nil
	case "FALSE":
		return &tBool{false}, nil
	}

	expr, err := Parse("=" + text)
	if err == nil {
		switch expr.(type) {
		case *tCellRef, *tRangeRef:
			return expr, nil
		}
	}
	return nil, errInvalidReference("cannot interpret definition %s", def)
}
