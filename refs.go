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

// References lists every cell an expression reads, expanding ranges into
// their cells. Sheet qualified references to unknown sheets fall back to the
// current sheet. Names are expanded into the references of their definition;
// a name whose definition does not parse, or refers back to itself,
// contributes nothing more.
func References(expr Expression, book CellSource, sheet int) []CellKey {
	x := &extractor{
		book:      book,
		sheet:     sheet,
		expanding: make(map[string]bool),
	}
	x.walk(expr)
	return x.refs
}

type extractor struct {
	book      CellSource
	sheet     int
	expanding map[string]bool
	refs      []CellKey
}

func (x *extractor) sheetIndex(name string) int {
	if name == "" || x.book == nil {
		return x.sheet
	}
	if idx, ok := x.book.SheetIndex(name); ok {
		return idx
	}
	return x.sheet
}

func (x *extractor) walk(expr Expression) {
	switch e := expr.(type) {
	case *tCellRef:
		x.refs = append(x.refs, CellKey{x.sheetIndex(e.sheet), e.ref.Row, e.ref.Col})
	case *tRangeRef:
		idx := x.sheetIndex(e.sheet)
		top, bottom := ordered(e.start.Row, e.end.Row)
		left, right := ordered(e.start.Col, e.end.Col)
		for row := top; row <= bottom; row++ {
			for col := left; col <= right; col++ {
				x.refs = append(x.refs, CellKey{idx, row, col})
			}
		}
	case *tNameRef:
		x.expandName(e.name)
	case *tBinop:
		x.walk(e.left)
		x.walk(e.right)
	case *tUnop:
		x.walk(e.expr)
	case *tCall:
		for _, arg := range e.args {
			x.walk(arg)
		}
	case *tArray:
		for _, row := range e.rows {
			for _, element := range row {
				x.walk(element)
			}
		}
	}
}

func (x *extractor) expandName(name string) {
	if x.book == nil {
		return
	}
	key := strings.ToUpper(name)
	if x.expanding[key] {
		return
	}
	def, ok := x.book.NamedRange(name)
	if !ok {
		return
	}
	expr, err := parseDefinition(def)
	if err != nil {
		return
	}
	x.expanding[key] = true
	x.walk(expr)
	delete(x.expanding, key)
}

// IsVolatile reports whether an expression calls a volatile function such as
// NOW or RAND anywhere, including inside the arguments of other calls.
func IsVolatile(expr Expression) bool {
	switch e := expr.(type) {
	case *tCall:
		if IsVolatileFunction(e.name) {
			return true
		}
		for _, arg := range e.args {
			if IsVolatile(arg) {
				return true
			}
		}
	case *tBinop:
		return IsVolatile(e.left) || IsVolatile(e.right)
	case *tUnop:
		return IsVolatile(e.expr)
	case *tArray:
		for _, row := range e.rows {
			for _, element := range row {
				if IsVolatile(element) {
					return true
				}
			}
		}
	}
	return false
}
