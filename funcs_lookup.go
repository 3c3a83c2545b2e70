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

var lookupFunctions = []*function{
	{name: "INDEX", min: 2, max: 3, impl: fnIndex},
	{name: "MATCH", min: 2, max: 3, impl: fnMatch},
	{name: "VLOOKUP", min: 3, max: 4, impl: fnVLookup},
	{name: "HLOOKUP", min: 3, max: 4, impl: fnHLookup},
	{name: "ROWS", min: 1, max: 1, impl: fnRows},
	{name: "COLUMNS", min: 1, max: 1, impl: fnColumns},
	{name: "CHOOSE", min: 2, max: unlimited, impl: fnChoose},
	{name: "ROW", min: 0, max: 1, positional: fnRow},
	{name: "COLUMN", min: 0, max: 1, positional: fnColumn},
	{name: "SEQUENCE", min: 1, max: 4, impl: fnSequence},
}

// maxSequenceCells bounds the size of arrays built by SEQUENCE.
const maxSequenceCells = 1000000

// fnIndex picks a cell by 1-based row and column. With a single index, a
// one-row array is indexed by column.
func fnIndex(ctx *Context, args []Value) (Value, error) {
	if e := firstError(args...); e != nil {
		return e, nil
	}
	g := grid(args[0])
	rows, cols := gridDims(g)
	if rows == 0 || cols == 0 {
		return errRef, nil
	}

	row, e := intArg(args[1])
	if e != nil {
		return e, nil
	}
	col := 1
	if len(args) > 2 {
		if col, e = intArg(args[2]); e != nil {
			return e, nil
		}
	} else if rows == 1 && cols > 1 {
		row, col = 1, row
	}

	if row < 1 || col < 1 {
		return errValue, nil
	}
	if row > rows || col > cols {
		return errRef, nil
	}
	return g[row-1][col-1], nil
}

// vector lists the cells of a single row or column.
func vector(g [][]Value) ([]Value, bool) {
	rows, cols := gridDims(g)
	switch {
	case rows == 1:
		return g[0], true
	case cols == 1:
		column := make([]Value, rows)
		for i := range g {
			column[i] = g[i][0]
		}
		return column, true
	default:
		return nil, false
	}
}

// fnMatch only supports exact matching, match type 0.
func fnMatch(ctx *Context, args []Value) (Value, error) {
	if e := firstError(args...); e != nil {
		return e, nil
	}
	needle := args[0]
	if _, ok := needle.(*Array); ok {
		return errValue, nil
	}
	matchType, e := optIntArg(args, 2, 0)
	if e != nil {
		return e, nil
	}
	if matchType != 0 {
		return errNa, nil
	}

	cells, ok := vector(grid(args[1]))
	if !ok {
		return errNa, nil
	}
	for i, cell := range cells {
		if valuesEqual(needle, cell) {
			return &Number{float64(i + 1)}, nil
		}
	}
	return errNa, nil
}

// lookup finds needle in the first cell of each line, and returns the cell
// at the 1-based index of the matching line. Matching is always exact.
func lookup(args []Value, lines [][]Value) (Value, error) {
	if e := firstError(args...); e != nil {
		return e, nil
	}
	needle := args[0]
	if _, ok := needle.(*Array); ok {
		return errValue, nil
	}
	if len(lines) == 0 || len(lines[0]) == 0 {
		return errNa, nil
	}
	idx, e := intArg(args[2])
	if e != nil {
		return e, nil
	}
	if idx < 1 {
		return errValue, nil
	}
	if idx > len(lines[0]) {
		return errRef, nil
	}
	for _, line := range lines {
		if valuesEqual(needle, line[0]) {
			return line[idx-1], nil
		}
	}
	return errNa, nil
}

func fnVLookup(ctx *Context, args []Value) (Value, error) {
	return lookup(args, grid(args[1]))
}

func fnHLookup(ctx *Context, args []Value) (Value, error) {
	return lookup(args, transpose(grid(args[1])))
}

func transpose(g [][]Value) [][]Value {
	rows, cols := gridDims(g)
	result := make([][]Value, cols)
	for j := range result {
		result[j] = make([]Value, rows)
		for i := range g {
			result[j][i] = g[i][j]
		}
	}
	return result
}

func fnRows(ctx *Context, args []Value) (Value, error) {
	if e := firstError(args[0]); e != nil {
		return e, nil
	}
	rows, _ := gridDims(grid(args[0]))
	return &Number{float64(rows)}, nil
}

func fnColumns(ctx *Context, args []Value) (Value, error) {
	if e := firstError(args[0]); e != nil {
		return e, nil
	}
	_, cols := gridDims(grid(args[0]))
	return &Number{float64(cols)}, nil
}

func fnChoose(ctx *Context, args []Value) (Value, error) {
	idx, e := intArg(args[0])
	if e != nil {
		return e, nil
	}
	if idx < 1 || idx >= len(args) {
		return errValue, nil
	}
	return args[idx], nil
}

// fnRow returns the 1-based row of its reference argument, a column of rows
// for a range, or the row of the cell being evaluated.
func fnRow(ctx *Context, exprs []Expression, args []Value) (Value, error) {
	if len(args) == 0 {
		return &Number{float64(ctx.row + 1)}, nil
	}
	if e := firstError(args[0]); e != nil {
		return e, nil
	}
	switch ref := exprs[0].(type) {
	case *tCellRef:
		return &Number{float64(ref.ref.Row + 1)}, nil
	case *tRangeRef:
		top, bottom := ordered(ref.start.Row, ref.end.Row)
		if top == bottom {
			return &Number{float64(top + 1)}, nil
		}
		rows := make([][]Value, 0, bottom-top+1)
		for row := top; row <= bottom; row++ {
			rows = append(rows, []Value{&Number{float64(row + 1)}})
		}
		return &Array{rows}, nil
	}
	return &Number{float64(ctx.row + 1)}, nil
}

// fnColumn mirrors fnRow with a row of columns for a range.
func fnColumn(ctx *Context, exprs []Expression, args []Value) (Value, error) {
	if len(args) == 0 {
		return &Number{float64(ctx.col + 1)}, nil
	}
	if e := firstError(args[0]); e != nil {
		return e, nil
	}
	switch ref := exprs[0].(type) {
	case *tCellRef:
		return &Number{float64(ref.ref.Col + 1)}, nil
	case *tRangeRef:
		left, right := ordered(ref.start.Col, ref.end.Col)
		if left == right {
			return &Number{float64(left + 1)}, nil
		}
		cols := make([]Value, 0, right-left+1)
		for col := left; col <= right; col++ {
			cols = append(cols, &Number{float64(col + 1)})
		}
		return &Array{[][]Value{cols}}, nil
	}
	return &Number{float64(ctx.col + 1)}, nil
}

// fnSequence builds a row-major array of rows by columns numbers.
func fnSequence(ctx *Context, args []Value) (Value, error) {
	if e := firstError(args...); e != nil {
		return e, nil
	}
	rows, e := intArg(args[0])
	if e != nil {
		return e, nil
	}
	cols, e := optIntArg(args, 1, 1)
	if e != nil {
		return e, nil
	}
	start, e := optNumberArg(args, 2, 1)
	if e != nil {
		return e, nil
	}
	step, e := optNumberArg(args, 3, 1)
	if e != nil {
		return e, nil
	}
	if rows < 1 || cols < 1 {
		return errValue, nil
	}
	if rows > maxSequenceCells || cols > maxSequenceCells || rows*cols > maxSequenceCells {
		return errValue, nil
	}

	result := make([][]Value, rows)
	current := start
	for i := range result {
		result[i] = make([]Value, cols)
		for j := range result[i] {
			result[i][j] = &Number{current}
			current += step
		}
	}
	return &Array{result}, nil
}
