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
	"errors"
	"fmt"
)

// ErrSpillBlocked is returned when an array result cannot spill because a
// cell it would cover is occupied or merged. The source then holds #SPILL!.
var ErrSpillBlocked = errors.New("spill blocked")

// SpillInfo is the footprint of a spilled array, including its source.
type SpillInfo struct {
	Rows, Cols int
}

// Region is a rectangle of cells, bounds included. Rows and columns are
// 0-based.
type Region struct {
	Top, Left, Bottom, Right int
}

func (r Region) contains(row, col int) bool {
	return r.Top <= row && row <= r.Bottom && r.Left <= col && col <= r.Right
}

func (r Region) overlaps(that Region) bool {
	return r.Top <= that.Bottom && that.Top <= r.Bottom && r.Left <= that.Right && that.Left <= r.Right
}

func (r Region) String() string {
	return CellName(r.Top, r.Left) + ":" + CellName(r.Bottom, r.Right)
}

// Merge merges a region of cells. Merged regions cannot overlap, and block
// arrays from spilling over them.
func (ws *Worksheet) Merge(r Region) error {
	if r.Top > r.Bottom || r.Left > r.Right {
		return fmt.Errorf("invalid region %s", r)
	}
	if err := checkBounds(r.Bottom, r.Right); err != nil {
		return err
	}
	if err := checkBounds(r.Top, r.Left); err != nil {
		return err
	}
	for _, merged := range ws.merged {
		if merged.overlaps(r) {
			return fmt.Errorf("region %s overlaps merged region %s", r, merged)
		}
	}
	ws.merged = append(ws.merged, r)
	return nil
}

func (ws *Worksheet) isMerged(row, col int) bool {
	for _, merged := range ws.merged {
		if merged.contains(row, col) {
			return true
		}
	}
	return false
}

// IsSpillSource reports whether the cell holds a formula whose array
// spilled.
func (ws *Worksheet) IsSpillSource(row, col int) bool {
	_, ok := ws.spills[cellPos{row, col}]
	return ok
}

// SpillSource returns the source of a spill target cell.
func (ws *Worksheet) SpillSource(row, col int) (int, int, bool) {
	target, ok := ws.cells[cellPos{row, col}].(*SpillTarget)
	if !ok {
		return 0, 0, false
	}
	return target.SourceRow, target.SourceCol, true
}

// CanSpillTo reports whether an array of rows by cols can spill from a
// source cell: every other cell it covers must be blank, or already hold a
// spill target of that same source, and none may be merged.
func (ws *Worksheet) CanSpillTo(row, col, rows, cols int) bool {
	if row+rows > MaxRows || col+cols > MaxCols {
		return false
	}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if i == 0 && j == 0 {
				continue
			}
			r, c := row+i, col+j
			if ws.isMerged(r, c) {
				return false
			}
			switch cv := ws.Get(r, c).(type) {
			case *Empty:
			case *SpillTarget:
				if cv.SourceRow != row || cv.SourceCol != col {
					return false
				}
			default:
				return false
			}
		}
	}
	return true
}

// ClearSpill removes the spill targets of a source cell, leaving alone any
// cell since overwritten.
func (ws *Worksheet) ClearSpill(row, col int) {
	pos := cellPos{row, col}
	info, ok := ws.spills[pos]
	if !ok {
		return
	}
	delete(ws.spills, pos)
	for i := 0; i < info.Rows; i++ {
		for j := 0; j < info.Cols; j++ {
			target := cellPos{row + i, col + j}
			if t, ok := ws.cells[target].(*SpillTarget); ok && t.SourceRow == row && t.SourceCol == col {
				delete(ws.cells, target)
			}
		}
	}
	if f, ok := ws.cells[pos].(*Formula); ok {
		f.array = nil
	}
}

// SetArrayFormulaResult stores the array result of the formula in a cell.
// A 1x1 array is stored as a scalar. Larger arrays spill right and down from
// the source, which holds the top left element; the cells covered hold spill
// targets resolving to the other elements. When the spill is blocked the
// source holds #SPILL! and ErrSpillBlocked is returned.
func (ws *Worksheet) SetArrayFormulaResult(row, col int, array *Array) error {
	f, ok := ws.cells[cellPos{row, col}].(*Formula)
	if !ok {
		return fmt.Errorf("%s is not a formula", CellName(row, col))
	}
	rows, cols := array.Dims()
	if rows == 0 || cols == 0 {
		return fmt.Errorf("%s: empty array result", CellName(row, col))
	}
	if rows == 1 && cols == 1 {
		return ws.SetFormulaResult(row, col, array.At(0, 0))
	}

	ws.ClearSpill(row, col)

	if !ws.CanSpillTo(row, col, rows, cols) {
		f.cached = &ErrorValue{ErrSpill}
		f.array = nil
		return fmt.Errorf("%s: %w", CellName(row, col), ErrSpillBlocked)
	}

	ws.spills[cellPos{row, col}] = SpillInfo{rows, cols}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if i == 0 && j == 0 {
				continue
			}
			ws.cells[cellPos{row + i, col + j}] = &SpillTarget{
				SourceRow: row,
				SourceCol: col,
				OffsetRow: i,
				OffsetCol: j,
			}
		}
	}
	f.cached = toCellValue(array.At(0, 0))
	f.array = array
	return nil
}
