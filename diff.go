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

// change records the literal of a cell before and after an edit. A blank
// literal stands for an empty cell.
type change struct {
	before, after string
}

// literals lists the literal of every non-blank cell. Spill targets are
// derived, and left out.
func (wb *Workbook) literals() map[CellKey]string {
	literals := make(map[CellKey]string)
	for idx, ws := range wb.sheets {
		for pos, cv := range ws.cells {
			if lit := Literal(cv); lit != "" {
				literals[CellKey{idx, pos.row, pos.col}] = lit
			}
		}
	}
	return literals
}

// snapshot records the current cells as the ones last loaded or saved.
func (wb *Workbook) snapshot() {
	wb.orig = wb.literals()
}

// diff compares the cells against the last snapshot.
func (wb *Workbook) diff() map[CellKey]change {
	current := wb.literals()

	diff := make(map[CellKey]change)
	for key, before := range wb.orig {
		after, ok := current[key]
		if !ok {
			diff[key] = change{before: before}
		} else if before != after {
			diff[key] = change{before: before, after: after}
		}
	}
	for key, after := range current {
		if _, ok := wb.orig[key]; !ok {
			diff[key] = change{after: after}
		}
	}
	return diff
}
