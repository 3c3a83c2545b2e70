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

// Clone duplicates this workbook, in order to create a deep-copy.
//
// The duplicated workbook is a fresh new instance, with its own id, and its
// version set at 1. Calculated values and spills are copied along with the
// cells, so the copy reads the same as the original without calculating it
// again.
func (wb *Workbook) Clone() *Workbook {
	dup := NewWorkbook()
	dup.name = wb.name
	dup.date1904 = wb.date1904
	for key, nr := range wb.names {
		dup.names[key] = nr
	}
	for _, ws := range wb.sheets {
		dup.sheets = append(dup.sheets, ws.clone())
	}
	return dup
}

func (ws *Worksheet) clone() *Worksheet {
	dup := newWorksheet(ws.name)
	for pos, cv := range ws.cells {
		dup.cells[pos] = cloneCell(cv)
	}
	for pos, info := range ws.spills {
		dup.spills[pos] = info
	}
	dup.merged = append([]Region(nil), ws.merged...)
	return dup
}

// cloneCell copies mutable cell contents. Values are immutable, and shared.
func cloneCell(cv CellValue) CellValue {
	switch v := cv.(type) {
	case *Formula:
		dup := *v
		return &dup
	case *SpillTarget:
		dup := *v
		return &dup
	default:
		return cv
	}
}
