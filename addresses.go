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
	"regexp"
	"strconv"
	"strings"
)

const (
	// MaxRows is the number of rows of a worksheet.
	MaxRows = 1048576

	// MaxCols is the number of columns of a worksheet.
	MaxCols = 16384
)

var pCellRef = regexp.MustCompile(`^(\$?)([A-Za-z]{1,3})(\$?)([0-9]+)$`)

// CellRef is a parsed A1 reference. Row and Col are 0-based.
type CellRef struct {
	Row, Col       int
	AbsRow, AbsCol bool
}

// ParseCellRef parses an A1 style reference such as `B12` or `$B$12`.
func ParseCellRef(ref string) (CellRef, error) {
	m := pCellRef.FindStringSubmatch(ref)
	if m == nil {
		return CellRef{}, fmt.Errorf("invalid cell reference %s", ref)
	}

	col := 0
	for _, c := range strings.ToUpper(m[2]) {
		col = col*26 + int(c-'A') + 1
	}
	row, err := strconv.Atoi(m[4])
	if err != nil || row < 1 || row > MaxRows {
		return CellRef{}, fmt.Errorf("row out of range in %s", ref)
	}
	if col > MaxCols {
		return CellRef{}, fmt.Errorf("column out of range in %s", ref)
	}

	return CellRef{
		Row:    row - 1,
		Col:    col - 1,
		AbsCol: m[1] == "$",
		AbsRow: m[3] == "$",
	}, nil
}

// ColumnName returns the letters of a 0-based column, e.g. 27 is AB.
func ColumnName(col int) string {
	var b []byte
	for n := col + 1; n > 0; n = (n - 1) / 26 {
		b = append([]byte{byte('A' + (n-1)%26)}, b...)
	}
	return string(b)
}

// CellName returns the A1 name of a 0-based row and column.
func CellName(row, col int) string {
	return ColumnName(col) + strconv.Itoa(row+1)
}

func (ref CellRef) String() string {
	var b strings.Builder
	if ref.AbsCol {
		b.WriteRune('$')
	}
	b.WriteString(ColumnName(ref.Col))
	if ref.AbsRow {
		b.WriteRune('$')
	}
	b.WriteString(strconv.Itoa(ref.Row + 1))
	return b.String()
}
