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
	"encoding/csv"
	"fmt"
	"io"
)

// ReadCSV fills the worksheet from CSV, starting at A1. Every field is read
// as a literal, so `=A1+1` becomes a formula and `12` a number. Rows may have
// different lengths.
func ReadCSV(r io.Reader, ws *Worksheet) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	for row := 0; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		} else if err != nil {
			return fmt.Errorf("unable to read csv: %w", err)
		}
		for col, field := range record {
			if field == "" {
				continue
			}
			cv, err := NewCellValue(field)
			if err != nil {
				return fmt.Errorf("%s: %w", CellName(row, col), err)
			}
			if err := ws.Set(row, col, cv); err != nil {
				return err
			}
		}
	}
}

// WriteCSV writes the display value of every cell from A1 to the last
// occupied cell.
func WriteCSV(w io.Writer, ws *Worksheet) error {
	writer := csv.NewWriter(w)
	rows, cols := ws.Dims()
	record := make([]string, cols)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			record[col] = ws.Value(row, col).String()
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
