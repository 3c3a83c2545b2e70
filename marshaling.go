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
	"encoding/json"
	"fmt"
)

// Assert that Workbooks implement the json.Marshaler interface.
var _ json.Marshaler = &Workbook{}

type jsonWorkbook struct {
	Id      string            `json:"id"`
	Version int               `json:"version"`
	Name    string            `json:"name,omitempty"`
	Sheets  []jsonSheet       `json:"sheets"`
	Names   map[string]string `json:"names,omitempty"`
}

type jsonSheet struct {
	Name   string                 `json:"name"`
	Cells  map[string]string      `json:"cells"`
	Values map[string]interface{} `json:"values"`
}

// MarshalJSON writes the literal of every cell under `cells`, and the value
// formulas see when reading it under `values`. Numbers are written as text,
// the way they display, and errors by their name.
func (wb *Workbook) MarshalJSON() ([]byte, error) {
	m := jsonWorkbook{
		Id:      wb.id,
		Version: wb.version,
		Name:    wb.name,
		Sheets:  make([]jsonSheet, 0, len(wb.sheets)),
	}
	if len(wb.names) != 0 {
		m.Names = make(map[string]string)
		for _, name := range wb.Names() {
			m.Names[name], _ = wb.NamedRange(name)
		}
	}
	for _, ws := range wb.sheets {
		sheet := jsonSheet{
			Name:   ws.name,
			Cells:  make(map[string]string),
			Values: make(map[string]interface{}),
		}
		for pos, cv := range ws.cells {
			ref := CellName(pos.row, pos.col)
			if lit := Literal(cv); lit != "" {
				sheet.Cells[ref] = lit
			}
			if value := jsonValue(ws.Value(pos.row, pos.col)); value != nil {
				sheet.Values[ref] = value
			}
		}
		m.Sheets = append(m.Sheets, sheet)
	}
	return json.Marshal(m)
}

func jsonValue(value Value) interface{} {
	switch v := value.(type) {
	case *Number:
		return v.String()
	case *Text:
		return v.value
	case *Bool:
		return v.value
	case *ErrorValue:
		return v.err.String()
	case *Empty:
		return nil
	default:
		panic(fmt.Sprintf("unexpected %T", value))
	}
}
