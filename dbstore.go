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
	"database/sql"
	"fmt"
	"math"
	"sort"

	"github.com/homelight/dat/dat"
	runner "github.com/homelight/dat/sqlx-runner"
)

// Store persists workbooks. Only the content of cells is stored, not their
// calculated values: a loaded workbook is calculated before being read.
type Store interface {
	// Load loads the workbook with identifier `id` from the store.
	Load(id string) (*Workbook, error)

	// Save saves a new workbook to the store.
	Save(wb *Workbook) error

	// Update updates an existing workbook in the store.
	Update(wb *Workbook) error
}

// DbStore stores workbooks in Postgres. Cells are versioned: every update
// closes the rows of the cells it changes, and inserts their new content.
type DbStore struct{}

func NewStore() *DbStore {
	return &DbStore{}
}

// Open starts a session running within a transaction.
func (s *DbStore) Open(tx *runner.Tx) *Session {
	return &Session{
		DbStore: s,
		tx:      tx,
	}
}

// Session is a DbStore bound to a transaction.
type Session struct {
	*DbStore
	tx *runner.Tx
}

// Assert Session implements Store interface.
var _ Store = &Session{}

// rWorkbook represents a record of the workbooks table.
type rWorkbook struct {
	Id       string `db:"id"`
	Version  int    `db:"version"`
	Name     string `db:"name"`
	Date1904 bool   `db:"date1904"`
}

// rSheet represents a record of the workbook_sheets table.
type rSheet struct {
	WorkbookId string `db:"workbook_id"`
	Idx        int    `db:"idx"`
	Name       string `db:"name"`
}

// rCell represents a record of the workbook_cells table. A null value
// records that the cell was emptied.
type rCell struct {
	Id          int64          `db:"id"`
	WorkbookId  string         `db:"workbook_id"`
	Sheet       int            `db:"sheet"`
	Row         int            `db:"row"`
	Col         int            `db:"col"`
	FromVersion int            `db:"from_version"`
	ToVersion   int            `db:"to_version"`
	Value       dat.NullString `db:"value"`
}

// rName represents a record of the workbook_names table.
type rName struct {
	WorkbookId string `db:"workbook_id"`
	Name       string `db:"name"`
	Definition string `db:"definition"`
}

func (s *Session) Load(id string) (*Workbook, error) {
	var wbRecs []rWorkbook
	if err := s.tx.
		Select("*").
		From("workbooks").
		Where("id = $1", id).
		QueryStructs(&wbRecs); err != nil {
		return nil, fmt.Errorf("unable to load workbooks records: %w", err)
	} else if len(wbRecs) == 0 {
		return nil, fmt.Errorf("unknown workbook with id %s", id)
	}
	wbRec := wbRecs[0]

	wb := NewWorkbook()
	wb.id = wbRec.Id
	wb.version = wbRec.Version
	wb.name = wbRec.Name
	wb.date1904 = wbRec.Date1904

	var sheetRecs []rSheet
	if err := s.tx.
		Select("*").
		From("workbook_sheets").
		Where("workbook_id = $1", id).
		OrderBy("idx").
		QueryStructs(&sheetRecs); err != nil {
		return nil, fmt.Errorf("unable to load sheets records: %w", err)
	}
	for _, sheetRec := range sheetRecs {
		if _, err := wb.AddSheet(sheetRec.Name); err != nil {
			return nil, err
		}
	}

	var nameRecs []rName
	if err := s.tx.
		Select("*").
		From("workbook_names").
		Where("workbook_id = $1", id).
		QueryStructs(&nameRecs); err != nil {
		return nil, fmt.Errorf("unable to load names records: %w", err)
	}
	for _, nameRec := range nameRecs {
		if err := wb.DefineName(nameRec.Name, nameRec.Definition); err != nil {
			return nil, err
		}
	}

	var cellRecs []rCell
	if err := s.tx.
		Select("*").
		From("workbook_cells").
		Where("workbook_id = $1", id).
		Where("from_version <= $1 and $1 <= to_version", wbRec.Version).
		QueryStructs(&cellRecs); err != nil {
		return nil, fmt.Errorf("unable to load cells records: %w", err)
	}
	for _, cellRec := range cellRecs {
		if !cellRec.Value.Valid {
			continue
		}
		ws, ok := wb.Sheet(cellRec.Sheet)
		if !ok {
			return nil, fmt.Errorf("cell %s on unknown sheet %d", CellName(cellRec.Row, cellRec.Col), cellRec.Sheet)
		}
		cv, err := NewCellValue(cellRec.Value.String)
		if err != nil {
			return nil, err
		}
		if err := ws.Set(cellRec.Row, cellRec.Col, cv); err != nil {
			return nil, err
		}
	}

	wb.snapshot()
	return wb, nil
}

func (s *Session) Save(wb *Workbook) error {
	// insert rWorkbook
	if _, err := s.tx.
		InsertInto("workbooks").
		Columns("*").
		Record(&rWorkbook{
			Id:       wb.id,
			Version:  wb.version,
			Name:     wb.name,
			Date1904: wb.date1904,
		}).
		Exec(); err != nil {
		return err
	}

	if err := s.insertSheetsAndNames(wb); err != nil {
		return err
	}

	// insert rCells
	literals := wb.literals()
	for _, batch := range batches(sortedCells(literals)) {
		insert := s.tx.InsertInto("workbook_cells").Columns("*").Blacklist("id")
		for _, key := range batch {
			insert.Record(rCell{
				WorkbookId:  wb.id,
				Sheet:       key.Sheet,
				Row:         key.Row,
				Col:         key.Col,
				FromVersion: wb.version,
				ToVersion:   math.MaxInt32,
				Value:       dat.NullStringFrom(literals[key]),
			})
		}
		if _, err := insert.Exec(); err != nil {
			return err
		}
	}

	// now we can update wb itself to reflect the save
	wb.orig = literals

	return nil
}

// Update stores the cells changed since the workbook was loaded or saved,
// as a new version. Sheets, names and the date system are not versioned, and
// are rewritten on every update.
func (s *Session) Update(wb *Workbook) error {
	// the version check comes first, sheets and names are rewritten below
	if result, err := s.tx.
		Update("workbooks").
		Set("name", wb.name).
		Set("date1904", wb.date1904).
		Where("id = $1 and version = $2", wb.id, wb.version).
		Exec(); err != nil {
		return err
	} else if result.RowsAffected != 1 {
		return fmt.Errorf("concurrent update detected")
	}
	for _, table := range []string{"workbook_sheets", "workbook_names"} {
		if _, err := s.tx.
			DeleteFrom(table).
			Where("workbook_id = $1", wb.id).
			Exec(); err != nil {
			return err
		}
	}
	if err := s.insertSheetsAndNames(wb); err != nil {
		return err
	}

	// no change to any cell, the version stays
	diff := wb.diff()
	if len(diff) == 0 {
		return nil
	}

	oldVersion := wb.version
	newVersion := oldVersion + 1
	for _, batch := range batches(sortedCells(diff)) {
		// update old rCells
		tuples := make([][3]int, len(batch))
		for i, key := range batch {
			tuples[i] = [3]int{key.Sheet, key.Row, key.Col}
		}
		if _, err := s.tx.
			Update("workbook_cells").
			Set("to_version", oldVersion).
			Where("workbook_id = $1", wb.id).
			Where("from_version <= $1 and $1 <= to_version", oldVersion).
			Where(tupleInClause([]string{"sheet", "row", "col"}, len(tuples)), ughconvert(tuples)...).
			Exec(); err != nil {
			return err
		}

		// insert new rCells
		insert := s.tx.InsertInto("workbook_cells").Columns("*").Blacklist("id")
		for _, key := range batch {
			insert.Record(rCell{
				WorkbookId:  wb.id,
				Sheet:       key.Sheet,
				Row:         key.Row,
				Col:         key.Col,
				FromVersion: newVersion,
				ToVersion:   math.MaxInt32,
				Value:       writeLiteral(diff[key].after),
			})
		}
		if _, err := insert.Exec(); err != nil {
			return err
		}
	}

	// update rWorkbook
	if result, err := s.tx.
		Update("workbooks").
		Set("version", newVersion).
		Where("id = $1 and version = $2", wb.id, oldVersion).
		Exec(); err != nil {
		return err
	} else if result.RowsAffected != 1 {
		return fmt.Errorf("concurrent update detected")
	}

	// now we can update wb itself to reflect the store
	wb.version = newVersion
	wb.snapshot()

	return nil
}

func (s *Session) insertSheetsAndNames(wb *Workbook) error {
	if len(wb.sheets) != 0 {
		insert := s.tx.InsertInto("workbook_sheets").Columns("*")
		for idx, ws := range wb.sheets {
			insert.Record(rSheet{
				WorkbookId: wb.id,
				Idx:        idx,
				Name:       ws.name,
			})
		}
		if _, err := insert.Exec(); err != nil {
			return err
		}
	}

	if len(wb.names) != 0 {
		insert := s.tx.InsertInto("workbook_names").Columns("*")
		for _, name := range wb.Names() {
			def, _ := wb.NamedRange(name)
			insert.Record(rName{
				WorkbookId: wb.id,
				Name:       name,
				Definition: def,
			})
		}
		if _, err := insert.Exec(); err != nil {
			return err
		}
	}

	return nil
}

func writeLiteral(literal string) dat.NullString {
	if literal == "" {
		return dat.NullString{NullString: sql.NullString{String: "", Valid: false}}
	}
	return dat.NullStringFrom(literal)
}

func sortedCells[T any](cells map[CellKey]T) []CellKey {
	keys := make([]CellKey, 0, len(cells))
	for key := range cells {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].less(keys[j])
	})
	return keys
}
