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
	"io/ioutil"
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// FileStore keeps workbooks in a single CBOR file, keyed by id. Every
// operation reads the whole file, and writes it back when it changes.
type FileStore struct {
	mu       sync.Mutex
	filename string
}

// Assert FileStore implements the Store interface.
var _ Store = &FileStore{}

func NewFileStore(filename string) *FileStore {
	return &FileStore{
		filename: filename,
	}
}

type byId map[string]*fileWorkbook

type fileWorkbook struct {
	Version  int               `cbor:"version"`
	Name     string            `cbor:"name"`
	Date1904 bool              `cbor:"date1904"`
	Sheets   []fileSheet       `cbor:"sheets"`
	Names    map[string]string `cbor:"names"`
}

type fileSheet struct {
	Name  string            `cbor:"name"`
	Cells map[string]string `cbor:"cells"`
}

var encMode = func() cbor.EncMode {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("unexpected %s", err))
	}
	return em
}()

func (s *FileStore) read() (byId, error) {
	data, err := ioutil.ReadFile(s.filename)
	if errors.Is(err, os.ErrNotExist) {
		return make(byId), nil
	} else if err != nil {
		return nil, err
	}

	var workbooks byId
	if err := cbor.Unmarshal(data, &workbooks); err != nil {
		return nil, fmt.Errorf("%s: %w", s.filename, err)
	}
	if workbooks == nil {
		workbooks = make(byId)
	}
	return workbooks, nil
}

func (s *FileStore) write(workbooks byId) error {
	data, err := encMode.Marshal(workbooks)
	if err != nil {
		return err
	}
	return ioutil.WriteFile(s.filename, data, 0644)
}

func (s *FileStore) Load(id string) (*Workbook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	workbooks, err := s.read()
	if err != nil {
		return nil, err
	}
	rec, ok := workbooks[id]
	if !ok {
		return nil, fmt.Errorf("unknown workbook with id %s", id)
	}

	wb := NewWorkbook()
	wb.id = id
	wb.version = rec.Version
	wb.name = rec.Name
	wb.date1904 = rec.Date1904
	for _, sheet := range rec.Sheets {
		ws, err := wb.AddSheet(sheet.Name)
		if err != nil {
			return nil, err
		}
		for ref, literal := range sheet.Cells {
			if err := ws.SetLiteral(ref, literal); err != nil {
				return nil, err
			}
		}
	}
	for name, def := range rec.Names {
		if err := wb.DefineName(name, def); err != nil {
			return nil, err
		}
	}

	wb.snapshot()
	return wb, nil
}

func (s *FileStore) Save(wb *Workbook) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	workbooks, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := workbooks[wb.id]; ok {
		return fmt.Errorf("workbook with id %s already saved", wb.id)
	}
	workbooks[wb.id] = toFileWorkbook(wb, wb.version)
	if err := s.write(workbooks); err != nil {
		return err
	}

	wb.snapshot()
	return nil
}

func (s *FileStore) Update(wb *Workbook) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	workbooks, err := s.read()
	if err != nil {
		return err
	}
	rec, ok := workbooks[wb.id]
	if !ok {
		return fmt.Errorf("unknown workbook with id %s", wb.id)
	} else if rec.Version != wb.version {
		return fmt.Errorf("concurrent update detected")
	}

	newVersion := wb.version
	if len(wb.diff()) != 0 {
		newVersion++
	}
	workbooks[wb.id] = toFileWorkbook(wb, newVersion)
	if err := s.write(workbooks); err != nil {
		return err
	}

	wb.version = newVersion
	wb.snapshot()
	return nil
}

func toFileWorkbook(wb *Workbook, version int) *fileWorkbook {
	rec := &fileWorkbook{
		Version:  version,
		Name:     wb.name,
		Date1904: wb.date1904,
		Names:    make(map[string]string),
	}
	for _, name := range wb.Names() {
		rec.Names[name], _ = wb.NamedRange(name)
	}
	for _, ws := range wb.sheets {
		sheet := fileSheet{
			Name:  ws.name,
			Cells: make(map[string]string),
		}
		for pos, cv := range ws.cells {
			if lit := Literal(cv); lit != "" {
				sheet.Cells[CellName(pos.row, pos.col)] = lit
			}
		}
		rec.Sheets = append(rec.Sheets, sheet)
	}
	return rec
}
