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
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/stretchr/testify/require"
)

func (s *Zuite) fileStore() (*FileStore, func()) {
	dir, err := ioutil.TempDir("", "gridcalc")
	require.NoError(s.T(), err)
	return NewFileStore(filepath.Join(dir, "workbooks.cbor")), func() { os.RemoveAll(dir) }
}

func (s *Zuite) storedBook() *Workbook {
	wb := s.book(
		sheet("Data", map[string]string{
			"A1": "1",
			"A2": "=A1*rate",
			"B1": `"007"`,
			"B2": "=SEQUENCE(2)",
		}),
		sheet("Other", map[string]string{
			"C3": "#N/A",
		}),
	)
	wb.SetName("budget")
	wb.SetDate1904(true)
	require.NoError(s.T(), wb.DefineName("rate", "10"))
	return wb
}

func (s *Zuite) TestFileStore_saveAndLoad() {
	store, cleanup := s.fileStore()
	defer cleanup()

	wb := s.storedBook()
	wb.Calculate()
	require.NoError(s.T(), store.Save(wb))
	require.Empty(s.T(), wb.diff())

	loaded, err := store.Load(wb.Id())
	require.NoError(s.T(), err)
	require.Equal(s.T(), wb.Id(), loaded.Id())
	require.Equal(s.T(), 1, loaded.Version())
	require.Equal(s.T(), "budget", loaded.Name())
	require.True(s.T(), loaded.Date1904())
	require.Equal(s.T(), []string{"rate"}, loaded.Names())
	require.Equal(s.T(), wb.literals(), loaded.literals())
	require.Empty(s.T(), loaded.diff())

	// calculated values are not stored
	s.assertValue(NewEmpty(), s.valueAt(loaded, 0, "A2"))
	loaded.Calculate()
	s.assertValue(NewNumber(10), s.valueAt(loaded, 0, "A2"))
	s.assertValue(two, s.valueAt(loaded, 0, "B3"))
	s.assertValue(NewText("007"), s.valueAt(loaded, 0, "B1"))
	s.assertValue(NewErrorValue(ErrNa), s.valueAt(loaded, 1, "C3"))

	err = store.Save(wb)
	require.EqualError(s.T(), err, fmt.Sprintf("workbook with id %s already saved", wb.Id()))
}

func (s *Zuite) TestFileStore_update() {
	store, cleanup := s.fileStore()
	defer cleanup()

	wb := s.storedBook()
	require.NoError(s.T(), store.Save(wb))

	// nothing changed
	require.NoError(s.T(), store.Update(wb))
	require.Equal(s.T(), 1, wb.Version())

	data, _ := wb.Sheet(0)
	require.NoError(s.T(), data.SetLiteral("A1", "2"))
	require.NoError(s.T(), data.SetLiteral("B1", ""))
	require.NoError(s.T(), data.SetLiteral("D4", "new"))
	require.NoError(s.T(), store.Update(wb))
	require.Equal(s.T(), 2, wb.Version())
	require.Empty(s.T(), wb.diff())

	loaded, err := store.Load(wb.Id())
	require.NoError(s.T(), err)
	require.Equal(s.T(), 2, loaded.Version())
	require.Equal(s.T(), map[CellKey]string{
		{0, 0, 0}: "2",
		{0, 1, 0}: "=A1*rate",
		{0, 1, 1}: "=SEQUENCE(2)",
		{0, 3, 3}: "new",
		{1, 2, 2}: "#N/A",
	}, loaded.literals())
}

func (s *Zuite) TestFileStore_concurrentUpdate() {
	store, cleanup := s.fileStore()
	defer cleanup()

	wb := s.storedBook()
	require.NoError(s.T(), store.Save(wb))

	first, err := store.Load(wb.Id())
	require.NoError(s.T(), err)
	second, err := store.Load(wb.Id())
	require.NoError(s.T(), err)

	ws, _ := first.Sheet(0)
	require.NoError(s.T(), ws.SetLiteral("A1", "3"))
	require.NoError(s.T(), store.Update(first))

	ws, _ = second.Sheet(0)
	require.NoError(s.T(), ws.SetLiteral("A1", "4"))
	require.EqualError(s.T(), store.Update(second), "concurrent update detected")
	require.Equal(s.T(), 1, second.Version())
}

func (s *Zuite) TestFileStore_manyWorkbooks() {
	store, cleanup := s.fileStore()
	defer cleanup()

	first, second := s.storedBook(), s.book(sheet("Solo", map[string]string{"A1": "=1"}))
	require.NoError(s.T(), store.Save(first))
	require.NoError(s.T(), store.Save(second))

	loaded, err := store.Load(second.Id())
	require.NoError(s.T(), err)
	require.Equal(s.T(), 1, loaded.SheetCount())
	require.Equal(s.T(), map[CellKey]string{{0, 0, 0}: "=1"}, loaded.literals())

	loaded, err = store.Load(first.Id())
	require.NoError(s.T(), err)
	require.Equal(s.T(), 2, loaded.SheetCount())
}

func (s *Zuite) TestFileStore_errors() {
	store, cleanup := s.fileStore()
	defer cleanup()

	_, err := store.Load("nope")
	require.EqualError(s.T(), err, "unknown workbook with id nope")

	wb := s.storedBook()
	require.EqualError(s.T(), store.Update(wb), fmt.Sprintf("unknown workbook with id %s", wb.Id()))

	require.NoError(s.T(), ioutil.WriteFile(store.filename, []byte("not cbor"), 0644))
	_, err = store.Load("nope")
	require.Error(s.T(), err)
	require.Contains(s.T(), err.Error(), store.filename)
}
