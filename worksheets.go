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
	"crypto/rand"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/satori/go.uuid"
)

// Workbook is an ordered collection of worksheets, along with the names
// defined over them. It can be calculated, as well as saved to, and restored
// from, a Store.
type Workbook struct {
	id       string
	version  int
	name     string
	sheets   []*Worksheet
	names    map[string]namedRange
	date1904 bool

	// orig holds the literals of all cells as last loaded or saved, keyed
	// by cell
	orig map[CellKey]string
}

type namedRange struct {
	name, definition string
}

// Worksheet is a sparse grid of cells.
type Worksheet struct {
	name   string
	cells  map[cellPos]CellValue
	spills map[cellPos]SpillInfo
	merged []Region
}

type cellPos struct {
	row, col int
}

// FormulaCell locates a formula of a worksheet.
type FormulaCell struct {
	Row, Col int
	Text     string
}

// Book is the view of a workbook the calculation engine reads from, and
// writes results to.
type Book interface {
	CellSource

	// SheetCount returns the number of sheets.
	SheetCount() int

	// FormulaCells lists the formulas of a sheet, row-major.
	FormulaCells(sheet int) []FormulaCell

	// SetFormulaResult stores the scalar result of a formula.
	SetFormulaResult(sheet, row, col int, value Value) error

	// SetArrayFormulaResult stores the array result of a formula, spilling
	// it over adjacent cells.
	SetArrayFormulaResult(sheet, row, col int, array *Array) error

	// SpillSource returns the formula cell whose array covers a spill
	// target.
	SpillSource(sheet, row, col int) (int, int, bool)
}

// Assert that Workbook implements the Book interface.
var _ Book = &Workbook{}

var pName = regexp.MustCompile(`^[A-Za-z_\\][A-Za-z0-9_.]*$`)

func newId() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(fmt.Sprintf("unexpected %s", err))
	}
	id := uuid.FromBytesOrNil(b[:])
	id.SetVersion(uuid.V4)
	id.SetVariant(uuid.VariantRFC4122)
	return id.String()
}

// NewWorkbook creates an empty workbook with a fresh identifier, at version
// 1.
func NewWorkbook() *Workbook {
	return &Workbook{
		id:      newId(),
		version: 1,
		names:   make(map[string]namedRange),
		orig:    make(map[CellKey]string),
	}
}

func newWorksheet(name string) *Worksheet {
	return &Worksheet{
		name:   name,
		cells:  make(map[cellPos]CellValue),
		spills: make(map[cellPos]SpillInfo),
	}
}

func (wb *Workbook) Id() string {
	return wb.id
}

func (wb *Workbook) Version() int {
	return wb.version
}

func (wb *Workbook) Name() string {
	return wb.name
}

func (wb *Workbook) SetName(name string) {
	wb.name = name
}

func (wb *Workbook) Date1904() bool {
	return wb.date1904
}

// SetDate1904 selects the 1904 date system, where serial 0 is January 1
// 1904.
func (wb *Workbook) SetDate1904(date1904 bool) {
	wb.date1904 = date1904
}

// AddSheet appends a new, empty, worksheet. Sheet names are unique, without
// regard to case.
func (wb *Workbook) AddSheet(name string) (*Worksheet, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("sheet name cannot be blank")
	}
	if strings.ContainsAny(name, "!'") {
		return nil, fmt.Errorf("sheet name %s cannot contain ! or '", name)
	}
	if _, ok := wb.SheetIndex(name); ok {
		return nil, fmt.Errorf("sheet %s already exists", name)
	}
	ws := newWorksheet(name)
	wb.sheets = append(wb.sheets, ws)
	return ws, nil
}

// Sheet returns the sheet at a 0-based index.
func (wb *Workbook) Sheet(idx int) (*Worksheet, bool) {
	if idx < 0 || len(wb.sheets) <= idx {
		return nil, false
	}
	return wb.sheets[idx], true
}

// SheetByName finds a sheet by name, case-insensitively.
func (wb *Workbook) SheetByName(name string) (*Worksheet, bool) {
	idx, ok := wb.SheetIndex(name)
	if !ok {
		return nil, false
	}
	return wb.sheets[idx], true
}

func (wb *Workbook) SheetIndex(name string) (int, bool) {
	for idx, ws := range wb.sheets {
		if strings.EqualFold(ws.name, name) {
			return idx, true
		}
	}
	return 0, false
}

func (wb *Workbook) Sheets() []*Worksheet {
	return append([]*Worksheet(nil), wb.sheets...)
}

func (wb *Workbook) SheetCount() int {
	return len(wb.sheets)
}

// DefineName defines, or redefines, a name. The definition is a formula
// (`=A1*2`), a constant, or a possibly sheet qualified cell or range
// reference (`Sheet1!$A$1:$A$10`).
func (wb *Workbook) DefineName(name, definition string) error {
	if !pName.MatchString(name) {
		return fmt.Errorf("invalid name %s", name)
	}
	if _, err := ParseCellRef(name); err == nil {
		return fmt.Errorf("name %s cannot be a cell reference", name)
	}
	switch upper := strings.ToUpper(name); upper {
	case "TRUE", "FALSE":
		return fmt.Errorf("name %s is reserved", name)
	default:
		wb.names[upper] = namedRange{name, definition}
	}
	return nil
}

// NamedRange returns the definition of a name, looked up case-insensitively.
func (wb *Workbook) NamedRange(name string) (string, bool) {
	nr, ok := wb.names[strings.ToUpper(name)]
	return nr.definition, ok
}

// Names lists the defined names, sorted.
func (wb *Workbook) Names() []string {
	names := make([]string, 0, len(wb.names))
	for _, nr := range wb.names {
		names = append(names, nr.name)
	}
	sort.Strings(names)
	return names
}

func (wb *Workbook) CellValue(sheet, row, col int) (Value, bool) {
	ws, ok := wb.Sheet(sheet)
	if !ok {
		return nil, false
	}
	return ws.Value(row, col), true
}

func (wb *Workbook) FormulaCells(sheet int) []FormulaCell {
	ws, ok := wb.Sheet(sheet)
	if !ok {
		return nil
	}
	return ws.FormulaCells()
}

func (wb *Workbook) SetFormulaResult(sheet, row, col int, value Value) error {
	ws, ok := wb.Sheet(sheet)
	if !ok {
		return fmt.Errorf("unknown sheet %d", sheet)
	}
	return ws.SetFormulaResult(row, col, value)
}

func (wb *Workbook) SetArrayFormulaResult(sheet, row, col int, array *Array) error {
	ws, ok := wb.Sheet(sheet)
	if !ok {
		return fmt.Errorf("unknown sheet %d", sheet)
	}
	return ws.SetArrayFormulaResult(row, col, array)
}

func (wb *Workbook) SpillSource(sheet, row, col int) (int, int, bool) {
	ws, ok := wb.Sheet(sheet)
	if !ok {
		return 0, 0, false
	}
	return ws.SpillSource(row, col)
}

// Calculate calculates every formula of the workbook with the default
// options.
func (wb *Workbook) Calculate() CalculationStats {
	return NewEngine(DefaultOptions()).CalculateAll(wb)
}

func (ws *Worksheet) Name() string {
	return ws.name
}

func checkBounds(row, col int) error {
	if row < 0 || MaxRows <= row {
		return fmt.Errorf("row %d out of bounds", row)
	}
	if col < 0 || MaxCols <= col {
		return fmt.Errorf("column %d out of bounds", col)
	}
	return nil
}

// Set stores content in a cell. Storing a blank empties the cell, and
// replacing a spill source clears its spilled cells.
func (ws *Worksheet) Set(row, col int, cv CellValue) error {
	if err := checkBounds(row, col); err != nil {
		return err
	}
	pos := cellPos{row, col}
	if _, ok := ws.spills[pos]; ok {
		ws.ClearSpill(row, col)
	}
	if _, ok := cv.(*Empty); ok {
		delete(ws.cells, pos)
	} else {
		ws.cells[pos] = cv
	}
	return nil
}

// SetLiteral stores the content read from a literal in the cell named by
// an A1 reference, e.g. SetLiteral("B2", "=A1*2").
func (ws *Worksheet) SetLiteral(ref, literal string) error {
	cref, err := ParseCellRef(ref)
	if err != nil {
		return err
	}
	cv, err := NewCellValue(literal)
	if err != nil {
		return err
	}
	return ws.Set(cref.Row, cref.Col, cv)
}

// Get returns the content of a cell, Empty if there is none.
func (ws *Worksheet) Get(row, col int) CellValue {
	cv, ok := ws.cells[cellPos{row, col}]
	if !ok {
		return vEmpty
	}
	return cv
}

// Value returns the value formulas see when reading a cell: a formula's
// calculated value, or for a spill target the matching element of its
// source's array.
func (ws *Worksheet) Value(row, col int) Value {
	cv, ok := ws.cells[cellPos{row, col}]
	if !ok {
		return vEmpty
	}
	target, ok := cv.(*SpillTarget)
	if !ok {
		return toValue(cv)
	}
	source, ok := ws.cells[cellPos{target.SourceRow, target.SourceCol}].(*Formula)
	if !ok || source.array == nil {
		return vEmpty
	}
	rows, cols := source.array.Dims()
	if target.OffsetRow >= rows || target.OffsetCol >= cols {
		return vEmpty
	}
	return toCellValue(source.array.At(target.OffsetRow, target.OffsetCol))
}

// ValueAt is Value for a cell named by an A1 reference.
func (ws *Worksheet) ValueAt(ref string) (Value, error) {
	cref, err := ParseCellRef(ref)
	if err != nil {
		return nil, err
	}
	return ws.Value(cref.Row, cref.Col), nil
}

// FormulaCells lists the formulas of the worksheet, row-major.
func (ws *Worksheet) FormulaCells() []FormulaCell {
	var result []FormulaCell
	for pos, cv := range ws.cells {
		if f, ok := cv.(*Formula); ok {
			result = append(result, FormulaCell{pos.row, pos.col, f.text})
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Row != result[j].Row {
			return result[i].Row < result[j].Row
		}
		return result[i].Col < result[j].Col
	})
	return result
}

// SetFormulaResult stores the scalar result of the formula in a cell. Any
// array the formula previously spilled is cleared.
func (ws *Worksheet) SetFormulaResult(row, col int, value Value) error {
	f, ok := ws.cells[cellPos{row, col}].(*Formula)
	if !ok {
		return fmt.Errorf("%s is not a formula", CellName(row, col))
	}
	if _, ok := ws.spills[cellPos{row, col}]; ok {
		ws.ClearSpill(row, col)
	}
	f.cached = toCellValue(value)
	f.array = nil
	return nil
}

// Dims returns the number of rows and columns from A1 to the last occupied
// cell.
func (ws *Worksheet) Dims() (int, int) {
	var rows, cols int
	for pos := range ws.cells {
		if rows < pos.row+1 {
			rows = pos.row + 1
		}
		if cols < pos.col+1 {
			cols = pos.col + 1
		}
	}
	return rows, cols
}
