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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rowsOf(rows ...[]Value) *Array {
	return NewArray(rows)
}

func (s *Zuite) formulaSheet() (*Workbook, *Worksheet) {
	wb := s.book(sheet("Data", map[string]string{
		"B2": "=SEQUENCE(2,3)",
	}))
	ws, _ := wb.Sheet(0)
	return wb, ws
}

func (s *Zuite) TestSetArrayFormulaResult() {
	wb, ws := s.formulaSheet()
	require.NoError(s.T(), ws.SetArrayFormulaResult(1, 1, rowsOf(
		[]Value{one, two, three},
		[]Value{alice, NewBool(true), NewEmpty()},
	)))

	require.True(s.T(), ws.IsSpillSource(1, 1))
	s.assertValue(one, s.valueAt(wb, 0, "B2"))
	s.assertValue(two, s.valueAt(wb, 0, "C2"))
	s.assertValue(three, s.valueAt(wb, 0, "D2"))
	s.assertValue(alice, s.valueAt(wb, 0, "B3"))
	s.assertValue(NewBool(true), s.valueAt(wb, 0, "C3"))
	s.assertValue(NewEmpty(), s.valueAt(wb, 0, "D3"))
	s.assertValue(NewEmpty(), s.valueAt(wb, 0, "E2"))

	row, col, ok := ws.SpillSource(2, 3)
	require.True(s.T(), ok)
	require.Equal(s.T(), [2]int{1, 1}, [2]int{row, col})
	_, _, ok = ws.SpillSource(1, 1)
	require.False(s.T(), ok)

	// spilled cells are not formulas
	require.Len(s.T(), ws.FormulaCells(), 1)
}

func (s *Zuite) TestSetArrayFormulaResult_scalar() {
	wb, ws := s.formulaSheet()
	require.NoError(s.T(), ws.SetArrayFormulaResult(1, 1, rowsOf([]Value{alice})))
	require.False(s.T(), ws.IsSpillSource(1, 1))
	s.assertValue(alice, s.valueAt(wb, 0, "B2"))
}

func (s *Zuite) TestSetArrayFormulaResult_blocked() {
	wb, ws := s.formulaSheet()
	require.NoError(s.T(), ws.SetLiteral("D3", "mine"))

	err := ws.SetArrayFormulaResult(1, 1, rowsOf(
		[]Value{one, two, three},
		[]Value{one, two, three},
	))
	require.True(s.T(), errors.Is(err, ErrSpillBlocked))
	require.EqualError(s.T(), err, "B2: spill blocked")

	require.False(s.T(), ws.IsSpillSource(1, 1))
	s.assertValue(NewErrorValue(ErrSpill), s.valueAt(wb, 0, "B2"))
	s.assertValue(NewEmpty(), s.valueAt(wb, 0, "C2"))
	s.assertValue(NewText("mine"), s.valueAt(wb, 0, "D3"))
}

func (s *Zuite) TestSetArrayFormulaResult_blockedByMerge() {
	wb, ws := s.formulaSheet()
	require.NoError(s.T(), ws.Merge(Region{Top: 2, Left: 2, Bottom: 3, Right: 4}))

	err := ws.SetArrayFormulaResult(1, 1, rowsOf(
		[]Value{one, two},
		[]Value{one, two},
	))
	require.True(s.T(), errors.Is(err, ErrSpillBlocked))
	s.assertValue(NewErrorValue(ErrSpill), s.valueAt(wb, 0, "B2"))

	// a narrower array fits beside the merged region
	require.NoError(s.T(), ws.SetArrayFormulaResult(1, 1, rowsOf(
		[]Value{one},
		[]Value{two},
	)))
	s.assertValue(two, s.valueAt(wb, 0, "B3"))
}

func (s *Zuite) TestSetArrayFormulaResult_respill() {
	wb, ws := s.formulaSheet()
	require.NoError(s.T(), ws.SetArrayFormulaResult(1, 1, rowsOf(
		[]Value{one, two, three},
		[]Value{one, two, three},
	)))

	// a smaller array clears the cells it no longer covers
	require.NoError(s.T(), ws.SetArrayFormulaResult(1, 1, rowsOf(
		[]Value{three, two},
	)))
	s.assertValue(three, s.valueAt(wb, 0, "B2"))
	s.assertValue(two, s.valueAt(wb, 0, "C2"))
	s.assertValue(NewEmpty(), s.valueAt(wb, 0, "D2"))
	s.assertValue(NewEmpty(), s.valueAt(wb, 0, "B3"))
	_, _, ok := ws.SpillSource(2, 1)
	require.False(s.T(), ok)

	// a scalar result clears the spill entirely
	require.NoError(s.T(), ws.SetFormulaResult(1, 1, alice))
	require.False(s.T(), ws.IsSpillSource(1, 1))
	s.assertValue(NewEmpty(), s.valueAt(wb, 0, "C2"))
}

func (s *Zuite) TestSetArrayFormulaResult_errors() {
	_, ws := s.formulaSheet()
	require.EqualError(s.T(), ws.SetArrayFormulaResult(0, 0, rowsOf([]Value{one})), "A1 is not a formula")
	require.EqualError(s.T(), ws.SetArrayFormulaResult(1, 1, rowsOf()), "B2: empty array result")
}

func (s *Zuite) TestClearSpill() {
	wb, ws := s.formulaSheet()
	require.NoError(s.T(), ws.SetArrayFormulaResult(1, 1, rowsOf(
		[]Value{one, two},
		[]Value{three, alice},
	)))

	// overwritten cells are left alone
	require.NoError(s.T(), ws.SetLiteral("C3", "kept"))

	ws.ClearSpill(1, 1)
	require.False(s.T(), ws.IsSpillSource(1, 1))
	s.assertValue(one, s.valueAt(wb, 0, "B2"))
	s.assertValue(NewEmpty(), s.valueAt(wb, 0, "C2"))
	s.assertValue(NewEmpty(), s.valueAt(wb, 0, "B3"))
	s.assertValue(NewText("kept"), s.valueAt(wb, 0, "C3"))

	// clearing twice does nothing
	ws.ClearSpill(1, 1)
	ws.ClearSpill(9, 9)
}

func (s *Zuite) TestSet_replacesSpillSource() {
	wb, ws := s.formulaSheet()
	require.NoError(s.T(), ws.SetArrayFormulaResult(1, 1, rowsOf(
		[]Value{one, two},
	)))
	require.NoError(s.T(), ws.SetLiteral("B2", "7"))
	require.False(s.T(), ws.IsSpillSource(1, 1))
	s.assertValue(NewNumber(7), s.valueAt(wb, 0, "B2"))
	s.assertValue(NewEmpty(), s.valueAt(wb, 0, "C2"))
}

func (s *Zuite) TestCanSpillTo() {
	_, ws := s.formulaSheet()
	require.NoError(s.T(), ws.SetLiteral("A5", "x"))

	assert.True(s.T(), ws.CanSpillTo(1, 1, 3, 3))
	assert.True(s.T(), ws.CanSpillTo(0, 0, 4, 1))
	assert.False(s.T(), ws.CanSpillTo(0, 0, 5, 1))

	// the source cell itself never blocks
	assert.True(s.T(), ws.CanSpillTo(4, 0, 1, 2))

	assert.False(s.T(), ws.CanSpillTo(MaxRows-1, 0, 2, 1))
	assert.False(s.T(), ws.CanSpillTo(0, MaxCols-2, 1, 3))
}

func (s *Zuite) TestMerge() {
	_, ws := s.formulaSheet()
	require.NoError(s.T(), ws.Merge(Region{Top: 0, Left: 0, Bottom: 1, Right: 1}))
	require.NoError(s.T(), ws.Merge(Region{Top: 2, Left: 0, Bottom: 2, Right: 5}))

	require.EqualError(s.T(),
		ws.Merge(Region{Top: 1, Left: 1, Bottom: 3, Right: 3}),
		"region B2:D4 overlaps merged region A1:B2")
	require.EqualError(s.T(),
		ws.Merge(Region{Top: 3, Left: 3, Bottom: 1, Right: 1}),
		"invalid region D4:B2")
	require.EqualError(s.T(),
		ws.Merge(Region{Top: 0, Left: 0, Bottom: MaxRows, Right: 0}),
		"row 1048576 out of bounds")
}
