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
	"github.com/stretchr/testify/require"
)

func (s *Zuite) TestDiff() {
	wb := s.book(
		sheet("Data", map[string]string{
			"A1": "1",
			"A2": "old",
			"A3": "=SEQUENCE(3)",
		}),
		sheet("Other", nil),
	)
	wb.Calculate()
	wb.snapshot()
	require.Empty(s.T(), wb.diff())

	data, _ := wb.Sheet(0)
	other, _ := wb.Sheet(1)
	require.NoError(s.T(), data.SetLiteral("A1", "2"))
	require.NoError(s.T(), data.SetLiteral("A2", ""))
	require.NoError(s.T(), data.SetLiteral("B1", `"TRUE"`))
	require.NoError(s.T(), other.SetLiteral("C3", "=Data!A1"))

	// recalculating changes no literal
	wb.Calculate()

	require.Equal(s.T(), map[CellKey]change{
		{0, 0, 0}: {before: "1", after: "2"},
		{0, 1, 0}: {before: "old"},
		{0, 0, 1}: {after: `"TRUE"`},
		{1, 2, 2}: {after: "=Data!A1"},
	}, wb.diff())

	wb.snapshot()
	require.Empty(s.T(), wb.diff())
}

func (s *Zuite) TestDiff_spillsAreDerived() {
	wb := s.book(sheet("Data", map[string]string{
		"A1": "=SEQUENCE(4)",
	}))
	wb.snapshot()
	wb.Calculate()
	require.Empty(s.T(), wb.diff())
	require.Equal(s.T(), map[CellKey]string{{0, 0, 0}: "=SEQUENCE(4)"}, wb.literals())
}
