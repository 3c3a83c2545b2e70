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

func (s *Zuite) TestClone() {
	wb := s.book(
		sheet("Data", map[string]string{
			"A1": "1",
			"A2": "=A1*10",
			"B1": "=SEQUENCE(1,3)",
		}),
		sheet("Other", map[string]string{
			"A1": "=Data!A2+rate",
		}),
	)
	wb.SetName("budget")
	wb.SetDate1904(true)
	require.NoError(s.T(), wb.DefineName("rate", "5"))
	data, _ := wb.Sheet(0)
	require.NoError(s.T(), data.Merge(Region{Top: 5, Left: 5, Bottom: 6, Right: 6}))
	wb.Calculate()
	wb.version = 4

	dup := wb.Clone()
	require.NotEqual(s.T(), wb.Id(), dup.Id())
	require.Equal(s.T(), 1, dup.Version())
	require.Equal(s.T(), "budget", dup.Name())
	require.True(s.T(), dup.Date1904())
	require.Equal(s.T(), []string{"rate"}, dup.Names())
	require.Equal(s.T(), 2, dup.SheetCount())

	// calculated values and spills read the same without calculating
	s.assertValue(NewNumber(10), s.valueAt(dup, 0, "A2"))
	s.assertValue(NewNumber(15), s.valueAt(dup, 1, "A1"))
	s.assertValue(three, s.valueAt(dup, 0, "D1"))
	dupData, _ := dup.Sheet(0)
	require.True(s.T(), dupData.IsSpillSource(0, 1))
	require.False(s.T(), dupData.CanSpillTo(4, 4, 3, 3))

	// the copy is independent
	require.NoError(s.T(), dupData.SetLiteral("A1", "2"))
	require.NoError(s.T(), dup.DefineName("rate", "7"))
	dup.Calculate()
	s.assertValue(NewNumber(27), s.valueAt(dup, 1, "A1"))
	s.assertValue(NewNumber(15), s.valueAt(wb, 1, "A1"))
	s.assertValue(NewNumber(10), s.valueAt(wb, 0, "A2"))

	dupData.ClearSpill(0, 1)
	require.True(s.T(), data.IsSpillSource(0, 1))
	s.assertValue(three, s.valueAt(wb, 0, "D1"))
}
