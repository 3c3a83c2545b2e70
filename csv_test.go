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
	"bytes"
	"strings"

	"github.com/stretchr/testify/require"
)

func (s *Zuite) TestReadCSV() {
	wb := s.book(sheet("Data", nil))
	ws, _ := wb.Sheet(0)

	input := "1,=A1*2,hello\n" +
		"\"\"\"x\"\"\",TRUE\n" +
		",,#N/A,\"a, b\"\n"
	require.NoError(s.T(), ReadCSV(strings.NewReader(input), ws))

	require.Equal(s.T(), one, ws.Get(0, 0))
	require.Equal(s.T(), NewFormula("=A1*2"), ws.Get(0, 1))
	require.Equal(s.T(), NewText("hello"), ws.Get(0, 2))
	require.Equal(s.T(), NewText("x"), ws.Get(1, 0))
	require.Equal(s.T(), NewBool(true), ws.Get(1, 1))
	require.Equal(s.T(), NewEmpty(), ws.Get(2, 0))
	require.Equal(s.T(), NewErrorValue(ErrNa), ws.Get(2, 2))
	require.Equal(s.T(), NewText("a, b"), ws.Get(2, 3))

	rows, cols := ws.Dims()
	require.Equal(s.T(), [2]int{3, 4}, [2]int{rows, cols})
}

func (s *Zuite) TestReadCSV_errors() {
	wb := s.book(sheet("Data", nil))
	ws, _ := wb.Sheet(0)

	err := ReadCSV(strings.NewReader("1,\"\"\"open\"\n"), ws)
	require.EqualError(s.T(), err, `B1: unterminated text literal "open`)

	err = ReadCSV(strings.NewReader("a,\"b\n"), ws)
	require.Error(s.T(), err)
	require.Contains(s.T(), err.Error(), "unable to read csv")
}

func (s *Zuite) TestWriteCSV() {
	wb := s.book(sheet("Data", map[string]string{
		"A1": "1",
		"B1": "=A1*2",
		"C1": "hello",
		"A2": "x, y",
		"B2": "TRUE",
		"C3": "=1/0",
		"A4": "=SEQUENCE(1,2)",
	}))
	wb.Calculate()
	ws, _ := wb.Sheet(0)

	var buf bytes.Buffer
	require.NoError(s.T(), WriteCSV(&buf, ws))
	require.Equal(s.T(), ""+
		"1,2,hello\n"+
		"\"x, y\",TRUE,\n"+
		",,#DIV/0!\n"+
		"1,2,\n", buf.String())
}

func (s *Zuite) TestCSV_roundTrip() {
	wb := s.book(sheet("Data", nil))
	ws, _ := wb.Sheet(0)
	require.NoError(s.T(), ReadCSV(strings.NewReader("2,3,=A1^B1\n"), ws))
	wb.Calculate()

	var buf bytes.Buffer
	require.NoError(s.T(), WriteCSV(&buf, ws))
	require.Equal(s.T(), "2,3,8\n", buf.String())
}
