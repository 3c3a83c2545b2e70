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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *Zuite) TestCellErrorNames() {
	all := []CellError{
		ErrNull,
		ErrDiv0,
		ErrValue,
		ErrRef,
		ErrName,
		ErrNum,
		ErrNa,
		ErrGettingData,
		ErrSpill,
		ErrCalc,
	}
	for _, e := range all {
		found, ok := LookupCellError(e.String())
		if assert.True(s.T(), ok, e.String()) {
			assert.Equal(s.T(), e, found)
		}
	}

	e, ok := LookupCellError("#div/0!")
	require.True(s.T(), ok)
	require.Equal(s.T(), ErrDiv0, e)

	_, ok = LookupCellError("#OOPS!")
	require.False(s.T(), ok)

	require.Panics(s.T(), func() { _ = CellError(99).String() })
}

func (s *Zuite) TestCellErrorCodes() {
	// codes order errors in comparisons
	require.Equal(s.T(), 0, ErrNull.Code())
	require.Equal(s.T(), 7, ErrDiv0.Code())
	require.Equal(s.T(), 42, ErrNa.Code())
	require.True(s.T(), ErrRef.Code() < ErrNa.Code())
	require.True(s.T(), ErrNa.Code() < ErrCalc.Code())
}

func (s *Zuite) TestFormulaError() {
	err := errInvalidReference("unknown name %s", "rates")
	require.Equal(s.T(), "invalid-reference error: unknown name rates", err.Error())
	require.True(s.T(), IsKind(err, KindInvalidReference))
	require.False(s.T(), IsKind(err, KindParse))

	wrapped := fmt.Errorf("cell A1: %w", err)
	require.True(s.T(), IsKind(wrapped, KindInvalidReference))

	require.False(s.T(), IsKind(fmt.Errorf("plain"), KindParse))
	require.False(s.T(), IsKind(nil, KindParse))
}
