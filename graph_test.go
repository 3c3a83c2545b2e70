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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	keyA1 = CellKey{0, 0, 0}
	keyA2 = CellKey{0, 1, 0}
	keyA3 = CellKey{0, 2, 0}
	keyB1 = CellKey{0, 0, 1}
	keyC1 = CellKey{0, 0, 2}
	keyZ9 = CellKey{1, 8, 25}
)

func (s *Zuite) TestCellKeyString() {
	require.Equal(s.T(), "0!A1", keyA1.String())
	require.Equal(s.T(), "1!Z9", keyZ9.String())
}

func (s *Zuite) TestGraph_dependencies() {
	g := NewGraph()
	g.AddDependency(keyA1, keyA2)
	g.AddDependency(keyA2, keyA3)
	g.AddDependency(keyA1, keyA3)
	g.AddDependency(keyA1, keyA2)

	require.Equal(s.T(), 3, g.Len())
	require.Equal(s.T(), []CellKey{keyA2, keyA3}, g.Dependents(keyA1))
	require.Equal(s.T(), []CellKey{keyA3}, g.Dependents(keyA2))
	require.Empty(s.T(), g.Dependents(keyA3))
	require.Equal(s.T(), []CellKey{keyA2, keyA1}, g.Precedents(keyA3))
	require.Empty(s.T(), g.Precedents(keyA1))

	require.Nil(s.T(), g.Dependents(keyZ9))
	require.Nil(s.T(), g.Precedents(keyZ9))

	for _, key := range []CellKey{keyA1, keyA2, keyA3, keyZ9} {
		require.False(s.T(), g.HasCircularReference(key), key.String())
	}
	require.Empty(s.T(), g.CircularCells())
}

func (s *Zuite) TestGraph_cycles() {
	g := NewGraph()

	// A1 and B1 read each other, C1 reads itself, A2 reads the cycle
	g.AddDependency(keyA1, keyB1)
	g.AddDependency(keyB1, keyA1)
	g.AddDependency(keyC1, keyC1)
	g.AddDependency(keyB1, keyA2)
	g.AddDependency(keyZ9, keyA1)

	require.Equal(s.T(), []CellKey{keyA1, keyB1, keyC1}, g.CircularCells())

	assert.True(s.T(), g.HasCircularReference(keyA1))
	assert.True(s.T(), g.HasCircularReference(keyB1))
	assert.True(s.T(), g.HasCircularReference(keyC1))
	assert.False(s.T(), g.HasCircularReference(keyA2))
	assert.False(s.T(), g.HasCircularReference(keyZ9))
}

func (s *Zuite) TestGraph_longCycle() {
	g := NewGraph()
	var keys []CellKey
	for row := 0; row < 500; row++ {
		keys = append(keys, CellKey{0, row, 0})
	}
	for i := range keys {
		g.AddDependency(keys[i], keys[(i+1)%len(keys)])
	}
	require.Equal(s.T(), keys, g.CircularCells())
}

func (s *Zuite) TestGraph_recalcOrder() {
	g := NewGraph()
	g.AddDependency(keyA1, keyA2)
	g.AddDependency(keyA2, keyA3)
	g.AddDependency(keyA1, keyA3)

	require.Equal(s.T(), []CellKey{keyA1, keyA2, keyA3}, g.RecalcOrder([]CellKey{keyA3, keyA2, keyA1}))
	require.Equal(s.T(), []CellKey{keyA1, keyA2, keyA3}, g.RecalcOrder([]CellKey{keyA1}))
	require.Equal(s.T(), []CellKey{keyA2, keyA3}, g.RecalcOrder([]CellKey{keyA2}))

	// isolated cells come first
	require.Equal(s.T(), []CellKey{keyZ9, keyA1, keyA2, keyA3}, g.RecalcOrder([]CellKey{keyA3, keyZ9, keyA1}))
}

func (s *Zuite) TestGraph_recalcOrderWithCycle() {
	g := NewGraph()
	g.AddDependency(keyA1, keyB1)
	g.AddDependency(keyB1, keyA1)
	g.AddDependency(keyB1, keyC1)

	order := g.RecalcOrder([]CellKey{keyA1})
	require.Len(s.T(), order, 3)
	require.ElementsMatch(s.T(), []CellKey{keyA1, keyB1, keyC1}, order)
	require.Equal(s.T(), keyC1, order[2])
}
