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
	"sort"
)

// CellKey identifies a cell of a workbook. Row and Col are 0-based.
type CellKey struct {
	Sheet, Row, Col int
}

func (key CellKey) String() string {
	return fmt.Sprintf("%d!%s", key.Sheet, CellName(key.Row, key.Col))
}

func (key CellKey) less(that CellKey) bool {
	if key.Sheet != that.Sheet {
		return key.Sheet < that.Sheet
	}
	if key.Row != that.Row {
		return key.Row < that.Row
	}
	return key.Col < that.Col
}

func sortKeys(keys []CellKey) {
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].less(keys[j])
	})
}

// Graph is a directed graph of cells, with an edge from every precedent to
// each of its dependents. The graph may contain cycles.
//
// Nodes are numbered densely in order of first appearance, and edges are
// kept as adjacency lists of node numbers.
type Graph struct {
	nodes      map[CellKey]int
	keys       []CellKey
	dependents [][]int
	precedents [][]int
	edges      map[[2]int]bool
}

func NewGraph() *Graph {
	return &Graph{
		nodes: make(map[CellKey]int),
		edges: make(map[[2]int]bool),
	}
}

func (g *Graph) node(key CellKey) int {
	if n, ok := g.nodes[key]; ok {
		return n
	}
	n := len(g.keys)
	g.nodes[key] = n
	g.keys = append(g.keys, key)
	g.dependents = append(g.dependents, nil)
	g.precedents = append(g.precedents, nil)
	return n
}

// AddDependency records that dependent reads precedent. Adding the same edge
// twice has no effect.
func (g *Graph) AddDependency(precedent, dependent CellKey) {
	from, to := g.node(precedent), g.node(dependent)
	edge := [2]int{from, to}
	if g.edges[edge] {
		return
	}
	g.edges[edge] = true
	g.dependents[from] = append(g.dependents[from], to)
	g.precedents[to] = append(g.precedents[to], from)
}

// Len returns the number of cells in the graph.
func (g *Graph) Len() int {
	return len(g.keys)
}

func (g *Graph) toKeys(nodes []int) []CellKey {
	keys := make([]CellKey, len(nodes))
	for i, n := range nodes {
		keys[i] = g.keys[n]
	}
	return keys
}

// Dependents lists the cells directly reading key.
func (g *Graph) Dependents(key CellKey) []CellKey {
	n, ok := g.nodes[key]
	if !ok {
		return nil
	}
	return g.toKeys(g.dependents[n])
}

// Precedents lists the cells key directly reads.
func (g *Graph) Precedents(key CellKey) []CellKey {
	n, ok := g.nodes[key]
	if !ok {
		return nil
	}
	return g.toKeys(g.precedents[n])
}

// HasCircularReference reports whether key can reach itself by following
// dependents.
func (g *Graph) HasCircularReference(key CellKey) bool {
	start, ok := g.nodes[key]
	if !ok {
		return false
	}
	visited := make([]bool, len(g.keys))
	stack := append([]int(nil), g.dependents[start]...)
	for len(stack) != 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == start {
			return true
		}
		if visited[n] {
			continue
		}
		visited[n] = true
		stack = append(stack, g.dependents[n]...)
	}
	return false
}

// CircularCells lists, sorted, every cell taking part in a cycle. It is
// equivalent to, but cheaper than, testing HasCircularReference on every
// cell: a cell is circular exactly when its strongly connected component has
// more than one cell, or it depends on itself.
func (g *Graph) CircularCells() []CellKey {
	t := &tarjan{
		g:       g,
		index:   make([]int, len(g.keys)),
		low:     make([]int, len(g.keys)),
		onStack: make([]bool, len(g.keys)),
	}
	for n := range t.index {
		t.index[n] = -1
	}
	for n := range g.keys {
		if t.index[n] < 0 {
			t.connect(n)
		}
	}
	sortKeys(t.circular)
	return t.circular
}

type tarjan struct {
	g        *Graph
	counter  int
	index    []int
	low      []int
	onStack  []bool
	stack    []int
	circular []CellKey
}

func (t *tarjan) connect(n int) {
	t.index[n] = t.counter
	t.low[n] = t.counter
	t.counter++
	t.stack = append(t.stack, n)
	t.onStack[n] = true

	selfLoop := false
	for _, m := range t.g.dependents[n] {
		if m == n {
			selfLoop = true
		}
		if t.index[m] < 0 {
			t.connect(m)
			if t.low[m] < t.low[n] {
				t.low[n] = t.low[m]
			}
		} else if t.onStack[m] && t.index[m] < t.low[n] {
			t.low[n] = t.index[m]
		}
	}

	if t.low[n] != t.index[n] {
		return
	}
	var component []int
	for {
		m := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		t.onStack[m] = false
		component = append(component, m)
		if m == n {
			break
		}
	}
	if len(component) > 1 || selfLoop {
		t.circular = append(t.circular, t.g.toKeys(component)...)
	}
}

// RecalcOrder lists the seeds and every cell depending on them, directly or
// not, such that each cell comes after the cells it reads. Edges closing a
// cycle are ignored, so cells of a cycle appear in an arbitrary order
// relative to one another.
func (g *Graph) RecalcOrder(seeds []CellKey) []CellKey {
	var (
		postorder []int
		visited   = make([]bool, len(g.keys))
		inStack   = make([]bool, len(g.keys))
		visit     func(n int)
	)
	visit = func(n int) {
		if visited[n] || inStack[n] {
			return
		}
		inStack[n] = true
		for _, m := range g.dependents[n] {
			visit(m)
		}
		inStack[n] = false
		visited[n] = true
		postorder = append(postorder, n)
	}

	var extra []CellKey
	for _, seed := range seeds {
		n, ok := g.nodes[seed]
		if !ok {
			// isolated cells have no edge to order them by
			extra = append(extra, seed)
			continue
		}
		visit(n)
	}

	order := make([]CellKey, 0, len(postorder)+len(extra))
	order = append(order, extra...)
	for i := len(postorder) - 1; 0 <= i; i-- {
		order = append(order, g.keys[postorder[i]])
	}
	return order
}
