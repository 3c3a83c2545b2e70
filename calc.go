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
	"math"

	log "github.com/mgutz/logxi/v1"
)

// CalculationOptions configure a calculation pass.
type CalculationOptions struct {
	// Iterative enables iterative calculation of circular references.
	Iterative bool `toml:"iterative"`

	// MaxIterations bounds the sweeps of an iterative calculation.
	MaxIterations int `toml:"max_iterations"`

	// MaxChange is the largest change of a circular cell between two sweeps
	// for an iterative calculation to have converged.
	MaxChange float64 `toml:"max_change"`

	// ForceFullCalculation recalculates every formula. Full calculation is
	// the only mode.
	ForceFullCalculation bool `toml:"force_full_calculation"`

	// CalculateVolatile tracks formulas calling volatile functions.
	CalculateVolatile bool `toml:"calculate_volatile"`
}

// DefaultOptions returns the options of a plain, non-iterative, calculation.
func DefaultOptions() CalculationOptions {
	return CalculationOptions{
		Iterative:            false,
		MaxIterations:        100,
		MaxChange:            0.001,
		ForceFullCalculation: true,
		CalculateVolatile:    true,
	}
}

func (opts CalculationOptions) validate() error {
	if opts.MaxIterations < 1 {
		return fmt.Errorf("max_iterations must be at least 1, was %d", opts.MaxIterations)
	}
	if opts.MaxChange < 0 || math.IsNaN(opts.MaxChange) {
		return fmt.Errorf("max_change cannot be negative, was %v", opts.MaxChange)
	}
	return nil
}

// CalculationStats report on a calculation pass.
type CalculationStats struct {
	FormulaCount       int
	CellsCalculated    int
	Iterations         int
	CircularReferences int
	VolatileCells      int
	Errors             int
	Converged          bool

	// CircularCells lists the cells part of a cycle, sorted.
	CircularCells []CellKey
}

// Engine calculates the formulas of workbooks. An engine holds no state
// between passes, and a pass requires exclusive access to its workbook.
type Engine struct {
	options CalculationOptions
	log     log.Logger
	clock   Clock
	rand    RandomSource
}

// NewEngine creates an engine. Options which do not validate are replaced
// by the defaults.
func NewEngine(options CalculationOptions) *Engine {
	e := &Engine{
		options: options,
		log:     log.New("gridcalc"),
		clock:   wallClock{},
		rand:    sharedRandom{},
	}
	if err := options.validate(); err != nil {
		e.log.Warn("invalid calculation options, using defaults", "err", err)
		e.options = DefaultOptions()
	}
	return e
}

func (e *Engine) Options() CalculationOptions {
	return e.options
}

func (e *Engine) SetLogger(logger log.Logger) {
	e.log = logger
}

func (e *Engine) SetClock(clock Clock) {
	e.clock = clock
}

func (e *Engine) SetRandom(source RandomSource) {
	e.rand = source
}

func (e *Engine) context(book CellSource, key CellKey) *Context {
	return NewContext(book, key.Sheet, key.Row, key.Col).
		WithClock(e.clock).
		WithRandom(e.rand)
}

// Evaluate evaluates a formula as if it were in a cell of the workbook,
// without storing its result. Failures are returned rather than turned into
// cell errors.
func (e *Engine) Evaluate(book CellSource, formula string, sheet, row, col int) (Value, error) {
	expr, err := Parse(formula)
	if err != nil {
		return nil, err
	}
	return Evaluate(expr, e.context(book, CellKey{sheet, row, col}))
}

// CalculateAll calculates every formula of the workbook.
func (e *Engine) CalculateAll(book Book) CalculationStats {
	sheets := make([]int, book.SheetCount())
	for i := range sheets {
		sheets[i] = i
	}
	return e.calculate(book, sheets)
}

// CalculateSheet calculates the formulas of one sheet. Formulas of other
// sheets are read as last calculated.
func (e *Engine) CalculateSheet(book Book, sheet int) (CalculationStats, error) {
	if sheet < 0 || book.SheetCount() <= sheet {
		return CalculationStats{}, fmt.Errorf("unknown sheet %d", sheet)
	}
	return e.calculate(book, []int{sheet}), nil
}

// maxSpillPasses bounds how many times a calculation restarts because a
// spill covered cells read by formulas calculated ahead of it.
const maxSpillPasses = 4

// pass holds the state of a single calculation, which is discarded once
// the calculation completes.
type pass struct {
	*Engine
	book  Book
	stats CalculationStats

	graph    *Graph
	formulas map[CellKey]Expression
	keys     []CellKey
	circular map[CellKey]bool
	order    []CellKey
	position map[CellKey]int

	// misordered is set when a spill lands on cells already read earlier
	// in the sweep.
	misordered bool
}

func (e *Engine) calculate(book Book, sheets []int) CalculationStats {
	var p *pass
	for attempt := 1; ; attempt++ {
		p = &pass{
			Engine:   e,
			book:     book,
			graph:    NewGraph(),
			formulas: make(map[CellKey]Expression),
			circular: make(map[CellKey]bool),
			position: make(map[CellKey]int),
		}
		p.run(sheets)
		if !p.misordered {
			break
		}
		if attempt == maxSpillPasses {
			p.log.Warn("spilled arrays still read ahead of their source", "attempts", attempt)
			break
		}
		p.log.Debug("recalculating with spill dependencies", "attempt", attempt)
	}

	e.log.Debug("calculated",
		"formulas", p.stats.FormulaCount,
		"calculated", p.stats.CellsCalculated,
		"iterations", p.stats.Iterations,
		"circular", p.stats.CircularReferences,
		"volatile", p.stats.VolatileCells,
		"errors", p.stats.Errors,
		"converged", p.stats.Converged)
	return p.stats
}

func (p *pass) run(sheets []int) {
	p.collect(sheets)
	if p.stats.FormulaCount == 0 {
		return
	}
	p.detectCycles()
	p.orderCells()
	if len(p.circular) == 0 || !p.options.Iterative {
		p.sweepOnce()
	} else {
		p.iterate()
	}
}

// collect parses every formula, and records its references in the graph.
// A reference to a spill target also depends on the formula spilling there.
func (p *pass) collect(sheets []int) {
	for _, sheet := range sheets {
		for _, fc := range p.book.FormulaCells(sheet) {
			key := CellKey{sheet, fc.Row, fc.Col}
			expr, err := Parse(fc.Text)
			if err != nil {
				p.log.Warn("unable to parse formula", "cell", key, "formula", fc.Text, "err", err)
				p.stats.Errors++
				continue
			}
			if p.options.CalculateVolatile && IsVolatile(expr) {
				p.stats.VolatileCells++
			}
			for _, ref := range References(expr, p.book, sheet) {
				p.graph.AddDependency(ref, key)
				if row, col, ok := p.book.SpillSource(ref.Sheet, ref.Row, ref.Col); ok {
					if source := (CellKey{ref.Sheet, row, col}); source != key {
						p.graph.AddDependency(source, key)
					}
				}
			}
			p.formulas[key] = expr
			p.keys = append(p.keys, key)
			p.stats.FormulaCount++
		}
	}
}

func (p *pass) detectCycles() {
	for _, key := range p.graph.CircularCells() {
		if _, ok := p.formulas[key]; ok {
			p.circular[key] = true
			p.stats.CircularCells = append(p.stats.CircularCells, key)
		}
	}
	p.stats.CircularReferences = len(p.stats.CircularCells)
}

func (p *pass) orderCells() {
	for _, key := range p.graph.RecalcOrder(p.keys) {
		if _, ok := p.formulas[key]; ok {
			p.position[key] = len(p.order)
			p.order = append(p.order, key)
		}
	}
}

// evaluate calculates one formula and stores its result. Failures are
// counted, and degrade the result to #VALUE!.
func (p *pass) evaluate(key CellKey) (Value, bool) {
	value, err := Evaluate(p.formulas[key], p.context(p.book, key))
	ok := true
	if err != nil {
		p.log.Warn("unable to evaluate formula", "cell", key, "err", err)
		value, ok = errValue, false
	}

	if array, isArray := value.(*Array); isArray && !array.IsEmpty() {
		if err := p.book.SetArrayFormulaResult(key.Sheet, key.Row, key.Col, array); err != nil {
			if !errors.Is(err, ErrSpillBlocked) {
				panic(fmt.Sprintf("unexpected %s", err))
			}
			p.log.Warn("array result cannot spill", "cell", key, "err", err)
		} else {
			p.checkSpillOrder(key, array)
		}
		value = array.At(0, 0)
	} else if err := p.book.SetFormulaResult(key.Sheet, key.Row, key.Col, value); err != nil {
		panic(fmt.Sprintf("unexpected %s", err))
	}
	return value, ok
}

// checkSpillOrder flags the pass when a formula ordered before key reads a
// cell covered by its spill.
func (p *pass) checkSpillOrder(key CellKey, array *Array) {
	rows, cols := array.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if i == 0 && j == 0 {
				continue
			}
			target := CellKey{key.Sheet, key.Row + i, key.Col + j}
			for _, dependent := range p.graph.Dependents(target) {
				if at, ok := p.position[dependent]; ok && dependent != key && at < p.position[key] {
					p.misordered = true
					return
				}
			}
		}
	}
}

// sweepOnce calculates every formula once, in order. Circular cells are not
// evaluated and hold #REF!.
func (p *pass) sweepOnce() {
	for _, key := range p.order {
		if p.circular[key] {
			if err := p.book.SetFormulaResult(key.Sheet, key.Row, key.Col, errRef); err != nil {
				panic(fmt.Sprintf("unexpected %s", err))
			}
			p.stats.Errors++
			continue
		}
		if _, ok := p.evaluate(key); !ok {
			p.stats.Errors++
		}
		p.stats.CellsCalculated++
	}
	p.stats.Iterations = 1
	p.stats.Converged = true
}

// iterate sweeps over every formula until circular cells change by no more
// than the maximum change, or until the sweeps are exhausted. The first sweep
// is compared against the values circular cells held before the pass; a
// non-numeric value counts as 0.
func (p *pass) iterate() {
	previous := make(map[CellKey]float64)
	for key := range p.circular {
		if value, ok := p.book.CellValue(key.Sheet, key.Row, key.Col); ok {
			if n, isNumber := value.(*Number); isNumber {
				previous[key] = n.value
			}
		}
	}

	parseErrors := p.stats.Errors
	for iteration := 1; iteration <= p.options.MaxIterations; iteration++ {
		p.stats.Iterations = iteration
		sweepErrors, maxChange := 0, 0.0
		for _, key := range p.order {
			value, ok := p.evaluate(key)
			if !ok {
				sweepErrors++
			}
			if iteration == 1 {
				p.stats.CellsCalculated++
			}
			if !p.circular[key] {
				continue
			}
			if n, isNumber := value.(*Number); isNumber {
				maxChange = math.Max(maxChange, math.Abs(n.value-previous[key]))
				previous[key] = n.value
			}
		}
		p.stats.Errors = parseErrors + sweepErrors
		if maxChange <= p.options.MaxChange {
			p.stats.Converged = true
			return
		}
	}
	p.log.Warn("iterative calculation did not converge", "iterations", p.stats.Iterations)
}
