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

// Package calctesting runs calculation scenarios written as gherkin features,
// such as
//
//	Scenario: totals
//	  Given sheet Data
//	  When set Data
//	    | A1 | 2      |
//	    | A2 | 3      |
//	    | A3 | =A1*A2 |
//	  And calculate
//	  Then assert Data.A3 6
package calctesting

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/cucumber/gherkin-go"

	"github.com/homelight/gridcalc"
)

type command interface {
	run(ctx *Context) error
}

// Assert all commands implement the command interface.
var _ = []command{
	cSheet{},
	cLoad{},
	cSet{},
	cName{},
	cDate1904{},
	cCalculate{},
	cAssert{},
	cAssertStats{},
}

type cSheet struct {
	name string
}

type cLoad struct {
	filename, sheet string
}

type cSet struct {
	sheet  string
	values map[string]string
}

type cName struct {
	name, definition string
}

type cDate1904 struct{}

type cCalculate struct {
	iterative     bool
	maxIterations int
	maxChange     float64
}

type cAssert struct {
	sheet    string
	expected map[string]string
}

type cAssertStats struct {
	expected map[string]string
}

const verbs = "sheet, load, set, name, date1904, calculate, or assert"

func stepToCommand(step *gherkin.Step) (command, error) {
	text := strings.TrimSpace(step.Text)
	parts := strings.SplitN(text, " ", 3)
	switch parts[0] {
	case "sheet":
		name := strings.TrimSpace(strings.TrimPrefix(text, "sheet"))
		if name == "" {
			return nil, fmt.Errorf("%s: expecting sheet <name>", step.Text)
		}
		return cSheet{name}, nil
	case "load":
		if len(parts) != 3 {
			return nil, fmt.Errorf(`%s: expecting load "<filename>" <sheet>`, step.Text)
		}
		filename, err := strconv.Unquote(parts[1])
		if err != nil {
			return nil, fmt.Errorf(`%s: expecting quoted filename, e.g. "data.csv"`, step.Text)
		}
		return cLoad{filename, parts[2]}, nil
	case "set":
		var set cSet
		switch len(parts) {
		case 2:
			set.sheet = parts[1]
			values, err := tableToContents(step.Argument)
			if err != nil {
				if _, _, ok := splitSheetAndCell(parts[1]); ok && step.Argument == nil {
					return nil, fmt.Errorf("%s: missing value", step.Text)
				}
				return nil, fmt.Errorf("%s: %s", step.Text, err)
			}
			set.values = values
		case 3:
			sheet, cell, ok := splitSheetAndCell(parts[1])
			if !ok {
				return nil, fmt.Errorf("%s: expecting <sheet>.<cell>", step.Text)
			}
			set.sheet = sheet
			set.values = map[string]string{
				cell: parts[2],
			}
		default:
			return nil, fmt.Errorf("%s: expecting <sheet> with data table or <sheet>.<cell> with literal", step.Text)
		}
		return set, nil
	case "name":
		if len(parts) != 3 {
			return nil, fmt.Errorf("%s: expecting name <name> <definition>", step.Text)
		}
		return cName{parts[1], parts[2]}, nil
	case "date1904":
		if len(parts) != 1 {
			return nil, fmt.Errorf("%s: expecting date1904 alone", step.Text)
		}
		return cDate1904{}, nil
	case "calculate":
		return stepToCalculate(step, strings.Fields(text)[1:])
	case "assert":
		if len(parts) == 2 && parts[1] == "stats" {
			values, err := tableToContents(step.Argument)
			if err != nil {
				return nil, fmt.Errorf("%s: %s", step.Text, err)
			}
			for stat := range values {
				if _, ok := stats[stat]; !ok {
					return nil, fmt.Errorf("%s: unknown stat %s", step.Text, stat)
				}
			}
			return cAssertStats{values}, nil
		}
		var assert cAssert
		switch len(parts) {
		case 2:
			assert.sheet = parts[1]
			values, err := tableToContents(step.Argument)
			if err != nil {
				if _, _, ok := splitSheetAndCell(parts[1]); ok && step.Argument == nil {
					return nil, fmt.Errorf("%s: missing value", step.Text)
				}
				return nil, fmt.Errorf("%s: %s", step.Text, err)
			}
			assert.expected = values
		case 3:
			sheet, cell, ok := splitSheetAndCell(parts[1])
			if !ok {
				return nil, fmt.Errorf("%s: expecting <sheet>.<cell>", step.Text)
			}
			assert.sheet = sheet
			assert.expected = map[string]string{
				cell: parts[2],
			}
		default:
			return nil, fmt.Errorf("%s: expecting <sheet> with data table or <sheet>.<cell> with literal", step.Text)
		}
		return assert, nil
	default:
		if parts[0] == "" {
			return nil, fmt.Errorf("no verb: expecting verb %s", verbs)
		} else {
			return nil, fmt.Errorf("wrong verb '%s': expecting verb %s", parts[0], verbs)
		}
	}
}

func stepToCalculate(step *gherkin.Step, args []string) (command, error) {
	if len(args) == 0 {
		return cCalculate{}, nil
	}
	if args[0] != "iteratively" || 3 < len(args) {
		return nil, fmt.Errorf("%s: expecting calculate, or calculate iteratively [max_iterations] [max_change]", step.Text)
	}
	defaults := gridcalc.DefaultOptions()
	calc := cCalculate{
		iterative:     true,
		maxIterations: defaults.MaxIterations,
		maxChange:     defaults.MaxChange,
	}
	if 2 <= len(args) {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 1 {
			return nil, fmt.Errorf("%s: unreadable max_iterations %s", step.Text, args[1])
		}
		calc.maxIterations = n
	}
	if len(args) == 3 {
		x, err := strconv.ParseFloat(args[2], 64)
		if err != nil || x < 0 {
			return nil, fmt.Errorf("%s: unreadable max_change %s", step.Text, args[2])
		}
		calc.maxChange = x
	}
	return calc, nil
}

// splitSheetAndCell splits `Data.B2` into `Data` and `B2`. Only the last dot
// separates the cell, sheet names may hold dots.
func splitSheetAndCell(sheetAndCell string) (string, string, bool) {
	dot := strings.LastIndex(sheetAndCell, ".")
	if dot <= 0 || dot == len(sheetAndCell)-1 {
		return "", "", false
	}
	if _, err := gridcalc.ParseCellRef(sheetAndCell[dot+1:]); err != nil {
		return "", "", false
	}
	return sheetAndCell[:dot], sheetAndCell[dot+1:], true
}

func (cmd cSheet) run(ctx *Context) error {
	_, err := ctx.wb.AddSheet(cmd.name)
	return err
}

func (cmd cLoad) run(ctx *Context) error {
	ws, ok := ctx.wb.SheetByName(cmd.sheet)
	if !ok {
		var err error
		if ws, err = ctx.wb.AddSheet(cmd.sheet); err != nil {
			return err
		}
	}

	file, err := os.Open(filepath.Join(ctx.CurrentDir, cmd.filename))
	if err != nil {
		return err
	}
	defer file.Close()

	return gridcalc.ReadCSV(bufio.NewReader(file), ws)
}

func (cmd cSet) run(ctx *Context) error {
	ws, ok := ctx.wb.SheetByName(cmd.sheet)
	if !ok {
		return fmt.Errorf("sheet %s not yet created", cmd.sheet)
	}
	for _, cell := range sortedKeys(cmd.values) {
		if err := ws.SetLiteral(cell, cmd.values[cell]); err != nil {
			return fmt.Errorf("%s: %s", cell, err)
		}
	}
	return nil
}

func (cmd cName) run(ctx *Context) error {
	return ctx.wb.DefineName(cmd.name, cmd.definition)
}

func (cmd cDate1904) run(ctx *Context) error {
	ctx.wb.SetDate1904(true)
	return nil
}

func (cmd cCalculate) run(ctx *Context) error {
	options := gridcalc.DefaultOptions()
	if ctx.Options != nil {
		options = *ctx.Options
	}
	if cmd.iterative {
		options.Iterative = true
		options.MaxIterations = cmd.maxIterations
		options.MaxChange = cmd.maxChange
	}

	engine := gridcalc.NewEngine(options)
	if ctx.Clock != nil {
		engine.SetClock(ctx.Clock)
	}
	if ctx.Random != nil {
		engine.SetRandom(ctx.Random)
	}
	ctx.stats = engine.CalculateAll(ctx.wb)
	ctx.calculated = true
	return nil
}

func (cmd cAssert) run(ctx *Context) error {
	ws, ok := ctx.wb.SheetByName(cmd.sheet)
	if !ok {
		return fmt.Errorf("sheet %s not yet created", cmd.sheet)
	}
	var diffs []string
	for _, cell := range sortedKeys(cmd.expected) {
		expected, err := expectedValue(cmd.expected[cell])
		if err != nil {
			return fmt.Errorf("%s: %s", cell, err)
		}
		actual, err := ws.ValueAt(cell)
		if err != nil {
			return err
		}
		if !sameValue(expected, actual) {
			diffs = append(diffs, fmt.Sprintf("%s: expected <%s>, was <%s>", cell, display(expected), display(actual)))
		}
	}
	if len(diffs) != 0 {
		return errors.New(strings.Join(diffs, "\n"))
	}
	return nil
}

var stats = map[string]func(ctx *Context) string{
	"formula_count":       func(ctx *Context) string { return strconv.Itoa(ctx.stats.FormulaCount) },
	"cells_calculated":    func(ctx *Context) string { return strconv.Itoa(ctx.stats.CellsCalculated) },
	"iterations":          func(ctx *Context) string { return strconv.Itoa(ctx.stats.Iterations) },
	"circular_references": func(ctx *Context) string { return strconv.Itoa(ctx.stats.CircularReferences) },
	"volatile_cells":      func(ctx *Context) string { return strconv.Itoa(ctx.stats.VolatileCells) },
	"errors":              func(ctx *Context) string { return strconv.Itoa(ctx.stats.Errors) },
	"converged":           func(ctx *Context) string { return strconv.FormatBool(ctx.stats.Converged) },
	"circular_cells":      circularCells,
}

// circularCells lists circular cells as `Sheet!A1`, comma separated.
func circularCells(ctx *Context) string {
	names := make([]string, len(ctx.stats.CircularCells))
	for i, key := range ctx.stats.CircularCells {
		ws, _ := ctx.wb.Sheet(key.Sheet)
		names[i] = fmt.Sprintf("%s!%s", ws.Name(), gridcalc.CellName(key.Row, key.Col))
	}
	return strings.Join(names, ",")
}

func (cmd cAssertStats) run(ctx *Context) error {
	if !ctx.calculated {
		return fmt.Errorf("must first calculate")
	}
	var diffs []string
	for _, stat := range sortedKeys(cmd.expected) {
		expected := strings.ReplaceAll(cmd.expected[stat], " ", "")
		if actual := stats[stat](ctx); expected != actual {
			diffs = append(diffs, fmt.Sprintf("%s: expected <%s>, was <%s>", stat, expected, actual))
		}
	}
	if len(diffs) != 0 {
		return errors.New(strings.Join(diffs, "\n"))
	}
	return nil
}

// expectedValue reads an expected value from its literal. A blank literal
// expects an empty cell.
func expectedValue(literal string) (gridcalc.Value, error) {
	cv, err := gridcalc.NewCellValue(literal)
	if err != nil {
		return nil, err
	}
	value, ok := cv.(gridcalc.Value)
	if !ok {
		return nil, fmt.Errorf("cannot expect formula %s", literal)
	}
	return value, nil
}

// sameValue compares values, numbers being equal up to a relative error of
// 1e-9.
func sameValue(expected, actual gridcalc.Value) bool {
	e, ok1 := expected.(*gridcalc.Number)
	a, ok2 := actual.(*gridcalc.Number)
	if !ok1 || !ok2 {
		return expected.Equal(actual)
	}
	x, y := e.Value(), a.Value()
	if x == y {
		return true
	}
	return math.Abs(x-y) <= 1e-9*math.Max(math.Abs(x), math.Abs(y))
}

func display(value gridcalc.Value) string {
	if _, ok := value.(*gridcalc.Empty); ok {
		return "empty"
	}
	if cv, ok := value.(gridcalc.CellValue); ok {
		return gridcalc.Literal(cv)
	}
	return value.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Context holds all that is necessary to run a scenario.
type Context struct {
	// CurrentDir is the current working directory when resolving relative path
	// names contained in the scenario.
	CurrentDir string

	// Options used by calculate steps, which default to
	// gridcalc.DefaultOptions. Iterative steps override the iteration
	// options.
	Options *gridcalc.CalculationOptions

	// Clock and Random, when provided, make NOW, TODAY and RAND
	// deterministic.
	Clock  gridcalc.Clock
	Random gridcalc.RandomSource

	// wb is the workbook built as the scenario is running. A fresh workbook
	// is created for every scenario run.
	wb         *gridcalc.Workbook
	stats      gridcalc.CalculationStats
	calculated bool
}

// Scenario represents a single scenario from a .feature.
type Scenario struct {
	// Name is the scenario's name.
	Name string

	source   string
	steps    []*gherkin.Step
	commands []command
}

// Run runs the scenario using the provided context.
func (s Scenario) Run(ctx Context) error {
	ctx.wb = gridcalc.NewWorkbook()
	ctx.stats = gridcalc.CalculationStats{}
	ctx.calculated = false
	for i, cmd := range s.commands {
		if err := cmd.run(&ctx); err != nil {
			return niceErr(s.source, s.steps[i], err)
		}
	}
	return nil
}

func niceErr(source string, step *gherkin.Step, err error) error {
	return fmt.Errorf("%s:%d:%d: %s: %s",
		source, step.Location.Line, step.Location.Column,
		step.Text, err)
}

// ReadFeature reads a feature in gherkin syntax, and parses out all the
// scenarios contained herein.
func ReadFeature(reader io.Reader, source string) ([]Scenario, error) {
	doc, err := gherkin.ParseGherkinDocument(reader)
	if err != nil {
		return nil, err
	}

	scenarios, err := docToScenarios(doc, source)
	if err != nil {
		return nil, err
	}

	return scenarios, nil
}

// RunFeature runs a feature test.
func RunFeature(t *testing.T, filename string, opts ...Context) {
	file, err := os.Open(filename)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()

	scenarios, err := ReadFeature(bufio.NewReader(file), filename)
	if err != nil {
		t.Fatal(err)
	}

	// context
	var ctx Context
	switch len(opts) {
	case 0:
		ctx.CurrentDir = filepath.Dir(filename)
	case 1:
		ctx = opts[0]
	default:
		t.Fatalf("too many contexts provided")
	}

	// run scenarios
	for _, scenario := range scenarios {
		scenario := scenario
		t.Run(scenario.Name, func(t *testing.T) {
			err := scenario.Run(ctx)
			if err != nil {
				t.Error(err)
			}
		})
	}
}

func docToScenarios(doc *gherkin.GherkinDocument, source string) ([]Scenario, error) {
	if doc.Feature == nil {
		return nil, nil
	}
	var (
		bgSteps    []*gherkin.Step
		bgCommands []command
		scenarios  []Scenario
	)
	for _, child := range doc.Feature.Children {
		switch childValue := child.(type) {
		case *gherkin.Scenario:
			var commands []command
			for _, step := range childValue.Steps {
				cmd, err := stepToCommand(step)
				if err != nil {
					return nil, niceErr(source, step, err)
				}
				commands = append(commands, cmd)
			}
			scenarios = append(scenarios, Scenario{
				Name:     childValue.Name,
				steps:    childValue.Steps,
				commands: commands,
			})
		case *gherkin.Background:
			for _, step := range childValue.Steps {
				cmd, err := stepToCommand(step)
				if err != nil {
					return nil, niceErr(source, step, err)
				}
				bgCommands = append(bgCommands, cmd)
			}
			bgSteps = childValue.Steps
		default:
			return nil, fmt.Errorf("%s: unknown child type %T", source, child)
		}
	}
	for i := range scenarios {
		scenarios[i].source = source
		scenarios[i].steps = append(append([]*gherkin.Step(nil), bgSteps...), scenarios[i].steps...)
		scenarios[i].commands = append(append([]command(nil), bgCommands...), scenarios[i].commands...)
	}
	return scenarios, nil
}

// tableToContents reads a two columns table, from cell or stat to literal.
func tableToContents(extra interface{}) (map[string]string, error) {
	table := mustGetDataTable(extra)
	if table == nil {
		return nil, fmt.Errorf("must provide a data table")
	}

	contents := make(map[string]string)
	for _, row := range table.Rows {
		if len(row.Cells) != 2 {
			return nil, fmt.Errorf("must provide a table with two columns on every row")
		}
		key := strings.TrimSpace(row.Cells[0].Value)
		if _, ok := contents[key]; ok {
			return nil, fmt.Errorf("duplicate row %s", key)
		}
		contents[key] = row.Cells[1].Value
	}

	return contents, nil
}

func mustGetDataTable(extra interface{}) *gherkin.DataTable {
	if table, ok := extra.(*gherkin.DataTable); !ok {
		return nil
	} else {
		return table
	}
}
