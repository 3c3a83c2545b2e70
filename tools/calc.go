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

package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/homelight/gridcalc"
)

func (a *app) calcCmd() *cobra.Command {
	var (
		asJson    bool
		iterative bool
	)
	cmd := &cobra.Command{
		Use:   "calc <file.csv>",
		Short: "Calculate the formulas of a CSV file",
		Long: `Load a CSV file into a sheet named after the file, calculate every formula,
and print the calculated values as CSV.

Every field is read as a cell literal: "=A1*2" is a formula, "12" a number,
"TRUE" a boolean and "#N/A" an error.

Examples:
  gridcalc calc budget.csv
  gridcalc calc budget.csv --json
  gridcalc calc loan.csv --iterative`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCalc(cmd, args[0], asJson, iterative)
		},
	}
	cmd.Flags().BoolVar(&asJson, "json", false, "Print the workbook as JSON, with cell literals and values")
	cmd.Flags().BoolVar(&iterative, "iterative", false, "Calculate circular references iteratively")
	return cmd
}

func (a *app) runCalc(cmd *cobra.Command, filename string, asJson, iterative bool) error {
	cmd.SilenceUsage = true
	config, err := a.config()
	if err != nil {
		return err
	}
	if iterative {
		config.Calculation.Iterative = true
	}

	wb, err := readWorkbook(filename)
	if err != nil {
		return err
	}
	wb.SetDate1904(config.Workbook.Date1904)

	stats := config.NewEngine().CalculateAll(wb)
	config.Log.Logger("gridcalc/cli").Info("calculated",
		"file", filename,
		"formulas", stats.FormulaCount,
		"iterations", stats.Iterations,
		"circular", stats.CircularReferences,
		"errors", stats.Errors,
		"converged", stats.Converged)

	out := cmd.OutOrStdout()
	if asJson {
		data, err := json.Marshal(wb)
		if err != nil {
			return err
		}
		var b bytes.Buffer
		if err := json.Indent(&b, data, "", "  "); err != nil {
			return err
		}
		b.WriteByte('\n')
		_, err = b.WriteTo(out)
		return err
	}
	ws, _ := wb.Sheet(0)
	return gridcalc.WriteCSV(out, ws)
}

func readWorkbook(filename string) (*gridcalc.Workbook, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	wb := gridcalc.NewWorkbook()
	wb.SetName(name)
	ws, err := wb.AddSheet(sheetName(name))
	if err != nil {
		return nil, err
	}
	if err := gridcalc.ReadCSV(bufio.NewReader(file), ws); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return wb, nil
}

// sheetName drops the characters a sheet name cannot hold.
func sheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		if r == '!' || r == '\'' {
			return -1
		}
		return r
	}, name)
	if strings.TrimSpace(name) == "" {
		return "Sheet1"
	}
	return name
}
