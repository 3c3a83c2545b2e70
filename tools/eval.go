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
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/homelight/gridcalc"
)

func (a *app) evalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "eval <formula>",
		Short: "Evaluate a single formula",
		Long: `Evaluate a single formula against an empty workbook, and print its value.
Arrays print one row per line, with tab separated columns.

Examples:
  gridcalc eval "=1+2*3"
  gridcalc eval "=SEQUENCE(2,3)"`,
		Args: cobra.ExactArgs(1),
		RunE: a.runEval,
	}
}

func (a *app) runEval(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	config, err := a.config()
	if err != nil {
		return err
	}

	wb := gridcalc.NewWorkbook()
	wb.SetDate1904(config.Workbook.Date1904)
	if _, err := wb.AddSheet("Sheet1"); err != nil {
		return err
	}

	value, err := config.NewEngine().Evaluate(wb, args[0], 0, 0, 0)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	array, ok := value.(*gridcalc.Array)
	if !ok {
		fmt.Fprintln(out, value)
		return nil
	}
	for _, row := range array.Rows() {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = v.String()
		}
		fmt.Fprintln(out, strings.Join(cells, "\t"))
	}
	return nil
}
