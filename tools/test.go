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
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/homelight/gridcalc"
	"github.com/homelight/gridcalc/calctesting"
)

func (a *app) testCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test <file.feature>...",
		Short: "Run calculation features",
		Long: `Run every scenario of the feature files, and report failing scenarios.
Exits with status 1 when any scenario fails.

Examples:
  gridcalc test features/*.feature`,
		Args: cobra.MinimumNArgs(1),
		RunE: a.runTest,
	}
}

func (a *app) runTest(cmd *cobra.Command, filenames []string) error {
	cmd.SilenceUsage = true
	config, err := a.config()
	if err != nil {
		return err
	}

	var encounteredFailure bool
	for i, filename := range filenames {
		if 0 < i {
			fmt.Fprintln(cmd.OutOrStdout())
		}

		if ok := runFeature(cmd.OutOrStdout(), filename, config.Calculation); !ok {
			encounteredFailure = true
		}
	}

	if encounteredFailure {
		return &ExitError{Code: 1}
	}
	return nil
}

func runFeature(out io.Writer, filename string, options gridcalc.CalculationOptions) bool {
	// open doc
	file, err := os.Open(filename)
	if err != nil {
		fmt.Fprintf(out, "%s\n", filename)
		fmt.Fprintf(out, "FAIL\t%s\n", err)
		return false
	}
	defer file.Close()

	// read feature
	scenarios, err := calctesting.ReadFeature(bufio.NewReader(file), filename)
	if err != nil {
		fmt.Fprintf(out, "%s\n", filename)
		fmt.Fprintf(out, "FAIL\t%s\n", err)
		return false
	}

	// run scenarios
	var (
		currentDir = filepath.Dir(filename)
		ok         = true
	)
	for _, s := range scenarios {
		err := s.Run(calctesting.Context{
			CurrentDir: currentDir,
			Options:    &options,
		})
		if err != nil {
			fmt.Fprintf(out, "%s\n", s.Name)
			fmt.Fprintf(out, "FAIL\t%s\n", err)
			ok = false
		}
	}
	if ok {
		fmt.Fprintf(out, "ok\t%s\t%d scenarios\n", filename, len(scenarios))
	}
	return ok
}
