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
	"github.com/spf13/cobra"

	"github.com/homelight/gridcalc"
)

// ExitError signals a non-zero exit code without printing an error message.
type ExitError struct{ Code int }

func (e *ExitError) Error() string { return "" }

// app holds the flags shared by all commands.
type app struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:           "gridcalc",
		Short:         "Spreadsheet formula evaluation and calculation",
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "TOML configuration file")

	rootCmd.AddCommand(
		a.evalCmd(),
		a.calcCmd(),
		a.testCmd(),
	)
	return rootCmd
}

func (a *app) config() (*gridcalc.Config, error) {
	if a.configPath == "" {
		return gridcalc.DefaultConfig(), nil
	}
	return gridcalc.LoadConfig(a.configPath)
}
