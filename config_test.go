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
	"io/ioutil"
	"os"
	"path/filepath"

	log "github.com/mgutz/logxi/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *Zuite) TestParseConfig_defaults() {
	config, err := ParseConfig("")
	require.NoError(s.T(), err)
	require.Equal(s.T(), DefaultConfig(), config)
	require.Equal(s.T(), "warn", config.Log.Level)
	require.Equal(s.T(), DefaultOptions(), config.Calculation)
}

func (s *Zuite) TestParseConfig() {
	config, err := ParseConfig(`
[calculation]
iterative = true
max_iterations = 50

[workbook]
date1904 = true

[database]
url = "postgres://gridcalc@localhost/gridcalc?sslmode=disable"

[log]
level = "DEBUG"
`)
	require.NoError(s.T(), err)

	expected := DefaultOptions()
	expected.Iterative = true
	expected.MaxIterations = 50
	require.Equal(s.T(), expected, config.Calculation)
	require.True(s.T(), config.Workbook.Date1904)
	require.Equal(s.T(), "postgres://gridcalc@localhost/gridcalc?sslmode=disable", config.Database.URL)

	level, err := config.Log.level()
	require.NoError(s.T(), err)
	require.Equal(s.T(), log.LevelDebug, level)

	require.Equal(s.T(), config.Calculation, config.NewEngine().Options())
}

func (s *Zuite) TestParseConfig_errors() {
	cases := map[string]string{
		"[calculation]\nmax_iterations = 0": "max_iterations must be at least 1, was 0",
		"[calculation]\nmax_change = -1.0":  "max_change cannot be negative, was -1",
		"[log]\nlevel = \"loud\"":           "unknown log level loud",
	}
	for text, expected := range cases {
		_, err := ParseConfig(text)
		assert.EqualError(s.T(), err, expected, text)
	}

	_, err := ParseConfig("[calculation\niterative = true")
	require.Error(s.T(), err)
	require.Contains(s.T(), err.Error(), "unable to decode config")

	_, err = ParseConfig("[calculation]\niterative = \"yes\"")
	require.Error(s.T(), err)
	require.Contains(s.T(), err.Error(), "unable to decode config")
}

func (s *Zuite) TestLoadConfig() {
	dir, err := ioutil.TempDir("", "gridcalc")
	require.NoError(s.T(), err)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "gridcalc.toml")
	require.NoError(s.T(), ioutil.WriteFile(path, []byte("[log]\nlevel = \"off\"\n"), 0644))

	config, err := LoadConfig(path)
	require.NoError(s.T(), err)
	require.Equal(s.T(), "off", config.Log.Level)
	require.Equal(s.T(), DefaultOptions(), config.Calculation)

	_, err = LoadConfig(filepath.Join(dir, "missing.toml"))
	require.Error(s.T(), err)
	require.Contains(s.T(), err.Error(), "unable to read config")
	require.True(s.T(), errors.Is(err, os.ErrNotExist))
}
