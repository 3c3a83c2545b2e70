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
	"io/ioutil"
	"strings"

	"github.com/BurntSushi/toml"
	log "github.com/mgutz/logxi/v1"
)

// Config is read from a TOML file such as
//
//	[calculation]
//	iterative = true
//	max_iterations = 50
//
//	[workbook]
//	date1904 = false
//
//	[database]
//	url = "postgres://gridcalc@localhost/gridcalc?sslmode=disable"
//
//	[log]
//	level = "warn"
type Config struct {
	Calculation CalculationOptions `toml:"calculation"`
	Workbook    WorkbookConfig     `toml:"workbook"`
	Database    DatabaseConfig     `toml:"database"`
	Log         LogConfig          `toml:"log"`
}

type WorkbookConfig struct {
	Date1904 bool `toml:"date1904"`
}

type DatabaseConfig struct {
	URL string `toml:"url"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Calculation: DefaultOptions(),
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// LoadConfig reads a configuration file. Keys missing from the file keep
// their default.
func LoadConfig(path string) (*Config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read config: %w", err)
	}
	return ParseConfig(string(data))
}

// ParseConfig reads a configuration from TOML text.
func ParseConfig(text string) (*Config, error) {
	config := DefaultConfig()
	if err := toml.Unmarshal([]byte(text), config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := config.Calculation.validate(); err != nil {
		return nil, err
	}
	if _, err := config.Log.level(); err != nil {
		return nil, err
	}
	return config, nil
}

var logLevels = map[string]int{
	"trace": log.LevelTrace,
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
	"off":   log.LevelOff,
}

func (c LogConfig) level() (int, error) {
	level, ok := logLevels[strings.ToLower(c.Level)]
	if !ok {
		return 0, fmt.Errorf("unknown log level %s", c.Level)
	}
	return level, nil
}

// Logger creates a logger at the configured level.
func (c LogConfig) Logger(name string) log.Logger {
	logger := log.New(name)
	if level, err := c.level(); err == nil {
		logger.SetLevel(level)
	}
	return logger
}

// NewEngine creates an engine for the configured options, logging at the
// configured level.
func (c *Config) NewEngine() *Engine {
	e := NewEngine(c.Calculation)
	e.SetLogger(c.Log.Logger("gridcalc"))
	return e
}
