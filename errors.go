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
	"strings"
)

// CellError is a spreadsheet-visible error value, such as #DIV/0!. Cell
// errors propagate through evaluation like any other value.
type CellError int

const (
	ErrNull CellError = iota
	ErrDiv0
	ErrValue
	ErrRef
	ErrName
	ErrNum
	ErrNa
	ErrGettingData
	ErrSpill
	ErrCalc
)

var cellErrorNames = map[CellError]string{
	ErrNull:        "#NULL!",
	ErrDiv0:        "#DIV/0!",
	ErrValue:       "#VALUE!",
	ErrRef:         "#REF!",
	ErrName:        "#NAME?",
	ErrNum:         "#NUM!",
	ErrNa:          "#N/A",
	ErrGettingData: "#GETTING_DATA",
	ErrSpill:       "#SPILL!",
	ErrCalc:        "#CALC!",
}

// cellErrorCodes are the BIFF error codes, which also order errors when
// compared.
var cellErrorCodes = map[CellError]int{
	ErrNull:        0x00,
	ErrDiv0:        0x07,
	ErrValue:       0x0F,
	ErrRef:         0x17,
	ErrName:        0x1D,
	ErrNum:         0x24,
	ErrNa:          0x2A,
	ErrGettingData: 0x2B,
	ErrSpill:       0x2C,
	ErrCalc:        0x2D,
}

func (e CellError) String() string {
	if name, ok := cellErrorNames[e]; ok {
		return name
	}
	panic(fmt.Sprintf("unexpected cell error %d", int(e)))
}

// Code returns the numeric code of the error.
func (e CellError) Code() int {
	return cellErrorCodes[e]
}

// LookupCellError finds the cell error matching its display text, e.g.
// `#REF!`. The lookup is case-insensitive.
func LookupCellError(text string) (CellError, bool) {
	upper := strings.ToUpper(text)
	for e, name := range cellErrorNames {
		if name == upper {
			return e, true
		}
	}
	return 0, false
}

// ErrorKind classifies engine failures.
type ErrorKind string

const (
	KindParse             ErrorKind = "parse"
	KindEvaluation        ErrorKind = "evaluation"
	KindArgument          ErrorKind = "argument"
	KindUnknownFunction   ErrorKind = "unknown-function"
	KindArgumentCount     ErrorKind = "argument-count"
	KindCircularReference ErrorKind = "circular-reference"
	KindInvalidReference  ErrorKind = "invalid-reference"
)

// FormulaError is an engine failure. It aborts the formula being evaluated,
// unlike a CellError which is an ordinary value.
type FormulaError struct {
	Kind ErrorKind
	Msg  string
}

func (e *FormulaError) Error() string {
	return fmt.Sprintf("%s error: %s", e.Kind, e.Msg)
}

// IsKind reports whether err is, or wraps, a FormulaError of that kind.
func IsKind(err error, kind ErrorKind) bool {
	var ferr *FormulaError
	if errors.As(err, &ferr) {
		return ferr.Kind == kind
	}
	return false
}

func newError(kind ErrorKind, format string, args ...interface{}) *FormulaError {
	return &FormulaError{
		Kind: kind,
		Msg:  fmt.Sprintf(format, args...),
	}
}

func errParse(format string, args ...interface{}) error {
	return newError(KindParse, format, args...)
}

func errEvaluation(format string, args ...interface{}) error {
	return newError(KindEvaluation, format, args...)
}

func errInvalidReference(format string, args ...interface{}) error {
	return newError(KindInvalidReference, format, args...)
}
