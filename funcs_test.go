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
	"math"
	"sort"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	vNa   = NewErrorValue(ErrNa)
	vRef  = NewErrorValue(ErrRef)
	vVal  = NewErrorValue(ErrValue)
	vNum  = NewErrorValue(ErrNum)
	vDiv0 = NewErrorValue(ErrDiv0)
)

// funcsData is the sheet functions are evaluated against.
var funcsData = map[string]string{
	"A1": "1",
	"A2": "2",
	"A3": "3",
	"A4": "apple",
	"B1": "10",
	"B2": "20",
	"B3": "30",
	"B4": "TRUE",
	"C1": "red",
	"C2": "blue",
	"C3": "red",
	"D1": "#N/A",
}

func (s *Zuite) checkFunctions(cases map[string]Value) {
	wb := s.book(sheet("Data", funcsData))
	engine := NewEngine(DefaultOptions())
	for formula, expected := range cases {
		actual, err := engine.Evaluate(wb, formula, 0, 9, 9)
		if assert.NoError(s.T(), err, formula) {
			s.assertValue(expected, actual, formula)
		}
	}
}

func (s *Zuite) TestFunctions_math() {
	s.checkFunctions(map[string]Value{
		`=SUM(A1:A3)`:                           NewNumber(6),
		`=SUM(A1:A5)`:                           NewNumber(6),
		`=SUM(1,2,3)`:                           NewNumber(6),
		`=SUM(A1:A3,{4,5})`:                     NewNumber(15),
		`=SUM(A1:D1)`:                           vNa,
		`=AVERAGE(A1:A3)`:                       NewNumber(2),
		`=AVERAGE(A4:A5)`:                       vDiv0,
		`=MIN(A1:A3)`:                           one,
		`=MAX(A1:B3)`:                           NewNumber(30),
		`=MAX(A4)`:                              NewNumber(0),
		`=COUNT(A1:A5)`:                         three,
		`=ABS(-3)`:                              three,
		`=ROUND(2.5,0)`:                         three,
		`=ROUND(-2.5)`:                          NewNumber(-3),
		`=ROUND(1250,-2)`:                       NewNumber(1300),
		`=ROUND(3.14159,2)`:                     NewNumber(3.14),
		`=ROUNDUP(3.2,0)`:                       NewNumber(4),
		`=ROUNDUP(-3.2,0)`:                      NewNumber(-4),
		`=ROUNDDOWN(-3.7,0)`:                    NewNumber(-3),
		`=TRUNC(8.9)`:                           NewNumber(8),
		`=TRUNC(-8.9)`:                          NewNumber(-8),
		`=INT(-1.5)`:                            NewNumber(-2),
		`=MOD(10,3)`:                            one,
		`=MOD(-10,3)`:                           two,
		`=MOD(10,-3)`:                           NewNumber(-2),
		`=MOD(1,0)`:                             vDiv0,
		`=SIGN(-4)`:                             NewNumber(-1),
		`=SQRT(16)`:                             NewNumber(4),
		`=SQRT(-1)`:                             vNum,
		`=POWER(2,10)`:                          NewNumber(1024),
		`=LOG(100)`:                             two,
		`=LOG(8,2)`:                             three,
		`=LOG(8,1)`:                             vNum,
		`=LOG10(1000)`:                          three,
		`=LN(0)`:                                vNum,
		`=EXP(0)`:                               one,
		`=PI()`:                                 NewNumber(math.Pi),
		`=SIN(0)`:                               NewNumber(0),
		`=COS(0)`:                               one,
		`=ASIN(2)`:                              vNum,
		`=ATAN2(1,1)`:                           NewNumber(math.Pi / 4),
		`=ATAN2(0,0)`:                           vDiv0,
		`=DEGREES(PI())`:                        NewNumber(180),
		`=RADIANS(180)`:                         NewNumber(math.Pi),
		`=CEILING.MATH(4.3)`:                    NewNumber(5),
		`=CEILING.MATH(-4.3)`:                   NewNumber(-4),
		`=CEILING.MATH(7,5)`:                    NewNumber(10),
		`=FLOOR.MATH(4.7)`:                      NewNumber(4),
		`=FLOOR.MATH(-4.3)`:                     NewNumber(-5),
		`=FLOOR.MATH(-4.3,1,1)`:                 NewNumber(-5),
		`=CEILING.MATH(-4.3,1,1)`:               NewNumber(-4),
		`=CEILING.MATH(-4.3,2,TRUE)`:            NewNumber(-4),
		`=FLOOR.MATH(-4.3,2,TRUE)`:              NewNumber(-6),
		`=FLOOR.MATH(-4.3,1,#N/A)`:              NewErrorValue(ErrNa),
		`=CEILING.MATH(4.3,0)`:                  NewNumber(0),
		`=ODD(2)`:                               three,
		`=ODD(-2)`:                              NewNumber(-3),
		`=EVEN(3)`:                              NewNumber(4),
		`=EVEN(0)`:                              NewNumber(0),
		`=SUMIF(A1:A3,">1")`:                    NewNumber(5),
		`=SUMIF(C1:C3,"red",B1:B3)`:             NewNumber(40),
		`=SUMIFS(B1:B3,C1:C3,"red",A1:A3,">1")`: NewNumber(30),
		`=SUMIFS(B1:B3,C1:C2,"red")`:            vVal,
		`=SUMPRODUCT(A1:A3,B1:B3)`:              NewNumber(140),
		`=SUMPRODUCT(A1:A3,B1:B2)`:              vVal,
		`=ROUND(A4)`:                            vVal,
	})
}

func (s *Zuite) TestFunctions_stats() {
	s.checkFunctions(map[string]Value{
		`=COUNTA(A1:A5)`:                  NewNumber(4),
		`=COUNTBLANK(A1:A5)`:              one,
		`=COUNTIF(C1:C3,"red")`:           two,
		`=COUNTIF(C1:C3,"RED")`:           two,
		`=COUNTIF(A1:A3,">=2")`:           two,
		`=COUNTIF(A1:A5,"")`:              one,
		`=COUNTIF(A1:A4,"<>apple")`:       three,
		`=COUNTIFS(C1:C3,"red",A1:A3,3)`:  one,
		`=AVERAGEIF(C1:C3,"red",B1:B3)`:   NewNumber(20),
		`=AVERAGEIF(C1:C3,"green",B1:B3)`: vDiv0,
		`=AVERAGEIFS(B1:B3,A1:A3,"<3")`:   NewNumber(15),
		`=MEDIAN(1,3,2,4)`:                NewNumber(2.5),
		`=MEDIAN(5,1,3)`:                  three,
		`=MEDIAN(A4)`:                     vNum,
		`=LARGE(A1:A3,1)`:                 three,
		`=SMALL(A1:A3,2)`:                 two,
		`=SMALL(A1:A3,4)`:                 vNum,
		`=PRODUCT(A1:A3)`:                 NewNumber(6),
		`=PRODUCT(A4)`:                    NewNumber(0),
		`=VAR(1,2,3,4)`:                   NewNumber(5.0 / 3.0),
		`=VAR(1)`:                         vDiv0,
		`=STDEV(2,4,4,4,5,5,7,9)`:         NewNumber(math.Sqrt(32.0 / 7.0)),
	})
}

func (s *Zuite) TestFunctions_text() {
	s.checkFunctions(map[string]Value{
		`=LEN("hello")`:                  NewNumber(5),
		`=LEN("héllo")`:                  NewNumber(5),
		`=LENB(A4)`:                      NewNumber(5),
		`=LEFT("hello",2)`:               NewText("he"),
		`=LEFT("hi",10)`:                 NewText("hi"),
		`=LEFT("hi",-1)`:                 vVal,
		`=RIGHT("hello")`:                NewText("o"),
		`=MID("hello",2,3)`:              NewText("ell"),
		`=MID("hello",9,3)`:              NewText(""),
		`=MID("hello",0,3)`:              vVal,
		`=LOWER("ABC")`:                  NewText("abc"),
		`=UPPER(A4)`:                     NewText("APPLE"),
		`=TRIM("  a   b ")`:              NewText("a b"),
		`=PROPER("hello wORLD 2nd")`:     NewText("Hello World 2nd"),
		`=CONCAT("a",1,TRUE)`:            NewText("a1TRUE"),
		`=CONCATENATE(A1:A2,"!")`:        NewText("12!"),
		`=FIND("l","hello")`:             three,
		`=FIND("l","hello",4)`:           NewNumber(4),
		`=FIND("L","hello")`:             vVal,
		`=SEARCH("L","hello")`:           three,
		`=EXACT("a","A")`:                NewBool(false),
		`=REPT("ab",3)`:                  NewText("ababab"),
		`=REPT("ab",-1)`:                 vVal,
		`=SUBSTITUTE("a-b-c","-","+")`:   NewText("a+b+c"),
		`=SUBSTITUTE("a-b-c","-","+",2)`: NewText("a-b+c"),
		`=SUBSTITUTE("a-b-c","-","+",5)`: NewText("a-b-c"),
		`=CHAR(65)`:                      NewText("A"),
		`=CODE("A")`:                     NewNumber(65),
		`=CODE("")`:                      vVal,
		`=VALUE(" 12 ")`:                 NewNumber(12),
		`=VALUE("twelve")`:               vVal,
		`=T(1)`:                          NewText(""),
		`=T(A4)`:                         NewText("apple"),
		`=N(TRUE)`:                       one,
		`=N("1")`:                        NewNumber(0),
		`=CLEAN("a` + "\t" + `b")`:       NewText("ab"),
	})
}

func (s *Zuite) TestFunctions_logical() {
	s.checkFunctions(map[string]Value{
		`=IF(A1>0,"pos","neg")`:      NewText("pos"),
		`=IF(FALSE,1)`:               NewBool(false),
		`=IF(A5,1,2)`:                two,
		`=IF(A4,1,2)`:                vVal,
		`=IF(D1,1,2)`:                vNa,
		`=AND(TRUE,1)`:               NewBool(true),
		`=AND(A1:A4)`:                NewBool(true),
		`=OR(FALSE,0)`:               NewBool(false),
		`=XOR(TRUE,TRUE,TRUE)`:       NewBool(true),
		`=NOT(0)`:                    NewBool(true),
		`=IFERROR(1/0,"x")`:          NewText("x"),
		`=IFERROR(1,"x")`:            one,
		`=IFNA(NA(),0)`:              NewNumber(0),
		`=IFNA(1/0,0)`:               vDiv0,
		`=IFS(A1>5,"a",A1>0,"b")`:    NewText("b"),
		`=IFS(FALSE,1)`:              vNa,
		`=SWITCH(2,1,"one",2,"two")`: NewText("two"),
		`=SWITCH(9,1,"one","other")`: NewText("other"),
		`=SWITCH(9,1,"one",2,"two")`: vNa,
		`=SWITCH(TRUE,1,"one")`:      NewText("one"),
		`=TRUE()`:                    NewBool(true),
	})
}

func (s *Zuite) TestFunctions_info() {
	s.checkFunctions(map[string]Value{
		`=ISBLANK(A5)`:     NewBool(true),
		`=ISBLANK(A4)`:     NewBool(false),
		`=ISNUMBER(A1)`:    NewBool(true),
		`=ISNUMBER(A4)`:    NewBool(false),
		`=ISTEXT(A4)`:      NewBool(true),
		`=ISNONTEXT(A5)`:   NewBool(true),
		`=ISLOGICAL(B4)`:   NewBool(true),
		`=ISERR(NA())`:     NewBool(false),
		`=ISERR(1/0)`:      NewBool(true),
		`=ISERROR(D1)`:     NewBool(true),
		`=ISNA(D1)`:        NewBool(true),
		`=ISNUMBER(A1:A2)`: vVal,
		`=NA()`:            vNa,
	})
}

func (s *Zuite) TestFunctions_lookup() {
	s.checkFunctions(map[string]Value{
		`=INDEX(A1:B3,2,2)`:         NewNumber(20),
		`=INDEX(A1:A3,3)`:           three,
		`=INDEX(A1:B1,2)`:           NewNumber(10),
		`=INDEX(A1:A3,5)`:           vRef,
		`=INDEX(A1:A3,0)`:           vVal,
		`=MATCH("BLUE",C1:C3,0)`:    two,
		`=MATCH(2,A1:A3)`:           two,
		`=MATCH("2",A1:A3,0)`:       two,
		`=MATCH(9,A1:A3,0)`:         vNa,
		`=MATCH(2,A1:A3,1)`:         vNa,
		`=VLOOKUP(2,A1:B3,2,FALSE)`: NewNumber(20),
		`=VLOOKUP(5,A1:B3,2,FALSE)`: vNa,
		`=VLOOKUP(2,A1:B3,3,FALSE)`: vRef,
		`=HLOOKUP(2,{1,2;10,20},2)`: NewNumber(20),
		`=ROWS(A1:B3)`:              three,
		`=COLUMNS(A1:B3)`:           two,
		`=ROWS(5)`:                  one,
		`=CHOOSE(2,"a","b")`:        NewText("b"),
		`=CHOOSE(3,"a","b")`:        vVal,
		`=ROW(B7)`:                  NewNumber(7),
		`=COLUMN(C1)`:               three,
		`=ROW()`:                    NewNumber(10),
		`=COLUMN()`:                 NewNumber(10),
		`=ROW(A2:A3)`:               NewArray([][]Value{{two}, {three}}),
		`=COLUMN(A1:C1)`:            NewArray([][]Value{{one, two, three}}),
		`=SEQUENCE(2)`:              NewArray([][]Value{{one}, {two}}),
		`=SEQUENCE(2,2,0,5)`:        NewArray([][]Value{{NewNumber(0), NewNumber(5)}, {NewNumber(10), NewNumber(15)}}),
		`=SEQUENCE(0)`:              vVal,
		`=SEQUENCE(2000,2000)`:      vVal,
	})
}

func (s *Zuite) TestFunctions_dates() {
	s.checkFunctions(map[string]Value{
		`=DATE(2024,1,15)`: NewNumber(45306),
		`=DATE(2024,14,1)`: NewNumber(45689),
		`=DATE(2024,1,0)`:  NewNumber(45291),
		`=DATE(124,1,15)`:  NewNumber(45306),
		`=DATE(1900,1,1)`:  one,
		`=DATE(1900,3,1)`:  NewNumber(61),
		`=DATE(-1,1,1)`:    vNum,
		`=DATE(10000,1,1)`: vNum,
		`=YEAR(45306)`:     NewNumber(2024),
		`=MONTH(45306)`:    one,
		`=DAY(45306.75)`:   NewNumber(15),
		`=DAY(60)`:         NewNumber(29),
		`=MONTH(60)`:       two,
		`=DAY(61)`:         one,
		`=YEAR(-1)`:        vNum,
	})
}

func (s *Zuite) TestFunctions_date1904() {
	wb := s.book(sheet("Data", nil))
	wb.SetDate1904(true)
	engine := NewEngine(DefaultOptions())

	cases := map[string]Value{
		`=DATE(1904,1,1)`:   NewNumber(0),
		`=DATE(2024,1,15)`:  NewNumber(43844),
		`=YEAR(0)`:          NewNumber(1904),
		`=DAY(59)`:          NewNumber(29),
		`=DATE(1903,12,31)`: vNum,
	}
	for formula, expected := range cases {
		actual, err := engine.Evaluate(wb, formula, 0, 0, 0)
		if assert.NoError(s.T(), err, formula) {
			s.assertValue(expected, actual, formula)
		}
	}
}

func (s *Zuite) TestFunctions_volatile() {
	wb := s.book(sheet("Data", nil))
	engine := NewEngine(DefaultOptions())
	engine.SetClock(fixedClock(time.Date(2024, 1, 15, 18, 0, 0, 0, time.UTC)))
	engine.SetRandom(fixedRandom(0.5))

	cases := map[string]Value{
		`=TODAY()`:            NewNumber(45306),
		`=NOW()`:              NewNumber(45306.75),
		`=RAND()`:             NewNumber(0.5),
		`=RANDBETWEEN(1,10)`:  NewNumber(6),
		`=RANDBETWEEN(1.5,2)`: two,
		`=RANDBETWEEN(3,1)`:   vNum,
	}
	for formula, expected := range cases {
		actual, err := engine.Evaluate(wb, formula, 0, 0, 0)
		if assert.NoError(s.T(), err, formula) {
			s.assertValue(expected, actual, formula)
		}
	}
}

func (s *Zuite) TestFunctions_argumentCounts() {
	cases := map[string]string{
		`=ABS()`:         "argument-count error: ABS expects at least 1 argument, got 0",
		`=IF(1,2,3,4)`:   "argument-count error: IF expects at most 3 arguments, got 4",
		`=PI(1)`:         "argument-count error: PI expects at most 0 arguments, got 1",
		`=SUMIFS(A1,B1)`: "argument-count error: SUMIFS expects at least 3 arguments, got 2",
	}
	for formula, expected := range cases {
		_, err := EvaluateFormula(formula)
		if assert.Error(s.T(), err, formula) {
			assert.Equal(s.T(), expected, err.Error(), formula)
		}
	}
}

func (s *Zuite) TestFunctions_unknownSuggests() {
	cases := map[string]string{
		`=SUMM(1)`:      "unknown-function error: unknown function SUMM, did you mean SUM?",
		`=VLOKUP(1)`:    "unknown-function error: unknown function VLOKUP, did you mean VLOOKUP?",
		`=QWERTYUIOP()`: "unknown-function error: unknown function QWERTYUIOP",
	}
	for formula, expected := range cases {
		_, err := EvaluateFormula(formula)
		if assert.Error(s.T(), err, formula) {
			assert.Equal(s.T(), expected, err.Error(), formula)
		}
	}
}

func (s *Zuite) TestFunctionNames() {
	names := FunctionNames()
	require.True(s.T(), sort.StringsAreSorted(names))
	require.True(s.T(), len(names) >= 100)
	require.Contains(s.T(), names, "SUM")
	require.Contains(s.T(), names, "CEILING.MATH")

	// a copy is returned
	names[0] = "MUTATED"
	require.NotEqual(s.T(), "MUTATED", FunctionNames()[0])

	for _, name := range []string{"NOW", "TODAY", "RAND", "RANDBETWEEN", "rand"} {
		assert.True(s.T(), IsVolatileFunction(name), name)
	}
	for _, name := range []string{"SUM", "IF", "UNKNOWN"} {
		assert.False(s.T(), IsVolatileFunction(name), name)
	}
}
