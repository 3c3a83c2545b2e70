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
	"time"
)

var dateFunctions = []*function{
	{name: "DATE", min: 3, max: 3, impl: fnDate},
	{name: "YEAR", min: 1, max: 1, impl: datePart(func(y int, m time.Month, d int) int { return y })},
	{name: "MONTH", min: 1, max: 1, impl: datePart(func(y int, m time.Month, d int) int { return int(m) })},
	{name: "DAY", min: 1, max: 1, impl: datePart(func(y int, m time.Month, d int) int { return d })},
	{name: "NOW", min: 0, max: 0, impl: fnNow, volatile: true},
	{name: "TODAY", min: 0, max: 0, impl: fnToday, volatile: true},
}

const (
	secondsPerDay = 86400

	// maxSerial is 9999-12-31 in the 1900 date system.
	maxSerial = 2958465
)

var (
	epoch1900 = time.Date(1899, 12, 31, 0, 0, 0, 0, time.UTC)
	epoch1904 = time.Date(1904, 1, 1, 0, 0, 0, 0, time.UTC)

	// the 1900 date system counts a February 29 1900 that never was, so
	// serials from March 1 1900 onward are one day ahead
	phantomLeapDay = time.Date(1900, 3, 1, 0, 0, 0, 0, time.UTC)
)

func daysBetween(from, to time.Time) int64 {
	return (to.Unix() - from.Unix()) / secondsPerDay
}

// dateSerial converts a calendar date, normalized by time.Date, to a serial
// day number.
func dateSerial(year, month, day int, date1904 bool) int64 {
	if date1904 {
		return daysBetween(epoch1904, time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC))
	}
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	serial := daysBetween(epoch1900, first)
	if !first.Before(phantomLeapDay) {
		serial++
	}
	return serial + int64(day) - 1
}

// serialDate converts a serial day number back to a calendar date. Serial 60
// of the 1900 date system is February 29 1900, which time.Time cannot
// represent, so it is returned as year, month and day parts.
func serialDate(serial int64, date1904 bool) (int, time.Month, int) {
	if date1904 {
		t := epoch1904.AddDate(0, 0, int(serial))
		return t.Year(), t.Month(), t.Day()
	}
	if serial == 60 {
		return 1900, time.February, 29
	}
	if serial > 60 {
		serial--
	}
	t := epoch1900.AddDate(0, 0, int(serial))
	return t.Year(), t.Month(), t.Day()
}

func fnDate(ctx *Context, args []Value) (Value, error) {
	var parts [3]int
	for i := range parts {
		n, e := intArg(args[i])
		if e != nil {
			return e, nil
		}
		parts[i] = n
	}
	year, month, day := parts[0], parts[1], parts[2]

	if 0 <= year && year < 1900 {
		year += 1900
	}
	if year < 0 || year > 9999 {
		return errNum, nil
	}

	// normalize the month so that the 1900 month start is computed on a
	// real calendar month
	months := year*12 + month - 1
	year, month = floorDiv(months, 12), months-floorDiv(months, 12)*12+1

	serial := dateSerial(year, month, day, ctx.date1904())
	if serial < 0 || serial > maxSerial {
		return errNum, nil
	}
	return &Number{float64(serial)}, nil
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func datePart(part func(year int, month time.Month, day int) int) func(*Context, []Value) (Value, error) {
	return func(ctx *Context, args []Value) (Value, error) {
		n, e := numberArg(args[0])
		if e != nil {
			return e, nil
		}
		serial := int64(math.Floor(n))
		if serial < 0 || serial > maxSerial {
			return errNum, nil
		}
		return &Number{float64(part(serialDate(serial, ctx.date1904())))}, nil
	}
}

// todaySerial is the serial of the clock's current local date.
func todaySerial(ctx *Context) (int64, time.Time) {
	now := ctx.clock.Now()
	return dateSerial(now.Year(), int(now.Month()), now.Day(), ctx.date1904()), now
}

func fnNow(ctx *Context, args []Value) (Value, error) {
	serial, now := todaySerial(ctx)
	seconds := now.Hour()*3600 + now.Minute()*60 + now.Second()
	return &Number{float64(serial) + float64(seconds)/secondsPerDay}, nil
}

func fnToday(ctx *Context, args []Value) (Value, error) {
	serial, _ := todaySerial(ctx)
	return &Number{float64(serial)}, nil
}
