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
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxTextLength is the longest text a cell can hold.
const maxTextLength = 32767

// The byte variants (LENB, LEFTB, ...) count characters, as for a single
// byte character set.
var textFunctions = []*function{
	{name: "LEN", min: 1, max: 1, impl: fnLen},
	{name: "LENB", min: 1, max: 1, impl: fnLen},
	{name: "LEFT", min: 1, max: 2, impl: fnLeft},
	{name: "LEFTB", min: 1, max: 2, impl: fnLeft},
	{name: "RIGHT", min: 1, max: 2, impl: fnRight},
	{name: "RIGHTB", min: 1, max: 2, impl: fnRight},
	{name: "MID", min: 3, max: 3, impl: fnMid},
	{name: "MIDB", min: 3, max: 3, impl: fnMid},
	{name: "LOWER", min: 1, max: 1, impl: textMap(strings.ToLower)},
	{name: "UPPER", min: 1, max: 1, impl: textMap(strings.ToUpper)},
	{name: "TRIM", min: 1, max: 1, impl: textMap(func(s string) string { return strings.Join(strings.Fields(s), " ") })},
	{name: "PROPER", min: 1, max: 1, impl: textMap(proper)},
	{name: "CLEAN", min: 1, max: 1, impl: textMap(clean)},
	{name: "CONCAT", min: 1, max: unlimited, impl: fnConcat},
	{name: "CONCATENATE", min: 1, max: unlimited, impl: fnConcat},
	{name: "FIND", min: 2, max: 3, impl: finder(false)},
	{name: "FINDB", min: 2, max: 3, impl: finder(false)},
	{name: "SEARCH", min: 2, max: 3, impl: finder(true)},
	{name: "SEARCHB", min: 2, max: 3, impl: finder(true)},
	{name: "EXACT", min: 2, max: 2, impl: fnExact},
	{name: "REPT", min: 2, max: 2, impl: fnRept},
	{name: "SUBSTITUTE", min: 3, max: 4, impl: fnSubstitute},
	{name: "CHAR", min: 1, max: 1, impl: fnChar},
	{name: "CODE", min: 1, max: 1, impl: fnCode},
	{name: "VALUE", min: 1, max: 1, impl: fnValue},
	{name: "T", min: 1, max: 1, impl: fnT},
	{name: "N", min: 1, max: 1, impl: fnN},
}

func textMap(fn func(string) string) func(*Context, []Value) (Value, error) {
	return func(ctx *Context, args []Value) (Value, error) {
		s, e := textArg(args[0])
		if e != nil {
			return e, nil
		}
		return &Text{fn(s)}, nil
	}
}

func proper(s string) string {
	var b strings.Builder
	upper := true
	for _, c := range s {
		switch {
		case !unicode.IsLetter(c) && !unicode.IsDigit(c):
			b.WriteRune(c)
			upper = true
		case upper:
			b.WriteRune(unicode.ToUpper(c))
			upper = false
		default:
			b.WriteRune(unicode.ToLower(c))
		}
	}
	return b.String()
}

func clean(s string) string {
	return strings.Map(func(c rune) rune {
		if c < 32 {
			return -1
		}
		return c
	}, s)
}

func fnLen(ctx *Context, args []Value) (Value, error) {
	s, e := textArg(args[0])
	if e != nil {
		return e, nil
	}
	return &Number{float64(utf8.RuneCountInString(s))}, nil
}

// sideArgs reads the text and character count of LEFT and RIGHT.
func sideArgs(args []Value) ([]rune, int, *ErrorValue) {
	s, e := textArg(args[0])
	if e != nil {
		return nil, 0, e
	}
	n, e := optIntArg(args, 1, 1)
	if e != nil {
		return nil, 0, e
	}
	if n < 0 {
		return nil, 0, errValue
	}
	runes := []rune(s)
	if n > len(runes) {
		n = len(runes)
	}
	return runes, n, nil
}

func fnLeft(ctx *Context, args []Value) (Value, error) {
	runes, n, e := sideArgs(args)
	if e != nil {
		return e, nil
	}
	return &Text{string(runes[:n])}, nil
}

func fnRight(ctx *Context, args []Value) (Value, error) {
	runes, n, e := sideArgs(args)
	if e != nil {
		return e, nil
	}
	return &Text{string(runes[len(runes)-n:])}, nil
}

func fnMid(ctx *Context, args []Value) (Value, error) {
	s, e := textArg(args[0])
	if e != nil {
		return e, nil
	}
	start, e := intArg(args[1])
	if e != nil {
		return e, nil
	}
	count, e := intArg(args[2])
	if e != nil {
		return e, nil
	}
	if start < 1 || count < 0 {
		return errValue, nil
	}

	runes := []rune(s)
	if start > len(runes) {
		return &Text{""}, nil
	}
	end := start - 1 + count
	if end > len(runes) {
		end = len(runes)
	}
	return &Text{string(runes[start-1 : end])}, nil
}

func fnConcat(ctx *Context, args []Value) (Value, error) {
	var b strings.Builder
	for _, arg := range flatten(args) {
		if e, ok := arg.(*ErrorValue); ok {
			return e, nil
		}
		b.WriteString(arg.String())
	}
	return &Text{b.String()}, nil
}

// finder implements FIND, and SEARCH which ignores case. Positions are 1-based
// character offsets.
func finder(ignoreCase bool) func(*Context, []Value) (Value, error) {
	return func(ctx *Context, args []Value) (Value, error) {
		needle, e := textArg(args[0])
		if e != nil {
			return e, nil
		}
		haystack, e := textArg(args[1])
		if e != nil {
			return e, nil
		}
		start, e := optIntArg(args, 2, 1)
		if e != nil {
			return e, nil
		}

		runes := []rune(haystack)
		if start < 1 || start > len(runes) {
			return errValue, nil
		}
		within := string(runes[start-1:])
		if ignoreCase {
			needle, within = strings.ToLower(needle), strings.ToLower(within)
		}
		idx := strings.Index(within, needle)
		if idx < 0 {
			return errValue, nil
		}
		return &Number{float64(start + utf8.RuneCountInString(within[:idx]))}, nil
	}
}

func fnExact(ctx *Context, args []Value) (Value, error) {
	a, e := textArg(args[0])
	if e != nil {
		return e, nil
	}
	b, e := textArg(args[1])
	if e != nil {
		return e, nil
	}
	return NewBool(a == b), nil
}

func fnRept(ctx *Context, args []Value) (Value, error) {
	s, e := textArg(args[0])
	if e != nil {
		return e, nil
	}
	times, e := intArg(args[1])
	if e != nil {
		return e, nil
	}
	if times < 0 || len(s)*times > maxTextLength {
		return errValue, nil
	}
	return &Text{strings.Repeat(s, times)}, nil
}

// fnSubstitute replaces every occurrence, or only the given 1-based
// instance.
func fnSubstitute(ctx *Context, args []Value) (Value, error) {
	var parts [3]string
	for i := range parts {
		s, e := textArg(args[i])
		if e != nil {
			return e, nil
		}
		parts[i] = s
	}
	text, old, replacement := parts[0], parts[1], parts[2]

	instance := 0
	if len(args) > 3 {
		if _, blank := args[3].(*Empty); !blank {
			n, e := intArg(args[3])
			if e != nil {
				return e, nil
			}
			if n < 1 {
				return errValue, nil
			}
			instance = n
		}
	}

	if old == "" {
		return &Text{text}, nil
	}
	if instance == 0 {
		return &Text{strings.Replace(text, old, replacement, -1)}, nil
	}

	offset := 0
	for seen := 1; ; seen++ {
		idx := strings.Index(text[offset:], old)
		if idx < 0 {
			return &Text{text}, nil
		}
		if seen == instance {
			at := offset + idx
			return &Text{text[:at] + replacement + text[at+len(old):]}, nil
		}
		offset += idx + len(old)
	}
}

func fnChar(ctx *Context, args []Value) (Value, error) {
	if _, blank := args[0].(*Empty); blank {
		return errValue, nil
	}
	n, e := intArg(args[0])
	if e != nil {
		return e, nil
	}
	if n < 1 || !utf8.ValidRune(rune(n)) {
		return errValue, nil
	}
	return &Text{string(rune(n))}, nil
}

func fnCode(ctx *Context, args []Value) (Value, error) {
	s, e := textArg(args[0])
	if e != nil {
		return e, nil
	}
	if s == "" {
		return errValue, nil
	}
	c, _ := utf8.DecodeRuneInString(s)
	return &Number{float64(c)}, nil
}

func fnValue(ctx *Context, args []Value) (Value, error) {
	if n, ok := args[0].(*Number); ok {
		return n, nil
	}
	s, e := textArg(args[0])
	if e != nil {
		return e, nil
	}
	n, ok := parseNumber(strings.TrimSpace(s))
	if !ok {
		return errValue, nil
	}
	return &Number{n}, nil
}

func fnT(ctx *Context, args []Value) (Value, error) {
	switch v := args[0].(type) {
	case *Text, *ErrorValue:
		return v, nil
	default:
		return &Text{""}, nil
	}
}

func fnN(ctx *Context, args []Value) (Value, error) {
	switch v := args[0].(type) {
	case *Number, *ErrorValue:
		return v, nil
	case *Bool:
		n, _ := asNumber(v)
		return &Number{n}, nil
	default:
		return &Number{0}, nil
	}
}
