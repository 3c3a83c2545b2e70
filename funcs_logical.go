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

var logicalFunctions = []*function{
	{name: "IF", min: 2, max: 3, impl: fnIf},
	{name: "AND", min: 1, max: unlimited, impl: fnAnd},
	{name: "OR", min: 1, max: unlimited, impl: fnOr},
	{name: "XOR", min: 1, max: unlimited, impl: fnXor},
	{name: "NOT", min: 1, max: 1, impl: fnNot},
	{name: "IFERROR", min: 2, max: 2, impl: fnIfError},
	{name: "IFNA", min: 2, max: 2, impl: fnIfNa},
	{name: "TRUE", min: 0, max: 0, impl: constant(vTrue)},
	{name: "FALSE", min: 0, max: 0, impl: constant(vFalse)},
	{name: "IFS", min: 2, max: unlimited, impl: fnIfs},
	{name: "SWITCH", min: 3, max: unlimited, impl: fnSwitch},
}

// condition reads a test argument. Blanks are false, and text must spell
// TRUE or FALSE.
func condition(arg Value) (bool, *ErrorValue) {
	switch v := arg.(type) {
	case *ErrorValue:
		return false, v
	case *Empty:
		return false, nil
	}
	b, ok := asBool(arg)
	if !ok {
		return false, errValue
	}
	return b, nil
}

func fnIf(ctx *Context, args []Value) (Value, error) {
	test, e := condition(args[0])
	if e != nil {
		return e, nil
	}
	if test {
		return args[1], nil
	}
	if len(args) > 2 {
		return args[2], nil
	}
	return vFalse, nil
}

// logicals counts the true and false booleans and numbers in the arguments.
// Text and blanks are ignored.
func logicals(args []Value) (int, int, *ErrorValue) {
	var trues, falses int
	for _, arg := range flatten(args) {
		switch v := arg.(type) {
		case *Bool:
			if v.value {
				trues++
			} else {
				falses++
			}
		case *Number:
			if v.value != 0 {
				trues++
			} else {
				falses++
			}
		case *ErrorValue:
			return 0, 0, v
		}
	}
	return trues, falses, nil
}

func fnAnd(ctx *Context, args []Value) (Value, error) {
	_, falses, e := logicals(args)
	if e != nil {
		return e, nil
	}
	return NewBool(falses == 0), nil
}

func fnOr(ctx *Context, args []Value) (Value, error) {
	trues, _, e := logicals(args)
	if e != nil {
		return e, nil
	}
	return NewBool(trues > 0), nil
}

func fnXor(ctx *Context, args []Value) (Value, error) {
	trues, _, e := logicals(args)
	if e != nil {
		return e, nil
	}
	return NewBool(trues%2 == 1), nil
}

func fnNot(ctx *Context, args []Value) (Value, error) {
	test, e := condition(args[0])
	if e != nil {
		return e, nil
	}
	return NewBool(!test), nil
}

func fnIfError(ctx *Context, args []Value) (Value, error) {
	if _, ok := args[0].(*ErrorValue); ok {
		return args[1], nil
	}
	return args[0], nil
}

func fnIfNa(ctx *Context, args []Value) (Value, error) {
	if e, ok := args[0].(*ErrorValue); ok && e.err == ErrNa {
		return args[1], nil
	}
	return args[0], nil
}

// fnIfs returns the value paired with the first true condition, or #N/A.
func fnIfs(ctx *Context, args []Value) (Value, error) {
	if len(args)%2 != 0 {
		return errValue, nil
	}
	for i := 0; i < len(args); i += 2 {
		test, e := condition(args[i])
		if e != nil {
			return e, nil
		}
		if test {
			return args[i+1], nil
		}
	}
	return errNa, nil
}

// fnSwitch compares its first argument against (value, result) pairs. A
// trailing unpaired argument is the default.
func fnSwitch(ctx *Context, args []Value) (Value, error) {
	subject := args[0]
	if e := firstError(subject); e != nil {
		return e, nil
	}
	rest := args[1:]
	for i := 0; i+1 < len(rest); i += 2 {
		if e := firstError(rest[i]); e != nil {
			return e, nil
		}
		if switchMatch(subject, rest[i]) {
			return rest[i+1], nil
		}
	}
	if len(rest)%2 == 1 {
		return rest[len(rest)-1], nil
	}
	return errNa, nil
}

// switchMatch extends lookup equality with booleans matching 0 and 1, and
// blanks matching 0 and the empty text.
func switchMatch(a, b Value) bool {
	if valuesEqual(a, b) {
		return true
	}
	switch a.(type) {
	case *Bool, *Empty:
		a, b = b, a
	}
	switch bv := b.(type) {
	case *Bool:
		if n, ok := a.(*Number); ok {
			m, _ := asNumber(bv)
			return n.value == m
		}
	case *Empty:
		switch av := a.(type) {
		case *Number:
			return av.value == 0
		case *Text:
			return av.value == ""
		}
	}
	return false
}
