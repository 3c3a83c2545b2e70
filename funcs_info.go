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

var infoFunctions = []*function{
	{name: "ISBLANK", min: 1, max: 1, impl: is(func(v Value) bool { _, ok := v.(*Empty); return ok })},
	{name: "ISNUMBER", min: 1, max: 1, impl: is(func(v Value) bool { _, ok := v.(*Number); return ok })},
	{name: "ISTEXT", min: 1, max: 1, impl: is(func(v Value) bool { _, ok := v.(*Text); return ok })},
	{name: "ISNONTEXT", min: 1, max: 1, impl: is(func(v Value) bool { _, ok := v.(*Text); return !ok })},
	{name: "ISLOGICAL", min: 1, max: 1, impl: is(func(v Value) bool { _, ok := v.(*Bool); return ok })},
	{name: "ISERROR", min: 1, max: 1, impl: is(func(v Value) bool { _, ok := v.(*ErrorValue); return ok })},
	{name: "ISERR", min: 1, max: 1, impl: is(func(v Value) bool { e, ok := v.(*ErrorValue); return ok && e.err != ErrNa })},
	{name: "ISNA", min: 1, max: 1, impl: is(func(v Value) bool { e, ok := v.(*ErrorValue); return ok && e.err == ErrNa })},
	{name: "NA", min: 0, max: 0, impl: constant(errNa)},
}

// is wraps a type predicate. Arrays are #VALUE!.
func is(pred func(Value) bool) func(*Context, []Value) (Value, error) {
	return func(ctx *Context, args []Value) (Value, error) {
		if _, ok := args[0].(*Array); ok {
			return errValue, nil
		}
		return NewBool(pred(args[0])), nil
	}
}
