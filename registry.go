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
	"sort"
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// unlimited marks a function accepting any number of trailing arguments.
const unlimited = -1

type function struct {
	name     string
	min, max int
	impl     func(ctx *Context, args []Value) (Value, error)
	volatile bool

	// positional functions also see the unevaluated arguments, so that
	// e.g. ROW(B7) can report where a reference points.
	positional func(ctx *Context, exprs []Expression, args []Value) (Value, error)
}

func (fn *function) checkArgCount(count int) error {
	if count < fn.min {
		return newError(KindArgumentCount, "%s expects at least %d argument%s, got %d", fn.name, fn.min, plural(fn.min), count)
	}
	if fn.max != unlimited && count > fn.max {
		return newError(KindArgumentCount, "%s expects at most %d argument%s, got %d", fn.name, fn.max, plural(fn.max), count)
	}
	return nil
}

func (fn *function) call(ctx *Context, exprs []Expression, args []Value) (Value, error) {
	if fn.positional != nil {
		return fn.positional(ctx, exprs, args)
	}
	return fn.impl(ctx, args)
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

var (
	registryOnce sync.Once
	registry     map[string]*function
	names        []string
)

// registry is built on first use and is read-only afterwards.
func functions() map[string]*function {
	registryOnce.Do(func() {
		registry = make(map[string]*function)
		for _, group := range [][]*function{
			mathFunctions,
			logicalFunctions,
			textFunctions,
			infoFunctions,
			dateFunctions,
			lookupFunctions,
			statFunctions,
		} {
			for _, fn := range group {
				if _, ok := registry[fn.name]; ok {
					panic(fmt.Sprintf("function %s registered twice", fn.name))
				}
				registry[fn.name] = fn
				names = append(names, fn.name)
			}
		}
		sort.Strings(names)
	})
	return registry
}

func lookupFunction(name string) (*function, bool) {
	fn, ok := functions()[strings.ToUpper(name)]
	return fn, ok
}

// FunctionNames lists the names of all built-in functions, sorted.
func FunctionNames() []string {
	functions()
	return append([]string(nil), names...)
}

// IsVolatileFunction reports whether the named function must be recomputed on
// every calculation.
func IsVolatileFunction(name string) bool {
	fn, ok := lookupFunction(name)
	return ok && fn.volatile
}

func errUnknownFunction(name string) error {
	if suggestion, ok := suggestFunction(name); ok {
		return newError(KindUnknownFunction, "unknown function %s, did you mean %s?", name, suggestion)
	}
	return newError(KindUnknownFunction, "unknown function %s", name)
}

// suggestFunction finds the closest known function name, first as a fuzzy
// subsequence match, then by edit distance for plain typos.
func suggestFunction(name string) (string, bool) {
	candidates := FunctionNames()
	ranks := fuzzy.RankFindFold(name, candidates)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target, true
	}

	best, bestDistance := "", 3
	for _, candidate := range candidates {
		if d := fuzzy.LevenshteinDistance(strings.ToUpper(name), candidate); d < bestDistance {
			best, bestDistance = candidate, d
		}
	}
	return best, best != ""
}
