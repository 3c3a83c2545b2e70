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
	"strings"
)

// batchSize bounds the cells written by a single statement, keeping the
// number of bind parameters well under what Postgres accepts.
const batchSize = 1000

// tupleInClause creates `(c1, c2) in (($1, $2), ($3, $4), ...)` for `num`
// tuples of the columns.
func tupleInClause(columns []string, num int) string {
	tuples := make([]string, num)
	vars := make([]string, len(columns))
	for i := 0; i < num; i++ {
		for j := range columns {
			vars[j] = fmt.Sprintf("$%d", i*len(columns)+j+1)
		}
		tuples[i] = fmt.Sprintf("(%s)", strings.Join(vars, ", "))
	}
	return fmt.Sprintf("(%s) in (%s)", strings.Join(columns, ", "), strings.Join(tuples, ", "))
}

func ughconvert(tuples [][3]int) []interface{} {
	convert := make([]interface{}, 0, 3*len(tuples))
	for _, tuple := range tuples {
		for _, v := range tuple {
			convert = append(convert, v)
		}
	}
	return convert
}

// batches splits keys in slices of at most batchSize keys.
func batches(keys []CellKey) [][]CellKey {
	var result [][]CellKey
	for len(keys) > batchSize {
		result = append(result, keys[:batchSize])
		keys = keys[batchSize:]
	}
	if len(keys) != 0 {
		result = append(result, keys)
	}
	return result
}
