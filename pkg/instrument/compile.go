// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package instrument

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/itchyny/gojq"
)

// ChunkVar is the variable a collect predicate uses for the chunk under test.
const ChunkVar = "chunk"

// CompileQuery compiles a span attribute query.
func CompileQuery(q string) (*gojq.Code, error) {
	query, err := gojq.Parse(q)
	if err != nil {
		return nil, fmt.Errorf("invalid jq query: %w", err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("jq compilation failed: %w", err)
	}
	return code, nil
}

// CompilePredicate compiles a collect predicate. Chunks are evaluated in
// their JSON form, so fields are addressed by their JSON names.
func CompilePredicate(src string) (*vm.Program, error) {
	env := map[string]any{ChunkVar: map[string]any{}}
	return expr.Compile(src,
		expr.Env(env),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
}
