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

package tracing

import (
	"github.com/expr-lang/expr"

	"github.com/tombee/llmtap/pkg/instrument"
)

// ChunkFilter decides whether a streamed chunk is kept for the reduced
// result.
type ChunkFilter[T any] func(chunk T) bool

// NewChunkFilter compiles an expr predicate over `chunk`. An empty source
// yields a nil filter, which keeps every chunk. Chunks the predicate
// cannot evaluate are kept.
func NewChunkFilter[T any](src string) (ChunkFilter[T], error) {
	if src == "" {
		return nil, nil
	}
	program, err := instrument.CompilePredicate(src)
	if err != nil {
		return nil, err
	}
	return func(chunk T) bool {
		v, err := jsonValue(chunk)
		if err != nil {
			return true
		}
		out, err := expr.Run(program, map[string]any{instrument.ChunkVar: v})
		if err != nil {
			return true
		}
		keep, ok := out.(bool)
		return !ok || keep
	}, nil
}
