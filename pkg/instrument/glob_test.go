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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGlobsIntersect(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"resources/chat/completions.js", "resources/chat/completions.js", true},
		{"resources/chat/completions.js", "resources/**/*.js", true},
		{"resources/**/*.js", "**/completions.js", true},
		{"**", "anything/at/all.js", true},
		{"resources/*/completions.js", "resources/chat/*.js", true},
		{"resources/chat/completions.{js,mjs}", "resources/chat/completions.mjs", true},
		{"src/*.js", "src/*.ts", false},
		{"resources/chat/completions.js", "resources/chat/completions.mjs", false},
		{"resources/**/*.js", "lib/**/*.js", false},
		{"resources/*.js", "resources/chat/completions.js", false},
		{"resources/**/*.{mjs,cjs}", "resources/chat/completions.js", false},
	}
	for _, tt := range tests {
		t.Run(tt.a+" "+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, globsIntersect(tt.a, tt.b))
			assert.Equal(t, tt.want, globsIntersect(tt.b, tt.a))
		})
	}
}

func TestExpandBraces(t *testing.T) {
	assert.Equal(t, []string{"a.js"}, expandBraces("a.js"))
	assert.Equal(t, []string{"a.js", "a.mjs"}, expandBraces("a.{js,mjs}"))
	assert.Equal(t, []string{"x/a.c", "x/b1.c", "x/b2.c"}, expandBraces("x/{a,b{1,2}}.c"))
}
