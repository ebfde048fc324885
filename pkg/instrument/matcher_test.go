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

package instrument_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/llmtap/pkg/instrument"
)

func TestMatcher_Match(t *testing.T) {
	configs, err := instrument.Parse([]byte(openaiYAML))
	require.NoError(t, err)
	m, err := instrument.NewMatcher(configs)
	require.NoError(t, err)

	tests := []struct {
		name    string
		module  string
		version string
		path    string
		want    []string
	}{
		{"exact file", "openai", "4.20.1", "resources/chat/completions.js", []string{"chat"}},
		{"dot prefix", "openai", "4.20.1", "./resources/chat/completions.js", []string{"chat"}},
		{"windows separators", "openai", "4.0.0", `resources\chat\completions.js`, []string{"chat"}},
		{"doublestar glob", "openai", "4.1.0", "resources/v1/beta/embeddings.mjs", []string{"embeddings"}},
		{"version too new", "openai", "5.0.0", "resources/chat/completions.js", nil},
		{"other module", "anthropic", "4.20.1", "resources/chat/completions.js", nil},
		{"other file", "openai", "4.20.1", "resources/chat/index.js", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Match(tt.module, tt.version, tt.path)
			require.NoError(t, err)
			var ops []string
			for _, c := range got {
				ops = append(ops, c.Operation)
			}
			assert.Equal(t, tt.want, ops)
		})
	}
}

func TestMatcher_InvalidVersion(t *testing.T) {
	m, err := instrument.NewMatcher([]instrument.Config{validConfig()})
	require.NoError(t, err)
	_, err = m.Match("openai", "latest-and-greatest", "resources/chat/completions.js")
	assert.Error(t, err)
}

func TestNewMatcher_Invalid(t *testing.T) {
	c := validConfig()
	c.Function.Kind = ""
	_, err := instrument.NewMatcher([]instrument.Config{c})
	assert.Error(t, err)
}

func TestMatcher_Modules(t *testing.T) {
	a := validConfig()
	b := validConfig()
	b.Module.Name = "@anthropic-ai/sdk"
	c := validConfig()
	c.Module.FilePath = "lib/other.js"

	m, err := instrument.NewMatcher([]instrument.Config{a, b, c})
	require.NoError(t, err)
	assert.Equal(t, []string{"@anthropic-ai/sdk", "openai"}, m.Modules())
	assert.Len(t, m.Configs(), 3)
}
