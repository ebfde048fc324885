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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testDelta struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func TestNewChunkFilter(t *testing.T) {
	keep, err := NewChunkFilter[testDelta](`chunk.type == "content"`)
	require.NoError(t, err)

	assert.True(t, keep(testDelta{Type: "content", Text: "hi"}))
	assert.False(t, keep(testDelta{Type: "ping"}))
}

func TestNewChunkFilter_Empty(t *testing.T) {
	keep, err := NewChunkFilter[testDelta]("")
	require.NoError(t, err)
	assert.Nil(t, keep)
}

func TestNewChunkFilter_Invalid(t *testing.T) {
	_, err := NewChunkFilter[testDelta](`chunk.type ==`)
	assert.Error(t, err)
}

func TestNewChunkFilter_KeepsUnevaluable(t *testing.T) {
	keep, err := NewChunkFilter[any](`chunk.type == "content"`)
	require.NoError(t, err)

	assert.True(t, keep(make(chan int)), "chunks without a JSON form are kept")
}
