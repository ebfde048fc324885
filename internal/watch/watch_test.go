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

package watch

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type changes struct {
	mu    sync.Mutex
	calls [][]string
}

func (c *changes) record(paths []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, paths)
}

func (c *changes) all() [][]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]string(nil), c.calls...)
}

func TestWatcher_ReportsChanges(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "openai.yaml")
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(watched, []byte("instrumentations: []\n"), 0o600))

	var got changes
	w, err := New(Config{Paths: []string{watched}, OnChange: got.record, Debounce: 20 * time.Millisecond})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(other, []byte("ignored"), 0o600))
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(watched, []byte("instrumentations: []\n# edit\n"), 0o600))
	}

	abs, err := filepath.Abs(watched)
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		calls := got.all()
		return len(calls) > 0 && assert.ObjectsAreEqual([]string{abs}, calls[0])
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_NoCallbackAfterClose(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(watched, nil, 0o600))

	var got changes
	w, err := New(Config{Paths: []string{watched}, OnChange: got.record, Debounce: time.Hour})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(watched, []byte("x"), 0o600))
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	assert.Empty(t, got.all())
}

func TestNew_Errors(t *testing.T) {
	_, err := New(Config{Paths: []string{"x.yaml"}})
	assert.ErrorContains(t, err, "OnChange is required")

	_, err = New(Config{OnChange: func([]string) {}})
	assert.ErrorContains(t, err, "at least one path")

	_, err = New(Config{
		Paths:    []string{filepath.Join(t.TempDir(), "missing", "cfg.yaml")},
		OnChange: func([]string) {},
	})
	assert.ErrorContains(t, err, "failed to watch directory")
}
