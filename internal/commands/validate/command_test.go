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

package validate

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/llmtap/internal/commands/shared"
)

const chatYAML = `
instrumentations:
  - component: openai
    operation: chat
    module:
      name: openai
      versionRange: ">=4.0.0 <5.0.0"
      filePath: resources/chat/completions.js
    function:
      className: Completions
      methodName: create
      kind: async
`

const missingOperationYAML = `
instrumentations:
  - component: openai
    module:
      name: openai
      versionRange: ^4
      filePath: index.js
    function:
      methodName: create
      kind: async
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestNewCommand(t *testing.T) {
	cmd := NewCommand()
	assert.Equal(t, "validate <files...>", cmd.Use)
	assert.NotNil(t, cmd.Flags().Lookup("watch"))
}

func TestValidate_Valid(t *testing.T) {
	path := writeFile(t, t.TempDir(), "chat.yaml", chatYAML)

	out, err := execute(t, path)
	require.NoError(t, err)
	assert.Contains(t, out, path+" (1 configs)")
}

func TestValidate_Invalid(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.yaml", missingOperationYAML)

	out, err := execute(t, path)
	require.Error(t, err)
	assert.Equal(t, shared.ExitInvalidConfig, shared.ExitCode(err))
	assert.Contains(t, out, "instrumentations[0].operation")
}

func TestValidate_MissingFile(t *testing.T) {
	_, err := execute(t, filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, shared.ExitInvalidConfig, shared.ExitCode(err))
}

func TestValidate_RequiresArgs(t *testing.T) {
	_, err := execute(t)
	require.Error(t, err)
}

func TestCheck_CrossFileOverlap(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.yaml", chatYAML)
	b := writeFile(t, dir, "b.yaml", chatYAML)

	resp, err := Check([]string{a, b})
	require.Error(t, err)
	assert.False(t, resp.Success)
	require.Len(t, resp.Files, 2)
	assert.True(t, resp.Files[0].Valid)
	assert.True(t, resp.Files[1].Valid)
	require.NotEmpty(t, resp.Errors)
	assert.Contains(t, resp.Errors[0].Message, "overlaps")
	assert.Equal(t, shared.ErrorCodeValidation, resp.Errors[0].Code)
}

func TestRunValidate_JSON(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "chat.yaml", chatYAML)
	bad := writeFile(t, dir, "bad.yaml", missingOperationYAML)

	var out bytes.Buffer
	err := runValidate(&out, []string{good, bad}, true)
	require.Error(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, "validate", resp.Command)
	assert.False(t, resp.Success)
	require.Len(t, resp.Files, 2)

	assert.True(t, resp.Files[0].Valid)
	assert.Equal(t, []string{"llmtap:openai:chat"}, resp.Files[0].Channels)

	assert.False(t, resp.Files[1].Valid)
	require.NotEmpty(t, resp.Files[1].Errors)
	assert.Equal(t, bad, resp.Files[1].Errors[0].File)
	assert.Empty(t, resp.Errors)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestValidate_Watch(t *testing.T) {
	path := writeFile(t, t.TempDir(), "chat.yaml", chatYAML)

	cmd := NewCommand()
	out := &syncBuffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"--watch", path})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	require.Eventually(t, func() bool {
		return bytes.Contains([]byte(out.String()), []byte("(1 configs)"))
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte(missingOperationYAML), 0o600))

	require.Eventually(t, func() bool {
		return bytes.Contains([]byte(out.String()), []byte("instrumentations[0].operation"))
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("validate --watch did not stop after cancel")
	}
}
