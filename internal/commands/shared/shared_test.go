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

package shared

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/tombee/llmtap/pkg/errors"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain", errors.New("boom"), ExitFailed},
		{"invalid config", NewInvalidConfigError("bad", nil), ExitInvalidConfig},
		{"wrapped", fmt.Errorf("outer: %w", NewNoMatchError("none")), ExitNoMatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestExitError_Message(t *testing.T) {
	err := NewFailedError("load failed", errors.New("disk"))
	assert.Equal(t, "load failed: disk", err.Error())
	assert.Equal(t, "disk", errors.Unwrap(err).Error())
	assert.Equal(t, "none", NewNoMatchError("none").Error())
}

func TestPrintError_Suggestions(t *testing.T) {
	verr := pkgerrors.ValidationErrors{
		{Field: "component", Message: "is required", Suggestion: "set component"},
		{Field: "module.name", Message: "is required"},
	}
	var buf bytes.Buffer
	PrintError(&buf, NewInvalidConfigError("invalid", verr))

	out := buf.String()
	assert.Contains(t, out, "Error:")
	assert.Contains(t, out, "component: is required")
	assert.Contains(t, out, "Suggestion: set component")
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("Suggestion:")))
}

func TestSuggestions_Single(t *testing.T) {
	err := fmt.Errorf("wrap: %w", &pkgerrors.ValidationError{Field: "f", Message: "m", Suggestion: "s"})
	assert.Equal(t, []string{"s"}, Suggestions(err))
	assert.Empty(t, Suggestions(errors.New("x")))
}

func TestEmitJSONError(t *testing.T) {
	var buf bytes.Buffer
	errs := ToJSONErrors("a.yaml", pkgerrors.ValidationErrors{
		{Field: "operation", Message: "is required", Suggestion: "name the operation"},
	})
	require.NoError(t, EmitJSONError(&buf, "validate", errs))

	var got struct {
		Version string      `json:"@version"`
		Command string      `json:"command"`
		Success bool        `json:"success"`
		Errors  []JSONError `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "1.0", got.Version)
	assert.Equal(t, "validate", got.Command)
	assert.False(t, got.Success)
	require.Len(t, got.Errors, 1)
	assert.Equal(t, JSONError{
		Code:       ErrorCodeValidation,
		Message:    "is required",
		File:       "a.yaml",
		Field:      "operation",
		Suggestion: "name the operation",
	}, got.Errors[0])
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "", ErrorCode(nil))
	assert.Equal(t, ErrorCodeFileNotFound, ErrorCode(fmt.Errorf("open: %w", fs.ErrNotExist)))
	assert.Equal(t, ErrorCodeInvalidYAML, ErrorCode(&pkgerrors.ConfigError{Key: "x.yaml", Reason: "cannot parse YAML"}))
	assert.Equal(t, ErrorCodeValidation, ErrorCode(&pkgerrors.ValidationError{Field: "f"}))
	assert.Equal(t, ErrorCodeNoMatch, ErrorCode(NewNoMatchError("none")))
	assert.Equal(t, ErrorCodeInternal, ErrorCode(errors.New("boom")))
}

func TestToJSONErrors_Plain(t *testing.T) {
	got := ToJSONErrors("b.yaml", errors.New("boom"))
	require.Len(t, got, 1)
	assert.Equal(t, ErrorCodeInternal, got[0].Code)
	assert.Equal(t, "b.yaml", got[0].File)
	assert.Nil(t, ToJSONErrors("b.yaml", nil))
}

func TestIsTerminal_NonFile(t *testing.T) {
	var buf bytes.Buffer
	assert.False(t, IsTerminal(&buf))
	ClearScreen(&buf)
	assert.Empty(t, buf.String())
}
