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
	"errors"
	"io/fs"

	pkgerrors "github.com/tombee/llmtap/pkg/errors"
)

// Error codes for structured JSON output
const (
	// Configuration errors (E001-E099)
	ErrorCodeValidation   = "E001" // Field failed validation
	ErrorCodeInvalidYAML  = "E002" // Config could not be parsed
	ErrorCodeFileNotFound = "E003" // Config file missing

	// Query errors (E100-E199)
	ErrorCodeNoMatch = "E101" // No config matched the query

	ErrorCodeInternal = "E401"
)

// ErrorCode classifies err for JSON output.
func ErrorCode(err error) string {
	var ve *pkgerrors.ValidationError
	var ves pkgerrors.ValidationErrors
	var ce *pkgerrors.ConfigError
	var exitErr *ExitError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, fs.ErrNotExist):
		return ErrorCodeFileNotFound
	case errors.As(err, &ves), errors.As(err, &ve):
		return ErrorCodeValidation
	case errors.As(err, &ce):
		return ErrorCodeInvalidYAML
	case errors.As(err, &exitErr) && exitErr.Code == ExitNoMatch:
		return ErrorCodeNoMatch
	default:
		return ErrorCodeInternal
	}
}
