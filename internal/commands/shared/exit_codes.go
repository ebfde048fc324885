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
	"fmt"
	"io"
	"os"

	pkgerrors "github.com/tombee/llmtap/pkg/errors"
)

// Exit codes for llmtap commands
const (
	ExitSuccess       = 0
	ExitFailed        = 1
	ExitInvalidConfig = 2
	ExitNoMatch       = 3
)

// ExitError is an error that carries an exit code
type ExitError struct {
	Code    int
	Message string
	Cause   error
}

func (e *ExitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Cause
}

// NewFailedError creates an error for general command failures
func NewFailedError(msg string, cause error) *ExitError {
	return &ExitError{Code: ExitFailed, Message: msg, Cause: cause}
}

// NewInvalidConfigError creates an error for instrumentation or tracing
// config that does not load or validate.
func NewInvalidConfigError(msg string, cause error) *ExitError {
	return &ExitError{Code: ExitInvalidConfig, Message: msg, Cause: cause}
}

// NewNoMatchError creates an error for a match query with no results
func NewNoMatchError(msg string) *ExitError {
	return &ExitError{Code: ExitNoMatch, Message: msg}
}

// ExitCode returns the process exit code for err.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailed
}

// PrintError writes err and any validation suggestions to w.
func PrintError(w io.Writer, err error) {
	if err == nil {
		return
	}
	if msg := err.Error(); msg != "" {
		fmt.Fprintln(w, RenderError("Error:"), msg)
	}
	for _, s := range Suggestions(err) {
		fmt.Fprintf(w, "\nSuggestion: %s\n", s)
	}
}

// HandleExitError prints err and exits with the matching code
func HandleExitError(err error) {
	if err == nil {
		return
	}
	PrintError(os.Stderr, err)
	os.Exit(ExitCode(err))
}

// Suggestions collects the non-empty suggestions carried by validation
// errors anywhere in err's chain.
func Suggestions(err error) []string {
	var out []string
	var errs pkgerrors.ValidationErrors
	if errors.As(err, &errs) {
		for _, e := range errs {
			if e != nil && e.Suggestion != "" {
				out = append(out, e.Suggestion)
			}
		}
		return out
	}
	var ve *pkgerrors.ValidationError
	if errors.As(err, &ve) && ve.Suggestion != "" {
		out = append(out, ve.Suggestion)
	}
	return out
}
