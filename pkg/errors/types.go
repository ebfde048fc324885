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

// Package errors defines the typed errors llmtap reports and small helpers
// around the standard library errors package.
package errors

import (
	"fmt"
	"strings"
)

// ValidationError reports an invalid instrumentation config or argument.
type ValidationError struct {
	// Field identifies which input field failed validation
	Field string

	// Message is the human-readable error description
	Message string

	// Suggestion provides actionable guidance for fixing the error
	Suggestion string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// ConfigError represents a configuration file that could not be used.
type ConfigError struct {
	// Key is the configuration key or file that has the problem
	Key string

	// Reason explains what's wrong with the configuration
	Reason string

	// Cause is the underlying error (e.g., file read error, parse error)
	Cause error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	msg := "config error"
	if e.Key != "" {
		msg += " at " + e.Key
	}
	msg += ": " + e.Reason
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// TransformError reports a module file the code transformer could not
// rewrite. The file is passed through unchanged.
type TransformError struct {
	// Module is the name of the module being instrumented
	Module string

	// File is the path of the file within the module
	File string

	// Cause is the transformer's error
	Cause error
}

// Error implements the error interface.
func (e *TransformError) Error() string {
	return fmt.Sprintf("transform %s (%s): %v", e.File, e.Module, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *TransformError) Unwrap() error {
	return e.Cause
}

// HandlerError wraps a panic recovered from a caller-supplied callback.
type HandlerError struct {
	// Handler names the callback, e.g. "onComplete" or "asyncEnd"
	Handler string

	// Value is the recovered panic value
	Value any
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	return fmt.Sprintf("%s handler panicked: %v", e.Handler, e.Value)
}

// Unwrap exposes the panic value when it is itself an error.
func (e *HandlerError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// ValidationErrors collects several validation failures.
type ValidationErrors []*ValidationError

// Error implements the error interface.
func (es ValidationErrors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// ErrOrNil returns es as an error, or nil when it is empty.
func (es ValidationErrors) ErrOrNil() error {
	if len(es) == 0 {
		return nil
	}
	return es
}
