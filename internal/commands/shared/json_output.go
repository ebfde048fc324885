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
	"encoding/json"
	"errors"
	"io"

	pkgerrors "github.com/tombee/llmtap/pkg/errors"
)

// JSONResponse is the base envelope for all JSON output
type JSONResponse struct {
	Version string `json:"@version"`
	Command string `json:"command"`
	Success bool   `json:"success"`
}

// JSONError represents a structured error with code, message and suggestion
type JSONError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	File       string `json:"file,omitempty"`
	Field      string `json:"field,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// NewResponse returns a successful envelope for command.
func NewResponse(command string) JSONResponse {
	return JSONResponse{Version: "1.0", Command: command, Success: true}
}

// EmitJSON writes response to w as indented JSON
func EmitJSON(w io.Writer, response any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}

// EmitJSONError writes a failed envelope carrying errs.
func EmitJSONError(w io.Writer, command string, errs []JSONError) error {
	type errorResponse struct {
		JSONResponse
		Errors []JSONError `json:"errors"`
	}

	resp := errorResponse{
		JSONResponse: JSONResponse{Version: "1.0", Command: command, Success: false},
		Errors:       errs,
	}
	return EmitJSON(w, resp)
}

// ToJSONErrors flattens err into structured errors for file. Validation
// errors keep their field and suggestion.
func ToJSONErrors(file string, err error) []JSONError {
	if err == nil {
		return nil
	}
	var errs pkgerrors.ValidationErrors
	if errors.As(err, &errs) {
		out := make([]JSONError, 0, len(errs))
		for _, e := range errs {
			out = append(out, JSONError{
				Code:       ErrorCodeValidation,
				Message:    e.Message,
				File:       file,
				Field:      e.Field,
				Suggestion: e.Suggestion,
			})
		}
		return out
	}
	var ve *pkgerrors.ValidationError
	if errors.As(err, &ve) {
		return []JSONError{{
			Code:       ErrorCodeValidation,
			Message:    ve.Message,
			File:       file,
			Field:      ve.Field,
			Suggestion: ve.Suggestion,
		}}
	}
	return []JSONError{{Code: ErrorCode(err), Message: err.Error(), File: file}}
}
