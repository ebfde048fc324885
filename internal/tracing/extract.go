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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/itchyny/gojq"

	"github.com/tombee/llmtap/pkg/instrument"
)

const (
	// ExtractTimeout bounds one Extract call.
	ExtractTimeout = 250 * time.Millisecond

	// MaxExtractInput is the largest argument, in JSON bytes, Extract
	// will query.
	MaxExtractInput = 1 << 20
)

// Extractor evaluates the jq attribute queries of a span config against a
// call argument.
type Extractor struct {
	keys  []string
	codes map[string]*gojq.Code
}

// NewExtractor compiles attrs, a map of attribute key to jq query.
func NewExtractor(attrs map[string]string) (*Extractor, error) {
	e := &Extractor{codes: make(map[string]*gojq.Code, len(attrs))}
	for _, key := range slices.Sorted(maps.Keys(attrs)) {
		code, err := instrument.CompileQuery(attrs[key])
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", key, err)
		}
		e.keys = append(e.keys, key)
		e.codes[key] = code
	}
	return e, nil
}

// Len returns the number of queries.
func (e *Extractor) Len() int {
	if e == nil {
		return 0
	}
	return len(e.keys)
}

// Extract runs every query against v in its JSON form and returns the
// first result of each. Queries yielding null are skipped; non-scalar
// results are encoded as JSON. Failed queries are reported together and
// do not stop the others.
func (e *Extractor) Extract(ctx context.Context, v any) (map[string]any, error) {
	if e.Len() == 0 {
		return nil, nil
	}
	input, err := jsonValue(v)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, ExtractTimeout)
	defer cancel()

	out := make(map[string]any, len(e.keys))
	var errs []error
	for _, key := range e.keys {
		result, ok := e.codes[key].RunWithContext(ctx, input).Next()
		if !ok || result == nil {
			continue
		}
		if err, isErr := result.(error); isErr {
			errs = append(errs, fmt.Errorf("attribute %s: %w", key, err))
			continue
		}
		out[key] = scalar(result)
	}
	return out, errors.Join(errs...)
}

// jsonValue converts v to the generic form encoding/json decodes into.
func jsonValue(v any) (any, error) {
	switch v.(type) {
	case nil, string, bool, float64:
		return v, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("cannot encode %T as JSON: %w", v, err)
	}
	if len(data) > MaxExtractInput {
		return nil, fmt.Errorf("argument size (%d bytes) exceeds maximum (%d bytes)", len(data), MaxExtractInput)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// scalar keeps attribute-friendly values and encodes the rest.
func scalar(v any) any {
	switch v := v.(type) {
	case string, bool, int, int64, float64:
		return v
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	}
}
