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

package sdk

import "github.com/tombee/llmtap/internal/tracing"

// Tracing configuration types, usable with WithTracingConfig.
type (
	TracingConfig    = tracing.Config
	SamplingConfig   = tracing.SamplingConfig
	ExporterConfig   = tracing.ExporterConfig
	TLSConfig        = tracing.TLSConfig
	CaptureConfig    = tracing.CaptureConfig
	RedactionConfig  = tracing.RedactionConfig
	RedactionPattern = tracing.RedactionPattern
)

// DefaultTracingConfig returns the tracing configuration New starts from.
func DefaultTracingConfig() TracingConfig {
	return tracing.DefaultConfig()
}
