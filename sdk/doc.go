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

// Package sdk wires llmtap together for applications: it loads
// instrumentation configs, sets up the OpenTelemetry tracer and meter
// providers, and records spans for calls published on the configured
// diagnostic channels.
//
// # Quick Start
//
//	s, err := sdk.New(
//		sdk.WithInstrumentationFiles("configs/openai.yaml"),
//		sdk.WithTracingConfigFile("tracing.yaml"),
//	)
//	if err != nil {
//		return err
//	}
//	defer s.Close(context.Background())
//
//	unbind, err := sdk.Bind(s, "llmtap:openai:chat", sdk.Binding[Chunk]{
//		Reducer: joinChunks,
//	})
//
// Patched client code publishes on the same registry:
//
//	tc := s.Channel("llmtap:openai:chat")
//	res, err := channel.TraceAsync(tc, channel.NewCall(ctx, req), create)
//
// # Metrics
//
// MetricsHandler serves the call, latency and stream chunk metrics in the
// Prometheus text format.
package sdk
