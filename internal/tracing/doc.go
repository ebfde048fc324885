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

/*
Package tracing records llmtap channel events as OpenTelemetry spans.

A Subscriber binds to the tracing channel of each instrumentation config.
It starts a client span when a call begins, and it ends the span when the
call fails or when its result is final. For streamed results that means
when the application finishes consuming the stream, which the subscriber
observes by patching the stream with pkg/stream.

# Quick Start

	provider, err := tracing.NewOTelProviderWithConfig(ctx, tracing.DefaultConfig(), logger)
	if err != nil {
	    return err
	}
	defer provider.Shutdown(ctx)

	sub := tracing.NewSubscriber(provider.Tracer("llmtap"),
	    tracing.WithMetrics(provider.MetricsCollector()),
	)
	unbind, err := tracing.Bind(sub, cfg, tracing.Binding[Chunk]{
	    Reducer: joinChunks,
	})

# Span Attributes

Every span carries llmtap.component, llmtap.operation, llmtap.channel and
llmtap.call_id. With input capture enabled the first call argument is
recorded as llmtap.input, and the jq queries of the config's span
attributes are evaluated against it. With output capture the reduced
result is recorded as llmtap.output. Streamed calls add llmtap.stream and
llmtap.stream.chunks. Captured values pass through the redactor and are
truncated to Capture.MaxAttributeLength.

# Metrics

The provider exposes Prometheus metrics through MetricsHandler:

  - llmtap_calls_total{channel,status}
  - llmtap_call_duration_seconds{channel,status}
  - llmtap_stream_chunks_total{channel}
  - llmtap_unobserved_streams_total{channel}
  - llmtap_handler_failures_total{channel,handler}
  - llmtap_active_calls
*/
package tracing
