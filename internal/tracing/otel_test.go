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
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/tombee/llmtap/pkg/observability"
)

func newTestProvider(t *testing.T) (*OTelProvider, *tracetest.InMemoryExporter) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	provider, err := NewOTelProvider("test-service", "1.0.0", sdktrace.WithSyncer(exporter))
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return provider, exporter
}

func TestOTelProvider_BasicSpan(t *testing.T) {
	provider, exporter := newTestProvider(t)

	_, span := provider.Tracer("test").Start(context.Background(), "anthropic.messages",
		observability.WithSpanKind(observability.SpanKindClient),
		observability.WithAttributes(map[string]any{
			"llm.model":      "claude",
			"llm.max_tokens": 256,
		}),
	)
	span.AddEvent("first_token", map[string]any{"offset_ms": int64(120)})
	span.SetStatus(observability.StatusCodeOK, "")
	span.End()

	require.NoError(t, provider.ForceFlush(context.Background()))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	got := spans[0]
	assert.Equal(t, "anthropic.messages", got.Name)
	assert.Equal(t, codes.Ok, got.Status.Code)

	attrs := spanAttrs(got)
	assert.Equal(t, "claude", attrs["llm.model"])
	assert.Equal(t, int64(256), attrs["llm.max_tokens"])

	require.Len(t, got.Events, 1)
	assert.Equal(t, "first_token", got.Events[0].Name)

	var service string
	for _, kv := range got.Resource.Attributes() {
		if kv.Key == "service.name" {
			service = kv.Value.AsString()
		}
	}
	assert.Equal(t, "test-service", service)
}

func TestOTelProvider_ParentChild(t *testing.T) {
	provider, exporter := newTestProvider(t)
	tracer := provider.Tracer("test")

	ctx, parent := tracer.Start(context.Background(), "agent.run")
	_, child := tracer.Start(ctx, "openai.chat")
	child.End()
	parent.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, spans[1].SpanContext.SpanID(), spans[0].Parent.SpanID())

	tc := parent.SpanContext()
	assert.True(t, tc.Valid())
	assert.Equal(t, spans[1].SpanContext.TraceID().String(), tc.TraceID)
}

func TestOTelProvider_RecordError(t *testing.T) {
	provider, exporter := newTestProvider(t)

	_, span := provider.Tracer("test").Start(context.Background(), "openai.chat")
	span.RecordError(errors.New("quota exceeded"))
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "quota exceeded", spans[0].Status.Description)
}

func TestOTelProvider_ShutdownTwice(t *testing.T) {
	provider, err := NewOTelProvider("svc", "dev")
	require.NoError(t, err)

	assert.NoError(t, provider.Shutdown(context.Background()))
	assert.NoError(t, provider.Shutdown(context.Background()))
}

func TestOTelProvider_MetricsHandler(t *testing.T) {
	provider, _ := newTestProvider(t)
	mc := provider.MetricsCollector()
	require.NotNil(t, mc)

	mc.RecordCallStart()
	mc.RecordCallComplete(context.Background(), "llmtap:openai:chat", StatusOK, 0)
	mc.RecordChunks(context.Background(), "llmtap:openai:chat", 5)

	rec := httptest.NewRecorder()
	provider.MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "llmtap_calls_total")
	assert.Contains(t, body, "llmtap_stream_chunks_total")
	assert.Contains(t, body, "llmtap_call_duration_seconds")
	assert.Contains(t, body, `channel="llmtap:openai:chat"`)
}

func TestNewOTelProviderWithConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Exporters = []ExporterConfig{
		{Type: "none"},
		{Type: "zipkin"},
	}
	exporter := tracetest.NewInMemoryExporter()

	provider, err := NewOTelProviderWithConfig(context.Background(), cfg, nil, sdktrace.WithSyncer(exporter))
	require.NoError(t, err)
	defer provider.Shutdown(context.Background())

	_, span := provider.Tracer("test").Start(context.Background(), "op")
	span.End()
	assert.Len(t, exporter.GetSpans(), 1)
}
