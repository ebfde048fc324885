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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestMetricsCollector(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mc, err := NewMetricsCollector(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	require.NoError(t, err)

	ctx := context.Background()
	const ch = "llmtap:anthropic:messages"

	mc.RecordCallStart()
	mc.RecordCallStart()
	assert.EqualValues(t, 2, mc.ActiveCalls())

	mc.RecordCallComplete(ctx, ch, StatusOK, 1500*time.Millisecond)
	mc.RecordChunks(ctx, ch, 12)
	mc.RecordChunks(ctx, ch, 0)
	mc.RecordUnobserved(ctx, ch)
	mc.RecordHandlerFailure(ctx, ch, "Reducer")

	metrics := collect(t, reader)

	calls := metrics["llmtap_calls_total"].Data.(metricdata.Sum[int64])
	require.Len(t, calls.DataPoints, 1)
	assert.EqualValues(t, 1, calls.DataPoints[0].Value)
	status, _ := calls.DataPoints[0].Attributes.Value("status")
	assert.Equal(t, StatusOK, status.AsString())

	duration := metrics["llmtap_call_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.Len(t, duration.DataPoints, 1)
	assert.InDelta(t, 1.5, duration.DataPoints[0].Sum, 0.001)

	chunks := metrics["llmtap_stream_chunks_total"].Data.(metricdata.Sum[int64])
	require.Len(t, chunks.DataPoints, 1)
	assert.EqualValues(t, 12, chunks.DataPoints[0].Value)

	failures := metrics["llmtap_handler_failures_total"].Data.(metricdata.Sum[int64])
	require.Len(t, failures.DataPoints, 1)
	handler, _ := failures.DataPoints[0].Attributes.Value(attribute.Key("handler"))
	assert.Equal(t, "Reducer", handler.AsString())

	active := metrics["llmtap_active_calls"].Data.(metricdata.Gauge[int64])
	require.Len(t, active.DataPoints, 1)
	assert.EqualValues(t, 1, active.DataPoints[0].Value)
}

func TestMetricsCollector_Nil(t *testing.T) {
	var mc *MetricsCollector
	assert.NotPanics(t, func() {
		mc.RecordCallStart()
		mc.RecordCallComplete(context.Background(), "c", StatusError, time.Second)
		mc.RecordChunks(context.Background(), "c", 3)
		mc.RecordUnobserved(context.Background(), "c")
		mc.RecordHandlerFailure(context.Background(), "c", "Transform")
	})
	assert.Zero(t, mc.ActiveCalls())
}
