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
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsCollector records llmtap metrics. A nil collector records
// nothing.
type MetricsCollector struct {
	meter metric.Meter

	// Counters
	callsTotal       metric.Int64Counter
	chunksTotal      metric.Int64Counter
	unobservedTotal  metric.Int64Counter
	handlerFailTotal metric.Int64Counter

	// Histograms
	callDuration metric.Float64Histogram

	activeCalls atomic.Int64
}

// NewMetricsCollector creates a new metrics collector using the given meter provider
func NewMetricsCollector(meterProvider metric.MeterProvider) (*MetricsCollector, error) {
	meter := meterProvider.Meter("llmtap")

	mc := &MetricsCollector{meter: meter}

	var err error

	mc.callsTotal, err = meter.Int64Counter(
		"llmtap_calls_total",
		metric.WithDescription("Total number of traced calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	mc.chunksTotal, err = meter.Int64Counter(
		"llmtap_stream_chunks_total",
		metric.WithDescription("Total number of chunks observed on streamed results"),
		metric.WithUnit("{chunk}"),
	)
	if err != nil {
		return nil, err
	}

	mc.unobservedTotal, err = meter.Int64Counter(
		"llmtap_unobserved_streams_total",
		metric.WithDescription("Streamed results that could not be observed"),
		metric.WithUnit("{stream}"),
	)
	if err != nil {
		return nil, err
	}

	mc.handlerFailTotal, err = meter.Int64Counter(
		"llmtap_handler_failures_total",
		metric.WithDescription("Subscriber reducer or transform failures"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return nil, err
	}

	mc.callDuration, err = meter.Float64Histogram(
		"llmtap_call_duration_seconds",
		metric.WithDescription("Traced call duration in seconds, including stream consumption"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	_, err = meter.Int64ObservableGauge(
		"llmtap_active_calls",
		metric.WithDescription("Number of traced calls whose span has not ended"),
		metric.WithUnit("{call}"),
		metric.WithInt64Callback(func(_ context.Context, observer metric.Int64Observer) error {
			observer.Observe(mc.activeCalls.Load())
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}

	return mc, nil
}

// RecordCallStart marks a call as active.
func (mc *MetricsCollector) RecordCallStart() {
	if mc == nil {
		return
	}
	mc.activeCalls.Add(1)
}

// RecordCallComplete records a finished call on channel with status
// StatusOK or StatusError.
func (mc *MetricsCollector) RecordCallComplete(ctx context.Context, channel, status string, duration time.Duration) {
	if mc == nil {
		return
	}
	mc.activeCalls.Add(-1)

	attrs := metric.WithAttributes(
		attribute.String("channel", channel),
		attribute.String("status", status),
	)
	mc.callsTotal.Add(ctx, 1, attrs)
	mc.callDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordChunks adds n observed stream chunks.
func (mc *MetricsCollector) RecordChunks(ctx context.Context, channel string, n int64) {
	if mc == nil || n == 0 {
		return
	}
	mc.chunksTotal.Add(ctx, n, metric.WithAttributes(attribute.String("channel", channel)))
}

// RecordUnobserved counts a streamed result the subscriber could not wrap.
func (mc *MetricsCollector) RecordUnobserved(ctx context.Context, channel string) {
	if mc == nil {
		return
	}
	mc.unobservedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("channel", channel)))
}

// RecordHandlerFailure counts a reducer or transform failure.
func (mc *MetricsCollector) RecordHandlerFailure(ctx context.Context, channel, handler string) {
	if mc == nil {
		return
	}
	mc.handlerFailTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("channel", channel),
		attribute.String("handler", handler),
	))
}

// ActiveCalls returns the number of calls whose span has not ended.
func (mc *MetricsCollector) ActiveCalls() int64 {
	if mc == nil {
		return 0
	}
	return mc.activeCalls.Load()
}
