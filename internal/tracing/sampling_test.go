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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func sample(s sdktrace.Sampler, parent context.Context, attrs ...attribute.KeyValue) sdktrace.SamplingDecision {
	return s.ShouldSample(sdktrace.SamplingParameters{
		ParentContext: parent,
		TraceID:       trace.TraceID{0x01},
		Name:          "openai.chat",
		Kind:          trace.SpanKindClient,
		Attributes:    attrs,
	}).Decision
}

func TestNewSampler(t *testing.T) {
	ctx := context.Background()

	assert.Equal(t, sdktrace.RecordAndSample, sample(NewSampler(SamplerConfig{}), ctx))
	assert.Equal(t, sdktrace.RecordAndSample, sample(NewSampler(SamplerConfig{Enabled: true, Rate: 1}), ctx))
	assert.Equal(t, sdktrace.Drop, sample(NewSampler(SamplerConfig{Enabled: true, Rate: 0}), ctx))
}

func TestNewSampler_ErrorAware(t *testing.T) {
	s := NewSampler(SamplerConfig{Enabled: true, Rate: 0, AlwaysSampleErrors: true})
	ctx := context.Background()

	assert.Equal(t, sdktrace.Drop, sample(s, ctx))
	assert.Equal(t, sdktrace.RecordAndSample, sample(s, ctx, attribute.Bool("error", true)))
	assert.Equal(t, sdktrace.Drop, sample(s, ctx, attribute.Bool("error", false)))
	assert.Equal(t, sdktrace.Drop, sample(s, ctx, attribute.String(AttrStatus, StatusError)),
		"the call status is only set when the span ends")

	assert.True(t, strings.Contains(s.Description(), "ErrorAwareSampler"))
}

func TestNewSampler_FollowsParent(t *testing.T) {
	s := NewSampler(SamplerConfig{Enabled: true, Rate: 0})

	sampled := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x0a},
		SpanID:     trace.SpanID{0x0b},
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	}))
	assert.Equal(t, sdktrace.RecordAndSample, sample(s, sampled))
}
