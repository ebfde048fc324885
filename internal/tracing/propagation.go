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
	"net/http"

	"go.opentelemetry.io/otel/propagation"
)

// W3CPropagator returns a TextMapPropagator that implements W3C Trace
// Context and Baggage.
func W3CPropagator() propagation.TextMapPropagator {
	return propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	)
}

// InjectHeaders writes the trace context of ctx into h, so a traced call
// can forward it to an LLM gateway or another service.
func InjectHeaders(ctx context.Context, h http.Header) {
	W3CPropagator().Inject(ctx, propagation.HeaderCarrier(h))
}

// ExtractHeaders returns ctx with the trace context found in h.
func ExtractHeaders(ctx context.Context, h http.Header) context.Context {
	return W3CPropagator().Extract(ctx, propagation.HeaderCarrier(h))
}

// Carrier returns the trace context of ctx as a string map, for transports
// that are not HTTP.
func Carrier(ctx context.Context) map[string]string {
	c := propagation.MapCarrier{}
	W3CPropagator().Inject(ctx, c)
	return c
}
