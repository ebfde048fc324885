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

package log

import (
	"context"
	"log/slog"
	"sync/atomic"

	"golang.org/x/time/rate"
)

// LimitedHandler drops records once a token-bucket limit is exceeded.
// Derived handlers (WithAttrs, WithGroup) share the same bucket.
type LimitedHandler struct {
	next    slog.Handler
	limiter *rate.Limiter
	dropped *atomic.Int64
}

// NewLimitedHandler wraps next so that at most burst records are emitted at
// once and limit records per second on average.
func NewLimitedHandler(next slog.Handler, limit rate.Limit, burst int) *LimitedHandler {
	return &LimitedHandler{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
		dropped: &atomic.Int64{},
	}
}

// Limited returns a logger that shares logger's handler behind a rate limit.
func Limited(logger *slog.Logger, limit rate.Limit, burst int) *slog.Logger {
	return slog.New(NewLimitedHandler(OrDefault(logger).Handler(), limit, burst))
}

// Enabled implements slog.Handler.
func (h *LimitedHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *LimitedHandler) Handle(ctx context.Context, r slog.Record) error {
	if !h.limiter.Allow() {
		h.dropped.Add(1)
		return nil
	}
	return h.next.Handle(ctx, r)
}

// WithAttrs implements slog.Handler.
func (h *LimitedHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LimitedHandler{next: h.next.WithAttrs(attrs), limiter: h.limiter, dropped: h.dropped}
}

// WithGroup implements slog.Handler.
func (h *LimitedHandler) WithGroup(name string) slog.Handler {
	return &LimitedHandler{next: h.next.WithGroup(name), limiter: h.limiter, dropped: h.dropped}
}

// Dropped returns how many records were discarded.
func (h *LimitedHandler) Dropped() int64 {
	return h.dropped.Load()
}
