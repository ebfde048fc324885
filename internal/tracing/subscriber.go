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
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/tombee/llmtap/internal/log"
	"github.com/tombee/llmtap/internal/tracing/redact"
	"github.com/tombee/llmtap/pkg/channel"
	pkgerrors "github.com/tombee/llmtap/pkg/errors"
	"github.com/tombee/llmtap/pkg/instrument"
	"github.com/tombee/llmtap/pkg/observability"
	"github.com/tombee/llmtap/pkg/stream"
)

const truncatedSuffix = "...[truncated]"

// Subscriber turns the events of instrumented calls into spans.
type Subscriber struct {
	tracer   observability.Tracer
	registry channel.Registry
	metrics  *MetricsCollector
	redactor *redact.Redactor
	capture  CaptureConfig
	logger   *slog.Logger

	mu      sync.Mutex
	unbinds []func()
}

// SubscriberOption configures a Subscriber.
type SubscriberOption func(*Subscriber)

// WithRegistry sets the channel registry. Defaults to channel.Default().
func WithRegistry(r channel.Registry) SubscriberOption {
	return func(s *Subscriber) { s.registry = r }
}

// WithMetrics records call metrics into mc.
func WithMetrics(mc *MetricsCollector) SubscriberOption {
	return func(s *Subscriber) { s.metrics = mc }
}

// WithRedactor redacts captured input and output.
func WithRedactor(r *redact.Redactor) SubscriberOption {
	return func(s *Subscriber) { s.redactor = r }
}

// WithCapture sets which payloads are recorded.
func WithCapture(c CaptureConfig) SubscriberOption {
	return func(s *Subscriber) { s.capture = c }
}

// WithLogger sets the logger for subscriber failures.
func WithLogger(logger *slog.Logger) SubscriberOption {
	return func(s *Subscriber) { s.logger = logger }
}

// NewSubscriber returns a subscriber recording spans with tracer. A nil
// tracer records nothing.
func NewSubscriber(tracer observability.Tracer, opts ...SubscriberOption) *Subscriber {
	if tracer == nil {
		tracer = observability.Noop
	}
	s := &Subscriber{tracer: tracer}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = channel.Default()
	}
	s.logger = log.WithComponent(s.logger, "subscriber")
	return s
}

// Close unsubscribes every binding.
func (s *Subscriber) Close() {
	s.mu.Lock()
	unbinds := s.unbinds
	s.unbinds = nil
	s.mu.Unlock()

	for _, unbind := range unbinds {
		unbind()
	}
}

func (s *Subscriber) track(unbind func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unbinds = append(s.unbinds, unbind)
}

// Binding customises how a bound operation's result is recorded. T is the
// chunk type of streamed results.
type Binding[T any] struct {
	// Reducer folds collected chunks into the recorded output. When nil
	// the chunk slice is recorded.
	Reducer func(chunks []T) (any, error)

	// Transform converts a result that is not a stream. When nil the
	// result is recorded as is.
	Transform func(result any) (any, error)
}

// Bind subscribes to the channel of cfg. Streamed results must be
// stream.Iterable[T]. They are observed only when the traced function's
// result type is an interface the patched stream satisfies, such as
// stream.Iterable[T]; with a concrete result type the span ends as
// unobserved when the call returns.
func Bind[T any](s *Subscriber, cfg instrument.Config, b Binding[T]) (unbind func(), err error) {
	name := cfg.ChannelName()
	if name == "" {
		return nil, &pkgerrors.ValidationError{
			Field:   "component",
			Message: fmt.Sprintf("cannot derive a channel name from %q and %q", cfg.Component, cfg.Operation),
		}
	}

	extractor, err := NewExtractor(cfg.Span.Attributes)
	if err != nil {
		return nil, &pkgerrors.ValidationError{Field: "span.attributes", Message: err.Error()}
	}
	filter, err := NewChunkFilter[T](cfg.Span.Collect)
	if err != nil {
		return nil, &pkgerrors.ValidationError{Field: "span.collect", Message: err.Error()}
	}

	bnd := &binding[T]{
		sub:       s,
		cfg:       cfg,
		channel:   name,
		opts:      b,
		extractor: extractor,
		filter:    filter,
		logger:    s.logger.With(slog.String(log.ChannelKey, name)),
	}

	h := channel.Handlers{
		Start: bnd.start,
		Error: bnd.fail,
	}
	if cfg.Function.Kind == instrument.KindSync {
		h.End = bnd.finish
	} else {
		h.AsyncEnd = bnd.finish
	}

	unbind = s.registry.Channel(name).Subscribe(h)
	s.track(unbind)
	return unbind, nil
}

type binding[T any] struct {
	sub       *Subscriber
	cfg       instrument.Config
	channel   string
	opts      Binding[T]
	extractor *Extractor
	filter    ChunkFilter[T]
	logger    *slog.Logger
}

// callSpan is the per-call state stored on the channel.Call.
type callSpan struct {
	span   observability.SpanHandle
	start  time.Time
	chunks atomic.Int64
	ended  atomic.Bool
}

func (b *binding[T]) start(call *channel.Call) {
	if call.Reentrant() {
		return
	}

	attrs := map[string]any{
		AttrComponent: b.cfg.Component,
		AttrOperation: b.cfg.Operation,
		AttrChannel:   b.channel,
		AttrCallID:    call.ID,
	}
	if b.sub.capture.Input {
		b.captureInput(call, attrs)
	}

	ctx, span := b.sub.tracer.Start(call.Context, b.cfg.SpanName(),
		observability.WithSpanKind(observability.SpanKindClient),
		observability.WithAttributes(attrs),
	)
	call.Context = ctx
	call.Set(b, &callSpan{span: span, start: time.Now()})
	b.sub.metrics.RecordCallStart()
}

func (b *binding[T]) captureInput(call *channel.Call, attrs map[string]any) {
	arg := call.Arg(0)
	if arg == nil {
		return
	}
	if v, ok := b.sub.encode(arg); ok {
		attrs[AttrInput] = v
	}
	if b.extractor.Len() == 0 {
		return
	}

	extracted, err := b.extractor.Extract(contextOrBackground(call.Context), arg)
	if err != nil {
		b.logger.Debug("attribute extraction failed", log.Error(err))
	}
	for k, v := range b.sub.redactor.Attributes(extracted) {
		if str, ok := v.(string); ok {
			v = b.sub.truncate(str)
		}
		attrs[k] = v
	}
}

func (b *binding[T]) state(call *channel.Call) *callSpan {
	v, ok := call.Get(b)
	if !ok {
		return nil
	}
	return v.(*callSpan)
}

func (b *binding[T]) finish(call *channel.Call) {
	cs := b.state(call)
	if cs == nil {
		return
	}

	streamed := stream.IsStream[T](call.Result)
	if streamed {
		cs.span.SetAttributes(map[string]any{AttrStream: true})
	}

	call.Result = stream.Reduce(call.Result, stream.ReduceOptions[T, any]{
		Reducer:       b.reducer(),
		Transform:     b.opts.Transform,
		ShouldCollect: b.filter,
		OnChunk:       func(T) { cs.chunks.Add(1) },
		OnResult: func(v any) {
			b.succeed(call, cs, v, streamed)
		},
		OnError: func(err error) {
			b.streamFailed(call, cs, err, streamed)
		},
		Logger: b.sub.logger,
	})
	if streamed && stream.IsPatched(call.Result) {
		// The caller iterates the original stream when the wrapper does
		// not fit the traced function's result type.
		call.OnResultRejected(func() {
			b.logger.Warn("patched stream was not returned to the caller, ending span unobserved")
			b.unobserved(call, cs)
		})
	}
}

func (b *binding[T]) reducer() func([]T) (any, error) {
	if b.opts.Reducer != nil {
		return b.opts.Reducer
	}
	return func(chunks []T) (any, error) { return chunks, nil }
}

func (b *binding[T]) succeed(call *channel.Call, cs *callSpan, output any, streamed bool) {
	attrs := map[string]any{AttrStatus: StatusOK}
	if streamed {
		attrs[AttrStreamChunks] = cs.chunks.Load()
	}
	if b.sub.capture.Output && output != nil {
		if v, ok := b.sub.encode(output); ok {
			attrs[AttrOutput] = v
		}
	}
	cs.span.SetAttributes(attrs)
	cs.span.SetStatus(observability.StatusCodeOK, "")
	b.end(call, cs, StatusOK)
}

func (b *binding[T]) streamFailed(call *channel.Call, cs *callSpan, err error, streamed bool) {
	var handlerErr *pkgerrors.HandlerError
	switch {
	case errors.Is(err, stream.ErrNotObservable):
		b.unobserved(call, cs)

	case errors.As(err, &handlerErr):
		b.logger.Warn("result reduction failed", log.Error(err))
		b.sub.metrics.RecordHandlerFailure(contextOrBackground(call.Context), b.channel, handlerErr.Handler)
		cs.span.AddEvent("llmtap.reduce_failed", map[string]any{"error": err.Error()})
		cs.span.SetAttributes(map[string]any{AttrStatus: StatusOK})
		b.end(call, cs, StatusOK)

	default:
		attrs := map[string]any{AttrStatus: StatusError}
		if streamed {
			attrs[AttrStreamChunks] = cs.chunks.Load()
		}
		cs.span.SetAttributes(attrs)
		cs.span.RecordError(err)
		b.end(call, cs, StatusError)
	}
}

func (b *binding[T]) unobserved(call *channel.Call, cs *callSpan) {
	if cs.ended.Load() {
		return
	}
	cs.span.SetAttributes(map[string]any{AttrStreamObserved: false, AttrStatus: StatusOK})
	b.sub.metrics.RecordUnobserved(contextOrBackground(call.Context), b.channel)
	b.end(call, cs, StatusOK)
}

func (b *binding[T]) fail(call *channel.Call) {
	cs := b.state(call)
	if cs == nil {
		return
	}
	err := call.Err
	if err == nil {
		err = errors.New("traced call failed")
	}
	cs.span.SetAttributes(map[string]any{AttrStatus: StatusError})
	cs.span.RecordError(err)
	b.end(call, cs, StatusError)
}

// end ends the span once, whichever terminal path reaches it first.
func (b *binding[T]) end(call *channel.Call, cs *callSpan, status string) {
	if !cs.ended.CompareAndSwap(false, true) {
		return
	}
	cs.span.End()
	call.Delete(b)

	ctx := contextOrBackground(call.Context)
	b.sub.metrics.RecordChunks(ctx, b.channel, cs.chunks.Load())
	b.sub.metrics.RecordCallComplete(ctx, b.channel, status, time.Since(cs.start))
}

// encode renders a captured value as a redacted, truncated string.
func (s *Subscriber) encode(v any) (string, bool) {
	jv, err := jsonValue(v)
	if err != nil {
		s.logger.Debug("cannot capture value", log.Error(err))
		return "", false
	}
	jv = s.redactor.Value(jv)

	str, ok := jv.(string)
	if !ok {
		data, err := json.Marshal(jv)
		if err != nil {
			return "", false
		}
		str = string(data)
	}
	return s.truncate(str), true
}

func (s *Subscriber) truncate(str string) string {
	limit := s.capture.MaxAttributeLength
	if limit <= 0 || len(str) <= limit {
		return str
	}
	i := limit
	for i > 0 && !utf8.RuneStart(str[i]) {
		i--
	}
	return str[:i] + truncatedSuffix
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
