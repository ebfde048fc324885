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

package stream

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"sync"

	"golang.org/x/time/rate"

	"github.com/tombee/llmtap/internal/log"
	pkgerrors "github.com/tombee/llmtap/pkg/errors"
)

const component = "stream"

// OnChunk failures can repeat once per chunk; their warnings are limited.
const (
	chunkWarnRate  = rate.Limit(1)
	chunkWarnBurst = 10
)

// Options configures the callbacks of a patched stream.
type Options[T any] struct {
	// OnComplete receives the collected chunks when a session ends without
	// error, either by exhaustion or by an early Return. Required.
	OnComplete func(chunks []T)

	// OnChunk is called for every value the session yields.
	OnChunk func(chunk T)

	// OnError receives the error that ended a session and the chunks
	// collected before it.
	OnError func(err error, chunks []T)

	// ShouldCollect filters which chunks are buffered. Nil keeps all.
	ShouldCollect func(chunk T) bool

	// Logger receives handler failures. Defaults to slog.Default().
	Logger *slog.Logger
}

// Patch wraps v when it is an Iterable[T] and returns the value the caller
// must use from then on. Values that are not streams are returned
// unchanged. Patch never panics.
func Patch[T any](v any, opts Options[T]) any {
	s, ok := AsStream[T](v)
	if !ok {
		return v
	}
	return PatchIterable(s, opts)
}

// PatchIterable is the typed form of Patch.
func PatchIterable[T any](s Iterable[T], opts Options[T]) Iterable[T] {
	out, _ := patch(s, opts)
	return out
}

// IsPatched reports whether v is a wrapper returned by Patch.
func IsPatched(v any) bool {
	_, ok := v.(patchedIterable)
	return ok
}

type patchedIterable interface {
	patchedBy() string
}

func patch[T any](s Iterable[T], opts Options[T]) (out Iterable[T], created bool) {
	if isNil(s) {
		return s, false
	}
	logger := log.WithComponent(opts.Logger, component)

	defer func() {
		if r := recover(); r != nil {
			logger.Warn("stream cannot be patched, leaving it unobserved",
				slog.String("type", typeName(s)),
				log.Error(&pkgerrors.HandlerError{Handler: "patch", Value: r}))
			out, created = s, false
		}
	}()

	if _, ok := s.(patchedIterable); ok {
		return s, false
	}
	if opts.OnComplete == nil {
		logger.Warn("stream patched without a completion handler, leaving it unobserved",
			slog.String("type", typeName(s)))
		return s, false
	}
	if f, ok := s.(Freezer); ok && f.Frozen() {
		logger.Warn("stream is frozen, leaving it unobserved", slog.String("type", typeName(s)))
		return s, false
	}
	if !reflect.TypeOf(s).Comparable() {
		logger.Warn("stream has no identity, leaving it unobserved", slog.String("type", typeName(s)))
		return s, false
	}

	return loadOrCreate(patchTable, s, func() *wrapper[T] {
		return &wrapper[T]{
			src:         s,
			opts:        opts,
			logger:      logger,
			chunkLogger: log.Limited(logger, chunkWarnRate, chunkWarnBurst),
		}
	})
}

func typeName(v any) string {
	return reflect.TypeOf(v).String()
}

// wrapper is the patched form of an Iterable.
type wrapper[T any] struct {
	src         Iterable[T]
	opts        Options[T]
	logger      *slog.Logger
	chunkLogger *slog.Logger
}

func (w *wrapper[T]) patchedBy() string { return component }

// Iter starts a new observed session. The returned iterator implements
// Returner and Thrower[T] exactly when the underlying iterator does.
func (w *wrapper[T]) Iter() Iterator[T] {
	it := w.src.Iter()
	if isNil(it) {
		return it
	}
	s := &session[T]{w: w, it: it}

	r, canReturn := it.(Returner)
	t, canThrow := it.(Thrower[T])
	switch {
	case canReturn && canThrow:
		return &returnThrowIterator[T]{session: s, r: r, t: t}
	case canReturn:
		return &returnIterator[T]{session: s, r: r}
	case canThrow:
		return &throwIterator[T]{session: s, t: t}
	default:
		return s
	}
}

func (w *wrapper[T]) guard(logger *slog.Logger, handler string, fn func()) {
	if err := protect(handler, fn); err != nil {
		logger.Warn("stream handler failed", slog.String(log.HandlerKey, handler), log.Error(err))
	}
}

func (w *wrapper[T]) collect(v T) bool {
	if w.opts.ShouldCollect == nil {
		return true
	}
	keep := true
	w.guard(w.chunkLogger, "ShouldCollect", func() { keep = w.opts.ShouldCollect(v) })
	return keep
}

// session holds the state of one traversal. mu is never held while the
// underlying iterator or a callback runs.
type session[T any] struct {
	w  *wrapper[T]
	it Iterator[T]

	mu     sync.Mutex
	chunks []T
	done   bool
}

func (s *session[T]) Next(ctx context.Context) (T, error) {
	v, err := s.it.Next(ctx)
	switch {
	case err == nil:
		s.observe(v)
	case errors.Is(err, io.EOF):
		s.complete()
	default:
		s.fail(err)
	}
	return v, err
}

func (s *session[T]) isDone() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

func (s *session[T]) observe(v T) {
	if s.isDone() {
		return
	}
	keep := s.w.collect(v)

	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	if keep {
		s.chunks = append(s.chunks, v)
	}
	s.mu.Unlock()

	if fn := s.w.opts.OnChunk; fn != nil {
		s.w.guard(s.w.chunkLogger, "OnChunk", func() { fn(v) })
	}
}

// finish moves the session to its terminal state and hands over the
// buffer. It reports false when the session had already ended.
func (s *session[T]) finish() ([]T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return nil, false
	}
	s.done = true
	chunks := s.chunks
	s.chunks = nil
	return chunks, true
}

func (s *session[T]) complete() {
	chunks, ok := s.finish()
	if !ok {
		return
	}
	s.w.guard(s.w.logger, "OnComplete", func() { s.w.opts.OnComplete(chunks) })
}

func (s *session[T]) fail(err error) {
	chunks, ok := s.finish()
	if !ok || s.w.opts.OnError == nil {
		return
	}
	s.w.guard(s.w.logger, "OnError", func() { s.w.opts.OnError(err, chunks) })
}

func (s *session[T]) doReturn(ctx context.Context, r Returner) error {
	s.complete()
	return r.Return(ctx)
}

func (s *session[T]) doThrow(ctx context.Context, t Thrower[T], err error) (T, error) {
	s.fail(err)
	return t.Throw(ctx, err)
}

type returnIterator[T any] struct {
	*session[T]
	r Returner
}

func (it *returnIterator[T]) Return(ctx context.Context) error {
	return it.doReturn(ctx, it.r)
}

type throwIterator[T any] struct {
	*session[T]
	t Thrower[T]
}

func (it *throwIterator[T]) Throw(ctx context.Context, err error) (T, error) {
	return it.doThrow(ctx, it.t, err)
}

type returnThrowIterator[T any] struct {
	*session[T]
	r Returner
	t Thrower[T]
}

func (it *returnThrowIterator[T]) Return(ctx context.Context) error {
	return it.doReturn(ctx, it.r)
}

func (it *returnThrowIterator[T]) Throw(ctx context.Context, err error) (T, error) {
	return it.doThrow(ctx, it.t, err)
}

// protect runs fn and converts a panic into a *errors.HandlerError.
func protect(handler string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &pkgerrors.HandlerError{Handler: handler, Value: r}
		}
	}()
	fn()
	return nil
}
