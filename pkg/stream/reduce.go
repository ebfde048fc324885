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
	"errors"
	"fmt"
	"log/slog"

	"github.com/tombee/llmtap/internal/log"
)

// ErrNotObservable is passed to ReduceOptions.OnError when a result is a
// stream that this reduction cannot observe: it is frozen, has no identity,
// or was already patched by someone else.
var ErrNotObservable = errors.New("stream: result cannot be observed")

// ReduceOptions configures Reduce.
type ReduceOptions[T, R any] struct {
	// Reducer folds the collected chunks of a stream into one value. When
	// nil, the chunk slice itself must be assignable to R.
	Reducer func(chunks []T) (R, error)

	// Transform converts a result that is not a stream. When nil, the
	// result must be assignable to R.
	Transform func(result any) (R, error)

	// OnResult receives the reduced or transformed value.
	OnResult func(R)

	// OnError receives stream errors and reducer or transform failures.
	OnError func(error)

	OnChunk       func(T)
	ShouldCollect func(T) bool
	Logger        *slog.Logger
}

// Reduce observes result and delivers a single value to OnResult, or an
// error to OnError, exactly once. Streams are patched and reduced when
// their first session ends; other values are transformed immediately.
// The returned value replaces result for the caller.
func Reduce[T, R any](result any, opts ReduceOptions[T, R]) any {
	r := &reduction[T, R]{
		opts:   opts,
		logger: log.WithComponent(opts.Logger, component),
	}

	s, ok := AsStream[T](result)
	if !ok {
		v, err := r.transform(result)
		if err != nil {
			r.logger.Warn("result transform failed", log.Error(err))
			r.fail(err)
			return result
		}
		r.emit(v)
		return result
	}

	patched, created := patch(s, Options[T]{
		OnComplete:    r.complete,
		OnChunk:       opts.OnChunk,
		ShouldCollect: opts.ShouldCollect,
		OnError:       func(err error, _ []T) { r.fail(err) },
		Logger:        opts.Logger,
	})
	if !created {
		r.fail(ErrNotObservable)
		return result
	}
	return patched
}

type reduction[T, R any] struct {
	opts   ReduceOptions[T, R]
	logger *slog.Logger
}

func (r *reduction[T, R]) complete(chunks []T) {
	v, err := r.reduce(chunks)
	if err != nil {
		r.logger.Warn("stream reducer failed", log.Error(err))
		r.fail(err)
		return
	}
	r.emit(v)
}

func (r *reduction[T, R]) reduce(chunks []T) (v R, err error) {
	if r.opts.Reducer == nil {
		out, ok := any(chunks).(R)
		if !ok {
			return v, fmt.Errorf("stream: no reducer from []%T to %T", *new(T), v)
		}
		return out, nil
	}
	if perr := protect("Reducer", func() { v, err = r.opts.Reducer(chunks) }); perr != nil {
		return v, perr
	}
	return v, err
}

func (r *reduction[T, R]) transform(result any) (v R, err error) {
	if r.opts.Transform != nil {
		if perr := protect("Transform", func() { v, err = r.opts.Transform(result) }); perr != nil {
			return v, perr
		}
		return v, err
	}
	if result == nil {
		return v, nil
	}
	out, ok := result.(R)
	if !ok {
		return v, fmt.Errorf("stream: cannot use %T as %T", result, v)
	}
	return out, nil
}

func (r *reduction[T, R]) emit(v R) {
	if r.opts.OnResult == nil {
		return
	}
	if err := protect("OnResult", func() { r.opts.OnResult(v) }); err != nil {
		r.logger.Warn("stream handler failed", slog.String(log.HandlerKey, "OnResult"), log.Error(err))
	}
}

func (r *reduction[T, R]) fail(err error) {
	if r.opts.OnError == nil {
		return
	}
	if perr := protect("OnError", func() { r.opts.OnError(err) }); perr != nil {
		r.logger.Warn("stream handler failed", slog.String(log.HandlerKey, "OnError"), log.Error(perr))
	}
}
