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

// Package streamtest provides programmable streams for tests.
package streamtest

import (
	"context"
	"io"
	"sync"

	"github.com/tombee/llmtap/pkg/stream"
)

// Shape selects which optional capabilities the iterators of a Stream have.
type Shape int

const (
	// Full iterators implement Next, Return and Throw.
	Full Shape = iota
	// ReturnOnly iterators implement Next and Return.
	ReturnOnly
	// ThrowOnly iterators implement Next and Throw.
	ThrowOnly
	// Plain iterators implement only Next.
	Plain
)

// Stream yields Items on every session, then Err (or io.EOF when Err is
// nil). Throw rethrows the injected error unless Catch is set, in which
// case the session resumes with the next item.
type Stream[T any] struct {
	Items []T
	Err   error
	Shape Shape
	Catch bool

	mu       sync.Mutex
	sessions int
	returns  int
	thrown   []error
}

// New returns a Full stream over items.
func New[T any](items ...T) *Stream[T] {
	return &Stream[T]{Items: items}
}

// Failing returns a Full stream that yields items and then fails with err.
func Failing[T any](err error, items ...T) *Stream[T] {
	return &Stream[T]{Items: items, Err: err}
}

// Iter starts a session.
func (s *Stream[T]) Iter() stream.Iterator[T] {
	s.mu.Lock()
	s.sessions++
	s.mu.Unlock()

	c := &cursor[T]{s: s}
	switch s.Shape {
	case ReturnOnly:
		return &returnCursor[T]{c}
	case ThrowOnly:
		return &throwCursor[T]{c}
	case Plain:
		return c
	default:
		return &fullCursor[T]{c}
	}
}

// Sessions is the number of Iter calls.
func (s *Stream[T]) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions
}

// Returns is the number of Return calls across sessions.
func (s *Stream[T]) Returns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.returns
}

// Thrown lists the errors passed to Throw across sessions.
func (s *Stream[T]) Thrown() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]error(nil), s.thrown...)
}

type cursor[T any] struct {
	s    *Stream[T]
	pos  int
	done bool
}

func (c *cursor[T]) Next(ctx context.Context) (T, error) {
	var zero T
	if c.done {
		return zero, io.EOF
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	if c.pos < len(c.s.Items) {
		v := c.s.Items[c.pos]
		c.pos++
		return v, nil
	}
	c.done = true
	if c.s.Err != nil {
		return zero, c.s.Err
	}
	return zero, io.EOF
}

func (c *cursor[T]) ret() error {
	c.s.mu.Lock()
	c.s.returns++
	c.s.mu.Unlock()
	c.done = true
	return nil
}

func (c *cursor[T]) throw(ctx context.Context, err error) (T, error) {
	c.s.mu.Lock()
	c.s.thrown = append(c.s.thrown, err)
	c.s.mu.Unlock()
	if c.s.Catch {
		return c.Next(ctx)
	}
	c.done = true
	var zero T
	return zero, err
}

type returnCursor[T any] struct{ *cursor[T] }

func (c *returnCursor[T]) Return(context.Context) error { return c.ret() }

type throwCursor[T any] struct{ *cursor[T] }

func (c *throwCursor[T]) Throw(ctx context.Context, err error) (T, error) {
	return c.throw(ctx, err)
}

type fullCursor[T any] struct{ *cursor[T] }

func (c *fullCursor[T]) Return(context.Context) error { return c.ret() }

func (c *fullCursor[T]) Throw(ctx context.Context, err error) (T, error) {
	return c.throw(ctx, err)
}

// Frozen is a stream that refuses to be wrapped.
type Frozen[T any] struct {
	*Stream[T]
}

// Frozen implements stream.Freezer.
func (Frozen[T]) Frozen() bool { return true }

// Recorder accumulates callback invocations of stream.Options.
type Recorder[T any] struct {
	mu        sync.Mutex
	Chunks    []T
	Completed [][]T
	Errors    []error
	Partials  [][]T
}

// Options returns patch options that record into r.
func (r *Recorder[T]) Options() stream.Options[T] {
	return stream.Options[T]{
		OnChunk: func(c T) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.Chunks = append(r.Chunks, c)
		},
		OnComplete: func(chunks []T) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.Completed = append(r.Completed, chunks)
		},
		OnError: func(err error, chunks []T) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.Errors = append(r.Errors, err)
			r.Partials = append(r.Partials, chunks)
		},
	}
}

// Calls is the total number of terminal callbacks.
func (r *Recorder[T]) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Completed) + len(r.Errors)
}
