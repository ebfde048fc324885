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
	"iter"
)

// SeqIterable adapts a range-over-func sequence to Iterable.
type SeqIterable[T any] struct {
	seq iter.Seq2[T, error]
}

// FromSeq returns an Iterable whose sessions pull from seq. A non-nil error
// yielded by seq ends the session with that error.
func FromSeq[T any](seq iter.Seq2[T, error]) *SeqIterable[T] {
	return &SeqIterable[T]{seq: seq}
}

// Iter starts a pull over the sequence. The iterator implements Returner.
func (s *SeqIterable[T]) Iter() Iterator[T] {
	next, stop := iter.Pull2(s.seq)
	return &pullIterator[T]{next: next, stop: stop}
}

type pullIterator[T any] struct {
	next func() (T, error, bool)
	stop func()
	done bool
}

func (p *pullIterator[T]) Next(ctx context.Context) (T, error) {
	var zero T
	if p.done {
		return zero, io.EOF
	}
	if err := ctx.Err(); err != nil {
		p.Return(ctx)
		return zero, err
	}
	v, err, ok := p.next()
	if !ok {
		p.done = true
		return zero, io.EOF
	}
	if err != nil {
		p.Return(ctx)
		return v, err
	}
	return v, nil
}

func (p *pullIterator[T]) Return(context.Context) error {
	p.done = true
	p.stop()
	return nil
}

// Seq ranges over one session of s. The error of a failed session is
// yielded once as the final element. Breaking out of the loop returns the
// iterator early when it implements Returner.
func Seq[T any](ctx context.Context, s Iterable[T]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		it := s.Iter()
		for {
			v, err := it.Next(ctx)
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(v, err)
				return
			}
			if !yield(v, nil) {
				if r, ok := it.(Returner); ok {
					_ = r.Return(ctx)
				}
				return
			}
		}
	}
}

// Collect drains one session of s.
func Collect[T any](ctx context.Context, s Iterable[T]) ([]T, error) {
	var out []T
	for v, err := range Seq(ctx, s) {
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
	return out, nil
}
