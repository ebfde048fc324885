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
	"reflect"
)

// Iterable is the iteration entrypoint of a stream. Every call to Iter
// starts a new session.
type Iterable[T any] interface {
	Iter() Iterator[T]
}

// Iterator pulls values from one session. Next returns io.EOF once the
// session is exhausted; any other error ends the session with that error.
type Iterator[T any] interface {
	Next(ctx context.Context) (T, error)
}

// Returner is implemented by iterators that can be stopped early by their
// consumer, releasing whatever the session holds.
type Returner interface {
	Return(ctx context.Context) error
}

// Thrower is implemented by iterators that accept an error injected by the
// consumer. The iterator may rethrow it or resume and return a value.
type Thrower[T any] interface {
	Throw(ctx context.Context, err error) (T, error)
}

// Freezer is implemented by values that must not be wrapped.
type Freezer interface {
	Frozen() bool
}

// IsStream reports whether v is a usable Iterable[T]. Nil values and typed
// nil pointers are rejected. The check never calls Iter.
func IsStream[T any](v any) bool {
	_, ok := AsStream[T](v)
	return ok
}

// AsStream returns v as an Iterable[T] when IsStream[T](v) holds.
func AsStream[T any](v any) (Iterable[T], bool) {
	if isNil(v) {
		return nil, false
	}
	s, ok := v.(Iterable[T])
	return s, ok
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
