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

package stream_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/tombee/llmtap/pkg/errors"
	"github.com/tombee/llmtap/pkg/stream"
	"github.com/tombee/llmtap/pkg/stream/streamtest"
)

type outcome struct {
	results []string
	errs    []error
}

func (o *outcome) options() stream.ReduceOptions[string, string] {
	return stream.ReduceOptions[string, string]{
		Reducer:  func(chunks []string) (string, error) { return strings.Join(chunks, ""), nil },
		OnResult: func(s string) { o.results = append(o.results, s) },
		OnError:  func(err error) { o.errs = append(o.errs, err) },
	}
}

func TestReduce_Stream(t *testing.T) {
	var o outcome
	out := stream.Reduce(streamtest.New("Hel", "lo"), o.options())
	require.True(t, stream.IsPatched(out))
	assert.Empty(t, o.results, "nothing is reduced before the stream is consumed")

	got, err := stream.Collect(context.Background(), out.(stream.Iterable[string]))
	require.NoError(t, err)
	assert.Equal(t, []string{"Hel", "lo"}, got)
	assert.Equal(t, []string{"Hello"}, o.results)
	assert.Empty(t, o.errs)
}

func TestReduce_StreamError(t *testing.T) {
	boom := errors.New("boom")
	var o outcome
	out := stream.Reduce(streamtest.Failing(boom, "a"), o.options())

	_, err := stream.Collect(context.Background(), out.(stream.Iterable[string]))
	assert.Same(t, boom, err)
	assert.Equal(t, []error{boom}, o.errs)
	assert.Empty(t, o.results)
}

func TestReduce_ReducerFailures(t *testing.T) {
	tests := []struct {
		name    string
		reducer func([]string) (string, error)
		check   func(t *testing.T, err error)
	}{
		{
			name:    "error",
			reducer: func([]string) (string, error) { return "", errors.New("bad chunks") },
			check: func(t *testing.T, err error) {
				assert.EqualError(t, err, "bad chunks")
			},
		},
		{
			name:    "panic",
			reducer: func([]string) (string, error) { panic("reducer") },
			check: func(t *testing.T, err error) {
				var he *pkgerrors.HandlerError
				require.ErrorAs(t, err, &he)
				assert.Equal(t, "Reducer", he.Handler)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := captureLogs()
			var o outcome
			opts := o.options()
			opts.Reducer = tt.reducer
			opts.Logger = logger

			out := stream.Reduce(streamtest.New("a"), opts)
			_, err := stream.Collect(context.Background(), out.(stream.Iterable[string]))
			require.NoError(t, err)

			require.Len(t, o.errs, 1)
			tt.check(t, o.errs[0])
			assert.Empty(t, o.results)
			assert.Equal(t, 1, warnings(buf))
		})
	}
}

func TestReduce_TransformFailures(t *testing.T) {
	tests := []struct {
		name      string
		transform func(any) (string, error)
		check     func(t *testing.T, err error)
	}{
		{
			name:      "error",
			transform: func(any) (string, error) { return "", errors.New("bad result") },
			check: func(t *testing.T, err error) {
				assert.EqualError(t, err, "bad result")
			},
		},
		{
			name:      "panic",
			transform: func(any) (string, error) { panic("transform") },
			check: func(t *testing.T, err error) {
				var he *pkgerrors.HandlerError
				require.ErrorAs(t, err, &he)
				assert.Equal(t, "Transform", he.Handler)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := captureLogs()
			var o outcome
			opts := o.options()
			opts.Transform = tt.transform
			opts.Logger = logger

			out := stream.Reduce("done", opts)
			assert.Equal(t, "done", out)

			require.Len(t, o.errs, 1)
			tt.check(t, o.errs[0])
			assert.Empty(t, o.results)
			assert.Equal(t, 1, warnings(buf))
			assert.Contains(t, buf.String(), "result transform failed")
		})
	}
}

func TestReduce_DefaultReducer(t *testing.T) {
	var got []int
	out := stream.Reduce(streamtest.New(1, 2), stream.ReduceOptions[int, []int]{
		OnResult: func(v []int) { got = v },
	})
	_, err := stream.Collect(context.Background(), out.(stream.Iterable[int]))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, got)
}

func TestReduce_PlainValue(t *testing.T) {
	t.Run("assertion", func(t *testing.T) {
		var o outcome
		out := stream.Reduce("done", o.options())
		assert.Equal(t, "done", out)
		assert.Equal(t, []string{"done"}, o.results)
	})

	t.Run("transform", func(t *testing.T) {
		var o outcome
		opts := o.options()
		opts.Transform = func(v any) (string, error) { return strings.ToUpper(v.(string)), nil }
		stream.Reduce("done", opts)
		assert.Equal(t, []string{"DONE"}, o.results)
	})

	t.Run("type mismatch", func(t *testing.T) {
		var o outcome
		out := stream.Reduce(42, o.options())
		assert.Equal(t, 42, out)
		require.Len(t, o.errs, 1)
		assert.Contains(t, o.errs[0].Error(), "cannot use int as string")
	})

	t.Run("nil", func(t *testing.T) {
		var o outcome
		stream.Reduce(nil, o.options())
		assert.Equal(t, []string{""}, o.results)
	})
}

func TestReduce_ResultHandlerPanic(t *testing.T) {
	logger, buf := captureLogs()
	out := stream.Reduce("done", stream.ReduceOptions[string, string]{
		Logger:   logger,
		OnResult: func(string) { panic("result") },
	})
	assert.Equal(t, "done", out)
	assert.Contains(t, buf.String(), `"handler":"OnResult"`)
}

func TestReduce_NotObservable(t *testing.T) {
	t.Run("frozen", func(t *testing.T) {
		var o outcome
		frozen := streamtest.Frozen[string]{Stream: streamtest.New("a")}
		out := stream.Reduce(frozen, o.options())
		assert.Equal(t, frozen, out)
		assert.Equal(t, []error{stream.ErrNotObservable}, o.errs)
	})

	t.Run("already patched", func(t *testing.T) {
		var first, second outcome
		out := stream.Reduce(streamtest.New("a"), first.options())
		again := stream.Reduce(out, second.options())
		assert.True(t, out == again)
		assert.Equal(t, []error{stream.ErrNotObservable}, second.errs)
		assert.Empty(t, first.errs)
	})
}
