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

package channel

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tombee/llmtap/internal/log"
)

// TraceAsync runs fn as an asynchronous call traced on tc.
//
// Events are published in the order start, end, asyncStart and then
// asyncEnd when fn succeeds or error when it fails. fn receives
// call.Context as left by the start handlers, carrying call so nested
// traced calls see it as their parent. The value returned on success is
// call.Result after the asyncEnd handlers ran.
//
// When tc has no subscribers fn runs directly and no event is published.
func TraceAsync[R any](tc *TracingChannel, call *Call, fn func(ctx context.Context) (R, error)) (R, error) {
	if !tc.HasSubscribers() {
		return fn(contextOf(call))
	}
	if call == nil {
		call = NewCall(context.Background())
	}
	call.begin(tc.name)

	tc.publish(Start, call)
	result, err := invoke(tc, call, func() (R, error) {
		return fn(WithCall(call.Context, call))
	})
	tc.publish(End, call)
	tc.publish(AsyncStart, call)

	if err != nil {
		call.Err = err
		tc.publish(Error, call)
		return result, err
	}
	call.Result = result
	tc.publish(AsyncEnd, call)
	return resultOf(tc, AsyncEnd, call, result), nil
}

// TraceSync runs fn as a synchronous call traced on tc: start, then end
// when fn succeeds or error when it fails. End handlers may replace
// call.Result.
func TraceSync[R any](tc *TracingChannel, call *Call, fn func() (R, error)) (R, error) {
	if !tc.HasSubscribers() {
		return fn()
	}
	if call == nil {
		call = NewCall(context.Background())
	}
	call.begin(tc.name)

	tc.publish(Start, call)
	result, err := invoke(tc, call, fn)
	if err != nil {
		call.Err = err
		tc.publish(Error, call)
		return result, err
	}
	call.Result = result
	tc.publish(End, call)
	return resultOf(tc, End, call, result), nil
}

// invoke runs fn and publishes error before letting a panic continue.
func invoke[R any](tc *TracingChannel, call *Call, fn func() (R, error)) (result R, err error) {
	returned := false
	defer func() {
		if returned {
			return
		}
		r := recover()
		call.Err = &PanicError{Value: r}
		tc.publish(Error, call)
		if r != nil {
			panic(r)
		}
	}()
	result, err = fn()
	returned = true
	return result, err
}

// resultOf returns call.Result as R. A substitute that does not convert
// is dropped and the OnResultRejected hooks run.
func resultOf[R any](tc *TracingChannel, kind Kind, call *Call, original R) R {
	if call.Result == nil {
		var zero R
		if any(original) == nil {
			return zero
		}
	}
	if v, ok := call.Result.(R); ok {
		return v
	}
	tc.logger.Warn("channel handler replaced result with an incompatible value",
		slog.String(log.CallIDKey, call.ID),
		slog.String("want", fmt.Sprintf("%T", original)),
		slog.String("got", fmt.Sprintf("%T", call.Result)))
	call.Result = original
	for _, fn := range call.takeRejected() {
		tc.run(Event{Kind: kind, Call: call}, func(*Call) { fn() })
	}
	return original
}

func contextOf(call *Call) context.Context {
	if call == nil || call.Context == nil {
		return context.Background()
	}
	return call.Context
}
