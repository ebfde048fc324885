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

// Package channel implements the event contract between instrumented calls
// and tracing subscribers.
//
// Every instrumented operation has a TracingChannel named with Name. A call
// through TraceAsync publishes, on that channel and in order, the events
// start, end, asyncStart and then exactly one of asyncEnd or error. All
// events of a call share one *Call, so a subscriber can keep per-call state
// on it between events.
//
// Subscribers register Handlers on a channel obtained from a Registry.
// Handlers run synchronously on the calling goroutine; a handler that panics
// is recovered and logged and never changes what the instrumented call
// returns. An asyncEnd handler may replace Call.Result with a value of the
// same type, which is how streamed results are wrapped for observation.
package channel
