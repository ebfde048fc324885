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

/*
Package stream observes streamed results without changing what the consumer
of the stream sees.

A stream is any value implementing Iterable. Each call to Iter starts a
session: an independent traversal with its own chunk buffer. Patch wraps an
Iterable so that every session reports its chunks, its completion, an early
Return, or an error to caller-supplied callbacks:

	wrapped := stream.PatchIterable(chunks, stream.Options[Chunk]{
	    OnChunk:    func(c Chunk) { span.AddEvent("chunk", nil) },
	    OnComplete: func(all []Chunk) { finish(span, all) },
	    OnError:    func(err error, partial []Chunk) { fail(span, err) },
	})

The wrapper yields exactly the values and errors of the original. Callbacks
run synchronously inside Next, Return and Throw; a panicking callback is
recovered and logged and never reaches the consumer.

Patching is idempotent. A wrapper is never wrapped again, and patching the
same original twice returns the first wrapper while it is still reachable.
Values that cannot be tracked by identity (non-comparable types) or that
report Frozen are returned unchanged with a warning.

Reduce builds on Patch for callers that do not know whether a result is a
stream: streams are reduced to a single value once drained, plain values go
through an optional transform.

An iterator that does not implement Returner cannot report that its
consumer stopped early; abandoning such a stream fires no callback.
*/
package stream
