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

// Kind identifies an event in the lifecycle of a call.
type Kind string

const (
	// Start is published before the call runs.
	Start Kind = "start"
	// End is published when the call returns control to the caller.
	End Kind = "end"
	// AsyncStart is published when the asynchronous outcome starts settling.
	AsyncStart Kind = "asyncStart"
	// AsyncEnd is published when the call succeeded; Call.Result is set.
	AsyncEnd Kind = "asyncEnd"
	// Error is published when the call failed; Call.Err is set.
	Error Kind = "error"
)

// Kinds lists every event kind in publication order.
var Kinds = []Kind{Start, End, AsyncStart, AsyncEnd, Error}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case Start, End, AsyncStart, AsyncEnd, Error:
		return true
	}
	return false
}

// Terminal reports whether k ends a call.
func (k Kind) Terminal() bool {
	return k == AsyncEnd || k == Error
}

func (k Kind) String() string { return string(k) }

// Event is a single publication on a tracing channel.
type Event struct {
	Kind Kind
	Call *Call
}

// ChannelName returns the diagnostics-style name of the sub-channel the
// event belongs to, for example "tracing:llmtap:openai:chat:asyncEnd".
func (e Event) ChannelName() string {
	name := ""
	if e.Call != nil {
		name = e.Call.Channel
	}
	return "tracing:" + name + ":" + string(e.Kind)
}
