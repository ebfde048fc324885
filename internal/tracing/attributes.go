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

package tracing

// Span attribute keys recorded by the subscriber.
const (
	AttrComponent      = "llmtap.component"
	AttrOperation      = "llmtap.operation"
	AttrChannel        = "llmtap.channel"
	AttrCallID         = "llmtap.call_id"
	AttrStatus         = "llmtap.status"
	AttrInput          = "llmtap.input"
	AttrOutput         = "llmtap.output"
	AttrStream         = "llmtap.stream"
	AttrStreamChunks   = "llmtap.stream.chunks"
	AttrStreamObserved = "llmtap.stream.observed"
)

// Values of AttrStatus and of the status metric label.
const (
	StatusOK    = "ok"
	StatusError = "error"
)
