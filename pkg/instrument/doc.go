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

// Package instrument describes which library functions are traced and
// decides, for each module file a loader offers, whether it is rewritten.
//
// Configurations are YAML documents:
//
//	instrumentations:
//	  - component: openai
//	    operation: chat
//	    module:
//	      name: openai
//	      versionRange: ">=4.0.0 <5.0.0"
//	      filePath: resources/chat/completions.js
//	    function:
//	      className: Completions
//	      methodName: create
//	      kind: async
//	    span:
//	      attributes:
//	        gen_ai.request.model: .model
//	      collect: chunk.choices != nil
//
// The code rewriting itself is delegated to an Engine supplied by the
// caller; Instrumenter only guarantees that any failure leaves the
// original source untouched.
package instrument
