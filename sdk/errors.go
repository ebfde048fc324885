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

package sdk

import "errors"

var (
	// ErrClosed is returned by operations on a closed SDK.
	ErrClosed = errors.New("sdk: closed")

	// ErrUnknownChannel is returned by Bind when no loaded config
	// publishes on the requested channel.
	ErrUnknownChannel = errors.New("sdk: no instrumentation config for channel")
)
