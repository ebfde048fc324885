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
	"fmt"
	"strings"
)

// Prefix is the first segment of every channel name.
const Prefix = "llmtap"

// Name returns the channel name for an operation of an instrumented
// component: "llmtap:<component>:<operation>". Both parts are trimmed and
// must be non-empty and free of ':'.
func Name(component, operation string) (string, error) {
	c, err := namePart("component", component)
	if err != nil {
		return "", err
	}
	o, err := namePart("operation", operation)
	if err != nil {
		return "", err
	}
	return Prefix + ":" + c + ":" + o, nil
}

// MustName is like Name but panics on invalid input.
func MustName(component, operation string) string {
	name, err := Name(component, operation)
	if err != nil {
		panic(err)
	}
	return name
}

// ParseName splits a name produced by Name.
func ParseName(name string) (component, operation string, err error) {
	parts := strings.Split(name, ":")
	if len(parts) != 3 || parts[0] != Prefix || parts[1] == "" || parts[2] == "" {
		return "", "", fmt.Errorf("channel: %q is not a %s channel name", name, Prefix)
	}
	return parts[1], parts[2], nil
}

func namePart(field, v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", fmt.Errorf("channel: %s is required", field)
	}
	if strings.Contains(v, ":") {
		return "", fmt.Errorf("channel: %s %q must not contain ':'", field, v)
	}
	return v, nil
}
