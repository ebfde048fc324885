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

package instrument

import (
	"fmt"

	"github.com/tombee/llmtap/pkg/channel"
)

// FunctionKind tells whether an instrumented function completes
// synchronously or asynchronously.
type FunctionKind string

const (
	KindSync  FunctionKind = "sync"
	KindAsync FunctionKind = "async"
)

// Valid reports whether k is a known kind.
func (k FunctionKind) Valid() bool {
	return k == KindSync || k == KindAsync
}

// Module selects the files of a package that hold an instrumented function.
type Module struct {
	Name         string `yaml:"name" json:"name"`
	VersionRange string `yaml:"versionRange" json:"versionRange"`
	// FilePath is a doublestar glob relative to the module root.
	FilePath string `yaml:"filePath" json:"filePath"`
}

// Function identifies the instrumented function inside a matched file.
type Function struct {
	ClassName  string       `yaml:"className,omitempty" json:"className,omitempty"`
	MethodName string       `yaml:"methodName" json:"methodName"`
	Kind       FunctionKind `yaml:"kind" json:"kind"`
}

// Span customises the span a subscriber records for the operation.
type Span struct {
	// Name overrides the default "<component>.<operation>".
	Name string `yaml:"name,omitempty" json:"name,omitempty"`
	// Attributes maps attribute keys to jq queries over the first
	// argument of the call.
	Attributes map[string]string `yaml:"attributes,omitempty" json:"attributes,omitempty"`
	// Collect is an expr predicate over `chunk` selecting which streamed
	// chunks are kept for the final result.
	Collect string `yaml:"collect,omitempty" json:"collect,omitempty"`
}

// Config declares one instrumented operation.
type Config struct {
	Component string   `yaml:"component" json:"component"`
	Operation string   `yaml:"operation" json:"operation"`
	Module    Module   `yaml:"module" json:"module"`
	Function  Function `yaml:"function" json:"function"`
	Span      Span     `yaml:"span,omitempty" json:"span,omitempty"`
}

// ChannelName returns the tracing channel the operation publishes on, or
// an empty string when component or operation is invalid.
func (c Config) ChannelName() string {
	name, err := channel.Name(c.Component, c.Operation)
	if err != nil {
		return ""
	}
	return name
}

// SpanName returns the configured span name or "<component>.<operation>".
func (c Config) SpanName() string {
	if c.Span.Name != "" {
		return c.Span.Name
	}
	return c.Component + "." + c.Operation
}

// Target describes the function the config instruments, for messages.
func (c Config) Target() string {
	fn := c.Function.MethodName
	if c.Function.ClassName != "" {
		fn = c.Function.ClassName + "." + fn
	}
	return fmt.Sprintf("%s %s %s", c.Module.Name, c.Module.FilePath, fn)
}

// File is an instrumentation configuration document.
type File struct {
	Instrumentations []Config `yaml:"instrumentations" json:"instrumentations"`
}

// ModuleKind is the module format reported by the loader, for example
// "commonjs" or "module". It is passed through to the Transformer.
type ModuleKind string

// ModuleFile is a source file offered for instrumentation.
type ModuleFile struct {
	Name    string
	Version string
	// Path is relative to the module root.
	Path   string
	Kind   ModuleKind
	Source []byte
}

func (f ModuleFile) key() string {
	return f.Name + "@" + f.Version + ":" + f.Path
}
