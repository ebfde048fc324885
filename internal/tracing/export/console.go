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

package export

import (
	"fmt"
	"os"

	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/trace"
)

func newConsole(opts Options) (trace.SpanExporter, error) {
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}
	stdoutOpts := []stdouttrace.Option{stdouttrace.WithWriter(w)}
	if opts.Pretty {
		stdoutOpts = append(stdoutOpts, stdouttrace.WithPrettyPrint())
	}

	exporter, err := stdouttrace.New(stdoutOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create console exporter: %w", err)
	}
	return exporter, nil
}
