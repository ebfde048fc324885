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

// Package export builds the span exporters llmtap can ship spans to.
package export

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel/sdk/trace"
)

// Kind names an exporter implementation.
type Kind string

const (
	KindConsole  Kind = "console"
	KindOTLP     Kind = "otlp"
	KindOTLPHTTP Kind = "otlp-http"
	KindNone     Kind = "none"
)

// ParseKind accepts the exporter names used in configuration files.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "console", "stdout":
		return KindConsole, nil
	case "otlp", "otlp-grpc", "otlp_grpc":
		return KindOTLP, nil
	case "otlp-http", "otlp_http":
		return KindOTLPHTTP, nil
	case "", "none":
		return KindNone, nil
	}
	return "", fmt.Errorf("unknown exporter type: %s", s)
}

// Options configures an exporter. Fields that do not apply to a kind are
// ignored.
type Options struct {
	// Endpoint is host:port of the OTLP receiver.
	Endpoint string
	// URLPath overrides the OTLP/HTTP path (default /v1/traces).
	URLPath string
	Headers map[string]string
	// Insecure sends OTLP without TLS.
	Insecure bool
	// TLS is used when Insecure is false. Nil means system roots.
	TLS      *tls.Config
	Timeout  time.Duration
	Compress bool

	// Writer receives console output (default os.Stdout).
	Writer io.Writer
	Pretty bool
}

// New creates an exporter of the given kind. KindNone returns a nil
// exporter and no error.
func New(ctx context.Context, kind Kind, opts Options) (trace.SpanExporter, error) {
	switch kind {
	case KindConsole:
		return newConsole(opts)
	case KindOTLP:
		return newOTLPGRPC(ctx, opts)
	case KindOTLPHTTP:
		return newOTLPHTTP(ctx, opts)
	case KindNone:
		return nil, nil
	}
	return nil, fmt.Errorf("unknown exporter type: %s", kind)
}

func clientTLS(opts Options) (*tls.Config, error) {
	if opts.TLS == nil {
		return &tls.Config{MinVersion: tls.VersionTLS12}, nil
	}
	if err := ValidateTLSConfig(opts.TLS); err != nil {
		return nil, fmt.Errorf("invalid TLS config: %w", err)
	}
	return opts.TLS, nil
}
