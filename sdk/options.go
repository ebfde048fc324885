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

import (
	"errors"
	"log/slog"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/tombee/llmtap/internal/tracing"
	"github.com/tombee/llmtap/pkg/channel"
	"github.com/tombee/llmtap/pkg/instrument"
)

// Option configures an SDK instance.
type Option func(*settings) error

type settings struct {
	logger      *slog.Logger
	tracing     tracing.Config
	tracingFile string
	serviceName string
	files       []string
	configs     []instrument.Config
	registry    channel.Registry
	tpOptions   []sdktrace.TracerProviderOption
}

// WithLogger sets a custom structured logger.
// If not set, logging follows the LLMTAP_* environment variables.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		s.logger = logger
		return nil
	}
}

// WithTracingConfig replaces the default tracing configuration.
func WithTracingConfig(cfg TracingConfig) Option {
	return func(s *settings) error {
		s.tracing = cfg
		return nil
	}
}

// WithTracingConfigFile loads the tracing configuration from a YAML file.
// It takes precedence over WithTracingConfig.
func WithTracingConfigFile(path string) Option {
	return func(s *settings) error {
		if path == "" {
			return errors.New("tracing config path cannot be empty")
		}
		s.tracingFile = path
		return nil
	}
}

// WithServiceName sets the service.name resource attribute, overriding
// any tracing config.
func WithServiceName(name string) Option {
	return func(s *settings) error {
		if name == "" {
			return errors.New("service name cannot be empty")
		}
		s.serviceName = name
		return nil
	}
}

// WithInstrumentationFiles adds instrumentation config files. All files
// and configs given through WithInstrumentations are validated together.
func WithInstrumentationFiles(paths ...string) Option {
	return func(s *settings) error {
		s.files = append(s.files, paths...)
		return nil
	}
}

// WithInstrumentations adds configs built in code.
func WithInstrumentations(configs ...instrument.Config) Option {
	return func(s *settings) error {
		s.configs = append(s.configs, configs...)
		return nil
	}
}

// WithRegistry sets the channel registry. Defaults to channel.Default().
func WithRegistry(r channel.Registry) Option {
	return func(s *settings) error {
		if r == nil {
			return errors.New("registry cannot be nil")
		}
		s.registry = r
		return nil
	}
}

// WithTracerProviderOptions appends options to the OpenTelemetry tracer
// provider, for example an extra span processor.
func WithTracerProviderOptions(opts ...sdktrace.TracerProviderOption) Option {
	return func(s *settings) error {
		s.tpOptions = append(s.tpOptions, opts...)
		return nil
	}
}
