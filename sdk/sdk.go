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
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/tombee/llmtap/internal/log"
	"github.com/tombee/llmtap/internal/tracing"
	"github.com/tombee/llmtap/pkg/channel"
	"github.com/tombee/llmtap/pkg/instrument"
	"github.com/tombee/llmtap/pkg/observability"
)

const tracerName = "github.com/tombee/llmtap"

// SDK records spans for calls traced on the channels of its
// instrumentation configs. Each instance owns its tracer provider.
type SDK struct {
	logger   *slog.Logger
	config   tracing.Config
	provider *tracing.OTelProvider // nil when tracing is disabled
	sub      *tracing.Subscriber
	registry channel.Registry
	matcher  *instrument.Matcher

	closeMu sync.Mutex
	closed  bool
}

// New creates an SDK instance. Instrumentation configs from every source
// are validated as one set, and the tracing config is validated before any
// provider is created.
//
// Example:
//
//	s, err := sdk.New(
//		sdk.WithInstrumentationFiles("configs/openai.yaml"),
//		sdk.WithServiceName("chat-api"),
//	)
//	if err != nil {
//		return err
//	}
//	defer s.Close(ctx)
func New(opts ...Option) (*SDK, error) {
	st := &settings{tracing: tracing.DefaultConfig()}
	for _, opt := range opts {
		if err := opt(st); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}
	if st.logger == nil {
		st.logger = log.New(log.FromEnv())
	}
	if st.registry == nil {
		st.registry = channel.Default()
	}

	cfg := st.tracing
	if st.tracingFile != "" {
		loaded, err := tracing.LoadConfig(st.tracingFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if st.serviceName != "" {
		cfg.ServiceName = st.serviceName
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tracing config: %w", err)
	}

	var configs []instrument.Config
	if len(st.files) > 0 {
		loaded, err := instrument.LoadAll(st.files...)
		if err != nil {
			return nil, err
		}
		configs = append(configs, loaded...)
	}
	configs = append(configs, st.configs...)
	matcher, err := instrument.NewMatcher(configs)
	if err != nil {
		return nil, fmt.Errorf("invalid instrumentation: %w", err)
	}

	redactor, err := cfg.Redactor()
	if err != nil {
		return nil, err
	}

	s := &SDK{
		logger:   log.WithComponent(st.logger, "sdk"),
		config:   cfg,
		registry: st.registry,
		matcher:  matcher,
	}

	subOpts := []tracing.SubscriberOption{
		tracing.WithRegistry(st.registry),
		tracing.WithRedactor(redactor),
		tracing.WithCapture(cfg.Capture),
		tracing.WithLogger(st.logger),
	}
	tracer := observability.Noop
	if cfg.Enabled {
		provider, err := tracing.NewOTelProviderWithConfig(context.Background(), cfg, st.logger, st.tpOptions...)
		if err != nil {
			return nil, err
		}
		s.provider = provider
		tracer = provider.Tracer(tracerName)
		subOpts = append(subOpts, tracing.WithMetrics(provider.MetricsCollector()))
	}
	s.sub = tracing.NewSubscriber(tracer, subOpts...)

	s.logger.Debug("sdk ready",
		slog.Int("configs", len(configs)),
		slog.Bool("tracing", cfg.Enabled),
		slog.String("service", cfg.ServiceName))
	return s, nil
}

// Binding customises how a bound operation's result is recorded. T is the
// chunk type of streamed results.
type Binding[T any] = tracing.Binding[T]

// Bind records spans for calls on the named channel using the first loaded
// config that publishes there. The returned function unsubscribes; Close
// unsubscribes every binding.
func Bind[T any](s *SDK, channelName string, b Binding[T]) (unbind func(), err error) {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	for _, cfg := range s.matcher.Configs() {
		if cfg.ChannelName() == channelName {
			return tracing.Bind(s.sub, cfg, b)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownChannel, channelName)
}

// Configs returns the loaded instrumentation configs.
func (s *SDK) Configs() []instrument.Config {
	return s.matcher.Configs()
}

// Channels returns the sorted channel names of the loaded configs.
func (s *SDK) Channels() []string {
	return instrument.Channels(s.matcher.Configs())
}

// Match returns the configs that apply to filePath of the given module
// version.
func (s *SDK) Match(module, moduleVersion, filePath string) ([]instrument.Config, error) {
	return s.matcher.Match(module, moduleVersion, filePath)
}

// Channel returns the tracing channel patched code should publish on.
func (s *SDK) Channel(name string) *channel.TracingChannel {
	return s.registry.Channel(name)
}

// Instrumenter returns an instrumenter over the loaded configs using the
// engine built by factory.
func (s *SDK) Instrumenter(factory instrument.EngineFactory) (*instrument.Instrumenter, error) {
	return instrument.New(s.matcher.Configs(), factory, instrument.WithLogger(s.logger))
}

// Config returns the effective tracing configuration.
func (s *SDK) Config() TracingConfig {
	return s.config
}

// MetricsHandler serves Prometheus metrics. It responds 404 when tracing
// is disabled.
func (s *SDK) MetricsHandler() http.Handler {
	if s.provider == nil {
		return http.NotFoundHandler()
	}
	return s.provider.MetricsHandler()
}

// ForceFlush exports any buffered spans.
func (s *SDK) ForceFlush(ctx context.Context) error {
	if s.provider == nil {
		return nil
	}
	return s.provider.ForceFlush(ctx)
}

// Close unsubscribes every binding and shuts the providers down, flushing
// buffered spans. Close is safe to call multiple times.
func (s *SDK) Close(ctx context.Context) error {
	s.closeMu.Lock()
	if s.closed {
		s.closeMu.Unlock()
		return nil
	}
	s.closed = true
	s.closeMu.Unlock()

	s.sub.Close()
	if s.provider == nil {
		return nil
	}
	if err := s.provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown tracing: %w", err)
	}
	return nil
}

// InjectHeaders writes the trace context of ctx into outgoing request
// headers, so provider-side traces join the caller's.
func InjectHeaders(ctx context.Context, h http.Header) {
	tracing.InjectHeaders(ctx, h)
}
