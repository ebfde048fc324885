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
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/tombee/llmtap/internal/log"
	pkgerrors "github.com/tombee/llmtap/pkg/errors"
)

// Result is the output of a Transformer.
type Result struct {
	Code []byte
	Map  []byte
}

// Transformer rewrites the source of one module file.
type Transformer interface {
	Transform(source []byte, kind ModuleKind) (*Result, error)
}

// TransformerFunc adapts a function to Transformer.
type TransformerFunc func(source []byte, kind ModuleKind) (*Result, error)

func (f TransformerFunc) Transform(source []byte, kind ModuleKind) (*Result, error) {
	return f(source, kind)
}

// Engine returns the Transformer for a module file, or nil when nothing
// in the file is instrumented.
type Engine interface {
	GetTransformer(moduleName, moduleVersion, modulePath string) Transformer
}

// EngineFunc adapts a function to Engine.
type EngineFunc func(moduleName, moduleVersion, modulePath string) Transformer

func (f EngineFunc) GetTransformer(moduleName, moduleVersion, modulePath string) Transformer {
	return f(moduleName, moduleVersion, modulePath)
}

// EngineFactory builds an Engine for a validated set of configs.
type EngineFactory func(configs []Config) (Engine, error)

// Output is what a loader uses in place of the offered source.
type Output struct {
	Code        []byte
	Map         []byte
	Transformed bool
}

// Stats counts Process outcomes.
type Stats struct {
	Transformed   int64 `json:"transformed"`
	Unmatched     int64 `json:"unmatched"`
	Unversioned   int64 `json:"unversioned"`
	NoTransformer int64 `json:"noTransformer"`
	Failed        int64 `json:"failed"`
	Duplicate     int64 `json:"duplicate"`
}

// Option configures an Instrumenter.
type Option func(*Instrumenter)

// WithLogger sets the Instrumenter logger.
func WithLogger(logger *slog.Logger) Option {
	return func(in *Instrumenter) {
		in.logger = logger
	}
}

// Instrumenter decides, per offered module file, whether to rewrite it.
// Any failure results in the original source being used unchanged.
type Instrumenter struct {
	matcher *Matcher
	engine  Engine
	logger  *slog.Logger

	mu   sync.Mutex
	seen map[string]struct{}

	transformed   atomic.Int64
	unmatched     atomic.Int64
	unversioned   atomic.Int64
	noTransformer atomic.Int64
	failed        atomic.Int64
	duplicate     atomic.Int64
}

// New validates configs and builds the engine with factory.
func New(configs []Config, factory EngineFactory, opts ...Option) (*Instrumenter, error) {
	if factory == nil {
		return nil, errors.New("instrument: engine factory is required")
	}
	matcher, err := NewMatcher(configs)
	if err != nil {
		return nil, err
	}
	engine, err := factory(matcher.Configs())
	if err != nil {
		return nil, fmt.Errorf("instrument: create engine: %w", err)
	}
	if engine == nil {
		return nil, errors.New("instrument: engine factory returned nil")
	}

	in := &Instrumenter{
		matcher: matcher,
		engine:  engine,
		seen:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(in)
	}
	in.logger = log.WithComponent(in.logger, "instrument")
	return in, nil
}

// Matcher returns the matcher built from the configs.
func (in *Instrumenter) Matcher() *Matcher {
	return in.matcher
}

// Process returns the code to load for f.
func (in *Instrumenter) Process(f ModuleFile) Output {
	passthrough := Output{Code: f.Source}
	logger := in.logger.With(log.ModuleKey, f.Name, log.FileKey, f.Path)

	if f.Version == "" {
		in.unversioned.Add(1)
		logger.Warn("module has no version, skipping instrumentation")
		return passthrough
	}

	configs, err := in.matcher.Match(f.Name, f.Version, f.Path)
	if err != nil {
		in.unversioned.Add(1)
		logger.Warn("module version cannot be parsed, skipping instrumentation",
			slog.String("version", f.Version), log.Error(err))
		return passthrough
	}
	if len(configs) == 0 {
		in.unmatched.Add(1)
		return passthrough
	}

	if !in.claim(f) {
		in.duplicate.Add(1)
		logger.Debug("module file already processed")
		return passthrough
	}

	transformer := in.engine.GetTransformer(f.Name, f.Version, f.Path)
	if transformer == nil {
		in.noTransformer.Add(1)
		return passthrough
	}

	res, err := transform(transformer, f)
	if err != nil {
		in.failed.Add(1)
		logger.Warn("instrumentation failed, using original source", log.Error(err))
		return passthrough
	}

	in.transformed.Add(1)
	log.Trace(logger, "module file instrumented", slog.Int("configs", len(configs)))
	return Output{Code: res.Code, Map: res.Map, Transformed: true}
}

func (in *Instrumenter) claim(f ModuleFile) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	k := f.key()
	if _, ok := in.seen[k]; ok {
		return false
	}
	in.seen[k] = struct{}{}
	return true
}

// Reset forgets which files were processed, for a new build.
func (in *Instrumenter) Reset() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.seen = make(map[string]struct{})
}

// Stats returns a snapshot of the outcome counters.
func (in *Instrumenter) Stats() Stats {
	return Stats{
		Transformed:   in.transformed.Load(),
		Unmatched:     in.unmatched.Load(),
		Unversioned:   in.unversioned.Load(),
		NoTransformer: in.noTransformer.Load(),
		Failed:        in.failed.Load(),
		Duplicate:     in.duplicate.Load(),
	}
}

func transform(t Transformer, f ModuleFile) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &pkgerrors.TransformError{
				Module: f.Name,
				File:   f.Path,
				Cause:  &pkgerrors.HandlerError{Handler: "Transform", Value: r},
			}
		}
	}()

	res, err = t.Transform(f.Source, f.Kind)
	switch {
	case err != nil:
		return nil, &pkgerrors.TransformError{Module: f.Name, File: f.Path, Cause: err}
	case res == nil:
		return nil, &pkgerrors.TransformError{Module: f.Name, File: f.Path, Cause: errors.New("transformer returned no result")}
	case len(res.Code) == 0:
		return nil, &pkgerrors.TransformError{Module: f.Name, File: f.Path, Cause: errors.New("transformer returned empty code")}
	}
	return res, nil
}
