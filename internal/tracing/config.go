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

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tombee/llmtap/internal/tracing/export"
	"github.com/tombee/llmtap/internal/tracing/redact"
	pkgerrors "github.com/tombee/llmtap/pkg/errors"
)

// Config holds tracing configuration.
type Config struct {
	// Enabled controls whether spans are recorded.
	Enabled bool `yaml:"enabled"`

	// ServiceName identifies this service in traces.
	ServiceName string `yaml:"service_name"`

	// ServiceVersion is the application version.
	ServiceVersion string `yaml:"service_version"`

	Sampling SamplingConfig `yaml:"sampling"`

	// Exporters lists export destinations. Spans are only kept in
	// process when empty.
	Exporters []ExporterConfig `yaml:"exporters"`

	// BatchSize is the maximum number of spans per export batch (default: 512).
	BatchSize int `yaml:"batch_size"`

	// BatchInterval is how often to flush spans (default: 5s).
	BatchInterval time.Duration `yaml:"batch_interval"`

	Capture CaptureConfig `yaml:"capture"`

	Redaction RedactionConfig `yaml:"redaction"`
}

// SamplingConfig controls which traces are recorded.
type SamplingConfig struct {
	// Enabled activates sampling (default: false, sample all).
	Enabled bool `yaml:"enabled"`

	// Rate is the fraction of traces to sample (0.0 - 1.0).
	Rate float64 `yaml:"rate"`

	// AlwaysSampleErrors samples root spans started with error=true,
	// for example from an extracted span attribute named "error".
	AlwaysSampleErrors bool `yaml:"always_sample_errors"`
}

// ExporterConfig defines an export destination.
type ExporterConfig struct {
	// Type is "console", "otlp", "otlp-http" or "none".
	Type string `yaml:"type"`

	// Endpoint is host:port of the OTLP receiver.
	Endpoint string `yaml:"endpoint"`

	// Headers are sent with every export, typically for authentication.
	Headers map[string]string `yaml:"headers"`

	Insecure bool          `yaml:"insecure"`
	TLS      TLSConfig     `yaml:"tls"`
	Timeout  time.Duration `yaml:"timeout"`
	Compress bool          `yaml:"compress"`
}

// TLSConfig points at the certificates used to reach a collector.
type TLSConfig struct {
	CAFile     string `yaml:"ca_file"`
	CertFile   string `yaml:"cert_file"`
	KeyFile    string `yaml:"key_file"`
	ServerName string `yaml:"server_name"`
	SkipVerify bool   `yaml:"skip_verify"`
}

// CaptureConfig controls which call payloads become span attributes.
type CaptureConfig struct {
	// Input records the first call argument and configured attribute
	// queries over it.
	Input bool `yaml:"input"`

	// Output records the reduced result.
	Output bool `yaml:"output"`

	// MaxAttributeLength truncates captured values. Zero means no limit.
	MaxAttributeLength int `yaml:"max_attribute_length"`
}

// RedactionConfig controls sensitive data redaction of captured values.
type RedactionConfig struct {
	// Level is the redaction mode: "none", "standard", or "strict".
	Level string `yaml:"level"`

	// Patterns are applied in addition to the standard ones.
	Patterns []RedactionPattern `yaml:"patterns"`
}

// RedactionPattern defines a sensitive data pattern.
type RedactionPattern struct {
	Name        string `yaml:"name"`
	Regex       string `yaml:"regex"`
	Replacement string `yaml:"replacement"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:        true,
		ServiceName:    "llmtap",
		ServiceVersion: "unknown",
		Sampling: SamplingConfig{
			Rate:               1.0,
			AlwaysSampleErrors: true,
		},
		BatchSize:     512,
		BatchInterval: 5 * time.Second,
		Capture: CaptureConfig{
			Input:              true,
			Output:             true,
			MaxAttributeLength: 4096,
		},
		Redaction: RedactionConfig{
			Level: string(redact.ModeStandard),
		},
	}
}

// LoadConfig reads a YAML tracing config. Fields not present in the file
// keep their DefaultConfig values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, &pkgerrors.ConfigError{Key: path, Reason: "cannot read file", Cause: err}
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, &pkgerrors.ConfigError{Key: path, Reason: "cannot parse YAML", Cause: err}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, &pkgerrors.ConfigError{Key: path, Reason: "invalid tracing config", Cause: err}
	}
	return cfg, nil
}

// Validate checks field values and returns pkg/errors.ValidationErrors.
func (c Config) Validate() error {
	var errs pkgerrors.ValidationErrors

	if c.Sampling.Rate < 0 || c.Sampling.Rate > 1 {
		errs = append(errs, &pkgerrors.ValidationError{
			Field:   "sampling.rate",
			Message: fmt.Sprintf("must be between 0 and 1, got %g", c.Sampling.Rate),
		})
	}
	if c.BatchSize < 0 {
		errs = append(errs, &pkgerrors.ValidationError{Field: "batch_size", Message: "must not be negative"})
	}
	if c.Capture.MaxAttributeLength < 0 {
		errs = append(errs, &pkgerrors.ValidationError{Field: "capture.max_attribute_length", Message: "must not be negative"})
	}

	for i, e := range c.Exporters {
		field := fmt.Sprintf("exporters[%d]", i)
		kind, err := export.ParseKind(e.Type)
		if err != nil {
			errs = append(errs, &pkgerrors.ValidationError{
				Field:      field + ".type",
				Message:    err.Error(),
				Suggestion: "use console, otlp or otlp-http",
			})
			continue
		}
		if (kind == export.KindOTLP || kind == export.KindOTLPHTTP) && e.Endpoint == "" {
			errs = append(errs, &pkgerrors.ValidationError{Field: field + ".endpoint", Message: "is required"})
		}
	}

	if _, err := redact.ParseMode(c.Redaction.Level); err != nil {
		errs = append(errs, &pkgerrors.ValidationError{
			Field:      "redaction.level",
			Message:    err.Error(),
			Suggestion: "use none, standard or strict",
		})
	}
	for i, p := range c.Redaction.Patterns {
		if _, err := redact.CompilePattern(p.Name, p.Regex, p.Replacement); err != nil {
			errs = append(errs, &pkgerrors.ValidationError{
				Field:   fmt.Sprintf("redaction.patterns[%d].regex", i),
				Message: err.Error(),
			})
		}
	}

	return errs.ErrOrNil()
}

// Redactor builds the redactor described by the redaction settings.
func (c Config) Redactor() (*redact.Redactor, error) {
	mode, err := redact.ParseMode(c.Redaction.Level)
	if err != nil {
		return nil, err
	}
	patterns := redact.StandardPatterns()
	for _, p := range c.Redaction.Patterns {
		compiled, err := redact.CompilePattern(p.Name, p.Regex, p.Replacement)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, compiled)
	}
	return redact.NewRedactorWithPatterns(mode, patterns), nil
}
