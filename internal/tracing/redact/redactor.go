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

// Package redact removes secrets and personal data from captured call
// payloads before they are recorded on spans.
package redact

import (
	"fmt"
	"regexp"
	"strings"
)

// Mode determines how much of a captured value is kept.
type Mode string

const (
	// ModeNone disables redaction.
	ModeNone Mode = "none"

	// ModeStandard replaces values matching known secret patterns and
	// values stored under sensitive keys.
	ModeStandard Mode = "standard"

	// ModeStrict replaces every captured value.
	ModeStrict Mode = "strict"
)

// Placeholder replaces redacted values.
const Placeholder = "[REDACTED]"

// ParseMode parses a configured level. The empty string means standard.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(s)) {
	case "", ModeStandard:
		return ModeStandard, nil
	case ModeNone:
		return ModeNone, nil
	case ModeStrict:
		return ModeStrict, nil
	}
	return "", fmt.Errorf("unknown redaction level %q", s)
}

// Pattern is a named replacement rule.
type Pattern struct {
	Name        string
	Regex       *regexp.Regexp
	Replacement string
}

// CompilePattern compiles a user supplied rule. An empty replacement
// means Placeholder.
func CompilePattern(name, expr, replacement string) (Pattern, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return Pattern{}, fmt.Errorf("pattern %s: %w", name, err)
	}
	if replacement == "" {
		replacement = Placeholder
	}
	return Pattern{Name: name, Regex: re, Replacement: replacement}, nil
}

// StandardPatterns returns the rules applied in standard mode. Provider
// API keys come first so they are caught even without a key= prefix.
func StandardPatterns() []Pattern {
	return []Pattern{
		{
			Name:        "provider_key",
			Regex:       regexp.MustCompile(`\b(sk|rk|pk)-(?:proj-|ant-(?:api\d+-)?)?[A-Za-z0-9_\-]{20,}`),
			Replacement: "[REDACTED-API-KEY]",
		},
		{
			Name:        "google_key",
			Regex:       regexp.MustCompile(`\bAIza[0-9A-Za-z_\-]{35}\b`),
			Replacement: "[REDACTED-API-KEY]",
		},
		{
			Name:        "api_key",
			Regex:       regexp.MustCompile(`(?i)(api[_-]?key|apikey)["\s:=]+([a-zA-Z0-9_\-]{16,})`),
			Replacement: "$1=" + Placeholder,
		},
		{
			Name:        "bearer_token",
			Regex:       regexp.MustCompile(`(?i)(bearer\s+)([a-zA-Z0-9_\-\.]{20,})`),
			Replacement: "${1}" + Placeholder,
		},
		{
			Name:        "aws_key",
			Regex:       regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`),
			Replacement: "[REDACTED-AWS-KEY]",
		},
		{
			Name:        "private_key",
			Regex:       regexp.MustCompile(`(?s)(-----BEGIN (?:RSA |EC |DSA |OPENSSH )?PRIVATE KEY-----).*?(-----END (?:RSA |EC |DSA |OPENSSH )?PRIVATE KEY-----)`),
			Replacement: "${1}" + Placeholder + "${2}",
		},
		{
			Name:        "jwt",
			Regex:       regexp.MustCompile(`eyJ[a-zA-Z0-9_-]*\.eyJ[a-zA-Z0-9_-]*\.[a-zA-Z0-9_-]*`),
			Replacement: "[REDACTED-JWT]",
		},
		{
			Name:        "email",
			Regex:       regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`),
			Replacement: "[REDACTED-EMAIL]",
		},
		{
			Name:        "credit_card",
			Regex:       regexp.MustCompile(`\b\d{4}[\s-]?\d{4}[\s-]?\d{4}[\s-]?\d{4}\b`),
			Replacement: "[REDACTED-CC]",
		},
	}
}

// sensitiveKeys mark object fields whose values are always replaced in
// standard mode.
var sensitiveKeys = []string{
	"password", "passwd", "secret", "token",
	"api_key", "apikey", "authorization", "cookie", "private_key",
}

// Redactor applies a mode and pattern set. A nil *Redactor leaves values
// unchanged.
type Redactor struct {
	mode     Mode
	patterns []Pattern
}

// NewRedactor returns a redactor using StandardPatterns.
func NewRedactor(mode Mode) *Redactor {
	return NewRedactorWithPatterns(mode, StandardPatterns())
}

// NewRedactorWithPatterns returns a redactor with the given rules.
func NewRedactorWithPatterns(mode Mode, patterns []Pattern) *Redactor {
	return &Redactor{mode: mode, patterns: patterns}
}

// Mode returns the redaction mode.
func (r *Redactor) Mode() Mode {
	if r == nil {
		return ModeNone
	}
	return r.mode
}

// String applies the rules to s.
func (r *Redactor) String(s string) string {
	switch r.Mode() {
	case ModeNone:
		return s
	case ModeStrict:
		return Placeholder
	}
	for _, p := range r.patterns {
		s = p.Regex.ReplaceAllString(s, p.Replacement)
	}
	return s
}

// Value redacts a decoded JSON value: strings are matched against the
// patterns and fields under sensitive keys are replaced. The input is not
// modified.
func (r *Redactor) Value(v any) any {
	switch r.Mode() {
	case ModeNone:
		return v
	case ModeStrict:
		return Placeholder
	}
	return r.walk(v)
}

func (r *Redactor) walk(v any) any {
	switch v := v.(type) {
	case string:
		return r.String(v)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			if SensitiveKey(k) {
				out[k] = Placeholder
				continue
			}
			out[k] = r.walk(val)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = r.walk(val)
		}
		return out
	default:
		return v
	}
}

// Attributes redacts every value of attrs into a new map.
func (r *Redactor) Attributes(attrs map[string]any) map[string]any {
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		if r.Mode() == ModeStandard && SensitiveKey(k) {
			out[k] = Placeholder
			continue
		}
		out[k] = r.Value(v)
	}
	return out
}

// SensitiveKey reports whether a field name suggests a credential.
func SensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}
