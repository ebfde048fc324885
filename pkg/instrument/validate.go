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
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/tombee/llmtap/internal/version"
	"github.com/tombee/llmtap/pkg/channel"
	pkgerrors "github.com/tombee/llmtap/pkg/errors"
)

// Validate checks every config and reports all problems at once as
// errors.ValidationErrors. Besides per-field checks it rejects configs that
// target the same function in files both globs can match with intersecting
// version ranges, since such a file would be instrumented twice.
func Validate(configs []Config) error {
	var errs pkgerrors.ValidationErrors
	ranges := make([]*version.Range, len(configs))

	for i := range configs {
		var rng *version.Range
		errs, rng = validateConfig(errs, i, configs[i])
		ranges[i] = rng
	}
	errs = append(errs, overlaps(configs, ranges)...)
	return errs.ErrOrNil()
}

func field(i int, path string) string {
	return fmt.Sprintf("instrumentations[%d].%s", i, path)
}

func validateConfig(errs pkgerrors.ValidationErrors, i int, c Config) (pkgerrors.ValidationErrors, *version.Range) {
	if _, err := channel.Name(c.Component, "x"); err != nil {
		errs = append(errs, &pkgerrors.ValidationError{Field: field(i, "component"), Message: err.Error()})
	}
	if _, err := channel.Name("x", c.Operation); err != nil {
		errs = append(errs, &pkgerrors.ValidationError{Field: field(i, "operation"), Message: err.Error()})
	}

	if c.Module.Name == "" {
		errs = append(errs, &pkgerrors.ValidationError{Field: field(i, "module.name"), Message: "is required"})
	}

	var rng *version.Range
	if c.Module.VersionRange == "" {
		errs = append(errs, &pkgerrors.ValidationError{
			Field:      field(i, "module.versionRange"),
			Message:    "is required",
			Suggestion: `use "*" to match every version`,
		})
	} else if r, err := version.ParseRange(c.Module.VersionRange); err != nil {
		errs = append(errs, &pkgerrors.ValidationError{Field: field(i, "module.versionRange"), Message: err.Error()})
	} else {
		rng = r
	}

	switch {
	case c.Module.FilePath == "":
		errs = append(errs, &pkgerrors.ValidationError{Field: field(i, "module.filePath"), Message: "is required"})
	case !doublestar.ValidatePattern(c.Module.FilePath):
		errs = append(errs, &pkgerrors.ValidationError{
			Field:   field(i, "module.filePath"),
			Message: fmt.Sprintf("invalid glob %q", c.Module.FilePath),
		})
	}

	if c.Function.MethodName == "" {
		errs = append(errs, &pkgerrors.ValidationError{Field: field(i, "function.methodName"), Message: "is required"})
	}
	if !c.Function.Kind.Valid() {
		errs = append(errs, &pkgerrors.ValidationError{
			Field:      field(i, "function.kind"),
			Message:    fmt.Sprintf("unknown kind %q", c.Function.Kind),
			Suggestion: `use "sync" or "async"`,
		})
	}

	keys := make([]string, 0, len(c.Span.Attributes))
	for k := range c.Span.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := ValidateQuery(c.Span.Attributes[k]); err != nil {
			errs = append(errs, &pkgerrors.ValidationError{Field: field(i, "span.attributes."+k), Message: err.Error()})
		}
	}
	if c.Span.Collect != "" {
		if err := ValidatePredicate(c.Span.Collect); err != nil {
			errs = append(errs, &pkgerrors.ValidationError{Field: field(i, "span.collect"), Message: err.Error()})
		}
	}
	return errs, rng
}

type targetKey struct {
	module, class, method string
}

// overlaps reports configs for the same function whose file globs can
// match a common path and whose version ranges intersect.
func overlaps(configs []Config, ranges []*version.Range) pkgerrors.ValidationErrors {
	var errs pkgerrors.ValidationErrors
	seen := make(map[targetKey][]int)
	for i, c := range configs {
		if ranges[i] == nil || !doublestar.ValidatePattern(c.Module.FilePath) {
			continue
		}
		key := targetKey{c.Module.Name, c.Function.ClassName, c.Function.MethodName}
		for _, j := range seen[key] {
			if !globsIntersect(configs[j].Module.FilePath, c.Module.FilePath) {
				continue
			}
			iv, ok := ranges[j].Overlap(ranges[i])
			if !ok {
				continue
			}
			msg := fmt.Sprintf("overlaps instrumentations[%d] for %s on versions %s", j, c.Target(), iv)
			if other := configs[j].Module.FilePath; other != c.Module.FilePath {
				msg += fmt.Sprintf(" (file %q also matches %q)", other, c.Module.FilePath)
			}
			errs = append(errs, &pkgerrors.ValidationError{
				Field:      field(i, "module.versionRange"),
				Message:    msg,
				Suggestion: "narrow one of the version ranges or file globs so they do not intersect",
			})
		}
		seen[key] = append(seen[key], i)
	}
	return errs
}

// ValidateQuery checks that q is a compilable jq query.
func ValidateQuery(q string) error {
	_, err := CompileQuery(q)
	return err
}

// ValidatePredicate checks that src compiles as a boolean expr over chunk.
func ValidatePredicate(src string) error {
	if _, err := CompilePredicate(src); err != nil {
		return fmt.Errorf("invalid collect expression: %w", err)
	}
	return nil
}
