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
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// globsIntersect reports whether some path could match both file globs.
// Two wildcard segments are compared by their literal prefix and suffix,
// so the answer errs towards true.
func globsIntersect(a, b string) bool {
	if a == b {
		return true
	}
	for _, x := range expandBraces(a) {
		for _, y := range expandBraces(b) {
			if segmentsIntersect(strings.Split(x, "/"), strings.Split(y, "/")) {
				return true
			}
		}
	}
	return false
}

func segmentsIntersect(a, b []string) bool {
	switch {
	case len(a) == 0 && len(b) == 0:
		return true
	case len(a) > 0 && a[0] == "**":
		return segmentsIntersect(a[1:], b) || (len(b) > 0 && segmentsIntersect(a, b[1:]))
	case len(b) > 0 && b[0] == "**":
		return segmentsIntersect(a, b[1:]) || (len(a) > 0 && segmentsIntersect(a[1:], b))
	case len(a) == 0 || len(b) == 0:
		return false
	}
	return segmentIntersects(a[0], b[0]) && segmentsIntersect(a[1:], b[1:])
}

func segmentIntersects(x, y string) bool {
	switch {
	case !hasMeta(x):
		ok, _ := doublestar.Match(y, x)
		return ok
	case !hasMeta(y):
		ok, _ := doublestar.Match(x, y)
		return ok
	}
	px, sx := literalEnds(x)
	py, sy := literalEnds(y)
	return (strings.HasPrefix(px, py) || strings.HasPrefix(py, px)) &&
		(strings.HasSuffix(sx, sy) || strings.HasSuffix(sy, sx))
}

const globMeta = `*?[{\`

func hasMeta(s string) bool {
	return strings.ContainsAny(s, globMeta)
}

// literalEnds returns the text before the first and after the last
// wildcard of a segment.
func literalEnds(s string) (prefix, suffix string) {
	first := strings.IndexAny(s, globMeta)
	last := strings.LastIndexAny(s, globMeta+"]}")
	return s[:first], s[last+1:]
}

// expandBraces expands {a,b} alternatives into separate patterns.
func expandBraces(p string) []string {
	start := strings.IndexByte(p, '{')
	if start < 0 {
		return []string{p}
	}
	depth, last := 0, start+1
	var alts []string
	for i := start; i < len(p); i++ {
		switch p[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth > 0 {
				continue
			}
			alts = append(alts, p[last:i])
			var out []string
			for _, alt := range alts {
				out = append(out, expandBraces(p[:start]+alt+p[i+1:])...)
			}
			return out
		case ',':
			if depth == 1 {
				alts = append(alts, p[last:i])
				last = i + 1
			}
		}
	}
	return []string{p}
}
