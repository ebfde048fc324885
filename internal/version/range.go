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

package version

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Range is a set of version intervals, written in npm range syntax:
// comparator sets separated by "||", each set a space- or comma-separated
// list of comparators that must all hold.
//
// Supported comparators:
//   - "1.2.3" or "=1.2.3" - exact match; "1.2" and "1.x" are x-ranges
//   - "^1.2.3" - compatible with (same major, or same minor below 1.0.0)
//   - "~1.2.3" - approximately (same major.minor)
//   - ">=1.2.3", ">1.2.3", "<=1.2.3", "<1.2.3"
//   - "1.2.3 - 2.3.4" - inclusive hyphen range
//   - "*", "x", "latest" - any version
type Range struct {
	raw       string
	intervals []Interval
}

// Interval is a contiguous span of versions. A nil bound version means the
// interval is unbounded on that side.
type Interval struct {
	Lower Bound
	Upper Bound
}

// Bound is one end of an Interval.
type Bound struct {
	Version   *Version
	Inclusive bool
}

var (
	operatorSpaceRegex = regexp.MustCompile(`(<=|>=|<|>|=|\^|~>?)\s+`)
	comparatorRegex    = regexp.MustCompile(`^(<=|>=|<|>|=|\^|~>?)?\s*v?(.*)$`)
)

// ParseRange parses an npm-style version range.
func ParseRange(s string) (*Range, error) {
	s = strings.TrimSpace(s)
	r := &Range{raw: s}
	if s == "" {
		return nil, fmt.Errorf("empty version range")
	}

	for _, set := range strings.Split(s, "||") {
		iv, err := parseComparatorSet(set)
		if err != nil {
			return nil, fmt.Errorf("invalid version range %q: %w", s, err)
		}
		if !iv.Empty() {
			r.intervals = append(r.intervals, iv)
		}
	}

	return r, nil
}

// MustParseRange is like ParseRange but panics on error.
func MustParseRange(s string) *Range {
	r, err := ParseRange(s)
	if err != nil {
		panic(err)
	}
	return r
}

// String returns the range as written.
func (r *Range) String() string {
	return r.raw
}

// Intervals returns the non-empty intervals the range is made of.
func (r *Range) Intervals() []Interval {
	return r.intervals
}

// Contains reports whether v satisfies the range. As in npm, a prerelease
// version only satisfies an interval with a prerelease bound on the same
// major.minor.patch, so "^1.0.0" excludes "1.5.0-beta.1" while
// ">=1.5.0-beta.0 <2.0.0" includes it.
func (r *Range) Contains(v *Version) bool {
	for _, iv := range r.intervals {
		if iv.Contains(v) && (v.Prerelease == "" || iv.admitsPrerelease(v)) {
			return true
		}
	}
	return false
}

// ContainsString parses s and reports whether it satisfies the range.
func (r *Range) ContainsString(s string) (bool, error) {
	v, err := Parse(s)
	if err != nil {
		return false, err
	}
	return r.Contains(v), nil
}

// Overlap returns the first non-empty intersection between r and other.
func (r *Range) Overlap(other *Range) (Interval, bool) {
	for _, a := range r.intervals {
		for _, b := range other.intervals {
			if iv := a.Intersect(b); !iv.Empty() {
				return iv, true
			}
		}
	}
	return Interval{}, false
}

func parseComparatorSet(set string) (Interval, error) {
	set = strings.TrimSpace(strings.ReplaceAll(set, ",", " "))
	all := Interval{}

	if lo, hi, ok := strings.Cut(set, " - "); ok {
		return parseHyphen(strings.TrimSpace(lo), strings.TrimSpace(hi))
	}

	set = operatorSpaceRegex.ReplaceAllString(set, "$1")
	for _, tok := range strings.Fields(set) {
		iv, err := parseComparator(tok)
		if err != nil {
			return Interval{}, err
		}
		all = all.Intersect(iv)
	}
	return all, nil
}

func parseHyphen(lo, hi string) (Interval, error) {
	from, _, err := parsePartial(lo)
	if err != nil {
		return Interval{}, err
	}
	to, precision, err := parsePartial(hi)
	if err != nil {
		return Interval{}, err
	}

	iv := Interval{}
	if from != nil {
		iv.Lower = Bound{Version: from, Inclusive: true}
	}
	if to != nil {
		iv.Upper = upperFromPartial(to, precision, true)
	}
	return iv, nil
}

func parseComparator(tok string) (Interval, error) {
	switch strings.ToLower(tok) {
	case "", "*", "x", "latest":
		return Interval{}, nil
	}

	matches := comparatorRegex.FindStringSubmatch(tok)
	if matches == nil {
		return Interval{}, fmt.Errorf("invalid comparator: %s", tok)
	}
	op := matches[1]

	v, precision, err := parsePartial(matches[2])
	if err != nil {
		return Interval{}, err
	}
	if v == nil {
		// "*" with an operator still means any version, except "<*".
		if op == "<" || op == ">" {
			return emptyInterval(), nil
		}
		return Interval{}, nil
	}

	incl := func(v *Version) Bound { return Bound{Version: v, Inclusive: true} }
	excl := func(v *Version) Bound { return Bound{Version: v} }

	switch op {
	case "", "=":
		return Interval{Lower: incl(v), Upper: upperFromPartial(v, precision, true)}, nil
	case ">":
		if precision == 3 {
			return Interval{Lower: excl(v)}, nil
		}
		return Interval{Lower: incl(bump(v, precision))}, nil
	case ">=":
		return Interval{Lower: incl(v)}, nil
	case "<":
		return Interval{Upper: excl(v)}, nil
	case "<=":
		return Interval{Upper: upperFromPartial(v, precision, true)}, nil
	case "~", "~>":
		if precision == 1 {
			return Interval{Lower: incl(v), Upper: excl(bump(v, 1))}, nil
		}
		return Interval{Lower: incl(v), Upper: excl(bump(v, 2))}, nil
	case "^":
		switch {
		case v.Major > 0 || precision == 1:
			return Interval{Lower: incl(v), Upper: excl(bump(v, 1))}, nil
		case v.Minor > 0 || precision == 2:
			return Interval{Lower: incl(v), Upper: excl(bump(v, 2))}, nil
		default:
			return Interval{Lower: incl(v), Upper: excl(bump(v, 3))}, nil
		}
	}
	return Interval{}, fmt.Errorf("unsupported operator %q", op)
}

// parsePartial parses versions such as "1", "1.2", "1.x" and "1.2.3-rc.1".
// It returns the version with missing parts zeroed and the number of
// numeric parts that were given. A nil version means a bare wildcard.
func parsePartial(s string) (*Version, int, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "v")
	if s == "" {
		return nil, 0, fmt.Errorf("empty version")
	}

	core, rest := s, ""
	if i := strings.IndexAny(s, "-+"); i >= 0 {
		core, rest = s[:i], s[i:]
	}

	parts := strings.Split(core, ".")
	if len(parts) > 3 {
		return nil, 0, fmt.Errorf("invalid version format: %s", s)
	}

	precision := 0
	nums := []string{"0", "0", "0"}
	for i, p := range parts {
		if isWildcard(p) {
			break
		}
		if _, err := strconv.Atoi(p); err != nil {
			return nil, 0, fmt.Errorf("invalid version format: %s", s)
		}
		nums[i] = p
		precision++
	}
	if precision == 0 {
		return nil, 0, nil
	}
	if precision < 3 {
		rest = ""
	}

	v, err := Parse(strings.Join(nums, ".") + rest)
	if err != nil {
		return nil, 0, err
	}
	return v, precision, nil
}

func isWildcard(p string) bool {
	return p == "x" || p == "X" || p == "*"
}

// bump returns the smallest release above every version that shares the
// first precision parts of v.
func bump(v *Version, precision int) *Version {
	switch precision {
	case 1:
		return &Version{Major: v.Major + 1}
	case 2:
		return &Version{Major: v.Major, Minor: v.Minor + 1}
	default:
		return &Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch + 1}
	}
}

func upperFromPartial(v *Version, precision int, inclusive bool) Bound {
	if precision == 3 {
		return Bound{Version: v, Inclusive: inclusive}
	}
	return Bound{Version: bump(v, precision)}
}

func emptyInterval() Interval {
	zero := &Version{}
	return Interval{Lower: Bound{Version: zero}, Upper: Bound{Version: zero}}
}

// Contains reports whether v lies inside the interval by precedence alone,
// without the prerelease rule of Range.Contains.
func (iv Interval) Contains(v *Version) bool {
	if iv.Lower.Version != nil {
		c := v.Compare(iv.Lower.Version)
		if c < 0 || (c == 0 && !iv.Lower.Inclusive) {
			return false
		}
	}
	if iv.Upper.Version != nil {
		c := v.Compare(iv.Upper.Version)
		if c > 0 || (c == 0 && !iv.Upper.Inclusive) {
			return false
		}
	}
	return true
}

func (iv Interval) admitsPrerelease(v *Version) bool {
	for _, b := range []Bound{iv.Lower, iv.Upper} {
		if b.Version != nil && b.Version.Prerelease != "" && sameRelease(b.Version, v) {
			return true
		}
	}
	return false
}

func sameRelease(a, b *Version) bool {
	return a.Major == b.Major && a.Minor == b.Minor && a.Patch == b.Patch
}

// Intersect returns the interval covered by both iv and other.
func (iv Interval) Intersect(other Interval) Interval {
	out := iv

	if other.Lower.Version != nil {
		if out.Lower.Version == nil {
			out.Lower = other.Lower
		} else if c := other.Lower.Version.Compare(out.Lower.Version); c > 0 || (c == 0 && !other.Lower.Inclusive) {
			out.Lower = other.Lower
		}
	}

	if other.Upper.Version != nil {
		if out.Upper.Version == nil {
			out.Upper = other.Upper
		} else if c := other.Upper.Version.Compare(out.Upper.Version); c < 0 || (c == 0 && !other.Upper.Inclusive) {
			out.Upper = other.Upper
		}
	}

	return out
}

// Empty reports whether no version can satisfy the interval.
func (iv Interval) Empty() bool {
	if iv.Lower.Version == nil || iv.Upper.Version == nil {
		return false
	}
	c := iv.Lower.Version.Compare(iv.Upper.Version)
	if c > 0 {
		return true
	}
	return c == 0 && !(iv.Lower.Inclusive && iv.Upper.Inclusive)
}

// String renders the interval as a comparator set.
func (iv Interval) String() string {
	var parts []string
	if iv.Lower.Version != nil {
		op := ">"
		if iv.Lower.Inclusive {
			op = ">="
		}
		parts = append(parts, op+iv.Lower.Version.String())
	}
	if iv.Upper.Version != nil {
		op := "<"
		if iv.Upper.Inclusive {
			op = "<="
		}
		parts = append(parts, op+iv.Upper.Version.String())
	}
	if len(parts) == 0 {
		return "*"
	}
	return strings.Join(parts, " ")
}
