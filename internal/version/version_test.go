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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "1.2.3", want: "1.2.3"},
		{input: "v4.0.1", want: "4.0.1"},
		{input: "2", want: "2.0.0"},
		{input: "1.2.3-beta.1+build.5", want: "1.2.3-beta.1+build.5"},
		{input: "", wantErr: true},
		{input: "one.two", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, err := Parse(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.String())
		})
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"1.0.0", "2.0.0", -1},
		{"1.10.0", "1.9.0", 1},
		{"1.0.0-alpha", "1.0.0", -1},
		{"1.0.0-alpha.2", "1.0.0-alpha.10", -1},
		{"1.0.0-alpha", "1.0.0-1", 1},
		{"1.0.0+a", "1.0.0+b", 0},
	}

	for _, tt := range tests {
		t.Run(tt.a+" vs "+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, MustParse(tt.a).Compare(MustParse(tt.b)))
		})
	}
}

func TestRange_Contains(t *testing.T) {
	tests := []struct {
		rng     string
		version string
		want    bool
	}{
		{">=4.0.0 <5.0.0", "4.2.1", true},
		{">=4.0.0 <5.0.0", "5.0.0", false},
		{">=4.0.0, <5.0.0", "3.9.9", false},
		{"^1.2.3", "1.9.0", true},
		{"^1.2.3", "2.0.0", false},
		{"^0.2.3", "0.2.9", true},
		{"^0.2.3", "0.3.0", false},
		{"^0.0.3", "0.0.4", false},
		{"~1.2.3", "1.2.9", true},
		{"~1.2.3", "1.3.0", false},
		{"1.x", "1.7.2", true},
		{"1.x", "2.0.0", false},
		{"1.2", "1.2.8", true},
		{"=1.2.3", "1.2.3", true},
		{"1.2.3 - 2.0", "2.0.9", true},
		{"1.2.3 - 2.0", "2.1.0", false},
		{"<=2", "2.99.0", true},
		{">1", "1.9.9", false},
		{">1", "2.0.0", true},
		{"*", "0.0.1", true},
		{"<1.0.0 || >=3.0.0", "2.0.0", false},
		{"<1.0.0 || >=3.0.0", "3.1.0", true},
		{">= 2.0.0", "2.0.0", true},
		{"^1.0.0", "1.5.0-beta.1", false},
		{"*", "1.0.0-rc.1", false},
		{">=1.5.0-beta.0 <2.0.0", "1.5.0-beta.1", true},
		{">=1.5.0-beta.0 <2.0.0", "1.6.0-beta.1", false},
		{">=1.5.0-beta.0 <2.0.0", "1.6.0", true},
		{"^1.2.3-rc.1", "1.2.3-rc.2", true},
		{"<2.0.0-rc.3", "2.0.0-rc.2", true},
		{"<1.0.0 || >=2.0.0-alpha", "2.0.0-beta", true},
	}

	for _, tt := range tests {
		t.Run(tt.rng+" contains "+tt.version, func(t *testing.T) {
			r, err := ParseRange(tt.rng)
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.Contains(MustParse(tt.version)))
		})
	}
}

func TestParseRange_Invalid(t *testing.T) {
	for _, input := range []string{"", ">=abc", "1.2.3.4", "!1.0.0"} {
		_, err := ParseRange(input)
		assert.Error(t, err, "range %q", input)
	}
}

func TestRange_Overlap(t *testing.T) {
	tests := []struct {
		a, b    string
		overlap bool
		within  string
	}{
		{a: ">=4.0.0 <5.0.0", b: ">=5.0.0", overlap: false},
		{a: ">=4.0.0 <5.0.0", b: "^4.5.0", overlap: true, within: ">=4.5.0 <5.0.0"},
		{a: "<=1.0.0", b: ">=1.0.0", overlap: true, within: ">=1.0.0 <=1.0.0"},
		{a: "<1.0.0", b: ">=1.0.0", overlap: false},
		{a: "<1.0.0 || >=3.0.0", b: "2.x", overlap: false},
		{a: "*", b: "1.2.3", overlap: true, within: ">=1.2.3 <=1.2.3"},
	}

	for _, tt := range tests {
		t.Run(tt.a+" & "+tt.b, func(t *testing.T) {
			iv, ok := MustParseRange(tt.a).Overlap(MustParseRange(tt.b))
			assert.Equal(t, tt.overlap, ok)
			if tt.overlap {
				assert.Equal(t, tt.within, iv.String())
			}
		})
	}
}

func TestInterval_Empty(t *testing.T) {
	r := MustParseRange(">2.0.0 <1.0.0")
	assert.Empty(t, r.Intervals())
	assert.False(t, r.Contains(MustParse("1.5.0")))
}
