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
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/tombee/llmtap/internal/version"
)

// Matcher selects the configs that apply to a module file.
type Matcher struct {
	entries []matchEntry
}

type matchEntry struct {
	config Config
	rng    *version.Range
}

// NewMatcher validates configs and prepares them for matching.
func NewMatcher(configs []Config) (*Matcher, error) {
	if err := Validate(configs); err != nil {
		return nil, err
	}
	m := &Matcher{entries: make([]matchEntry, len(configs))}
	for i, c := range configs {
		m.entries[i] = matchEntry{config: c, rng: version.MustParseRange(c.Module.VersionRange)}
	}
	return m, nil
}

// Match returns the configs whose module name equals name, whose version
// range contains moduleVersion and whose file glob matches filePath.
// filePath is relative to the module root; a leading "./" is ignored.
func (m *Matcher) Match(name, moduleVersion, filePath string) ([]Config, error) {
	v, err := version.Parse(moduleVersion)
	if err != nil {
		return nil, err
	}
	p := normalizePath(filePath)

	var out []Config
	for _, e := range m.entries {
		if e.config.Module.Name != name || !e.rng.Contains(v) {
			continue
		}
		if ok, _ := doublestar.Match(e.config.Module.FilePath, p); ok {
			out = append(out, e.config)
		}
	}
	return out, nil
}

// Modules returns the sorted names of all instrumented modules, so loaders
// can skip everything else cheaply.
func (m *Matcher) Modules() []string {
	seen := make(map[string]struct{})
	var names []string
	for _, e := range m.entries {
		if _, ok := seen[e.config.Module.Name]; ok {
			continue
		}
		seen[e.config.Module.Name] = struct{}{}
		names = append(names, e.config.Module.Name)
	}
	sort.Strings(names)
	return names
}

// Configs returns the configs the matcher was built from.
func (m *Matcher) Configs() []Config {
	out := make([]Config, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.config
	}
	return out
}

func normalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = path.Clean(p)
	return strings.TrimPrefix(p, "./")
}

// Channels returns the sorted, de-duplicated channel names of configs.
func Channels(configs []Config) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, c := range configs {
		name := c.ChannelName()
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
