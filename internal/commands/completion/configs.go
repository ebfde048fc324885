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

package completion

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tombee/llmtap/pkg/instrument"
)

const (
	maxConfigFiles = 100
	maxSearchDepth = 2
)

// SafeCompletionWrapper wraps a completion function with panic recovery.
func SafeCompletionWrapper(fn func() ([]string, cobra.ShellCompDirective)) (results []string, directive cobra.ShellCompDirective) {
	results = []string{}
	directive = cobra.ShellCompDirectiveNoFileComp

	defer func() {
		if r := recover(); r != nil {
			results = []string{}
			directive = cobra.ShellCompDirectiveNoFileComp
		}
	}()

	results, directive = fn()
	if results == nil {
		return []string{}, cobra.ShellCompDirectiveNoFileComp
	}
	return results, directive
}

// CompleteConfigFiles completes instrumentation config paths: YAML files
// up to two directories deep with a top-level "instrumentations" key,
// newest first. Files already on the command line are skipped.
func CompleteConfigFiles(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return SafeCompletionWrapper(func() ([]string, cobra.ShellCompDirective) {
		files, err := discoverConfigFiles(".", maxSearchDepth)
		if err != nil || len(files) == 0 {
			return nil, cobra.ShellCompDirectiveDefault
		}

		used := make(map[string]struct{}, len(args))
		for _, a := range args {
			used[filepath.Clean(a)] = struct{}{}
		}

		var paths []string
		for _, f := range files {
			if _, ok := used[f.path]; ok {
				continue
			}
			if strings.HasPrefix(f.path, toComplete) {
				paths = append(paths, f.path)
			}
			if len(paths) == maxConfigFiles {
				break
			}
		}
		return paths, cobra.ShellCompDirectiveNoFileComp
	})
}

// CompleteModules completes --module from the config files already given
// as arguments. Files that fail to load are ignored.
func CompleteModules(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return SafeCompletionWrapper(func() ([]string, cobra.ShellCompDirective) {
		var configs []instrument.Config
		for _, a := range args {
			loaded, err := instrument.Load(a)
			if err != nil {
				continue
			}
			configs = append(configs, loaded...)
		}
		m, err := instrument.NewMatcher(configs)
		if err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}

		var names []string
		for _, name := range m.Modules() {
			if strings.HasPrefix(name, toComplete) {
				names = append(names, name)
			}
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})
}

type configFile struct {
	path    string
	modTime int64
}

func discoverConfigFiles(root string, maxDepth int) ([]configFile, error) {
	var files []configFile

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		rel, _ := filepath.Rel(root, path)
		if strings.Count(rel, string(filepath.Separator)) > maxDepth {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if ext := filepath.Ext(path); ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 || !isConfigFile(path) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		files = append(files, configFile{path: path, modTime: info.ModTime().UnixNano()})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].modTime > files[j].modTime
	})
	return files, nil
}

func isConfigFile(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return false
	}
	_, ok := doc["instrumentations"]
	return ok
}
