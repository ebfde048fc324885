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
	"bytes"
	"errors"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	pkgerrors "github.com/tombee/llmtap/pkg/errors"
)

// Load reads and validates one configuration file.
func Load(path string) ([]Config, error) {
	configs, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := Validate(configs); err != nil {
		return nil, &pkgerrors.ConfigError{Key: path, Reason: "invalid instrumentation", Cause: err}
	}
	return configs, nil
}

// LoadAll reads every file and validates the combined set, so overlapping
// configs in different files are reported too.
func LoadAll(paths ...string) ([]Config, error) {
	var all []Config
	for _, path := range paths {
		configs, err := read(path)
		if err != nil {
			return nil, err
		}
		all = append(all, configs...)
	}
	if err := Validate(all); err != nil {
		return nil, err
	}
	return all, nil
}

// Parse decodes and validates a configuration document. Unknown fields are
// rejected.
func Parse(data []byte) ([]Config, error) {
	configs, err := decode(data)
	if err != nil {
		return nil, err
	}
	if err := Validate(configs); err != nil {
		return nil, err
	}
	return configs, nil
}

func read(path string) ([]Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &pkgerrors.ConfigError{Key: path, Reason: "cannot read file", Cause: err}
	}
	configs, err := decode(data)
	if err != nil {
		return nil, &pkgerrors.ConfigError{Key: path, Reason: "cannot parse YAML", Cause: err}
	}
	return configs, nil
}

func decode(data []byte) ([]Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	return f.Instrumentations, nil
}
