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

/*
Package cli provides the root command for the llmtap CLI.

It owns global concerns: version information, persistent flags and the
JSON-capable help command. Individual commands live in the
internal/commands subpackages and are attached by main.

# Command Tree

	llmtap
	├── validate      Validate instrumentation configs
	├── match         Show configs that apply to a module
	├── channels      List the diagnostic channels configs publish on
	├── version       Show version
	└── help          Show help

# Global Flags

	--verbose, -v    Enable debug logging
	--json           Output in JSON format

# Exit Codes

  - 0: Success
  - 1: General error
  - 2: Invalid instrumentation or tracing config
  - 3: No config matched a query
*/
package cli
