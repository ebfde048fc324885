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

package cli

import (
	"github.com/spf13/cobra"
	"github.com/tombee/llmtap/internal/commands/shared"
)

// SetVersion sets the version information (called from main)
func SetVersion(v, c, b string) {
	shared.SetVersion(v, c, b)
}

// GetVersion returns version information
func GetVersion() (string, string, string) {
	return shared.GetVersion()
}

// NewRootCommand creates the root Cobra command for llmtap
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "llmtap",
		Short: "llmtap - tracing hooks for LLM client libraries",
		Long: `llmtap inspects the instrumentation configs that decide which LLM client
functions get traced, and the diagnostic channels they publish on.

Run 'llmtap validate <files>' to check instrumentation configs.
Run 'llmtap match --module <name> --version <v> <files>' to see which
configs apply to a package.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	verbose, json := shared.RegisterFlagPointers()
	cmd.PersistentFlags().BoolVarP(verbose, "verbose", "v", false, "Enable verbose output")
	cmd.PersistentFlags().BoolVar(json, "json", false, "Output in JSON format")

	cmd.SetHelpCommand(NewHelpCommand(cmd))

	return cmd
}

// HandleExitError handles exit errors with proper exit codes
func HandleExitError(err error) {
	shared.HandleExitError(err)
}
