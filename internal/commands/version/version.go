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
	"runtime"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/tombee/llmtap/internal/commands/shared"
)

// Info contains version metadata
type Info struct {
	Version     string `json:"version"`
	Commit      string `json:"commit"`
	BuildDate   string `json:"build_date"`
	GoVersion   string `json:"go_version"`
	OTelVersion string `json:"otel_version"`
}

// Current returns the running binary's version metadata.
func Current() Info {
	v, c, b := shared.GetVersion()
	return Info{
		Version:     v,
		Commit:      c,
		BuildDate:   b,
		GoVersion:   runtime.Version(),
		OTelVersion: otel.Version(),
	}
}

// NewCommand creates the version command
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, build date and the OpenTelemetry SDK version llmtap was built with.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := Current()
			out := cmd.OutOrStdout()

			if shared.GetJSON() {
				if err := shared.EmitJSON(out, info); err != nil {
					return fmt.Errorf("failed to write version info: %w", err)
				}
				return nil
			}

			fmt.Fprintf(out, "llmtap version %s\n", info.Version)
			fmt.Fprintf(out, "  commit:     %s\n", info.Commit)
			fmt.Fprintf(out, "  build date: %s\n", info.BuildDate)
			fmt.Fprintf(out, "  go:         %s\n", info.GoVersion)
			fmt.Fprintf(out, "  otel:       %s\n", info.OTelVersion)
			return nil
		},
	}
}
