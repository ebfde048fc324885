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

// Package channels implements the "llmtap channels" command.
package channels

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/tombee/llmtap/internal/commands/completion"
	"github.com/tombee/llmtap/internal/commands/shared"
	"github.com/tombee/llmtap/pkg/instrument"
)

// Response is the JSON output of channels
type Response struct {
	shared.JSONResponse
	Channels []string `json:"channels"`
}

// NewCommand creates the channels command
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "channels <files...>",
		Short: "List the diagnostic channels configs publish on",
		Long: `Channels loads the instrumentation config files and prints the sorted,
de-duplicated channel names a subscriber needs to listen on.`,
		Example: `  llmtap channels configs/*.yaml
  llmtap channels configs/*.yaml --json | jq -r '.channels[]'`,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: completion.CompleteConfigFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChannels(cmd.OutOrStdout(), args, shared.GetJSON())
		},
	}
}

func runChannels(out io.Writer, files []string, useJSON bool) error {
	configs, err := instrument.LoadAll(files...)
	if err != nil {
		return shared.NewInvalidConfigError("cannot load instrumentation configs", err)
	}
	names := instrument.Channels(configs)

	if useJSON {
		resp := Response{JSONResponse: shared.NewResponse("channels"), Channels: names}
		if names == nil {
			resp.Channels = []string{}
		}
		return shared.EmitJSON(out, resp)
	}
	for _, name := range names {
		fmt.Fprintln(out, name)
	}
	return nil
}
