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

// Package match implements the "llmtap match" command.
package match

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/tombee/llmtap/internal/commands/completion"
	"github.com/tombee/llmtap/internal/commands/shared"
	"github.com/tombee/llmtap/pkg/instrument"
)

// Result describes one config that applies to the queried module file
type Result struct {
	Component string                  `json:"component"`
	Operation string                  `json:"operation"`
	Channel   string                  `json:"channel"`
	Span      string                  `json:"span"`
	Function  string                  `json:"function"`
	Kind      instrument.FunctionKind `json:"kind"`
}

// Response is the JSON output of match
type Response struct {
	shared.JSONResponse
	Module  string   `json:"module"`
	Version string   `json:"version"`
	Path    string   `json:"path"`
	Matches []Result `json:"matches"`
}

// Query identifies a module file.
type Query struct {
	Module  string
	Version string
	Path    string
}

// NewCommand creates the match command
func NewCommand() *cobra.Command {
	var q Query

	cmd := &cobra.Command{
		Use:   "match <files...>",
		Short: "Show which configs apply to a module file",
		Long: `Match loads the instrumentation config files and reports the configs that
would instrument the given file of the given module version, along with
the channel each one publishes on.

Exits with code 3 when nothing matches.`,
		Example: `  llmtap match --module openai --version 4.20.1 \
    --path resources/chat/completions.js configs/*.yaml`,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: completion.CompleteConfigFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatch(cmd.OutOrStdout(), q, args, shared.GetJSON())
		},
	}

	cmd.Flags().StringVar(&q.Module, "module", "", "Module name (required)")
	cmd.Flags().StringVar(&q.Version, "version", "", "Module version (required)")
	cmd.Flags().StringVar(&q.Path, "path", "", "File path relative to the module root (required)")
	_ = cmd.MarkFlagRequired("module")
	_ = cmd.MarkFlagRequired("version")
	_ = cmd.MarkFlagRequired("path")
	_ = cmd.RegisterFlagCompletionFunc("module", completion.CompleteModules)

	return cmd
}

// Find loads files and returns the configs matching q.
func Find(q Query, files []string) ([]instrument.Config, error) {
	configs, err := instrument.LoadAll(files...)
	if err != nil {
		return nil, shared.NewInvalidConfigError("cannot load instrumentation configs", err)
	}
	m, err := instrument.NewMatcher(configs)
	if err != nil {
		return nil, shared.NewInvalidConfigError("cannot load instrumentation configs", err)
	}
	matched, err := m.Match(q.Module, q.Version, q.Path)
	if err != nil {
		return nil, shared.NewFailedError(fmt.Sprintf("invalid version %q", q.Version), err)
	}
	return matched, nil
}

func runMatch(out io.Writer, q Query, files []string, useJSON bool) error {
	matched, err := Find(q, files)
	if err != nil {
		return err
	}

	resp := Response{
		JSONResponse: shared.NewResponse("match"),
		Module:       q.Module,
		Version:      q.Version,
		Path:         q.Path,
		Matches:      make([]Result, 0, len(matched)),
	}
	for _, c := range matched {
		fn := c.Function.MethodName
		if c.Function.ClassName != "" {
			fn = c.Function.ClassName + "." + fn
		}
		resp.Matches = append(resp.Matches, Result{
			Component: c.Component,
			Operation: c.Operation,
			Channel:   c.ChannelName(),
			Span:      c.SpanName(),
			Function:  fn,
			Kind:      c.Function.Kind,
		})
	}

	var noMatch error
	if len(matched) == 0 {
		resp.Success = false
		noMatch = shared.NewNoMatchError(fmt.Sprintf("no config matches %s@%s %s", q.Module, q.Version, q.Path))
	}

	if useJSON {
		if err := shared.EmitJSON(out, resp); err != nil {
			return shared.NewFailedError("failed to write output", err)
		}
		return noMatch
	}

	for _, r := range resp.Matches {
		fmt.Fprintf(out, "%s %s (%s, %s)\n", shared.RenderChannel(r.Channel), r.Function, r.Kind, shared.RenderLabel("span "+r.Span))
	}
	return noMatch
}
