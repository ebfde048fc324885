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

// Package validate implements the "llmtap validate" command.
package validate

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/spf13/cobra"
	"github.com/tombee/llmtap/internal/commands/completion"
	"github.com/tombee/llmtap/internal/commands/shared"
	"github.com/tombee/llmtap/internal/watch"
	"github.com/tombee/llmtap/pkg/instrument"
)

// FileResult is the outcome for one config file
type FileResult struct {
	Path     string             `json:"path"`
	Valid    bool               `json:"valid"`
	Configs  int                `json:"configs"`
	Channels []string           `json:"channels,omitempty"`
	Errors   []shared.JSONError `json:"errors,omitempty"`
}

// Response is the JSON output of validate. Errors holds problems that only
// show up once every file is combined, such as overlapping version ranges.
type Response struct {
	shared.JSONResponse
	Files  []FileResult       `json:"files"`
	Errors []shared.JSONError `json:"errors,omitempty"`
}

// NewCommand creates the validate command
func NewCommand() *cobra.Command {
	var watchFiles bool

	cmd := &cobra.Command{
		Use:   "validate <files...>",
		Short: "Validate instrumentation config files",
		Long: `Validate loads each instrumentation config file and checks every entry:
component and operation names, module version ranges, file globs, function
kind, attribute queries and collect predicates. When several files are given
the combined set is also checked for configs that target the same function
with overlapping version ranges.

With --watch the files are re-validated whenever they change, until
interrupted.`,
		Example: `  llmtap validate configs/openai.yaml
  llmtap validate configs/*.yaml --json
  llmtap validate configs/*.yaml --watch`,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: completion.CompleteConfigFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			if watchFiles {
				return runWatch(cmd, args)
			}
			return runValidate(cmd.OutOrStdout(), args, shared.GetJSON())
		},
	}

	cmd.Flags().BoolVarP(&watchFiles, "watch", "w", false, "Re-validate when files change")

	return cmd
}

func runValidate(out io.Writer, paths []string, useJSON bool) error {
	resp, err := Check(paths)
	if renderErr := render(out, resp, useJSON); renderErr != nil {
		return shared.NewFailedError("failed to write output", renderErr)
	}
	return err
}

func runWatch(cmd *cobra.Command, paths []string) error {
	out := cmd.OutOrStdout()
	useJSON := shared.GetJSON()
	logger := shared.Logger()

	var mu sync.Mutex
	rerun := func() {
		mu.Lock()
		defer mu.Unlock()
		if !useJSON {
			shared.ClearScreen(out)
		}
		if err := runValidate(out, paths, useJSON); err != nil {
			logger.Debug("validation failed", slog.Any("error", err))
		}
	}
	w, err := watch.New(watch.Config{
		Paths:  paths,
		Logger: logger,
		OnChange: func(changed []string) {
			logger.Info("config changed", slog.Any("files", changed))
			rerun()
		},
	})
	if err != nil {
		return shared.NewFailedError("cannot watch files", err)
	}
	defer w.Close()

	rerun()
	<-cmd.Context().Done()
	return nil
}

// Check loads and validates paths. The returned error is an
// *shared.ExitError with ExitInvalidConfig when anything is invalid.
func Check(paths []string) (Response, error) {
	resp := Response{JSONResponse: shared.NewResponse("validate")}

	var (
		all  []instrument.Config
		errs []error
	)
	for _, p := range paths {
		res := FileResult{Path: p, Valid: true}
		configs, err := instrument.Load(p)
		if err != nil {
			res.Valid = false
			res.Errors = shared.ToJSONErrors(p, err)
			errs = append(errs, err)
		} else {
			res.Configs = len(configs)
			res.Channels = instrument.Channels(configs)
			all = append(all, configs...)
		}
		resp.Files = append(resp.Files, res)
	}

	if len(errs) == 0 && len(paths) > 1 {
		if err := instrument.Validate(all); err != nil {
			resp.Errors = shared.ToJSONErrors("", err)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		resp.Success = false
		return resp, shared.NewInvalidConfigError("instrumentation configs are invalid", errors.Join(errs...))
	}
	return resp, nil
}

func render(out io.Writer, resp Response, useJSON bool) error {
	if useJSON {
		return shared.EmitJSON(out, resp)
	}

	for _, f := range resp.Files {
		if f.Valid {
			fmt.Fprintln(out, shared.RenderOK(fmt.Sprintf("%s (%d configs)", f.Path, f.Configs)))
			continue
		}
		fmt.Fprintln(out, shared.RenderError(f.Path))
		renderErrors(out, f.Errors)
	}
	if len(resp.Errors) > 0 {
		fmt.Fprintln(out, shared.RenderError("combined configs"))
		renderErrors(out, resp.Errors)
	}
	return nil
}

func renderErrors(out io.Writer, errs []shared.JSONError) {
	for _, e := range errs {
		if e.Field != "" {
			fmt.Fprintf(out, "    %s %s\n", shared.RenderLabel(e.Field+":"), e.Message)
		} else {
			fmt.Fprintf(out, "    %s\n", e.Message)
		}
		if e.Suggestion != "" {
			fmt.Fprintf(out, "      %s\n", shared.RenderLabel(e.Suggestion))
		}
	}
}
