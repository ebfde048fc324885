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
	"bytes"
	"encoding/json"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()

	assert.Equal(t, "llmtap", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("verbose"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("json"))
}

func TestSetVersion(t *testing.T) {
	SetVersion("1.2.3", "abc123", "2025-12-22")

	v, c, b := GetVersion()
	assert.Equal(t, "1.2.3", v)
	assert.Equal(t, "abc123", c)
	assert.Equal(t, "2025-12-22", b)
}

func newTestRoot() *cobra.Command {
	root := &cobra.Command{Use: "test", Short: "Test command"}
	root.PersistentFlags().Bool("verbose", false, "Verbose output")

	sample := &cobra.Command{
		Use:     "sample",
		Short:   "Sample subcommand",
		Long:    "This is a sample subcommand for testing",
		Example: "  test sample --flag value",
		RunE:    func(*cobra.Command, []string) error { return nil },
	}
	sample.Flags().String("flag", "", "A sample flag")
	root.AddCommand(sample)
	root.SetHelpCommand(NewHelpCommand(root))
	return root
}

func TestHelpCommandJSON_All(t *testing.T) {
	root := newTestRoot()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetArgs([]string{"help", "--json"})
	require.NoError(t, root.Execute())

	var resp HelpResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "help", resp.Command)

	var names []string
	for _, c := range resp.Commands {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, "sample")
	require.NotEmpty(t, resp.GlobalFlags)
	assert.Equal(t, "verbose", resp.GlobalFlags[0].Name)
}

func TestHelpCommandJSON_Single(t *testing.T) {
	root := newTestRoot()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetArgs([]string{"help", "sample", "--json"})
	require.NoError(t, root.Execute())

	var resp HelpResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.NotNil(t, resp.Target)
	assert.Equal(t, "help sample", resp.Command)
	assert.Equal(t, "sample", resp.Target.Name)
	assert.Equal(t, "This is a sample subcommand for testing", resp.Target.Long)
	require.Len(t, resp.Target.Flags, 1)
	assert.Equal(t, "flag", resp.Target.Flags[0].Name)
}

func TestHelpCommand_Unknown(t *testing.T) {
	root := newTestRoot()
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))
	root.SetArgs([]string{"help", "nope", "--json"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"nope"`)
}
