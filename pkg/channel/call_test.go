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

package channel_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/llmtap/pkg/channel"
)

func TestCall_Values(t *testing.T) {
	c := channel.NewCall(context.Background(), "a", 2)
	assert.Equal(t, "a", c.Arg(0))
	assert.Equal(t, 2, c.Arg(1))
	assert.Nil(t, c.Arg(2))
	assert.Nil(t, c.Arg(-1))

	_, ok := c.Get("span")
	assert.False(t, ok)
	c.Set("span", 1)
	v, ok := c.Get("span")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	c.Delete("span")
	_, ok = c.Get("span")
	assert.False(t, ok)
}

func TestCall_NestedCallsRecordParent(t *testing.T) {
	reg := channel.NewRegistry()
	outer := reg.Channel("llmtap:openai:chat")
	inner := reg.Channel("llmtap:openai:embed")

	var starts []*channel.Call
	record := channel.Handlers{Start: func(c *channel.Call) { starts = append(starts, c) }}
	defer outer.Subscribe(record)()
	defer inner.Subscribe(record)()

	_, err := channel.TraceAsync(outer, nil, func(ctx context.Context) (int, error) {
		return channel.TraceAsync(inner, channel.NewCall(ctx), func(ctx context.Context) (int, error) {
			return channel.TraceAsync(outer, channel.NewCall(ctx), func(context.Context) (int, error) {
				return 1, nil
			})
		})
	})
	require.NoError(t, err)
	require.Len(t, starts, 3)

	assert.Nil(t, starts[0].Parent)
	assert.Same(t, starts[0], starts[1].Parent)
	assert.Same(t, starts[1], starts[2].Parent)
	assert.False(t, starts[0].Reentrant())
	assert.False(t, starts[1].Reentrant())
	assert.True(t, starts[2].Reentrant())
}

func TestCallFromContext(t *testing.T) {
	assert.Nil(t, channel.CallFromContext(context.Background()))
	c := channel.NewMethodCall(context.Background(), "client", "arg")
	assert.Equal(t, "client", c.Self)
	assert.Same(t, c, channel.CallFromContext(channel.WithCall(context.Background(), c)))
}

func TestEvent_ChannelName(t *testing.T) {
	c := &channel.Call{Channel: "llmtap:openai:chat"}
	assert.Equal(t, "tracing:llmtap:openai:chat:asyncEnd", channel.Event{Kind: channel.AsyncEnd, Call: c}.ChannelName())
}

func TestKind(t *testing.T) {
	for _, k := range channel.Kinds {
		assert.True(t, k.Valid(), k)
	}
	assert.False(t, channel.Kind("finish").Valid())
	assert.True(t, channel.AsyncEnd.Terminal())
	assert.True(t, channel.Error.Terminal())
	assert.False(t, channel.End.Terminal())
}

func TestName(t *testing.T) {
	tests := []struct {
		component string
		operation string
		want      string
		wantErr   string
	}{
		{"openai", "chat", "llmtap:openai:chat", ""},
		{"  openai ", " chat\t", "llmtap:openai:chat", ""},
		{"", "chat", "", "component is required"},
		{"openai", "   ", "", "operation is required"},
		{"open:ai", "chat", "", "must not contain ':'"},
		{"openai", "chat:stream", "", "must not contain ':'"},
	}
	for _, tt := range tests {
		got, err := channel.Name(tt.component, tt.operation)
		if tt.wantErr != "" {
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
	assert.Panics(t, func() { channel.MustName("", "") })
}

func TestParseName(t *testing.T) {
	c, o, err := channel.ParseName("llmtap:openai:chat")
	require.NoError(t, err)
	assert.Equal(t, "openai", c)
	assert.Equal(t, "chat", o)

	for _, bad := range []string{"", "openai:chat", "other:openai:chat", "llmtap::chat", "llmtap:a:b:c"} {
		_, _, err := channel.ParseName(bad)
		assert.Error(t, err, bad)
	}
}
