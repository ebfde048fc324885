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

package channel

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Call is the context shared by all events of one traced call.
//
// The exported fields are written by TraceAsync and TraceSync and may be
// read by handlers. Start handlers may replace Context; asyncEnd handlers
// may replace Result.
type Call struct {
	ID      string
	Channel string
	Args    []any
	Self    any
	Result  any
	Err     error
	Context context.Context
	Parent  *Call

	mu       sync.Mutex
	values   map[any]any
	rejected []func()
}

// NewCall returns a call for the given arguments. The call traced in ctx,
// if any, becomes its parent.
func NewCall(ctx context.Context, args ...any) *Call {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Call{
		Args:    args,
		Context: ctx,
		Parent:  CallFromContext(ctx),
	}
}

// NewMethodCall is NewCall with a receiver.
func NewMethodCall(ctx context.Context, self any, args ...any) *Call {
	c := NewCall(ctx, args...)
	c.Self = self
	return c
}

// Arg returns argument i, or nil when there is none.
func (c *Call) Arg(i int) any {
	if i < 0 || i >= len(c.Args) {
		return nil
	}
	return c.Args[i]
}

// Set stores a subscriber value on the call.
func (c *Call) Set(key, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.values == nil {
		c.values = make(map[any]any)
	}
	c.values[key] = value
}

// Get returns a value stored with Set.
func (c *Call) Get(key any) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	return v, ok
}

// Delete removes a value stored with Set.
func (c *Call) Delete(key any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
}

// OnResultRejected registers fn to run when a Result substituted by a
// handler does not convert to the traced function's result type. The
// caller then receives the original result, so whatever the handler
// attached to the substitute will never be used.
func (c *Call) OnResultRejected(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rejected = append(c.rejected, fn)
}

func (c *Call) takeRejected() []func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	fns := c.rejected
	c.rejected = nil
	return fns
}

// Reentrant reports whether an ancestor of c was traced on the same
// channel, as happens when an instrumented method calls another
// instrumented overload of itself.
func (c *Call) Reentrant() bool {
	for p := c.Parent; p != nil; p = p.Parent {
		if p.Channel == c.Channel {
			return true
		}
	}
	return false
}

func (c *Call) begin(channel string) {
	c.Channel = channel
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Context == nil {
		c.Context = context.Background()
	}
}

type callKey struct{}

// WithCall returns a context carrying c.
func WithCall(ctx context.Context, c *Call) context.Context {
	return context.WithValue(ctx, callKey{}, c)
}

// CallFromContext returns the call being traced in ctx, or nil.
func CallFromContext(ctx context.Context) *Call {
	if ctx == nil {
		return nil
	}
	c, _ := ctx.Value(callKey{}).(*Call)
	return c
}

// PanicError carries a panic raised by a traced function. It is set as
// Call.Err before the panic continues.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("traced function panicked: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}
