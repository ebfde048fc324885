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
	"log/slog"
	"sync"

	"github.com/tombee/llmtap/internal/log"
	pkgerrors "github.com/tombee/llmtap/pkg/errors"
)

// Handlers are the callbacks of one subscriber. Nil handlers are skipped.
type Handlers struct {
	Start      func(*Call)
	End        func(*Call)
	AsyncStart func(*Call)
	AsyncEnd   func(*Call)
	Error      func(*Call)
}

func (h *Handlers) forKind(k Kind) func(*Call) {
	switch k {
	case Start:
		return h.Start
	case End:
		return h.End
	case AsyncStart:
		return h.AsyncStart
	case AsyncEnd:
		return h.AsyncEnd
	case Error:
		return h.Error
	}
	return nil
}

type subscription struct {
	handlers Handlers
}

// subscriberList stores the subscriptions of a channel. snapshot must
// return a slice that later add or remove calls do not mutate.
type subscriberList interface {
	add(s *subscription)
	remove(s *subscription)
	snapshot() []*subscription
	empty() bool
}

// TracingChannel is the named channel an instrumented operation publishes on.
type TracingChannel struct {
	name   string
	subs   subscriberList
	logger *slog.Logger
}

func newTracingChannel(name string, subs subscriberList, logger *slog.Logger) *TracingChannel {
	return &TracingChannel{
		name:   name,
		subs:   subs,
		logger: logger.With(log.ChannelKey, name),
	}
}

// Name returns the channel name.
func (tc *TracingChannel) Name() string {
	return tc.name
}

// Subscribe registers h and returns a function that removes it. The
// returned function is safe to call more than once.
func (tc *TracingChannel) Subscribe(h Handlers) (unsubscribe func()) {
	s := &subscription{handlers: h}
	tc.subs.add(s)
	return sync.OnceFunc(func() { tc.subs.remove(s) })
}

// HasSubscribers reports whether any subscriber is registered.
func (tc *TracingChannel) HasSubscribers() bool {
	return tc != nil && !tc.subs.empty()
}

// Publish delivers e to the subscribers registered when Publish starts, in
// subscription order.
func (tc *TracingChannel) Publish(e Event) {
	for _, s := range tc.subs.snapshot() {
		fn := s.handlers.forKind(e.Kind)
		if fn == nil {
			continue
		}
		tc.run(e, fn)
	}
}

func (tc *TracingChannel) run(e Event, fn func(*Call)) {
	defer func() {
		if r := recover(); r != nil {
			attrs := []any{
				slog.String("kind", string(e.Kind)),
				log.Error(&pkgerrors.HandlerError{Handler: string(e.Kind), Value: r}),
			}
			if e.Call != nil {
				attrs = append(attrs, slog.String(log.CallIDKey, e.Call.ID))
			}
			tc.logger.Warn("channel handler failed", attrs...)
		}
	}()
	fn(e.Call)
}

func (tc *TracingChannel) publish(k Kind, c *Call) {
	tc.Publish(Event{Kind: k, Call: c})
}
