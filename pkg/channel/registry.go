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
	"slices"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/tombee/llmtap/internal/log"
)

// Registry resolves channel names to channels. Channel returns the same
// *TracingChannel for the same name for the lifetime of the registry.
type Registry interface {
	Channel(name string) *TracingChannel
	Names() []string
}

// Option configures a registry.
type Option func(*registryOptions)

type registryOptions struct {
	logger *slog.Logger
}

// WithLogger sets the logger used to report handler failures.
func WithLogger(logger *slog.Logger) Option {
	return func(o *registryOptions) {
		o.logger = logger
	}
}

func buildOptions(opts []Option) registryOptions {
	var o registryOptions
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = log.WithComponent(o.logger, "channel")
	return o
}

// SyncRegistry keeps subscriber lists as immutable snapshots swapped on
// subscribe and unsubscribe, so Publish never takes a lock.
type SyncRegistry struct {
	logger   *slog.Logger
	mu       sync.Mutex
	channels sync.Map // string -> *TracingChannel
}

// NewRegistry returns a registry with lock-free publication.
func NewRegistry(opts ...Option) *SyncRegistry {
	o := buildOptions(opts)
	return &SyncRegistry{logger: o.logger}
}

func (r *SyncRegistry) Channel(name string) *TracingChannel {
	if tc, ok := r.channels.Load(name); ok {
		return tc.(*TracingChannel)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if tc, ok := r.channels.Load(name); ok {
		return tc.(*TracingChannel)
	}
	tc := newTracingChannel(name, &snapshotList{}, r.logger)
	r.channels.Store(name, tc)
	return tc
}

func (r *SyncRegistry) Names() []string {
	var names []string
	r.channels.Range(func(k, _ any) bool {
		names = append(names, k.(string))
		return true
	})
	sort.Strings(names)
	return names
}

type snapshotList struct {
	mu   sync.Mutex
	subs atomic.Pointer[[]*subscription]
}

func (l *snapshotList) add(s *subscription) {
	l.mu.Lock()
	defer l.mu.Unlock()
	next := append(slices.Clone(l.snapshot()), s)
	l.subs.Store(&next)
}

func (l *snapshotList) remove(s *subscription) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cur := l.snapshot()
	i := slices.Index(cur, s)
	if i < 0 {
		return
	}
	next := slices.Delete(slices.Clone(cur), i, i+1)
	l.subs.Store(&next)
}

func (l *snapshotList) snapshot() []*subscription {
	if p := l.subs.Load(); p != nil {
		return *p
	}
	return nil
}

func (l *snapshotList) empty() bool {
	return len(l.snapshot()) == 0
}

// LiteRegistry guards channels and subscribers with plain mutexes. It is
// the default on targets without preemptive threads.
type LiteRegistry struct {
	logger   *slog.Logger
	mu       sync.Mutex
	channels map[string]*TracingChannel
}

// NewLiteRegistry returns a mutex-based registry.
func NewLiteRegistry(opts ...Option) *LiteRegistry {
	o := buildOptions(opts)
	return &LiteRegistry{
		logger:   o.logger,
		channels: make(map[string]*TracingChannel),
	}
}

func (r *LiteRegistry) Channel(name string) *TracingChannel {
	r.mu.Lock()
	defer r.mu.Unlock()
	tc, ok := r.channels[name]
	if !ok {
		tc = newTracingChannel(name, &lockedList{}, r.logger)
		r.channels[name] = tc
	}
	return tc
}

func (r *LiteRegistry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.channels))
	for name := range r.channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type lockedList struct {
	mu   sync.Mutex
	subs []*subscription
}

func (l *lockedList) add(s *subscription) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.subs = append(l.subs, s)
}

func (l *lockedList) remove(s *subscription) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i := slices.Index(l.subs, s); i >= 0 {
		l.subs = slices.Delete(l.subs, i, i+1)
	}
}

func (l *lockedList) snapshot() []*subscription {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.subs)
}

func (l *lockedList) empty() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.subs) == 0
}

var (
	defaultOnce     sync.Once
	defaultRegistry Registry
)

// Default returns the process-wide registry that instrumented code
// publishes on.
func Default() Registry {
	defaultOnce.Do(func() {
		defaultRegistry = newDefaultRegistry()
	})
	return defaultRegistry
}

// Lookup returns the channel called name in the default registry.
func Lookup(name string) *TracingChannel {
	return Default().Channel(name)
}
