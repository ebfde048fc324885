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

package stream

import (
	"runtime"
	"sync"
	"weak"
)

// patchTable maps an original Iterable to the wrapper created for it.
// Wrappers are held weakly; the entry is evicted once the wrapper is
// collected, so the table never keeps a stream alive.
var patchTable = &sideTable{entries: make(map[any]tableEntry)}

type sideTable struct {
	mu      sync.Mutex
	nextID  uint64
	entries map[any]tableEntry
}

type tableEntry struct {
	id    uint64
	value func() (any, bool)
}

type tableKey struct {
	key any
	id  uint64
}

// loadOrCreate returns the live wrapper registered for key, or registers
// the one built by create. The second result reports whether create ran.
// Hashing a key whose dynamic value is not comparable panics; callers
// recover.
func loadOrCreate[T any](t *sideTable, key Iterable[T], create func() *wrapper[T]) (Iterable[T], bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if e, ok := t.entries[key]; ok {
		if v, alive := e.value(); alive {
			if w, ok := v.(Iterable[T]); ok {
				return w, false
			}
			return key, false
		}
	}

	w := create()
	t.nextID++
	id := t.nextID
	ref := weak.Make(w)
	t.entries[key] = tableEntry{
		id: id,
		value: func() (any, bool) {
			if p := ref.Value(); p != nil {
				return p, true
			}
			return nil, false
		},
	}
	runtime.AddCleanup(w, t.evict, tableKey{key: key, id: id})
	return w, true
}

func (t *sideTable) evict(k tableKey) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[k.key]; ok && e.id == k.id {
		delete(t.entries, k.key)
	}
}
