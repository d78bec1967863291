// Package handle maps opaque capabilities to live runtimes.
package handle

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/scriptable/jsbridge/internal/core"
)

// Size is the length of a valid capability.
const Size = len(uuid.UUID{})

// Capability is the opaque token handed to the host. A zero-length
// capability signals a failed construction.
type Capability []byte

// Valid reports whether c has the shape of a capability. It does not
// imply that the capability is still live.
func (c Capability) Valid() bool { return len(c) == Size }

func (c Capability) String() string {
	id, err := uuid.FromBytes(c)
	if err != nil {
		return "<invalid>"
	}
	return id.String()
}

var live atomic.Int64

// Live returns the number of entries currently held by all tables.
func Live() int64 { return live.Load() }

// Table holds live entries keyed by random capabilities. Tokens are never
// reused, so a stale capability cannot reach a newer entry.
type Table[T any] struct {
	mu       sync.RWMutex
	items    map[uuid.UUID]T
	observer core.Observer
}

// NewTable returns an empty table notifying observer, which may be nil.
func NewTable[T any](observer core.Observer) *Table[T] {
	return &Table[T]{items: make(map[uuid.UUID]T), observer: observer}
}

// Put stores v and returns its capability.
func (t *Table[T]) Put(v T) Capability {
	id := uuid.New()
	t.mu.Lock()
	t.items[id] = v
	t.mu.Unlock()

	n := live.Add(1)
	if t.observer != nil {
		t.observer.RuntimeCreated(n)
	}
	c := make(Capability, Size)
	copy(c, id[:])
	return c
}

// Get returns the entry for c.
func (t *Table[T]) Get(c Capability) (T, bool) {
	var zero T
	id, ok := parse(c)
	if !ok {
		return zero, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.items[id]
	return v, ok
}

// Remove deletes and returns the entry for c. Removing an unknown or
// malformed capability is a no-op.
func (t *Table[T]) Remove(c Capability) (T, bool) {
	var zero T
	id, ok := parse(c)
	if !ok {
		return zero, false
	}
	t.mu.Lock()
	v, ok := t.items[id]
	if ok {
		delete(t.items, id)
	}
	t.mu.Unlock()
	if !ok {
		return zero, false
	}
	t.removed(1)
	return v, true
}

// Drain removes and returns every entry.
func (t *Table[T]) Drain() []T {
	t.mu.Lock()
	out := make([]T, 0, len(t.items))
	for id, v := range t.items {
		out = append(out, v)
		delete(t.items, id)
	}
	t.mu.Unlock()
	t.removed(len(out))
	return out
}

// Len returns the number of entries in t.
func (t *Table[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.items)
}

func (t *Table[T]) removed(n int) {
	for i := 0; i < n; i++ {
		left := live.Add(-1)
		if t.observer != nil {
			t.observer.RuntimeDestroyed(left)
		}
	}
}

func parse(c Capability) (uuid.UUID, bool) {
	if !c.Valid() {
		return uuid.UUID{}, false
	}
	id, err := uuid.FromBytes(c)
	if err != nil {
		return uuid.UUID{}, false
	}
	return id, true
}
