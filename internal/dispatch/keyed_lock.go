package dispatch

import (
	"sync"

	"github.com/google/uuid"
)

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// keyedMutex serializes work per key while letting independent keys proceed
// concurrently. Entries are reference counted and dropped when unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*lockEntry
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[uuid.UUID]*lockEntry)}
}

// Lock acquires the mutex for key and returns its release function.
func (k *keyedMutex) Lock(key uuid.UUID) func() {
	k.mu.Lock()
	entry, exists := k.locks[key]
	if !exists {
		entry = &lockEntry{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()
		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
