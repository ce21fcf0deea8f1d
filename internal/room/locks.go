package room

import "sync"

// keyedMutex serializes operations per room key. The storage layer has no
// optimistic locking, so every load-modify-save span for a room must hold
// that room's mutex or concurrent saves silently drop updates.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for a key, creating it on first use, and returns
// the unlock function.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// Forget drops the mutex entry for a deleted room.
func (k *keyedMutex) Forget(key string) {
	k.mu.Lock()
	delete(k.locks, key)
	k.mu.Unlock()
}
