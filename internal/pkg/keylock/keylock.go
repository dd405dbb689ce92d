package keylock

import "sync"

// KeyLock serializes mutations per resource id. Locks are never evicted;
// the id space (sessions, bills) grows slowly enough that a map of mutexes
// is fine for a single café deployment.
type KeyLock struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func New() *KeyLock {
	return &KeyLock{locks: make(map[int64]*sync.Mutex)}
}

func (k *KeyLock) Lock(id int64) {
	k.mu.Lock()
	m, ok := k.locks[id]
	if !ok {
		m = &sync.Mutex{}
		k.locks[id] = m
	}
	k.mu.Unlock()
	m.Lock()
}

func (k *KeyLock) Unlock(id int64) {
	k.mu.Lock()
	m := k.locks[id]
	k.mu.Unlock()
	if m != nil {
		m.Unlock()
	}
}
