// Package lock provides keyed locking. The scheduler serializes each
// room's match lifecycle through one keyed mutex; handlers use another
// instance for per-player balance sections outside a room's critical
// path.
package lock

import "sync"

// keyedMutex wraps a mutex stored per key.
type keyedMutex struct {
	mu sync.Mutex
}

// KeyedLock provides one mutex per int64 key, created lazily and
// retained for process lifetime. Rooms and players are long-lived and
// bounded in number, so entries are never reclaimed.
type KeyedLock struct {
	locks sync.Map // map[int64]*keyedMutex
	pool  sync.Pool
}

// New creates a KeyedLock instance.
func New() *KeyedLock {
	return &KeyedLock{
		pool: sync.Pool{
			New: func() any {
				return &keyedMutex{}
			},
		},
	}
}

// get retrieves or creates the mutex for a key.
func (kl *KeyedLock) get(key int64) *keyedMutex {
	if v, ok := kl.locks.Load(key); ok {
		return v.(*keyedMutex)
	}

	fresh := kl.pool.Get().(*keyedMutex)
	actual, loaded := kl.locks.LoadOrStore(key, fresh)
	if loaded {
		// Another goroutine created the mutex first, return ours to pool.
		kl.pool.Put(fresh)
	}
	return actual.(*keyedMutex)
}

// Lock acquires the lock for a key.
func (kl *KeyedLock) Lock(key int64) {
	kl.get(key).mu.Lock()
}

// Unlock releases the lock for a key.
func (kl *KeyedLock) Unlock(key int64) {
	if v, ok := kl.locks.Load(key); ok {
		v.(*keyedMutex).mu.Unlock()
	}
}

// TryLock attempts to acquire the lock without blocking.
func (kl *KeyedLock) TryLock(key int64) bool {
	return kl.get(key).mu.TryLock()
}

// WithLock executes fn while holding the key's lock.
func (kl *KeyedLock) WithLock(key int64, fn func() error) error {
	kl.Lock(key)
	defer kl.Unlock(key)
	return fn()
}
