package memory

import (
	"context"
	"sync"

	"hotel_inventory/internal/domain"
)

type keyLock struct {
	ch   chan struct{} // buffered(1): holding the token means holding the lock
	refs int
}

// Locker is a per-key lock map. Entries live only while someone holds or waits
// on the key, so the map stays bounded by in-flight edits.
type Locker struct {
	mu    sync.Mutex
	locks map[domain.Key]*keyLock
}

var _ domain.KeyLocker = (*Locker)(nil)

func NewLocker() *Locker {
	return &Locker{locks: make(map[domain.Key]*keyLock)}
}

func (l *Locker) Name() string { return "memory" }

func (l *Locker) Lock(ctx context.Context, k domain.Key) (func(), error) {
	l.mu.Lock()
	kl, ok := l.locks[k]
	if !ok {
		kl = &keyLock{ch: make(chan struct{}, 1)}
		l.locks[k] = kl
	}
	kl.refs++
	l.mu.Unlock()

	select {
	case kl.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(k, kl)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-kl.ch
			l.release(k, kl)
		})
	}, nil
}

func (l *Locker) release(k domain.Key, kl *keyLock) {
	l.mu.Lock()
	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, k)
	}
	l.mu.Unlock()
}

// Held reports how many keys currently have holders or waiters.
func (l *Locker) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
