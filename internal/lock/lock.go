// Package lock provides the per-document job guard: at most one OCR job per
// key may be in flight at a time.
package lock

import (
	"context"
	"sync"
)

// Keyed serializes work per key. TryAcquire never blocks waiting for a holder;
// the loser of a race simply gets ok=false.
type Keyed interface {
	// TryAcquire attempts to take the guard for key. On success it returns a
	// release function that must be called exactly once.
	TryAcquire(ctx context.Context, key string) (release func(), ok bool, err error)
}

// memoryKeyed is the in-process implementation, sufficient for a single
// instance deployment.
type memoryKeyed struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewMemory returns an in-process keyed guard.
func NewMemory() Keyed {
	return &memoryKeyed{held: make(map[string]struct{})}
}

func (m *memoryKeyed) TryAcquire(ctx context.Context, key string) (func(), bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.held[key]; taken {
		return nil, false, nil
	}
	m.held[key] = struct{}{}
	var once sync.Once
	release := func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.held, key)
			m.mu.Unlock()
		})
	}
	return release, true, nil
}
