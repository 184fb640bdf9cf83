package assistant

import (
	"sync"
)

// tenantLocks serializes resolution and sync per tenant key, so two
// concurrent first-time resolutions cannot race to create duplicate provider
// resources. Locks are never removed; tenant cardinality is small relative
// to process lifetime.
type tenantLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newTenantLocks() *tenantLocks {
	return &tenantLocks{
		locks: make(map[string]*sync.Mutex),
	}
}

// acquire locks the tenant's mutex and returns its unlock func.
func (l *tenantLocks) acquire(tenantID string) func() {
	l.mu.Lock()
	lock, ok := l.locks[tenantID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[tenantID] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
