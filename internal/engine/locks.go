package engine

import "sync"

// workOrderLocks serializes transitions per work order. Transitions on
// different work orders proceed fully in parallel; read-only command queries
// take the shared side.
type workOrderLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.RWMutex
}

func newWorkOrderLocks() *workOrderLocks {
	return &workOrderLocks{locks: make(map[string]*sync.RWMutex)}
}

// get returns the lock for one work order, creating it on first use. Locks
// are never removed: the set of open work orders is small and bounded.
func (l *workOrderLocks) get(workOrderID string) *sync.RWMutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lk, ok := l.locks[workOrderID]
	if !ok {
		lk = &sync.RWMutex{}
		l.locks[workOrderID] = lk
	}
	return lk
}
