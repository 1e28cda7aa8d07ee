package manager

import "sync"

// nameLocks serializes operations per instance name. Operations on different
// names proceed fully in parallel; concurrent operations on the same name
// (say start and delete) take turns so they cannot race on the container,
// port or directories.
type nameLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newNameLocks() *nameLocks {
	return &nameLocks{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the mutex for name and returns its release function.
// Mutexes are retained for the process lifetime; the set of instance names is
// small and bounded.
func (l *nameLocks) lock(name string) func() {
	l.mu.Lock()
	m, ok := l.locks[name]
	if !ok {
		m = &sync.Mutex{}
		l.locks[name] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
