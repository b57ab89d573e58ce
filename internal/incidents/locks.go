package incidents

import "sync"

// TargetLocks serializes work per monitor ID. Entries are dropped once no
// goroutine holds or waits for them.
type TargetLocks struct {
	mu    sync.Mutex
	locks map[string]*targetLock
}

type targetLock struct {
	mu   sync.Mutex
	refs int
}

// NewTargetLocks creates an empty lock set
func NewTargetLocks() *TargetLocks {
	return &TargetLocks{
		locks: make(map[string]*targetLock),
	}
}

// Lock blocks until the lock for id is held and returns its release function
func (tl *TargetLocks) Lock(id string) func() {
	tl.mu.Lock()
	l, ok := tl.locks[id]
	if !ok {
		l = &targetLock{}
		tl.locks[id] = l
	}
	l.refs++
	tl.mu.Unlock()

	l.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Unlock()

			tl.mu.Lock()
			l.refs--
			if l.refs == 0 {
				delete(tl.locks, id)
			}
			tl.mu.Unlock()
		})
	}
}

// Len returns the number of monitors currently locked or awaited
func (tl *TargetLocks) Len() int {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return len(tl.locks)
}
