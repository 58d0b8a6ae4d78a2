package checkpoint

import "sync"

// Locker hands out one mutex per thread identifier. The zero value is ready
// to use. Entries are dropped once no caller holds or waits for them.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*threadLock
}

type threadLock struct {
	mu   sync.Mutex
	refs int
}

// Lock blocks until the caller owns threadID and returns the function that
// releases it. Calling unlock more than once is a no-op.
func (l *Locker) Lock(threadID string) (unlock func()) {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*threadLock)
	}
	lock, ok := l.locks[threadID]
	if !ok {
		lock = &threadLock{}
		l.locks[threadID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	lock.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			lock.mu.Unlock()

			l.mu.Lock()
			lock.refs--
			if lock.refs == 0 {
				delete(l.locks, threadID)
			}
			l.mu.Unlock()
		})
	}
}
