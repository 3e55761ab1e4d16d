package page

import "sync"

// ScrollLock suspends page scrolling while at least one holder exists.
type ScrollLock struct {
	mu      sync.Mutex
	holders int
}

// Acquire takes a hold on the lock. The returned release drops that hold
// exactly once; later calls are no-ops.
func (l *ScrollLock) Acquire() (release func()) {
	l.mu.Lock()
	l.holders++
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			l.holders--
			l.mu.Unlock()
		})
	}
}

// Locked reports whether scrolling is currently suspended.
func (l *ScrollLock) Locked() bool {
	return l.Holders() > 0
}

// Holders returns the number of outstanding holds.
func (l *ScrollLock) Holders() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.holders
}
