// AngelaMos | 2026
// locker.go

package user

import (
	"sync"
)

// Locker serializes read-modify-write sequences per username. Progress
// updates and redemptions read a record, decide, and write back; without
// this, two concurrent requests for the same user could both observe the
// pre-award state. External platform calls must never happen while a
// user's lock is held.
type Locker struct {
	locks sync.Map
}

func NewLocker() *Locker {
	return &Locker{}
}

// Lock acquires the mutex for username and returns its unlock function.
func (l *Locker) Lock(username string) func() {
	muI, _ := l.locks.LoadOrStore(username, &sync.Mutex{})
	mu := muI.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
