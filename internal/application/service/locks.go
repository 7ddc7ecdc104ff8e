package service

import "sync"

// recordLocks serialises operations on the same medication while letting
// different medications proceed in parallel.
type recordLocks struct {
	mu sync.Mutex
	m  map[string]*recordLock
}

type recordLock struct {
	mu   sync.Mutex
	refs int
}

func newRecordLocks() *recordLocks {
	return &recordLocks{m: make(map[string]*recordLock)}
}

// lock blocks until key is free and returns its unlock function.
func (l *recordLocks) lock(key string) func() {
	l.mu.Lock()
	rl, ok := l.m[key]
	if !ok {
		rl = &recordLock{}
		l.m[key] = rl
	}
	rl.refs++
	l.mu.Unlock()

	rl.mu.Lock()
	return func() {
		rl.mu.Unlock()
		l.mu.Lock()
		rl.refs--
		if rl.refs == 0 {
			delete(l.m, key)
		}
		l.mu.Unlock()
	}
}
