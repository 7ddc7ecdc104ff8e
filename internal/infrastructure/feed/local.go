package feed

import (
	"context"
	"sync"
)

// Local is an in-process Feed.
type Local struct {
	mu   sync.Mutex
	subs map[string]map[chan struct{}]struct{}
}

// NewLocal creates an empty in-process feed.
func NewLocal() *Local {
	return &Local{subs: make(map[string]map[chan struct{}]struct{})}
}

// Publish signals every subscriber of ownerID. A subscriber that already has a
// pending signal is not signalled twice.
func (l *Local) Publish(_ context.Context, ownerID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ch := range l.subs[ownerID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return nil
}

// Subscribe registers a new subscriber for ownerID.
func (l *Local) Subscribe(ownerID string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	l.mu.Lock()
	if l.subs[ownerID] == nil {
		l.subs[ownerID] = make(map[chan struct{}]struct{})
	}
	l.subs[ownerID][ch] = struct{}{}
	l.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			delete(l.subs[ownerID], ch)
			if len(l.subs[ownerID]) == 0 {
				delete(l.subs, ownerID)
			}
		})
	}
}

// subscribers returns how many live subscriptions ownerID has.
func (l *Local) subscribers(ownerID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.subs[ownerID])
}
