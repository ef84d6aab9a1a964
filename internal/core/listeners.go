package core

import "sync"

// listeners is the change-subscription registry embedded by every store.
// Callbacks run after the store's lock is released.
type listeners struct {
	mu   sync.Mutex
	next int
	fns  map[int]func()
}

// Subscribe registers fn to run after every state change and returns a
// function that removes it.
func (l *listeners) Subscribe(fn func()) (unsubscribe func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fns == nil {
		l.fns = make(map[int]func())
	}
	id := l.next
	l.next++
	l.fns[id] = fn
	return func() {
		l.mu.Lock()
		delete(l.fns, id)
		l.mu.Unlock()
	}
}

func (l *listeners) emit() {
	l.mu.Lock()
	fns := make([]func(), 0, len(l.fns))
	for _, fn := range l.fns {
		fns = append(fns, fn)
	}
	l.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
