package ticker

import (
	"sort"
	"sync"
)

// Manual is a Clock that only ticks when Fire is called. Callbacks run
// synchronously on the caller's goroutine.
type Manual struct {
	mu         sync.Mutex
	next       Handle
	subs       map[Handle]func()
	subscribed int
}

// NewManual creates a Manual clock
func NewManual() *Manual {
	return &Manual{subs: make(map[Handle]func())}
}

func (m *Manual) Subscribe(fn func()) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	m.subs[m.next] = fn
	m.subscribed++
	return m.next
}

func (m *Manual) Unsubscribe(h Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subs, h)
}

// Fire delivers one tick to every live subscription, in subscription order
func (m *Manual) Fire() {
	m.mu.Lock()
	handles := make([]Handle, 0, len(m.subs))
	for h := range m.subs {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
	m.mu.Unlock()

	for _, h := range handles {
		m.mu.Lock()
		fn, ok := m.subs[h]
		m.mu.Unlock()
		if ok {
			fn()
		}
	}
}

// FireN calls Fire n times
func (m *Manual) FireN(n int) {
	for i := 0; i < n; i++ {
		m.Fire()
	}
}

// Active returns the number of live subscriptions
func (m *Manual) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

// Subscribed returns how many subscriptions were ever made
func (m *Manual) Subscribed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subscribed
}
