package ticker

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Handle identifies one subscription
type Handle uint64

// Clock invokes subscribed callbacks once per interval until unsubscribed
type Clock interface {
	Subscribe(fn func()) Handle
	Unsubscribe(h Handle)
}

// Ticker drives subscriptions from a clock.Clock, one goroutine per subscription
type Ticker struct {
	clock    clock.Clock
	interval time.Duration

	mu   sync.Mutex
	next Handle
	subs map[Handle]chan struct{}
}

// New creates a Ticker. A nil clock uses the wall clock; a non-positive
// interval defaults to one second.
func New(clk clock.Clock, interval time.Duration) *Ticker {
	if clk == nil {
		clk = clock.New()
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Ticker{
		clock:    clk,
		interval: interval,
		subs:     make(map[Handle]chan struct{}),
	}
}

// Interval returns the tick period
func (t *Ticker) Interval() time.Duration {
	return t.interval
}

// Subscribe starts calling fn once per interval
func (t *Ticker) Subscribe(fn func()) Handle {
	t.mu.Lock()
	t.next++
	h := t.next
	stop := make(chan struct{})
	t.subs[h] = stop
	tk := t.clock.Ticker(t.interval)
	t.mu.Unlock()

	go func() {
		defer tk.Stop()
		for {
			select {
			case <-stop:
				return
			case <-tk.C:
				// stop may have closed while the tick was pending
				select {
				case <-stop:
					return
				default:
				}
				fn()
			}
		}
	}()
	return h
}

// Unsubscribe stops the subscription. It never waits for an in-flight
// callback, so it is safe to call from inside one.
func (t *Ticker) Unsubscribe(h Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if stop, ok := t.subs[h]; ok {
		close(stop)
		delete(t.subs, h)
	}
}

// Active returns the number of live subscriptions
func (t *Ticker) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}
