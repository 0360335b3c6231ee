// Package scroll derives header and scroll-to-top visibility from the
// vertical scroll offset and fans the result out to subscribers.
package scroll

import (
	"sync"
)

const (
	// HeaderThreshold is the offset past which the header turns opaque.
	HeaderThreshold = 50.0
	// ScrollTopThreshold is the offset at which the scroll-to-top control
	// appears.
	ScrollTopThreshold = 300.0
)

type State struct {
	Offset        float64 `json:"offset"`
	IsScrolled    bool    `json:"isScrolled"`
	HeaderOpaque  bool    `json:"headerOpaque"`
	ShowScrollTop bool    `json:"showScrollTop"`
}

// Derive computes the visibility flags for offset. An open mobile menu
// forces the header opaque regardless of offset.
func Derive(offset float64, menuOpen bool) State {
	scrolled := offset > HeaderThreshold
	return State{
		Offset:        offset,
		IsScrolled:    scrolled,
		HeaderOpaque:  scrolled || menuOpen,
		ShowScrollTop: offset >= ScrollTopThreshold,
	}
}

// Tracker receives scroll offsets and notifies subscribers with the
// derived state. Handlers run on the publishing goroutine, outside the
// tracker's lock.
type Tracker struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(State)
	last   State
}

func NewTracker() *Tracker {
	return &Tracker{subs: make(map[int]func(State))}
}

// Subscription is a registered handler. Close releases it.
type Subscription struct {
	once sync.Once
	t    *Tracker
	id   int
}

// Subscribe registers fn until the returned subscription is closed.
func (t *Tracker) Subscribe(fn func(State)) *Subscription {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	t.subs[t.nextID] = fn
	return &Subscription{t: t, id: t.nextID}
}

// Close unregisters the handler. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.t.mu.Lock()
		delete(s.t.subs, s.id)
		s.t.mu.Unlock()
	})
}

// Publish records a new offset and notifies every subscriber.
func (t *Tracker) Publish(offset float64, menuOpen bool) State {
	st := Derive(offset, menuOpen)
	t.mu.Lock()
	t.last = st
	fns := make([]func(State), 0, len(t.subs))
	for _, fn := range t.subs {
		fns = append(fns, fn)
	}
	t.mu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
	return st
}

// Last returns the most recently published state.
func (t *Tracker) Last() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

// Len reports the number of live subscriptions.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}
