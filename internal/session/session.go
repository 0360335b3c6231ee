// Package session keeps the per-visitor UI state that must outlive a single
// request: navigation, scroll tracking and the contact form instance.
package session

import (
	"sync"
	"time"

	"github.com/asmitswain/portfolio/internal/contact"
	"github.com/asmitswain/portfolio/internal/navigation"
	"github.com/asmitswain/portfolio/internal/scroll"
)

type Session struct {
	VisitorID string
	Nav       *navigation.Navigator
	Scroll    *scroll.Tracker
	Form      *contact.Controller

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Factory builds the pieces of a new session.
type Factory struct {
	Sections []string
	NewForm  func(visitorID string) *contact.Controller
}

type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	factory  Factory
	ttl      time.Duration
	now      func() time.Time
}

func NewRegistry(factory Factory, ttl time.Duration) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		factory:  factory,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get returns the visitor's session, creating it on first use.
func (r *Registry) Get(visitorID string) *Session {
	now := r.now()
	r.mu.Lock()
	s, ok := r.sessions[visitorID]
	if !ok {
		s = r.build(visitorID)
		r.sessions[visitorID] = s
	}
	r.mu.Unlock()
	s.touch(now)
	return s
}

// Peek returns the visitor's session without creating one.
func (r *Registry) Peek(visitorID string) (*Session, bool) {
	r.mu.Lock()
	s, ok := r.sessions[visitorID]
	r.mu.Unlock()
	if ok {
		s.touch(r.now())
	}
	return s, ok
}

// Detached builds a session that is not registered. It serves clients that
// have not returned their visitor cookie, so they cannot grow the registry.
func (r *Registry) Detached(visitorID string) *Session {
	s := r.build(visitorID)
	s.touch(r.now())
	return s
}

func (r *Registry) build(visitorID string) *Session {
	return &Session{
		VisitorID: visitorID,
		Nav:       navigation.New(r.factory.Sections),
		Scroll:    scroll.NewTracker(),
		Form:      r.factory.NewForm(visitorID),
	}
}

// Sweep drops sessions idle for longer than the TTL. Sessions with a
// submission in flight or live scroll subscribers are kept.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.ttl)
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, s := range r.sessions {
		if s.LastSeen().After(cutoff) || s.Form.IsSubmitting() || s.Scroll.Len() > 0 {
			continue
		}
		delete(r.sessions, id)
		removed++
	}
	return removed
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
