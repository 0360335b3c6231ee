// Package rotator cycles the hero's dynamic role strings.
package rotator

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/pkg/errors"
)

const DefaultInterval = 2500 * time.Millisecond

var ErrNoRoles = errors.New("rotator: no roles")

type Rotator struct {
	mu       sync.Mutex
	roles    []string
	idx      int
	interval time.Duration
}

// New returns a rotator positioned at the first role. A non-positive
// interval uses DefaultInterval.
func New(roles []string, interval time.Duration) (*Rotator, error) {
	if len(roles) == 0 {
		return nil, ErrNoRoles
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Rotator{roles: slices.Clone(roles), interval: interval}, nil
}

func (r *Rotator) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.roles[r.idx]
}

func (r *Rotator) Index() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.idx
}

// Advance moves to the next role, wrapping after the last, and returns it.
func (r *Rotator) Advance() string {
	_, role := r.advance()
	return role
}

func (r *Rotator) advance() (int, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.idx = (r.idx + 1) % len(r.roles)
	return r.idx, r.roles[r.idx]
}

// Run advances once per interval and hands each new role to fn until ctx
// is done. The ticker is stopped before Run returns.
func (r *Rotator) Run(ctx context.Context, fn func(idx int, role string)) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			idx, role := r.advance()
			if fn != nil {
				fn(idx, role)
			}
		}
	}
}
