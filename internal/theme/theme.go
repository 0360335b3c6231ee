// Package theme owns the light/dark preference of a visitor.
package theme

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// PreferenceKey is the key the theme is persisted under.
const PreferenceKey = "theme"

// ErrNotFound is returned by a Store that has no saved preference.
var ErrNotFound = errors.New("theme: no saved preference")

// Parse maps a stored string to a Theme. ok is false for anything other
// than "light" or "dark".
func Parse(s string) (t Theme, ok bool) {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case Light:
		return Light, true
	case Dark:
		return Dark, true
	}
	return "", false
}

// Toggle returns the opposite theme. Anything that is not Dark toggles to
// Dark.
func (t Theme) Toggle() Theme {
	if t == Dark {
		return Light
	}
	return Dark
}

func (t Theme) String() string {
	return string(t)
}

// Store persists a single theme preference.
type Store interface {
	Load(ctx context.Context) (Theme, error)
	Save(ctx context.Context, t Theme) error
}

// Controller exposes the current theme and the toggle intent. The
// in-memory value is authoritative once loaded; store failures never
// surface to callers.
type Controller struct {
	mu      sync.Mutex
	store   Store
	def     Theme
	current Theme
	loaded  bool
	logger  *zap.Logger
}

// NewController returns a controller backed by store. An invalid def falls
// back to Light.
func NewController(store Store, def Theme, logger *zap.Logger) *Controller {
	if _, ok := Parse(string(def)); !ok {
		def = Light
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{store: store, def: def, logger: logger}
}

// Get returns the current theme, reading the store on first use.
func (c *Controller) Get(ctx context.Context) Theme {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadLocked(ctx)
	return c.current
}

// Toggle flips the theme, persists it and returns the new value.
func (c *Controller) Toggle(ctx context.Context) Theme {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadLocked(ctx)
	c.current = c.current.Toggle()
	if c.store != nil {
		if err := c.store.Save(ctx, c.current); err != nil {
			c.logger.Debug("theme save failed", zap.String("theme", c.current.String()), zap.Error(err))
		}
	}
	return c.current
}

func (c *Controller) loadLocked(ctx context.Context) {
	if c.loaded {
		return
	}
	c.loaded = true
	c.current = c.def
	if c.store == nil {
		return
	}
	t, err := c.store.Load(ctx)
	switch {
	case err == nil:
		c.current = t
	case errors.Is(err, ErrNotFound):
	default:
		c.logger.Debug("theme load failed", zap.Error(err))
	}
}
