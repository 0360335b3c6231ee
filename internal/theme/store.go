package theme

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// MemoryStore keeps the preference in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	value Theme
	set   bool
	// Err, when set, is returned from Save.
	Err error
}

func (m *MemoryStore) Load(ctx context.Context) (Theme, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return "", ErrNotFound
	}
	return m.value, nil
}

func (m *MemoryStore) Save(ctx context.Context, t Theme) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.value = t
	m.set = true
	return nil
}

// Preferences is the key-value storage a PreferenceStore writes to.
type Preferences interface {
	Lookup(ctx context.Context, visitorID, key string) (string, bool, error)
	Set(ctx context.Context, visitorID, key, value string) error
}

// PreferenceStore persists the theme for one visitor. Hint, when it parses,
// wins over the stored row; it carries the theme cookie sent by the browser.
type PreferenceStore struct {
	Prefs     Preferences
	VisitorID string
	Hint      string
}

func (p PreferenceStore) Load(ctx context.Context) (Theme, error) {
	if t, ok := Parse(p.Hint); ok {
		return t, nil
	}
	if p.Prefs == nil || p.VisitorID == "" {
		return "", ErrNotFound
	}
	raw, found, err := p.Prefs.Lookup(ctx, p.VisitorID, PreferenceKey)
	if err != nil {
		return "", errors.Wrap(err, "load theme preference")
	}
	t, ok := Parse(raw)
	if !found || !ok {
		return "", ErrNotFound
	}
	return t, nil
}

func (p PreferenceStore) Save(ctx context.Context, t Theme) error {
	if p.Prefs == nil || p.VisitorID == "" {
		return errors.New("theme: no visitor to save preference for")
	}
	return errors.Wrap(p.Prefs.Set(ctx, p.VisitorID, PreferenceKey, t.String()), "save theme preference")
}
