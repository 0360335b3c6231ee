// Package navigation tracks the active page section and the mobile menu.
package navigation

import (
	"slices"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// ReferenceOffset is how far below the top of the viewport the scroll-spy
// reference point sits, in pixels.
const ReferenceOffset = 100.0

var ErrUnknownSection = errors.New("navigation: unknown section")

// Section is the measured vertical extent of a page section.
type Section struct {
	ID     string  `json:"id"`
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
}

type State struct {
	Active   string `json:"active"`
	MenuOpen bool   `json:"menuOpen"`
}

// Navigator holds one visitor's navigation state. The active section is
// always one of the ids it was created with.
type Navigator struct {
	mu    sync.Mutex
	ids   []string
	state State
}

// New returns a navigator over the known section ids with the first one
// active. It panics if ids is empty.
func New(ids []string) *Navigator {
	if len(ids) == 0 {
		panic("navigation: no sections")
	}
	return &Navigator{
		ids:   slices.Clone(ids),
		state: State{Active: ids[0]},
	}
}

func (n *Navigator) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Known reports whether id is one of the navigator's sections.
func (n *Navigator) Known(id string) bool {
	return slices.Contains(n.ids, id)
}

// HandleNavLinkClick makes id active and closes the mobile menu. Unknown
// ids leave the state untouched and return ErrUnknownSection.
func (n *Navigator) HandleNavLinkClick(id string) error {
	if !n.Known(id) {
		return errors.Wrapf(ErrUnknownSection, "%q", id)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.state.Active = id
	n.state.MenuOpen = false
	return nil
}

// ToggleMenu flips the mobile menu and returns whether it is now open.
func (n *Navigator) ToggleMenu() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.state.MenuOpen = !n.state.MenuOpen
	return n.state.MenuOpen
}

// Spy recomputes the active section from measured sections and the
// current scroll offset. Sections with unknown ids are ignored; with no
// usable sections the state is unchanged.
func (n *Navigator) Spy(sections []Section, offset float64) string {
	known := make([]Section, 0, len(sections))
	for _, s := range sections {
		if n.Known(s.ID) {
			known = append(known, s)
		}
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if id, ok := ActiveAt(known, offset); ok {
		n.state.Active = id
	}
	return n.state.Active
}

// ActiveAt picks the section under the reference point: the last section,
// by top edge, whose top is at or above offset+ReferenceOffset. When the
// reference point is above every section the topmost one is returned.
func ActiveAt(sections []Section, offset float64) (string, bool) {
	if len(sections) == 0 {
		return "", false
	}
	sorted := slices.Clone(sections)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Top < sorted[j].Top })

	ref := offset + ReferenceOffset
	active := sorted[0].ID
	for _, s := range sorted {
		if s.Top <= ref {
			active = s.ID
		}
	}
	return active, true
}
