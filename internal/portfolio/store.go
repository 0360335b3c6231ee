// Package portfolio holds the static content shown on the site: profile,
// roles, contact channels, skills, projects and about cards. Content is
// parsed once and never mutated afterwards; accessors hand out copies.
package portfolio

import (
	_ "embed"
	"os"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed content/portfolio.yaml
var defaultContent []byte

// Section identifiers rendered by the site, in page order.
const (
	SectionHome     = "home"
	SectionAbout    = "about"
	SectionSkills   = "skills"
	SectionProjects = "projects"
	SectionContact  = "contact"
)

// SectionIDs lists every section the page renders.
var SectionIDs = []string{SectionHome, SectionAbout, SectionSkills, SectionProjects, SectionContact}

// socialOrder is the display order of contact channels.
var socialOrder = []string{"email", "linkedin", "github", "twitter", "instagram", "phone"}

// Store is the immutable, process-wide content store.
type Store struct {
	doc document
}

// Default returns the store built from the embedded content file.
func Default() (*Store, error) {
	return Parse(defaultContent)
}

// LoadFile reads a YAML content file from disk. An empty path yields the
// embedded content.
func LoadFile(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read content file %s", path)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "content file %s", path)
	}
	return s, nil
}

// Parse decodes and validates YAML content.
func Parse(data []byte) (*Store, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "decode content")
	}
	if len(doc.Navigation) == 0 {
		for _, id := range SectionIDs {
			doc.Navigation = append(doc.Navigation, NavLink{ID: id})
		}
	}
	title := cases.Title(language.English)
	for i := range doc.Navigation {
		if doc.Navigation[i].Label == "" {
			doc.Navigation[i].Label = title.String(doc.Navigation[i].ID)
		}
	}
	if err := validate(doc); err != nil {
		return nil, err
	}
	return &Store{doc: doc}, nil
}

func validate(doc document) error {
	if strings.TrimSpace(doc.Name) == "" {
		return errors.New("name is required")
	}
	if len(doc.DynamicRoles) == 0 {
		return errors.New("dynamic_roles must not be empty")
	}
	for _, s := range doc.Skills {
		if s.Level < 0 || s.Level > 100 {
			return errors.Errorf("skill %q: level %d outside 0-100", s.Name, s.Level)
		}
		if strings.TrimSpace(s.Category) == "" {
			return errors.Errorf("skill %q: category is required", s.Name)
		}
	}
	for _, l := range doc.Navigation {
		if !slices.Contains(SectionIDs, l.ID) {
			return errors.Errorf("navigation: unknown section %q", l.ID)
		}
	}
	return nil
}

// Profile returns a copy of the profile.
func (s *Store) Profile() Profile {
	p := s.doc.Profile
	p.DynamicRoles = slices.Clone(p.DynamicRoles)
	contact := make(map[string]string, len(p.Contact))
	for k, v := range p.Contact {
		contact[k] = v
	}
	p.Contact = contact
	return p
}

func (s *Store) Roles() []string {
	return slices.Clone(s.doc.DynamicRoles)
}

func (s *Store) Skills() []Skill {
	return slices.Clone(s.doc.Skills)
}

// SkillGroups groups the stored skills by category.
func (s *Store) SkillGroups() []SkillGroup {
	return GroupSkills(s.doc.Skills)
}

func (s *Store) Projects() []Project {
	out := make([]Project, len(s.doc.Projects))
	for i, p := range s.doc.Projects {
		p.KeyFeatures = slices.Clone(p.KeyFeatures)
		p.Technologies = slices.Clone(p.Technologies)
		out[i] = p
	}
	return out
}

func (s *Store) About() About {
	a := s.doc.About
	a.Cards = make([]AboutCard, len(s.doc.About.Cards))
	for i, c := range s.doc.About.Cards {
		c.Items = slices.Clone(c.Items)
		a.Cards[i] = c
	}
	return a
}

func (s *Store) Navigation() []NavLink {
	return slices.Clone(s.doc.Navigation)
}

// Channels returns the contact channels limited to names (all known
// channels when names is empty), in display order, skipping missing ones.
func (s *Store) Channels(names ...string) []Channel {
	if len(names) == 0 {
		names = socialOrder
	}
	var out []Channel
	for _, name := range names {
		v, ok := s.doc.Contact[name]
		if !ok || v == "" {
			continue
		}
		out = append(out, Channel{Name: name, Href: channelHref(name, v)})
	}
	return out
}
