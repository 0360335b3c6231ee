package portfolio

import (
	"strings"
)

// Profile is the owner's biographical header data.
type Profile struct {
	Name         string            `yaml:"name" json:"name"`
	Title        string            `yaml:"title" json:"title"`
	Image        string            `yaml:"image" json:"image"`
	DynamicRoles []string          `yaml:"dynamic_roles" json:"dynamicRoles"`
	Contact      map[string]string `yaml:"contact" json:"contact"`
	Resume       Resume            `yaml:"resume" json:"resume"`
}

// Resume points at the downloadable résumé file.
type Resume struct {
	Path       string `yaml:"path" json:"path"`
	DownloadAs string `yaml:"download_as" json:"downloadAs"`
}

type Skill struct {
	Name     string `yaml:"name" json:"name"`
	Category string `yaml:"category" json:"category"`
	Level    int    `yaml:"level" json:"level"`
}

// SkillGroup is a derived view of skills that share a category.
type SkillGroup struct {
	Category string  `json:"category"`
	Skills   []Skill `json:"skills"`
}

type Project struct {
	Title        string   `yaml:"title" json:"title"`
	Description  string   `yaml:"description" json:"description"`
	KeyFeatures  []string `yaml:"key_features" json:"keyFeatures"`
	Technologies []string `yaml:"technologies" json:"technologies"`
	LivePreview  string   `yaml:"live_preview" json:"livePreview,omitempty"`
	GitHub       string   `yaml:"github" json:"github,omitempty"`
}

// NavLink is one entry of the header navigation. Label defaults to the
// title-cased ID when omitted.
type NavLink struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label" json:"label"`
}

// Href is the in-page anchor for the link.
func (l NavLink) Href() string {
	return "#" + l.ID
}

type AboutCard struct {
	Title string   `yaml:"title" json:"title"`
	Icon  string   `yaml:"icon" json:"icon"`
	Items []string `yaml:"items" json:"items"`
}

type About struct {
	Intro   string      `yaml:"intro" json:"intro"`
	Closing string      `yaml:"closing" json:"closing"`
	Cards   []AboutCard `yaml:"cards" json:"cards"`
}

// Channel is a rendered contact link.
type Channel struct {
	Name string
	Href string
}

// document mirrors the YAML layout of a content file.
type document struct {
	Profile    `yaml:",inline"`
	Navigation []NavLink `yaml:"navigation"`
	About      About     `yaml:"about"`
	Skills     []Skill   `yaml:"skills"`
	Projects   []Project `yaml:"projects"`
}

// channelHref turns a stored contact value into a link target. Email and
// phone entries are stored bare and get their URI scheme here.
func channelHref(name, value string) string {
	switch strings.ToLower(name) {
	case "email":
		if !strings.HasPrefix(value, "mailto:") {
			return "mailto:" + value
		}
	case "phone":
		if !strings.HasPrefix(value, "tel:") {
			return "tel:" + value
		}
	}
	return value
}
