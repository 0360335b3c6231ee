package server

import (
	"html/template"
	"time"

	"github.com/pkg/errors"

	"github.com/asmitswain/portfolio/internal/contact"
	"github.com/asmitswain/portfolio/internal/navigation"
	"github.com/asmitswain/portfolio/internal/portfolio"
	"github.com/asmitswain/portfolio/internal/scroll"
	"github.com/asmitswain/portfolio/internal/theme"
)

type aboutCard struct {
	Title string
	Icon  string
	Items []template.HTML
}

type aboutView struct {
	Intro   template.HTML
	Closing template.HTML
	Cards   []aboutCard
}

func renderAbout(a portfolio.About) (aboutView, error) {
	var (
		v   aboutView
		err error
	)
	if v.Intro, err = portfolio.Markdown(a.Intro); err != nil {
		return v, errors.Wrap(err, "about intro")
	}
	if v.Closing, err = portfolio.Markdown(a.Closing); err != nil {
		return v, errors.Wrap(err, "about closing")
	}
	for _, c := range a.Cards {
		card := aboutCard{Title: c.Title, Icon: c.Icon}
		for _, item := range c.Items {
			html, err := portfolio.InlineMarkdown(item)
			if err != nil {
				return v, errors.Wrapf(err, "about card %q", c.Title)
			}
			card.Items = append(card.Items, html)
		}
		v.Cards = append(v.Cards, card)
	}
	return v, nil
}

type formView struct {
	Status     string
	Message    string
	Submitting bool
}

func newFormView(c *contact.Controller) formView {
	status, msg := c.State()
	return formView{Status: status.String(), Message: msg, Submitting: status == contact.Submitting}
}

// headerView is the data of the header fragment.
type headerView struct {
	Name   string
	Theme  theme.Theme
	Nav    navigation.State
	Links  []portfolio.NavLink
	Opaque bool
}

type pageView struct {
	Title       string
	Profile     portfolio.Profile
	Header      headerView
	Role        string
	About       aboutView
	SkillGroups []portfolio.SkillGroup
	Projects    []portfolio.Project
	HeroLinks   []portfolio.Channel
	Socials     []portfolio.Channel
	Scroll      scroll.State
	Form        formView
	Year        int
}

func (s *Server) header(t theme.Theme, nav navigation.State, sc scroll.State) headerView {
	return headerView{
		Name:   s.content.Profile().Name,
		Theme:  t,
		Nav:    nav,
		Links:  s.content.Navigation(),
		Opaque: sc.IsScrolled || nav.MenuOpen,
	}
}

func (s *Server) page(t theme.Theme, sess sessionView) pageView {
	profile := s.content.Profile()
	return pageView{
		Title:       profile.Name + " | " + profile.Title,
		Profile:     profile,
		Header:      s.header(t, sess.nav, sess.scroll),
		Role:        profile.DynamicRoles[0],
		About:       s.about,
		SkillGroups: s.content.SkillGroups(),
		Projects:    s.content.Projects(),
		HeroLinks:   s.content.Channels("github", "linkedin", "email"),
		Socials:     s.content.Channels(),
		Scroll:      sess.scroll,
		Form:        sess.form,
		Year:        time.Now().Year(),
	}
}

// sessionView is a consistent snapshot of one visitor's session.
type sessionView struct {
	nav    navigation.State
	scroll scroll.State
	form   formView
}
