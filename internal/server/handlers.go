package server

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/asmitswain/portfolio/internal/contact"
	"github.com/asmitswain/portfolio/internal/navigation"
	"github.com/asmitswain/portfolio/internal/portfolio"
	"github.com/asmitswain/portfolio/internal/session"
	"github.com/asmitswain/portfolio/internal/theme"
)

func (s *Server) themeFor(c *gin.Context) *theme.Controller {
	hint, _ := c.Cookie(themeCookie)
	store := theme.PreferenceStore{Prefs: s.prefs, VisitorID: visitorID(c), Hint: hint}
	return theme.NewController(store, s.theme, s.logger.Named("theme"))
}

func snapshot(sess *session.Session) sessionView {
	return sessionView{
		nav:    sess.Nav.State(),
		scroll: sess.Scroll.Last(),
		form:   newFormView(sess.Form),
	}
}

// session returns the visitor's registered session, or a detached one for
// clients that have not sent the visitor cookie back.
func (s *Server) session(c *gin.Context) *session.Session {
	if returningVisitor(c) {
		return s.sessions.Get(visitorID(c))
	}
	return s.sessions.Detached(visitorID(c))
}

func (s *Server) index(c *gin.Context) {
	sess, ok := s.sessions.Peek(visitorID(c))
	if !ok {
		sess = s.sessions.Detached(visitorID(c))
	}
	t := s.themeFor(c).Get(c.Request.Context())
	c.HTML(http.StatusOK, "index", s.page(t, snapshot(sess)))
}

func (s *Server) healthz(c *gin.Context) {
	if err := s.db.PingContext(c.Request.Context()); err != nil {
		s.logger.Error("health check", zap.Error(err))
		errorJSON(c, http.StatusServiceUnavailable, "db_unavailable", "Database unavailable")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// resume serves the configured résumé, falling back to the path named in the
// content file.
func (s *Server) resume(c *gin.Context) {
	r := s.content.Profile().Resume
	path := s.cfg.ResumePath
	if path == "" {
		path = r.Path
	}
	if path == "" {
		errorJSON(c, http.StatusNotFound, "not_found", "Resume not available")
		return
	}
	if _, err := os.Stat(path); err != nil {
		errorJSON(c, http.StatusNotFound, "not_found", "Resume not available")
		return
	}
	c.FileAttachment(path, r.DownloadAs)
}

func (s *Server) toggleTheme(c *gin.Context) {
	next := s.themeFor(c).Toggle(c.Request.Context())

	c.SetSameSite(http.SameSiteLaxMode)
	// Readable from script so the page can apply the theme before paint.
	c.SetCookie(themeCookie, next.String(), cookieMaxAge, "/", "", c.Request.TLS != nil, false)
	trigger, _ := json.Marshal(map[string]any{"themeChanged": map[string]string{"theme": next.String()}})
	c.Header("HX-Trigger", string(trigger))

	if isHTMX(c) {
		c.HTML(http.StatusOK, "theme-toggle", gin.H{"Theme": next})
		return
	}
	c.JSON(http.StatusOK, gin.H{"theme": next})
}

func (s *Server) renderHeader(c *gin.Context, sess *session.Session) {
	t := s.themeFor(c).Get(c.Request.Context())
	c.HTML(http.StatusOK, "header", s.header(t, sess.Nav.State(), sess.Scroll.Last()))
}

// navigate handles a nav link click. Unknown sections leave the state as it
// was.
func (s *Server) navigate(c *gin.Context) {
	sess := s.session(c)
	id := c.Param("section")
	if err := sess.Nav.HandleNavLinkClick(id); err != nil {
		s.logger.Debug("nav click ignored", zap.String("section", id), zap.Error(err))
	}
	if !isHTMX(c) {
		c.Redirect(http.StatusFound, "/#"+sess.Nav.State().Active)
		return
	}
	c.Header("HX-Trigger", `{"navigated":{"section":"`+sess.Nav.State().Active+`"}}`)
	s.renderHeader(c, sess)
}

func (s *Server) toggleMenu(c *gin.Context) {
	sess := s.session(c)
	sess.Nav.ToggleMenu()
	s.renderHeader(c, sess)
}

type spyRequest struct {
	Offset   float64              `json:"offset"`
	Sections []navigation.Section `json:"sections"`
}

type spyResponse struct {
	Active        string `json:"active"`
	MenuOpen      bool   `json:"menuOpen"`
	IsScrolled    bool   `json:"isScrolled"`
	HeaderOpaque  bool   `json:"headerOpaque"`
	ShowScrollTop bool   `json:"showScrollTop"`
}

// spy takes the measured section layout and scroll offset from the page and
// returns the derived navigation and visibility state.
func (s *Server) spy(c *gin.Context) {
	var req spyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "bad_request", "Invalid scroll report")
		return
	}
	if req.Offset < 0 {
		req.Offset = 0
	}
	sess := s.session(c)
	active := sess.Nav.Spy(req.Sections, req.Offset)
	menuOpen := sess.Nav.State().MenuOpen
	st := sess.Scroll.Publish(req.Offset, menuOpen)
	c.JSON(http.StatusOK, spyResponse{
		Active:        active,
		MenuOpen:      menuOpen,
		IsScrolled:    st.IsScrolled,
		HeaderOpaque:  st.HeaderOpaque,
		ShowScrollTop: st.ShowScrollTop,
	})
}

func (s *Server) submitContact(c *gin.Context) {
	wantJSON := c.ContentType() == binding.MIMEJSON

	var f contact.Fields
	if err := c.ShouldBind(&f); err != nil {
		s.contactError(c, wantJSON, http.StatusBadRequest, "bad_request", "Invalid form submission.")
		return
	}

	sess := s.session(c)
	status, err := sess.Form.Submit(c.Request.Context(), f)
	switch {
	case errors.Is(err, contact.ErrInFlight):
		s.contactError(c, wantJSON, http.StatusConflict, "in_flight", "Your message is still being sent.")
		return
	case errors.Is(err, contact.ErrMissingField):
		s.contactError(c, wantJSON, http.StatusBadRequest, "missing_field", "Please fill in every field.")
		return
	case err != nil:
		s.logger.Error("contact submit", zap.Error(err))
		s.contactError(c, wantJSON, http.StatusInternalServerError, "internal", contact.FailureMessage)
		return
	}

	view := newFormView(sess.Form)
	if wantJSON {
		c.JSON(http.StatusOK, gin.H{"status": status.String(), "message": view.Message})
		return
	}
	if status == contact.Succeeded {
		c.HTML(http.StatusOK, "contact-success", view)
		return
	}
	c.HTML(http.StatusOK, "contact-error", view)
}

func (s *Server) contactError(c *gin.Context, wantJSON bool, status int, code, message string) {
	if wantJSON {
		errorJSON(c, status, code, message)
		return
	}
	c.HTML(status, "contact-error", formView{Status: code, Message: message})
}

type portfolioResponse struct {
	Profile     portfolio.Profile      `json:"profile"`
	Navigation  []portfolio.NavLink    `json:"navigation"`
	About       portfolio.About        `json:"about"`
	SkillGroups []portfolio.SkillGroup `json:"skillGroups"`
	Projects    []portfolio.Project    `json:"projects"`
}

func (s *Server) apiPortfolio(c *gin.Context) {
	c.JSON(http.StatusOK, portfolioResponse{
		Profile:     s.content.Profile(),
		Navigation:  s.content.Navigation(),
		About:       s.content.About(),
		SkillGroups: s.content.SkillGroups(),
		Projects:    s.content.Projects(),
	})
}

func (s *Server) apiSkills(c *gin.Context) {
	skills := s.content.Skills()
	c.JSON(http.StatusOK, gin.H{
		"categories": portfolio.Categories(skills),
		"groups":     portfolio.GroupSkills(skills),
	})
}
