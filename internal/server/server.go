// Package server wires the portfolio state machines to HTTP: full pages and
// HTMX fragments rendered with html/template, a JSON API and an SSE stream.
package server

import (
	"context"
	"html/template"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/asmitswain/portfolio/internal/admin"
	"github.com/asmitswain/portfolio/internal/config"
	"github.com/asmitswain/portfolio/internal/contact"
	"github.com/asmitswain/portfolio/internal/portfolio"
	"github.com/asmitswain/portfolio/internal/session"
	"github.com/asmitswain/portfolio/internal/storage"
	"github.com/asmitswain/portfolio/internal/theme"
	"github.com/asmitswain/portfolio/web"
)

type Deps struct {
	Config  *config.Config
	Content *portfolio.Store
	DB      *storage.DB
	// Sender delivers contact submissions. Nil selects one from Config.
	Sender contact.Sender
	Logger *zap.Logger
	// Templates overrides the embedded templates.
	Templates *template.Template
}

type Server struct {
	cfg      *config.Config
	content  *portfolio.Store
	db       *storage.DB
	prefs    *storage.Preferences
	messages *storage.Messages
	admin    *admin.Handler
	sessions *session.Registry
	sender   contact.Sender
	logger   *zap.Logger
	about    aboutView
	theme    theme.Theme
	engine   *gin.Engine
}

func New(d Deps) (*Server, error) {
	if d.Config == nil || d.Content == nil || d.DB == nil {
		return nil, errors.New("server: config, content and db are required")
	}
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	about, err := renderAbout(d.Content.About())
	if err != nil {
		return nil, errors.Wrap(err, "render about")
	}
	tmpl := d.Templates
	if tmpl == nil {
		if tmpl, err = web.Templates(); err != nil {
			return nil, errors.Wrap(err, "load templates")
		}
	}
	def, ok := theme.Parse(d.Config.DefaultTheme)
	if !ok {
		def = theme.Light
	}

	s := &Server{
		cfg:      d.Config,
		content:  d.Content,
		db:       d.DB,
		prefs:    storage.NewPreferences(d.DB.DB),
		messages: storage.NewMessages(d.DB.DB),
		sender:   d.Sender,
		logger:   logger,
		about:    about,
		theme:    def,
	}
	if s.sender == nil {
		s.sender = SenderFromConfig(d.Config)
	}
	s.admin, err = admin.New(admin.Options{
		Username:  d.Config.AdminUsername,
		Password:  d.Config.AdminPassword,
		Retention: d.Config.VisitorRetention,
	}, storage.NewVisitors(d.DB.DB), s.messages, s.prefs, logger.Named("admin"))
	if err != nil {
		return nil, err
	}
	s.sessions = session.NewRegistry(session.Factory{
		Sections: navIDs(d.Content),
		NewForm: func(visitorID string) *contact.Controller {
			return contact.NewController(s.sender,
				contact.WithRecorder(s.messages),
				contact.WithLogger(logger.Named("contact")),
				contact.WithVisitor(visitorID),
			)
		},
	}, d.Config.SessionTTL)

	if d.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	s.engine = gin.New()
	s.engine.SetHTMLTemplate(tmpl)
	s.routes()
	return s, nil
}

func navIDs(content *portfolio.Store) []string {
	links := content.Navigation()
	ids := make([]string, len(links))
	for i, l := range links {
		ids[i] = l.ID
	}
	return ids
}

// SenderFromConfig picks the relay when a relay URL is set and falls back to
// SMTP.
func SenderFromConfig(cfg *config.Config) contact.Sender {
	if cfg.RelayURL != "" {
		return contact.NewRelaySender(cfg.RelayURL, cfg.RelayTimeout)
	}
	to := cfg.SMTPTo
	if to == "" {
		to = cfg.SMTPUser
	}
	return &contact.SMTPSender{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
		To:       to,
	}
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Sessions() *session.Registry {
	return s.sessions
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", srv.Addr), zap.String("env", s.cfg.Env))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "listen")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	return nil
}

// Maintain runs the periodic cleanup until ctx is cancelled: visitor
// retention every CleanupInterval, idle sessions every SessionTTL.
func (s *Server) Maintain(ctx context.Context) error {
	cleanup := time.NewTicker(s.cfg.CleanupInterval)
	defer cleanup.Stop()
	sweep := time.NewTicker(s.cfg.SessionTTL)
	defer sweep.Stop()

	s.admin.Cleanup(ctx, s.cfg.VisitorRetention)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-cleanup.C:
			s.admin.Cleanup(ctx, s.cfg.VisitorRetention)
		case <-sweep.C:
			if n := s.sessions.Sweep(); n > 0 {
				s.logger.Debug("swept sessions", zap.Int("removed", n))
			}
		}
	}
}

func (s *Server) routes() {
	r := s.engine
	r.Use(RequestID(), Logging(s.logger), Recovery(s.logger), Visitor(), s.admin.TrackVisitors())

	if fi, err := os.Stat(s.cfg.StaticDir); err == nil && fi.IsDir() {
		r.Static("/static", s.cfg.StaticDir)
	} else {
		r.StaticFS("/static", http.FS(web.Static()))
	}
	if s.cfg.ImagesDir != "" {
		r.Static("/images", s.cfg.ImagesDir)
	}

	r.GET("/", s.index)
	r.GET("/healthz", s.healthz)
	r.GET("/resume", s.resume)

	r.POST("/theme/toggle", s.toggleTheme)

	r.GET("/nav/:section", s.navigate)
	r.POST("/nav/menu", s.toggleMenu)
	r.POST("/nav/spy", s.spy)

	r.GET("/roles/stream", s.roleStream)

	r.POST("/contact", s.submitContact)

	api := r.Group("/api")
	api.GET("/portfolio", s.apiPortfolio)
	api.GET("/skills", s.apiSkills)

	s.admin.Register(r)

	r.NoRoute(func(c *gin.Context) {
		errorJSON(c, http.StatusNotFound, "not_found", "Not found")
	})
}
