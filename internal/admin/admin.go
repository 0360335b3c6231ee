// Package admin is the privacy-conscious owner area: hashed visitor
// tracking, a cookie-protected dashboard and the contact inbox.
package admin

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/asmitswain/portfolio/internal/storage"
	"github.com/asmitswain/portfolio/internal/theme"
)

const cookieName = "admin_token"

// Stats is the dashboard summary.
type Stats struct {
	storage.VisitorStats
	Messages       storage.MessageCounts `json:"messages"`
	ThemeSplit     map[string]int64      `json:"theme_split"`
	RecentVisitors []storage.Visit       `json:"recent_visitors"`
	RecentMessages []storage.Message     `json:"recent_messages"`
}

// Options configures the admin area. An empty Password disables login.
type Options struct {
	Username  string
	Password  string
	Retention time.Duration
}

const defaultRetention = 365 * 24 * time.Hour

type Handler struct {
	token    string
	salt     string
	opts     Options
	visitors *storage.Visitors
	messages *storage.Messages
	prefs    *storage.Preferences
	logger   *zap.Logger
	// track runs visitor inserts; tests replace it to run inline.
	track func(func())
}

func New(opts Options, visitors *storage.Visitors, messages *storage.Messages, prefs *storage.Preferences, logger *zap.Logger) (*Handler, error) {
	token, err := randomToken()
	if err != nil {
		return nil, errors.Wrap(err, "generate admin token")
	}
	salt, err := randomToken()
	if err != nil {
		return nil, errors.Wrap(err, "generate hashing salt")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Retention <= 0 {
		opts.Retention = defaultRetention
	}
	return &Handler{
		token:    token,
		salt:     salt,
		opts:     opts,
		visitors: visitors,
		messages: messages,
		prefs:    prefs,
		logger:   logger,
		track:    func(fn func()) { go fn() },
	}, nil
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Enabled reports whether a password is configured; without one the admin
// area refuses every login.
func (h *Handler) Enabled() bool {
	return h.opts.Password != ""
}

// HashIP hashes an address with the per-process salt so visitors can be
// counted without storing their IP.
func (h *Handler) HashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip + h.salt))
	return hex.EncodeToString(sum[:])[:16]
}

// TrackVisitors records page views, skipping assets, admin pages and
// visitors that send DNT.
func (h *Handler) TrackVisitors() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if c.Request.Method != http.MethodGet || skipTracking(path) || c.GetHeader("DNT") == "1" {
			c.Next()
			return
		}
		visit := storage.Visit{
			HashedIP:  h.HashIP(c.ClientIP()),
			UserAgent: c.Request.UserAgent(),
			Path:      path,
			CreatedAt: time.Now(),
		}
		h.track(func() {
			if err := h.visitors.Record(context.Background(), visit); err != nil {
				h.logger.Error("record visitor", zap.Error(err))
			}
		})
		c.Next()
	}
}

func skipTracking(path string) bool {
	for _, prefix := range []string{"/static/", "/images/", "/admin", "/favicon", "/privacy", "/roles/", "/healthz", "/api/", "/nav/"} {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// RequireAuth redirects to the login page unless the admin cookie matches.
func (h *Handler) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || subtle.ConstantTimeCompare([]byte(token), []byte(h.token)) != 1 {
			c.Redirect(http.StatusFound, "/admin/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

func (h *Handler) checkCredentials(username, password string) bool {
	if !h.Enabled() {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(h.opts.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(h.opts.Password)) == 1
	return userOK && passOK
}

// Stats gathers the dashboard summary.
func (h *Handler) Stats(ctx context.Context) (*Stats, error) {
	visitorStats, err := h.visitors.Stats(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := h.messages.Counts(ctx)
	if err != nil {
		return nil, err
	}
	split, err := h.prefs.CountByValue(ctx, theme.PreferenceKey)
	if err != nil {
		return nil, err
	}
	recent, err := h.visitors.Recent(ctx, 50)
	if err != nil {
		return nil, err
	}
	msgs, err := h.messages.List(ctx, 10)
	if err != nil {
		return nil, err
	}
	return &Stats{
		VisitorStats:   visitorStats,
		Messages:       counts,
		ThemeSplit:     split,
		RecentVisitors: recent,
		RecentMessages: msgs,
	}, nil
}

// Cleanup removes visits older than retention.
func (h *Handler) Cleanup(ctx context.Context, retention time.Duration) {
	n, err := h.visitors.Cleanup(ctx, retention)
	if err != nil {
		h.logger.Error("cleanup visitors", zap.Error(err))
		return
	}
	if n > 0 {
		h.logger.Info("privacy cleanup", zap.Int64("removed", n), zap.Duration("retention", retention))
	}
}
