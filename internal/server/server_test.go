package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/asmitswain/portfolio/internal/config"
	"github.com/asmitswain/portfolio/internal/contact"
	"github.com/asmitswain/portfolio/internal/portfolio"
	"github.com/asmitswain/portfolio/internal/storage"
)

type senderFunc func(ctx context.Context, f contact.Fields) error

func (fn senderFunc) Send(ctx context.Context, f contact.Fields) error { return fn(ctx, f) }

type fixture struct {
	srv     *Server
	db      *storage.DB
	content *portfolio.Store
}

func newFixture(t *testing.T, sender contact.Sender, mutate ...func(*config.Config)) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	resume := filepath.Join(dir, "Resume.pdf")
	require.NoError(t, os.WriteFile(resume, []byte("%PDF-1.4"), 0o644))

	cfg := config.Default()
	cfg.StaticDir = ""
	cfg.ImagesDir = dir
	cfg.ResumePath = resume
	cfg.RoleInterval = 20 * time.Millisecond
	for _, m := range mutate {
		m(cfg)
	}

	db, err := storage.OpenMemory(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	content, err := portfolio.Default()
	require.NoError(t, err)

	if sender == nil {
		sender = senderFunc(func(context.Context, contact.Fields) error { return nil })
	}
	srv, err := New(Deps{Config: cfg, Content: content, DB: db, Sender: sender, Logger: zap.NewNop()})
	require.NoError(t, err)
	return &fixture{srv: srv, db: db, content: content}
}

func (f *fixture) do(req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(w, req)
	return w
}

func cookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// visit loads the home page and returns the visitor cookie it assigned.
func (f *fixture) visit(t *testing.T) *http.Cookie {
	t.Helper()
	w := f.do(httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	c := cookie(w, visitorCookie)
	require.NotNil(t, c)
	return c
}

func htmx(req *http.Request) *http.Request {
	req.Header.Set("HX-Request", "true")
	return req
}

func contactForm(fields contact.Fields) *http.Request {
	form := url.Values{
		"name":    {fields.Name},
		"email":   {fields.Email},
		"subject": {fields.Subject},
		"message": {fields.Message},
	}
	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return htmx(req)
}

var validFields = contact.Fields{Name: "Ada", Email: "ada@example.com", Subject: "Hi", Message: "Hello there"}

func TestIndexRendersPortfolio(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `data-theme="light"`)
	assert.Contains(t, body, "Asmit Swain")
	assert.Contains(t, body, f.content.Roles()[0])
	assert.Contains(t, body, "<strong>Full-Stack:</strong>")
	assert.Contains(t, body, "Core Competencies")
	assert.Contains(t, body, `<span class="skill-level">90%</span>`)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	c := cookie(w, visitorCookie)
	require.NotNil(t, c)
	assert.True(t, c.HttpOnly)

	// The same visitor keeps their id.
	w = f.do(httptest.NewRequest(http.MethodGet, "/", nil), c)
	assert.Nil(t, cookie(w, visitorCookie))
}

func TestThemeToggleSetsCookieAndPersists(t *testing.T) {
	f := newFixture(t, nil)
	visitor := f.visit(t)

	w := f.do(httptest.NewRequest(http.MethodPost, "/theme/toggle", nil), visitor)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"theme":"dark"}`, w.Body.String())
	assert.JSONEq(t, `{"themeChanged":{"theme":"dark"}}`, w.Header().Get("HX-Trigger"))
	themeC := cookie(w, themeCookie)
	require.NotNil(t, themeC)
	assert.Equal(t, "dark", themeC.Value)
	assert.False(t, themeC.HttpOnly)

	// Reload without the theme cookie: the stored preference applies.
	w = f.do(httptest.NewRequest(http.MethodGet, "/", nil), visitor)
	assert.Contains(t, w.Body.String(), `data-theme="dark"`)

	w = f.do(htmx(httptest.NewRequest(http.MethodPost, "/theme/toggle", nil)), visitor, themeC)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `id="theme-toggle"`)
	assert.Equal(t, "light", cookie(w, themeCookie).Value)
}

func TestNavigation(t *testing.T) {
	f := newFixture(t, nil)
	visitor := f.visit(t)
	nav := f.srv.Sessions().Get(visitor.Value).Nav

	w := f.do(htmx(httptest.NewRequest(http.MethodPost, "/nav/menu", nil)), visitor)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "mobile-menu")
	assert.True(t, nav.State().MenuOpen)

	w = f.do(htmx(httptest.NewRequest(http.MethodGet, "/nav/projects", nil)), visitor)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "mobile-menu")
	assert.Equal(t, "projects", nav.State().Active)
	assert.False(t, nav.State().MenuOpen)

	w = f.do(httptest.NewRequest(http.MethodGet, "/nav/nowhere", nil), visitor)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/#projects", w.Header().Get("Location"))
	assert.Equal(t, "projects", nav.State().Active)
}

func TestSpyReportsDerivedState(t *testing.T) {
	f := newFixture(t, nil)
	visitor := f.visit(t)

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/nav/spy", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return f.do(req, visitor)
	}

	layout := `"sections":[{"id":"home","top":0,"height":800},{"id":"about","top":800,"height":600},{"id":"skills","top":1400,"height":600}]`

	w := post(`{"offset":0,` + layout + `}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"active":"home","menuOpen":false,"isScrolled":false,"headerOpaque":false,"showScrollTop":false}`, w.Body.String())

	w = post(`{"offset":750,` + layout + `}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"active":"about","menuOpen":false,"isScrolled":true,"headerOpaque":true,"showScrollTop":true}`, w.Body.String())

	w = post(`{"offset":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var envelope ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "bad_request", envelope.Error.Code)
}

func TestContactSuccessAndFailure(t *testing.T) {
	fail := false
	f := newFixture(t, senderFunc(func(context.Context, contact.Fields) error {
		if fail {
			return errors.New("relay down")
		}
		return nil
	}))
	visitor := f.visit(t)

	w := f.do(contactForm(validFields), visitor)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), contact.SuccessMessage)

	fail = true
	w = f.do(contactForm(validFields), visitor)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), contact.FailureMessage)

	missing := validFields
	missing.Subject = " "
	w = f.do(contactForm(missing), visitor)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	msgs, err := storage.NewMessages(f.db.DB).List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, visitor.Value, msgs[0].VisitorID)
}

func TestContactJSON(t *testing.T) {
	f := newFixture(t, nil)
	visitor := f.visit(t)

	body, err := json.Marshal(validFields)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	w := f.do(req, visitor)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"succeeded","message":"Message sent successfully!"}`, w.Body.String())
}

func TestContactRejectsSecondSubmitWhileInFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls sync.WaitGroup
	calls.Add(1)
	f := newFixture(t, senderFunc(func(context.Context, contact.Fields) error {
		defer calls.Done()
		close(started)
		<-release
		return nil
	}))
	visitor := f.visit(t)

	first := make(chan *httptest.ResponseRecorder, 1)
	go func() { first <- f.do(contactForm(validFields), visitor) }()
	<-started

	w := f.do(contactForm(validFields), visitor)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Another visitor has their own form.
	other := f.visit(t)
	close(release)
	calls.Wait()

	w = <-first
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "successfully")
	assert.False(t, f.srv.Sessions().Get(other.Value).Form.IsSubmitting())
}

func TestAPIAndAssets(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(httptest.NewRequest(http.MethodGet, "/api/skills", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var skills struct {
		Categories []string               `json:"categories"`
		Groups     []portfolio.SkillGroup `json:"groups"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &skills))
	assert.Equal(t, []string{"Frontend", "Backend", "Databases", "Tools"}, skills.Categories)
	require.Len(t, skills.Groups, 4)
	assert.Len(t, skills.Groups[0].Skills, 5)

	w = f.do(httptest.NewRequest(http.MethodGet, "/api/portfolio", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"dynamicRoles"`)

	w = f.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(httptest.NewRequest(http.MethodGet, "/resume", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "Resume-Asmit-Swain.pdf")

	w = f.do(httptest.NewRequest(http.MethodGet, "/static/site.js", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResumeMissing(t *testing.T) {
	f := newFixture(t, nil, func(c *config.Config) { c.ResumePath = filepath.Join(t.TempDir(), "none.pdf") })
	w := f.do(httptest.NewRequest(http.MethodGet, "/resume", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResumeFallsBackToContentPath(t *testing.T) {
	dir := t.TempDir()
	resume := filepath.Join(dir, "cv.pdf")
	require.NoError(t, os.WriteFile(resume, []byte("%PDF-1.4"), 0o644))

	content, err := portfolio.Parse([]byte("name: Ada\ndynamic_roles: [Engineer]\nresume:\n  path: " + resume + "\n  download_as: Ada.pdf\n"))
	require.NoError(t, err)
	cfg := config.Default()
	cfg.StaticDir = ""
	require.Empty(t, cfg.ResumePath)

	db, err := storage.OpenMemory(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	srv, err := New(Deps{Config: cfg, Content: content, DB: db, Logger: zap.NewNop()})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/resume", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "%PDF-1.4", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "Ada.pdf")
}

func TestCookielessRequestsDoNotRegisterSessions(t *testing.T) {
	f := newFixture(t, nil)
	spy := func() *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/nav/spy", strings.NewReader(`{"offset":120}`))
		req.Header.Set("Content-Type", "application/json")
		return req
	}

	for i := 0; i < 20; i++ {
		require.Equal(t, http.StatusOK, f.do(httptest.NewRequest(http.MethodGet, "/", nil)).Code)
		require.Equal(t, http.StatusOK, f.do(spy()).Code)
		f.do(htmx(httptest.NewRequest(http.MethodPost, "/nav/menu", nil)))
	}
	assert.Equal(t, 0, f.srv.Sessions().Len())

	forged := &http.Cookie{Name: visitorCookie, Value: "not-a-uuid"}
	f.do(spy(), forged)
	assert.Equal(t, 0, f.srv.Sessions().Len())

	c := f.visit(t)
	assert.Equal(t, 0, f.srv.Sessions().Len())
	require.Equal(t, http.StatusOK, f.do(spy(), c).Code)
	assert.Equal(t, 1, f.srv.Sessions().Len())
	f.do(httptest.NewRequest(http.MethodGet, "/", nil), c)
	assert.Equal(t, 1, f.srv.Sessions().Len())
}

func TestRoleStream(t *testing.T) {
	f := newFixture(t, nil)
	ts := httptest.NewServer(f.srv.Handler())
	defer ts.Close()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}

	resp, err := client.Get(ts.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	var visitor string
	for _, c := range jar.Cookies(resp.Request.URL) {
		if c.Name == visitorCookie {
			visitor = c.Value
		}
	}
	require.NotEmpty(t, visitor)
	tracker := f.srv.Sessions().Get(visitor).Scroll

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/roles/stream", nil)
	require.NoError(t, err)
	stream, err := client.Do(req)
	require.NoError(t, err)
	require.Equal(t, "text/event-stream", stream.Header.Get("Content-Type"))

	roles := f.content.Roles()
	var (
		got       []string
		sawScroll bool
		event     string
	)
	sc := bufio.NewScanner(stream.Body)
	for sc.Scan() && (len(got) < 3 || !sawScroll) {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			switch event {
			case "role":
				var ev roleEvent
				require.NoError(t, json.Unmarshal([]byte(data), &ev))
				got = append(got, ev.Role)
				if len(got) == 1 {
					tracker.Publish(400, false)
				}
			case "scroll":
				assert.Contains(t, data, `"showScrollTop":true`)
				sawScroll = true
			}
		}
	}
	require.GreaterOrEqual(t, len(got), 3)
	assert.Equal(t, roles[:3], got[:3])
	assert.True(t, sawScroll)

	cancel()
	stream.Body.Close()
	assert.Eventually(t, func() bool { return tracker.Len() == 0 }, 2*time.Second, 10*time.Millisecond,
		"stream releases its scroll subscription on disconnect")
}
