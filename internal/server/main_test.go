package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"yatube/internal/cache"
	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/models"
	"yatube/internal/render"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testPassword = "Kvas-Ka7-Pelmen"

// recordingViews renders through the real templates and remembers the last
// page it was asked for.
type recordingViews struct {
	inner fiber.Views

	mu   sync.Mutex
	name string
	data *render.Data
}

func newRecordingViews() *recordingViews {
	return &recordingViews{inner: render.New("")}
}

func (v *recordingViews) Load() error { return v.inner.Load() }

func (v *recordingViews) Render(w io.Writer, name string, binding interface{}, layouts ...string) error {
	v.mu.Lock()
	v.name = name
	v.data, _ = binding.(*render.Data)
	v.mu.Unlock()
	return v.inner.Render(w, name, binding, layouts...)
}

func (v *recordingViews) last() (string, *render.Data) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.name, v.data
}

type testEnv struct {
	server *Server
	app    *fiber.App
	db     *gorm.DB
	views  *recordingViews
	redis  *miniredis.Miniredis
}

func testConfig(flags string) *config.Config {
	return &config.Config{
		Port:            "0",
		Env:             "test",
		SessionSecret:   "test-session-secret-0123456789abcdef",
		SessionTTLHours: 24,
		DBDriver:        "sqlite",
		FeatureFlags:    flags,
		PageSize:        10,
	}
}

// newTestEnv builds a server over an in-memory sqlite database and a
// miniredis instance.
func newTestEnv(t *testing.T, flags string) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=1"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	cache.SetClient(rdb)
	t.Cleanup(func() { cache.SetClient(nil) })

	views := newRecordingViews()
	srv, err := NewServerWithDeps(testConfig(flags), db, rdb,
		WithViews(views), WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, err)

	return &testEnv{server: srv, app: srv.App(), db: db, views: views, redis: mr}
}

func (e *testEnv) createUser(t *testing.T, username string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	u := &models.User{Username: username, Password: string(hash), FirstName: "Лев", LastName: "Толстой"}
	require.NoError(t, e.db.Create(u).Error)
	return u
}

func (e *testEnv) createGroup(t *testing.T, slug string) *models.Group {
	t.Helper()
	g := &models.Group{Title: "Group " + slug, Slug: slug}
	require.NoError(t, e.db.Create(g).Error)
	return g
}

func (e *testEnv) createPost(t *testing.T, author *models.User, group *models.Group, text string) *models.Post {
	t.Helper()
	p := &models.Post{Text: text, AuthorID: author.ID}
	if group != nil {
		p.GroupID = &group.ID
	}
	require.NoError(t, e.db.Omit("Author", "Group").Create(p).Error)
	return p
}

func (e *testEnv) postCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&models.Post{}).Count(&n).Error)
	return n
}

// login returns a session cookie for user.
func (e *testEnv) login(t *testing.T, user *models.User) *http.Cookie {
	t.Helper()
	token, _, err := e.server.tokens.Issue(user)
	require.NoError(t, err)
	return &http.Cookie{Name: sessionCookie, Value: token}
}

func (e *testEnv) get(t *testing.T, path string, cookie *http.Cookie) *http.Response {
	t.Helper()
	return e.do(t, httptest.NewRequest(http.MethodGet, path, nil), cookie)
}

// fetchCSRF loads a page and returns the CSRF cookie it hands out.
func (e *testEnv) fetchCSRF(t *testing.T) *http.Cookie {
	t.Helper()
	resp := e.get(t, "/auth/login/", nil)
	c := responseCookie(resp, csrfCookie)
	require.NotNil(t, c, "pages set the csrf cookie")
	require.NotEmpty(t, c.Value)
	return &http.Cookie{Name: csrfCookie, Value: c.Value}
}

// postForm submits form the way the browser does: with the CSRF cookie and
// the matching hidden field.
func (e *testEnv) postForm(t *testing.T, path string, form url.Values, cookie *http.Cookie) *http.Response {
	t.Helper()
	token := e.fetchCSRF(t)
	withToken := url.Values{}
	for k, v := range form {
		withToken[k] = v
	}
	withToken.Set(csrfFormField, token.Value)
	return e.post(t, path, withToken, cookie, token)
}

func (e *testEnv) post(t *testing.T, path string, form url.Values, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(t, req, cookies...)
}

func (e *testEnv) do(t *testing.T, req *http.Request, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	for _, c := range cookies {
		if c != nil {
			req.AddCookie(c)
		}
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func responseCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
