package httpx

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/target/movielib/internal/adapters/memstore"
	"github.com/target/movielib/internal/data"
	"github.com/target/movielib/internal/data/cryptoutil"
	mocks "github.com/target/movielib/internal/mocks/auth"
	"github.com/target/movielib/internal/service"
)

const testCookieName = "movielib_session"

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// testEnv wires the full router against in-memory stores.
type testEnv struct {
	Handler  http.Handler
	Store    *memstore.SessionStore
	Users    *data.MemoryUserRepo
	Limiter  *mocks.CountingLimiter
	Sessions *service.SessionService
	Clock    *testClock
}

func newTestEnv(t *testing.T, overrides ...func(*RouterServices)) *testEnv {
	t.Helper()
	clock := &testClock{t: time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)}
	store := memstore.NewSessionStore(memstore.Options{Now: clock.Now})
	t.Cleanup(func() { _ = store.Close() })

	signer, err := cryptoutil.NewSigner([]byte("http-test-secret"))
	require.NoError(t, err)
	sessions, err := service.NewSessionService(service.SessionServiceOptions{
		Store:  store,
		Signer: signer,
		MaxAge: time.Hour,
	})
	require.NoError(t, err)

	creds, err := service.NewCredentialService(service.CredentialServiceOptions{
		Hasher: cryptoutil.NewPBKDF2Hasher(cryptoutil.DefaultPBKDF2Iterations),
	})
	require.NoError(t, err)
	users := data.NewMemoryUserRepo()
	limiter := mocks.NewCountingLimiter(3)
	auth, err := service.NewAuthService(service.AuthServiceOptions{
		Users:       users,
		Credentials: creds,
		Limiter:     limiter,
	})
	require.NoError(t, err)

	rs := RouterServices{
		Sessions:   sessions,
		Auth:       auth,
		CookieName: testCookieName,
		Project:    "Movie Library",
		Version:    "test",
		TemplateFS: os.DirFS(TemplatePathFromTest),
	}
	for _, o := range overrides {
		o(&rs)
	}

	return &testEnv{
		Handler:  NewRouter(rs),
		Store:    store,
		Users:    users,
		Limiter:  limiter,
		Sessions: sessions,
		Clock:    clock,
	}
}

// do issues a request; a JSON body is sent unless contentType says otherwise.
func (e *testEnv) do(t *testing.T, method, path, body, cookie string) *httptest.ResponseRecorder {
	t.Helper()
	return e.doWithType(t, requestSpec{Method: method, Path: path, Body: body, Cookie: cookie, ContentType: "application/json"})
}

type requestSpec struct {
	Method      string
	Path        string
	Body        string
	Cookie      string
	ContentType string
}

func (e *testEnv) doWithType(t *testing.T, spec requestSpec) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(spec.Method, spec.Path, strings.NewReader(spec.Body))
	if spec.Body != "" && spec.ContentType != "" {
		req.Header.Set("Content-Type", spec.ContentType)
	}
	if spec.Cookie != "" {
		req.Header.Set("Cookie", testCookieName+"="+spec.Cookie)
	}
	rec := httptest.NewRecorder()
	e.Handler.ServeHTTP(rec, req)
	return rec
}

// register creates a user through the API and returns the session cookie value.
func (e *testEnv) register(t *testing.T, username, password string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/auth/register",
		`{"username":"`+username+`","password":"`+password+`"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	v := sessionCookieValue(t, rec)
	require.NotEmpty(t, v)
	return v
}

// sessionCookieLine returns the single Set-Cookie line for the session cookie.
func sessionCookieLine(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var lines []string
	for _, v := range rec.Header().Values("Set-Cookie") {
		if strings.HasPrefix(v, testCookieName+"=") {
			lines = append(lines, v)
		}
	}
	require.Len(t, lines, 1, "expected exactly one session Set-Cookie, got %v", lines)
	return lines[0]
}

// sessionCookieValue extracts "{id}.{sig}" from the session Set-Cookie line.
func sessionCookieValue(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	line := sessionCookieLine(t, rec)
	first, _, _ := strings.Cut(line, ";")
	return strings.TrimPrefix(first, testCookieName+"=")
}

// SkipIfNoTemplates skips tests that render pages when templates are not on disk.
func SkipIfNoTemplates(t *testing.T) {
	t.Helper()
	if _, err := os.Stat(TemplatePathFromTest); os.IsNotExist(err) {
		t.Skip("Templates not available, skipping")
	}
}
