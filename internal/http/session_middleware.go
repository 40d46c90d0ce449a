package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	domainauth "github.com/target/movielib/internal/domain/auth"
	"github.com/target/movielib/internal/service"
)

// DefaultSessionCookieName is used when SessionOptions.CookieName is empty.
const DefaultSessionCookieName = "movielib_session"

// SessionManager is the session lifecycle consumed by the middleware.
// *service.SessionService implements it.
type SessionManager interface {
	Resolve(ctx context.Context, cookieValue string) (*domainauth.SessionView, service.Resolution)
	Persist(ctx context.Context, view *domainauth.SessionView) (service.CookieSpec, error)
	Renew(ctx context.Context, view *domainauth.SessionView) error
	Destroy(ctx context.Context, view *domainauth.SessionView) (service.CookieSpec, error)
}

// SessionOptions configures the Sessions middleware.
type SessionOptions struct {
	CookieName string
	// Secure adds the Secure attribute; set in production deployments.
	Secure bool
	Logger *slog.Logger
}

// SessionContext is the per-request session handle. Commit and End write the
// session Set-Cookie header, so they must run before the response body.
type SessionContext struct {
	mgr        SessionManager
	w          http.ResponseWriter
	view       *domainauth.SessionView
	resolution service.Resolution
	cookieName string
	secure     bool
}

// Load returns the mutable session view for this request.
func (c *SessionContext) Load() *domainauth.SessionView { return c.view }

// Resolution reports how the incoming cookie was resolved.
func (c *SessionContext) Resolution() service.Resolution { return c.resolution }

// Commit persists the current view and emits the session cookie. A store
// failure is returned and no cookie is emitted.
func (c *SessionContext) Commit(ctx context.Context) error {
	spec, err := c.mgr.Persist(ctx, c.view)
	if err != nil {
		return err
	}
	c.writeCookie(spec)
	return nil
}

// End destroys the session and emits a clearing cookie. The cookie is
// cleared even when the store delete fails.
func (c *SessionContext) End(ctx context.Context) error {
	spec, err := c.mgr.Destroy(ctx, c.view)
	c.writeCookie(spec)
	return err
}

// SignIn binds u to a fresh session id and commits it.
func (c *SessionContext) SignIn(ctx context.Context, u domainauth.User) error {
	if err := c.mgr.Renew(ctx, c.view); err != nil {
		return err
	}
	c.view.State.SignIn(u)
	return c.Commit(ctx)
}

func (c *SessionContext) writeCookie(spec service.CookieSpec) {
	replaceSetCookie(c.w.Header(), c.cookieName, formatSessionCookie(c.cookieName, spec, c.secure))
}

// Sessions resolves the session cookie on every request and attaches a
// *SessionContext to the request context.
func Sessions(mgr SessionManager, opts SessionOptions) func(http.Handler) http.Handler {
	name := opts.CookieName
	if name == "" {
		name = DefaultSessionCookieName
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "sessions")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := requestCookie(r, name)
			view, res := mgr.Resolve(r.Context(), raw)
			if res == service.InvalidOrExpiredCookie {
				logger.DebugContext(r.Context(), "session cookie rejected", "path", r.URL.Path)
			}
			sc := &SessionContext{
				mgr:        mgr,
				w:          w,
				view:       view,
				resolution: res,
				cookieName: name,
				secure:     opts.Secure,
			}
			next.ServeHTTP(w, r.WithContext(withSession(r.Context(), sc)))
		})
	}
}

// errNoSession is returned by handlers that need the session middleware.
var errNoSession = errors.New("session middleware not installed")

// requestCookie returns the value of the first cookie called name across all
// Cookie headers. Malformed pairs are skipped.
func requestCookie(r *http.Request, name string) string {
	for _, header := range r.Header.Values("Cookie") {
		if v, ok := parseCookieHeader(header)[name]; ok {
			return v
		}
	}
	return ""
}

// parseCookieHeader splits a Cookie header into name/value pairs. Pairs without
// "=" or with an empty name are skipped; the first occurrence of a name wins.
func parseCookieHeader(header string) map[string]string {
	out := make(map[string]string)
	for part := range strings.SplitSeq(header, ";") {
		part = strings.TrimSpace(part)
		name, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, seen := out[name]; seen {
			continue
		}
		out[name] = strings.TrimSpace(value)
	}
	return out
}

// formatSessionCookie renders the Set-Cookie value for spec. An empty value
// produces the clearing form with Max-Age=0. A live cookie's Max-Age is
// rounded up to whole seconds and is never below 1.
func formatSessionCookie(name string, spec service.CookieSpec, secure bool) string {
	maxAge := int64(0)
	if !spec.Clearing() {
		maxAge = max(int64((spec.MaxAge+time.Second-1)/time.Second), 1)
	}
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('=')
	b.WriteString(spec.Value)
	b.WriteString("; Max-Age=")
	b.WriteString(strconv.FormatInt(maxAge, 10))
	b.WriteString("; HttpOnly; Path=/; SameSite=Strict")
	if secure {
		b.WriteString("; Secure")
	}
	return b.String()
}

// replaceSetCookie drops earlier Set-Cookie lines for name and appends line,
// so the last session action in a request wins.
func replaceSetCookie(h http.Header, name, line string) {
	prefix := name + "="
	existing := h.Values("Set-Cookie")
	kept := make([]string, 0, len(existing)+1)
	for _, v := range existing {
		if !strings.HasPrefix(v, prefix) {
			kept = append(kept, v)
		}
	}
	h["Set-Cookie"] = append(kept, line)
}
