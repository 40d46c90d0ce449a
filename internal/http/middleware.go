package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"
)

// Logging returns a middleware that logs HTTP requests and responses. The
// auth attribute is "+" when the request carried a signed-in session.
// It must run inside Sessions to see the session.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			auth := "-"
			if currentState(r.Context()).IsAuthenticated() {
				auth = "+"
			}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("auth", auth),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					if isAPIRequest(r) {
						WriteError(w, ErrorParams{
							Code:    http.StatusInternalServerError,
							ErrCode: "internal_error",
							Err:     errors.New("internal server error"),
						})
						return
					}
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// errAuthRequired is the uniform body for unauthenticated API requests.
var errAuthRequired = errors.New("authentication required")

// RequireAuth allows the request only when the session has a bound principal.
// API requests get a 401 JSON error; page requests are redirected to the
// login page with the original target as the redirect parameter.
func RequireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if currentState(r.Context()).IsAuthenticated() {
				next.ServeHTTP(w, r)
				return
			}
			if isAPIRequest(r) {
				WriteError(w, ErrorParams{
					Code:    http.StatusUnauthorized,
					ErrCode: "authentication_required",
					Err:     errAuthRequired,
				})
				return
			}
			redirectToLogin(w, r)
		})
	}
}

// IsAuthenticated never blocks. It annotates the request context with whether
// a principal is bound; read it with AuthStatusFromContext.
func IsAuthenticated() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			st := authStatusOf(currentState(r.Context()))
			next.ServeHTTP(w, r.WithContext(withAuthStatus(r.Context(), st)))
		})
	}
}

// RedirectIfAuthenticated sends signed-in users away from anonymous-only pages.
func RedirectIfAuthenticated() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if currentState(r.Context()).IsAuthenticated() {
				http.Redirect(w, r, "/", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// isAPIRequest reports whether r targets the JSON API.
func isAPIRequest(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}

// redirectToLogin redirects page requests to the login page carrying the
// current request URI.
func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	loginURL := "/login?redirect=" + url.QueryEscape(r.URL.RequestURI())
	http.Redirect(w, r, loginURL, http.StatusSeeOther)
}

// safeRedirectPath ensures the provided redirect is a same-origin relative path
// starting with "/" and not an absolute URL. Returns "/" when invalid.
func safeRedirectPath(candidate string) string {
	if candidate == "" {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") {
		return "/"
	}
	return candidate
}
