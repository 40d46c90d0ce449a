package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	domainauth "github.com/target/movielib/internal/domain/auth"
	"github.com/target/movielib/internal/service"
)

// AuthServiceInterface defines the interface for auth service operations.
type AuthServiceInterface interface {
	Register(ctx context.Context, in service.RegisterInput) (domainauth.User, error)
	Login(ctx context.Context, in service.LoginInput) (domainauth.User, error)
	CurrentUser(ctx context.Context, userID string) (domainauth.User, error)
}

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Svc    AuthServiceInterface
	Logger *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// userResponse is the public projection of a user.
type userResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func newUserResponse(u domainauth.User) userResponse {
	return userResponse{ID: u.ID, Username: u.Username, Email: u.Email, CreatedAt: u.CreatedAt}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

func (h *AuthHandlers) decodeCredentials(w http.ResponseWriter, r *http.Request) (credentialsRequest, bool) {
	var req credentialsRequest
	ok := DecodeBody(w, r, &req, func(get func(string) string) {
		req.Username = get("username")
		req.Password = get("password")
		req.Email = get("email")
		req.Redirect = get("redirect")
	})
	return req, ok
}

// Register handles user registration.
// POST /api/auth/register.
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFromContext(r.Context())
	if !ok {
		h.writeNoSession(w)
		return
	}
	req, ok := h.decodeCredentials(w, r)
	if !ok {
		return
	}

	user, err := h.Svc.Register(r.Context(), service.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
	})
	if err != nil {
		if isFormRequest(r) {
			h.redirectWithError(w, r, "/register", err)
			return
		}
		h.writeAuthError(w, r, err)
		return
	}

	if err := sess.SignIn(r.Context(), user); err != nil {
		h.writeSessionError(w, r, err)
		return
	}

	if isFormRequest(r) {
		http.Redirect(w, r, safeRedirectPath(req.Redirect), http.StatusSeeOther)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully",
		"user":    newUserResponse(user),
	})
}

// Login handles password login.
// POST /api/auth/login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFromContext(r.Context())
	if !ok {
		h.writeNoSession(w)
		return
	}
	req, ok := h.decodeCredentials(w, r)
	if !ok {
		return
	}

	user, err := h.Svc.Login(r.Context(), service.LoginInput{
		Username: req.Username,
		Password: req.Password,
		ClientIP: clientIP(r),
	})
	if err != nil {
		if isFormRequest(r) {
			h.redirectWithError(w, r, "/login", err)
			return
		}
		h.writeAuthError(w, r, err)
		return
	}

	if err := sess.SignIn(r.Context(), user); err != nil {
		h.writeSessionError(w, r, err)
		return
	}

	if isFormRequest(r) {
		http.Redirect(w, r, safeRedirectPath(req.Redirect), http.StatusSeeOther)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"user":    newUserResponse(user),
	})
}

// Logout destroys the current session.
// POST /api/auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFromContext(r.Context())
	if !ok {
		h.writeNoSession(w)
		return
	}
	if err := sess.End(r.Context()); err != nil {
		h.logger().WarnContext(r.Context(), "logout failed", "error", err)
	}

	if isFormRequest(r) {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

// Me returns the signed-in user. A session whose user no longer exists is destroyed.
// GET /api/auth/me.
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFromContext(r.Context())
	if !ok {
		h.writeNoSession(w)
		return
	}
	state := sess.Load().State
	if !state.IsAuthenticated() {
		WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: "authentication_required", Err: errAuthRequired})
		return
	}

	user, err := h.Svc.CurrentUser(r.Context(), state.UserID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			if endErr := sess.End(r.Context()); endErr != nil {
				h.logger().WarnContext(r.Context(), "destroying orphaned session failed", "error", endErr)
			}
			WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: "authentication_required", Err: errAuthRequired})
			return
		}
		h.writeAuthError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"user": newUserResponse(user)})
}

var (
	errInvalidCredentials = errors.New("invalid credentials")
	errServiceUnavailable = errors.New("service temporarily unavailable")
	errInternal           = errors.New("internal server error")
)

// authErrorParams maps auth service errors to HTTP responses. Unknown users
// and wrong passwords share one response.
func authErrorParams(err error) ErrorParams {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation_failed", Err: errors.New("validation failed"), Details: verr.Details}
	case errors.Is(err, service.ErrUsernameTaken):
		return ErrorParams{Code: http.StatusBadRequest, ErrCode: "username_taken", Err: service.ErrUsernameTaken}
	case errors.Is(err, service.ErrMissingCredentials):
		return ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_credentials", Err: errors.New("username and password are required")}
	case errors.Is(err, service.ErrInvalidCredentials):
		return ErrorParams{Code: http.StatusUnauthorized, ErrCode: "invalid_credentials", Err: errInvalidCredentials}
	case errors.Is(err, service.ErrTooManyAttempts):
		return ErrorParams{Code: http.StatusTooManyRequests, ErrCode: "too_many_attempts", Err: service.ErrTooManyAttempts}
	case errors.Is(err, service.ErrStoreUnavailable),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return ErrorParams{Code: http.StatusServiceUnavailable, ErrCode: "service_unavailable", Err: errServiceUnavailable}
	default:
		return ErrorParams{Code: http.StatusInternalServerError, ErrCode: "internal_error", Err: errInternal}
	}
}

func (h *AuthHandlers) writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	p := authErrorParams(err)
	if p.Code >= http.StatusInternalServerError {
		h.logger().ErrorContext(r.Context(), "auth request failed", "path", r.URL.Path, "error", err)
	}
	WriteError(w, p)
}

// writeSessionError reports a failed session write. The principal is not
// signed in when no session could be recorded.
func (h *AuthHandlers) writeSessionError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger().ErrorContext(r.Context(), "session persist failed", "error", err)
	WriteError(w, ErrorParams{Code: http.StatusServiceUnavailable, ErrCode: "session_unavailable", Err: errServiceUnavailable})
}

func (h *AuthHandlers) writeNoSession(w http.ResponseWriter) {
	h.logger().Error("auth handler reached without session middleware")
	WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "internal_error", Err: errNoSession})
}

// redirectWithError sends form submissions back to page with an error code,
// preserving the redirect target.
func (h *AuthHandlers) redirectWithError(w http.ResponseWriter, r *http.Request, page string, err error) {
	p := authErrorParams(err)
	if p.Code >= http.StatusInternalServerError {
		h.logger().ErrorContext(r.Context(), "auth form failed", "path", r.URL.Path, "error", err)
	}
	q := url.Values{}
	q.Set("error", p.ErrCode)
	if redirect := r.PostForm.Get("redirect"); redirect != "" {
		q.Set("redirect", safeRedirectPath(redirect))
	}
	http.Redirect(w, r, page+"?"+q.Encode(), http.StatusSeeOther)
}

// clientIP returns the peer address without port.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
