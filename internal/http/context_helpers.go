package httpx

import (
	"context"

	domainauth "github.com/target/movielib/internal/domain/auth"
)

// sessionKey is an unexported context key type to avoid collisions across packages.
// Centralized in this file so all handlers/middleware use the same key.
type sessionKey struct{}

// authStatusKey carries the AuthStatus annotated by IsAuthenticated.
type authStatusKey struct{}

// withSession returns a child context that carries the given session context.
// If sc is nil, the original ctx is returned unchanged.
func withSession(ctx context.Context, sc *SessionContext) context.Context {
	if sc == nil {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, sc)
}

// SessionFromContext returns the request's session context and a boolean indicating presence.
func SessionFromContext(ctx context.Context) (*SessionContext, bool) {
	if sc, ok := ctx.Value(sessionKey{}).(*SessionContext); ok && sc != nil {
		return sc, true
	}
	return nil, false
}

// currentState returns the loaded session state, or the zero state when no
// session middleware ran.
func currentState(ctx context.Context) domainauth.SessionState {
	if sc, ok := SessionFromContext(ctx); ok {
		return sc.Load().State
	}
	return domainauth.SessionState{}
}

// AuthStatus is the annotation left by IsAuthenticated.
type AuthStatus struct {
	Authenticated bool
	UserID        string
	Profile       *domainauth.Profile
}

func withAuthStatus(ctx context.Context, st AuthStatus) context.Context {
	return context.WithValue(ctx, authStatusKey{}, st)
}

// AuthStatusFromContext returns the annotation left by IsAuthenticated. When
// the middleware did not run it is derived from the session directly.
func AuthStatusFromContext(ctx context.Context) AuthStatus {
	if st, ok := ctx.Value(authStatusKey{}).(AuthStatus); ok {
		return st
	}
	return authStatusOf(currentState(ctx))
}

func authStatusOf(s domainauth.SessionState) AuthStatus {
	if !s.IsAuthenticated() {
		return AuthStatus{}
	}
	return AuthStatus{Authenticated: true, UserID: s.UserID, Profile: s.Clone().Profile}
}
