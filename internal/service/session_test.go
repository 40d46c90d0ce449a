package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/movielib/internal/adapters/memstore"
	"github.com/target/movielib/internal/data/cryptoutil"
	domainauth "github.com/target/movielib/internal/domain/auth"
	mocks "github.com/target/movielib/internal/mocks/auth"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestSigner(t *testing.T) *cryptoutil.Signer {
	t.Helper()
	signer, err := cryptoutil.NewSigner([]byte("session-test-secret"))
	require.NoError(t, err)
	return signer
}

func newSessionServiceWithClock(t *testing.T, maxAge time.Duration) (*SessionService, *memstore.SessionStore, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	store := memstore.NewSessionStore(memstore.Options{Now: clock.Now})
	svc, err := NewSessionService(SessionServiceOptions{
		Store:  store,
		Signer: newTestSigner(t),
		MaxAge: maxAge,
	})
	require.NoError(t, err)
	return svc, store, clock
}

func signedIn() domainauth.SessionState {
	var st domainauth.SessionState
	st.SignIn(domainauth.User{ID: "user-1", Username: "alice", Email: "alice@example.com"})
	return st
}

func TestNewSessionService_Validation(t *testing.T) {
	_, err := NewSessionService(SessionServiceOptions{Signer: newTestSigner(t)})
	require.Error(t, err)

	_, err = NewSessionService(SessionServiceOptions{Store: mocks.NewFuncSessionStore()})
	require.Error(t, err)

	svc, err := NewSessionService(SessionServiceOptions{Store: mocks.NewFuncSessionStore(), Signer: newTestSigner(t)})
	require.NoError(t, err)
	assert.Equal(t, DefaultSessionMaxAge, svc.MaxAge())
}

func TestSessionService_ResolveNoCookie(t *testing.T) {
	svc, _, _ := newSessionServiceWithClock(t, time.Hour)

	view, res := svc.Resolve(context.Background(), "")
	assert.Equal(t, NoCookie, res)
	assert.False(t, view.Bound())
	assert.False(t, view.State.IsAuthenticated())
}

func TestSessionService_PersistThenResolve(t *testing.T) {
	svc, _, _ := newSessionServiceWithClock(t, time.Hour)
	ctx := context.Background()

	view := &domainauth.SessionView{State: signedIn()}
	cookie, err := svc.Persist(ctx, view)
	require.NoError(t, err)
	require.True(t, view.Bound())
	assert.Equal(t, time.Hour, cookie.MaxAge)
	assert.Equal(t, view.ID+"."+newTestSigner(t).Sign(view.ID), cookie.Value)

	loaded, res := svc.Resolve(ctx, cookie.Value)
	assert.Equal(t, ValidCookie, res)
	assert.Equal(t, view.ID, loaded.ID)
	assert.Equal(t, signedIn(), loaded.State)
}

func TestSessionService_PersistTwiceKeepsID(t *testing.T) {
	svc, _, clock := newSessionServiceWithClock(t, time.Minute)
	ctx := context.Background()

	view := &domainauth.SessionView{}
	first, err := svc.Persist(ctx, view)
	require.NoError(t, err)
	id := view.ID

	clock.Advance(45 * time.Second)
	view.State = signedIn()
	second, err := svc.Persist(ctx, view)
	require.NoError(t, err)
	assert.Equal(t, id, view.ID)
	assert.Equal(t, first.Value, second.Value)

	clock.Advance(45 * time.Second)
	loaded, res := svc.Resolve(ctx, second.Value)
	assert.Equal(t, ValidCookie, res, "second persist refreshed the expiry")
	assert.True(t, loaded.State.IsAuthenticated())
}

func TestSessionService_ValidUntilExpiry(t *testing.T) {
	svc, _, clock := newSessionServiceWithClock(t, time.Minute)
	ctx := context.Background()

	cookie, err := svc.Persist(ctx, &domainauth.SessionView{State: signedIn()})
	require.NoError(t, err)

	clock.Advance(time.Minute - time.Millisecond)
	_, res := svc.Resolve(ctx, cookie.Value)
	assert.Equal(t, ValidCookie, res)

	clock.Advance(2 * time.Millisecond)
	view, res := svc.Resolve(ctx, cookie.Value)
	assert.Equal(t, InvalidOrExpiredCookie, res)
	assert.False(t, view.Bound())
}

func TestSessionService_LazyExpiryRemovesStaleRecord(t *testing.T) {
	svc, store, clock := newSessionServiceWithClock(t, time.Minute)
	ctx := context.Background()

	cookie, err := svc.Persist(ctx, &domainauth.SessionView{State: signedIn()})
	require.NoError(t, err)
	clock.Advance(time.Hour)
	require.Equal(t, 1, store.Len(), "not swept yet")

	view, res := svc.Resolve(ctx, cookie.Value)
	assert.Equal(t, InvalidOrExpiredCookie, res)
	assert.False(t, view.State.IsAuthenticated())
	assert.Equal(t, 0, store.Len(), "stale entry deleted on read")
}

func TestSessionService_ForgedCookieSkipsStore(t *testing.T) {
	store := mocks.NewFuncSessionStore()
	store.GetFunc = func(context.Context, string) (domainauth.SessionRecord, bool, error) {
		t.Fatal("store must not be consulted for a forged cookie")
		return domainauth.SessionRecord{}, false, nil
	}
	signer := newTestSigner(t)
	svc, err := NewSessionService(SessionServiceOptions{Store: store, Signer: signer})
	require.NoError(t, err)

	id, err := signer.GenerateID()
	require.NoError(t, err)
	other, err := cryptoutil.NewSigner([]byte("attacker-secret"))
	require.NoError(t, err)

	for _, value := range []string{
		other.EncodeToken(id),
		id + ".zz",
		id,
		"." + signer.Sign(id),
		"garbage",
		signer.EncodeToken("short-but-signed"),
	} {
		view, res := svc.Resolve(context.Background(), value)
		assert.Equal(t, InvalidOrExpiredCookie, res, "value %q", value)
		assert.False(t, view.Bound())
	}
	assert.Empty(t, store.Deleted)
}

func TestSessionService_StoreReadErrorDegradesToNoSession(t *testing.T) {
	store := mocks.NewFuncSessionStore()
	store.GetFunc = func(context.Context, string) (domainauth.SessionRecord, bool, error) {
		return domainauth.SessionRecord{}, false, mocks.ErrInjected
	}
	signer := newTestSigner(t)
	svc, err := NewSessionService(SessionServiceOptions{Store: store, Signer: signer})
	require.NoError(t, err)

	id, err := signer.GenerateID()
	require.NoError(t, err)

	view, res := svc.Resolve(context.Background(), signer.EncodeToken(id))
	assert.Equal(t, InvalidOrExpiredCookie, res)
	assert.False(t, view.Bound())
}

func TestSessionService_PersistSurfacesStoreFailure(t *testing.T) {
	store := mocks.NewFuncSessionStore()
	store.SetFunc = func(context.Context, string, domainauth.SessionState, time.Duration) error {
		return mocks.ErrInjected
	}
	svc, err := NewSessionService(SessionServiceOptions{Store: store, Signer: newTestSigner(t)})
	require.NoError(t, err)

	cookie, err := svc.Persist(context.Background(), &domainauth.SessionView{State: signedIn()})
	require.ErrorIs(t, err, mocks.ErrInjected)
	assert.Equal(t, CookieSpec{}, cookie)

	_, err = svc.Persist(context.Background(), nil)
	require.Error(t, err)
}

func TestSessionService_DestroyRevokesCookie(t *testing.T) {
	svc, store, _ := newSessionServiceWithClock(t, time.Hour)
	ctx := context.Background()

	view := &domainauth.SessionView{State: signedIn()}
	cookie, err := svc.Persist(ctx, view)
	require.NoError(t, err)

	cleared, err := svc.Destroy(ctx, view)
	require.NoError(t, err)
	assert.True(t, cleared.Clearing())
	assert.Equal(t, time.Duration(0), cleared.MaxAge)
	assert.False(t, view.Bound())
	assert.False(t, view.State.IsAuthenticated())
	assert.Equal(t, 0, store.Len())

	again, res := svc.Resolve(ctx, cookie.Value)
	assert.Equal(t, InvalidOrExpiredCookie, res, "revoked cookie resolves to no session before Max-Age elapses")
	assert.False(t, again.Bound())
}

func TestSessionService_DestroyUnboundView(t *testing.T) {
	store := mocks.NewFuncSessionStore()
	svc, err := NewSessionService(SessionServiceOptions{Store: store, Signer: newTestSigner(t)})
	require.NoError(t, err)

	cleared, err := svc.Destroy(context.Background(), &domainauth.SessionView{State: signedIn()})
	require.NoError(t, err)
	assert.True(t, cleared.Clearing())
	assert.Empty(t, store.Deleted)

	_, err = svc.Destroy(context.Background(), nil)
	require.NoError(t, err)
}

func TestSessionService_DestroyStoreFailureStillClears(t *testing.T) {
	store := mocks.NewFuncSessionStore()
	store.DeleteFunc = func(context.Context, string) error { return mocks.ErrInjected }
	svc, err := NewSessionService(SessionServiceOptions{Store: store, Signer: newTestSigner(t)})
	require.NoError(t, err)

	view := &domainauth.SessionView{ID: "abc", State: signedIn()}
	cleared, err := svc.Destroy(context.Background(), view)
	require.ErrorIs(t, err, mocks.ErrInjected)
	assert.True(t, cleared.Clearing())
	assert.False(t, view.Bound())
}

func TestSessionService_RenewMintsNewID(t *testing.T) {
	svc, store, _ := newSessionServiceWithClock(t, time.Hour)
	ctx := context.Background()

	view := &domainauth.SessionView{}
	oldCookie, err := svc.Persist(ctx, view)
	require.NoError(t, err)
	oldID := view.ID

	require.NoError(t, svc.Renew(ctx, view))
	assert.False(t, view.Bound())

	view.State = signedIn()
	newCookie, err := svc.Persist(ctx, view)
	require.NoError(t, err)
	assert.NotEqual(t, oldID, view.ID)
	assert.Equal(t, 1, store.Len())

	_, res := svc.Resolve(ctx, oldCookie.Value)
	assert.Equal(t, InvalidOrExpiredCookie, res)
	_, res = svc.Resolve(ctx, newCookie.Value)
	assert.Equal(t, ValidCookie, res)
}

func TestSessionService_RenewStoreFailure(t *testing.T) {
	store := mocks.NewFuncSessionStore()
	store.DeleteFunc = func(context.Context, string) error { return errors.New("boom") }
	svc, err := NewSessionService(SessionServiceOptions{Store: store, Signer: newTestSigner(t)})
	require.NoError(t, err)

	view := &domainauth.SessionView{ID: "abc"}
	require.Error(t, svc.Renew(context.Background(), view))
	assert.False(t, view.Bound())

	require.NoError(t, svc.Renew(context.Background(), &domainauth.SessionView{}))
}

func TestResolution_String(t *testing.T) {
	assert.Equal(t, "no_cookie", NoCookie.String())
	assert.Equal(t, "valid", ValidCookie.String())
	assert.Equal(t, "invalid_or_expired", InvalidOrExpiredCookie.String())
	assert.Equal(t, "unknown", Resolution(42).String())
}
