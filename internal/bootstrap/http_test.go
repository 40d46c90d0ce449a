package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/movielib/config"
	"github.com/target/movielib/internal/adapters/memstore"
	domainauth "github.com/target/movielib/internal/domain/auth"
)

func testAppConfig() *config.AppConfig {
	cfg := &config.AppConfig{
		Project: "Movie Library",
		Session: config.SessionConfig{Secret: "bootstrap-secret"},
		Auth:    config.AuthConfig{UserStore: config.UserStoreMemory},
		HTTP:    config.HTTPConfig{Addr: "127.0.0.1:0"},
	}
	cfg.Session.Sanitize()
	cfg.Auth.Sanitize()
	return cfg
}

func buildTestServer(t *testing.T, checks ...func(context.Context) error) (*http.Server, AuthComponents) {
	t.Helper()
	cfg := testAppConfig()
	comps, err := BuildAuth(AuthConfig{Session: cfg.Session, Auth: cfg.Auth, Logger: discardLogger()})
	require.NoError(t, err)
	server, err := NewHTTPServer(&HTTPServerConfig{
		Config:       cfg,
		Auth:         comps,
		HealthChecks: checks,
		Version:      "test",
		Logger:       discardLogger(),
	})
	require.NoError(t, err)
	return server, comps
}

func TestNewHTTPServer_RequiresSessions(t *testing.T) {
	_, err := NewHTTPServer(&HTTPServerConfig{})
	require.Error(t, err)
	_, err = NewHTTPServer(nil)
	require.Error(t, err)
}

func TestNewHTTPServer_Routes(t *testing.T) {
	server, _ := buildTestServer(t, nil, func(context.Context) error { return errors.New("down") })
	assert.Equal(t, "127.0.0.1:0", server.Addr)

	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/info", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"project":"Movie Library","version":"test","authenticated":false,"user":null}`, rec.Body.String())
}

func TestNewHTTPServer_AuthDisabled(t *testing.T) {
	cfg := testAppConfig()
	comps, err := BuildAuth(AuthConfig{Session: cfg.Session, Auth: config.AuthConfig{UserStore: config.UserStorePostgres}, Logger: discardLogger()})
	require.NoError(t, err)
	require.Nil(t, comps.Auth)

	server, err := NewHTTPServer(&HTTPServerConfig{Config: cfg, Auth: comps, Logger: discardLogger()})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestListen_LimitsConnections(t *testing.T) {
	ln, err := Listen(context.Background(), "127.0.0.1:0", 1)
	require.NoError(t, err)
	defer ln.Close()
	assert.NotEqual(t, "*net.TCPListener", typeName(ln), "limit listener wraps the tcp listener")

	plain, err := Listen(context.Background(), "127.0.0.1:0", 0)
	require.NoError(t, err)
	defer plain.Close()
	assert.Equal(t, "*net.TCPListener", typeName(plain))
}

func TestRunServices_ServesUntilCancelled(t *testing.T) {
	server, comps := buildTestServer(t)
	cfg := &ServiceOrchestrationConfig{Config: testAppConfig(), Server: server, Auth: comps, Logger: discardLogger()}

	ln, err := Listen(context.Background(), "127.0.0.1:0", 0)
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	server.Addr = addr

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runServices(ctx, cfg, discardLogger()) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("services did not stop")
	}

	_, _, err = comps.Store.Get(context.Background(), "any")
	assert.ErrorIs(t, err, memstore.ErrStoreClosed)
	assert.ErrorIs(t, comps.Store.Set(context.Background(), "x", domainauth.SessionState{}, time.Minute), memstore.ErrStoreClosed)
}

func TestRunServicesWithShutdown_RequiresConfig(t *testing.T) {
	require.Error(t, RunServicesWithShutdown(context.Background(), nil))
	require.Error(t, RunServicesWithShutdown(context.Background(), &ServiceOrchestrationConfig{}))
}

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}
