package config

import (
	"reflect"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func parse(t *testing.T) AppConfig {
	t.Helper()
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()
	return cfg
}

func TestAppConfig_Defaults(t *testing.T) {
	t.Setenv("NODE_ENV", "")
	t.Setenv("APP_ENV", "")
	t.Setenv("DEV", "false")

	cfg := parse(t)

	if cfg.Production || cfg.IsDev {
		t.Fatalf("expected neither production nor dev, got production=%v dev=%v", cfg.Production, cfg.IsDev)
	}
	wantSession := SessionConfig{CookieName: "movielib_session", MaxAge: 24 * time.Hour, SweepInterval: time.Hour}
	if !reflect.DeepEqual(cfg.Session, wantSession) {
		t.Errorf("unexpected session config: %#v", cfg.Session)
	}
	if cfg.HTTP.Addr != ":3000" || cfg.HTTP.MaxConnections != 0 {
		t.Errorf("unexpected http config: %#v", cfg.HTTP)
	}
	if cfg.Auth.UserStore != UserStorePostgres {
		t.Errorf("expected postgres user store, got %q", cfg.Auth.UserStore)
	}
	if cfg.Auth.HashWorkers != 4 || cfg.Auth.HashIterations != 10000 {
		t.Errorf("unexpected hash settings: %#v", cfg.Auth)
	}
	if cfg.Auth.LoginThrottle.Enabled {
		t.Error("throttling should be disabled without redis")
	}
	if cfg.Postgres.Name != "movielib" {
		t.Errorf("unexpected db name %q", cfg.Postgres.Name)
	}
}

func TestAppConfig_ParseEnv(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("SESSION_COOKIE_NAME", " sid ")
	t.Setenv("SESSION_MAX_AGE", "2h")
	t.Setenv("SESSION_SWEEP_INTERVAL", "10m")
	t.Setenv("AUTH_USER_STORE", "MEMORY")
	t.Setenv("AUTH_HASH_WORKERS", "8")
	t.Setenv("AUTH_LOGIN_MAX_ATTEMPTS", "5")
	t.Setenv("AUTH_LOGIN_COOLDOWN", "1m")
	t.Setenv("AUTH_LOGIN_THROTTLE_IP", "false")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_URI", "redis:6379")
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("HTTP_MAX_CONNECTIONS", "128")

	cfg := parse(t)

	expectedSession := SessionConfig{Secret: "s3cret", CookieName: "sid", MaxAge: 2 * time.Hour, SweepInterval: 10 * time.Minute}
	if !reflect.DeepEqual(cfg.Session, expectedSession) {
		t.Fatalf("unexpected session configuration:\nexpected: %#v\ngot:      %#v", expectedSession, cfg.Session)
	}
	expectedAuth := AuthConfig{
		UserStore:      UserStoreMemory,
		HashWorkers:    8,
		HashIterations: 10000,
		LoginThrottle: LoginThrottleConfig{
			Enabled:     true,
			MaxAttempts: 5,
			Cooldown:    time.Minute,
			ThrottleIP:  false,
		},
	}
	if !reflect.DeepEqual(cfg.Auth, expectedAuth) {
		t.Fatalf("unexpected auth configuration:\nexpected: %#v\ngot:      %#v", expectedAuth, cfg.Auth)
	}
	if cfg.Redis.URI != "redis:6379" || !cfg.Redis.Enabled {
		t.Errorf("unexpected redis config: %#v", cfg.Redis)
	}
	if cfg.HTTP.Addr != ":9000" || cfg.HTTP.MaxConnections != 128 {
		t.Errorf("unexpected http config: %#v", cfg.HTTP)
	}
}

func TestAppConfig_InvalidUserStore(t *testing.T) {
	t.Setenv("AUTH_USER_STORE", "ldap")
	var cfg AppConfig
	if err := env.Parse(&cfg); err == nil {
		t.Fatal("expected error for unknown user store")
	}
}

func TestAppConfig_Environment(t *testing.T) {
	tests := []struct {
		name       string
		appEnv     string
		nodeEnv    string
		production bool
		dev        bool
	}{
		{name: "none"},
		{name: "app env production", appEnv: "production", production: true},
		{name: "node env production", nodeEnv: "Production", production: true},
		{name: "node env development", nodeEnv: "development", dev: true},
		{name: "node env dev", nodeEnv: "dev", dev: true},
		{name: "staging", appEnv: "staging"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("APP_ENV", tt.appEnv)
			t.Setenv("NODE_ENV", tt.nodeEnv)
			t.Setenv("DEV", "false")

			cfg := parse(t)
			if cfg.Production != tt.production {
				t.Errorf("Production = %v, want %v", cfg.Production, tt.production)
			}
			if cfg.IsDev != tt.dev {
				t.Errorf("IsDev = %v, want %v", cfg.IsDev, tt.dev)
			}
		})
	}
}

func TestAuthConfig_Sanitize(t *testing.T) {
	a := AuthConfig{HashWorkers: -2, HashIterations: 100}
	a.Sanitize()

	if a.UserStore != UserStorePostgres {
		t.Errorf("UserStore = %q", a.UserStore)
	}
	if a.HashWorkers != 1 {
		t.Errorf("HashWorkers = %d, want 1", a.HashWorkers)
	}
	if a.HashIterations != 10000 {
		t.Errorf("HashIterations = %d, want 10000", a.HashIterations)
	}
	if a.LoginThrottle.MaxAttempts != 10 || a.LoginThrottle.Cooldown != 15*time.Minute {
		t.Errorf("unexpected throttle defaults: %#v", a.LoginThrottle)
	}
}

func TestSessionAndHTTPConfig_Sanitize(t *testing.T) {
	s := SessionConfig{CookieName: "  ", MaxAge: -time.Second}
	s.Sanitize()
	if s.CookieName != "movielib_session" || s.MaxAge != 24*time.Hour || s.SweepInterval != time.Hour {
		t.Errorf("unexpected session config: %#v", s)
	}

	short := SessionConfig{CookieName: "sid", MaxAge: 250 * time.Millisecond, SweepInterval: time.Minute}
	short.Sanitize()
	if short.MaxAge != time.Second {
		t.Errorf("sub-second max age should clamp to 1s, got %s", short.MaxAge)
	}

	h := HTTPConfig{MaxConnections: -5}
	h.Sanitize()
	if h.Addr != ":3000" || h.MaxConnections != 0 {
		t.Errorf("unexpected http config: %#v", h)
	}
}
