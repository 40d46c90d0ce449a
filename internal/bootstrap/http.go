package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/target/movielib/config"
	httpx "github.com/target/movielib/internal/http"
	"golang.org/x/net/netutil"
)

const (
	defaultHTTPAddr     = ":3000"
	httpShutdownTimeout = 10 * time.Second
)

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config *config.AppConfig
	Auth   AuthComponents
	// Catalog is mounted at /api/movies when set.
	Catalog      http.Handler
	HealthChecks []func(context.Context) error
	Version      string
	Logger       *slog.Logger
}

// NewHTTPServer builds the HTTP server around the application router.
func NewHTTPServer(cfg *HTTPServerConfig) (*http.Server, error) {
	if cfg == nil || cfg.Auth.Sessions == nil {
		return nil, errors.New("session service is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	services := httpx.RouterServices{
		Sessions:      cfg.Auth.Sessions,
		Catalog:       cfg.Catalog,
		CookieName:    appCfg.Session.CookieName,
		SecureCookies: appCfg.Production,
		Project:       appCfg.Project,
		Version:       cfg.Version,
		IsDev:         appCfg.IsDev,
		Logger:        logger,
	}
	// A typed nil would read as a configured service.
	if cfg.Auth.Auth != nil {
		services.Auth = cfg.Auth.Auth
	}
	for _, check := range cfg.HealthChecks {
		if check != nil {
			services.HealthChecks = append(services.HealthChecks, httpx.HealthCheck(check))
		}
	}

	addr := appCfg.HTTP.Addr
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = defaultHTTPAddr
	}

	return &http.Server{
		Addr:         addr,
		Handler:      httpx.NewRouter(services),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}, nil
}

// Listen binds addr, capping accepted connections when maxConns is positive.
func Listen(ctx context.Context, addr string, maxConns int) (net.Listener, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	if maxConns > 0 {
		ln = netutil.LimitListener(ln, maxConns)
	}
	return ln, nil
}

// ServeHTTP serves on ln until ctx is cancelled, then shuts the server down
// gracefully. Returns nil on a clean shutdown.
func ServeHTTP(ctx context.Context, server *http.Server, ln net.Listener, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", "addr", ln.Addr().String())
		errCh <- server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), httpShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	logger.Info("HTTP server stopped")
	return nil
}
