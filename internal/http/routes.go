package httpx

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	movielib "github.com/target/movielib"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Sessions SessionManager // Required
	// Auth serves the /api/auth endpoints. When nil they answer 503.
	Auth AuthServiceInterface
	// Catalog is the externally supplied movie catalog handler mounted at
	// /api/movies. Mutating methods require a signed-in session.
	Catalog http.Handler
	// HealthChecks run on /healthz.
	HealthChecks []HealthCheck

	CookieName    string
	SecureCookies bool
	Project       string
	Version       string

	// TemplateFS overrides the page templates (tests).
	TemplateFS fs.FS
	IsDev      bool         // Development mode: templates read from disk
	Logger     *slog.Logger // Logger for template and HTTP errors (optional)
}

// NewRouter creates and configures the HTTP router wrapped in the session,
// logging and recovery middleware.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	registerAuthRoutes(mux, services, logger)
	registerCatalogRoutes(mux, services.Catalog)
	mux.Handle("GET /api/info", &InfoHandler{Project: services.Project, Version: services.Version})
	health := healthHandler(services.HealthChecks...)
	mux.Handle("GET /healthz", health)
	mux.Handle("HEAD /healthz", health)

	if pages := setupPageHandlers(services, logger); pages != nil {
		registerPageRoutes(mux, pages)
	}

	mux.Handle("/", http.HandlerFunc(notFound))

	var handler http.Handler = mux
	handler = IsAuthenticated()(handler)
	handler = Logging(logger)(handler)
	handler = Sessions(services.Sessions, SessionOptions{
		CookieName: services.CookieName,
		Secure:     services.SecureCookies,
		Logger:     logger,
	})(handler)
	return Recover(logger)(handler)
}

func registerAuthRoutes(mux *http.ServeMux, services RouterServices, logger *slog.Logger) {
	if services.Auth == nil {
		unavailable := http.HandlerFunc(authUnavailable)
		mux.Handle("POST /api/auth/register", unavailable)
		mux.Handle("POST /api/auth/login", unavailable)
		mux.Handle("POST /api/auth/logout", unavailable)
		mux.Handle("GET /api/auth/me", unavailable)
		return
	}
	h := &AuthHandlers{Svc: services.Auth, Logger: logger}
	mux.Handle("POST /api/auth/register", http.HandlerFunc(h.Register))
	mux.Handle("POST /api/auth/login", http.HandlerFunc(h.Login))
	mux.Handle("POST /api/auth/logout", http.HandlerFunc(h.Logout))
	mux.Handle("GET /api/auth/me", RequireAuth()(http.HandlerFunc(h.Me)))
}

// registerCatalogRoutes mounts the catalog: reads are public, writes are gated.
func registerCatalogRoutes(mux *http.ServeMux, catalog http.Handler) {
	if catalog == nil {
		return
	}
	gated := RequireAuth()(catalog)
	mux.Handle("GET /api/movies", catalog)
	mux.Handle("GET /api/movies/", catalog)
	mux.Handle("POST /api/movies", gated)
	mux.Handle("PUT /api/movies/", gated)
	mux.Handle("DELETE /api/movies/", gated)
}

func registerPageRoutes(mux *http.ServeMux, h *PageHandlers) {
	anonymousOnly := RedirectIfAuthenticated()
	mux.Handle("GET /{$}", http.HandlerFunc(h.Home))
	mux.Handle("GET /login", anonymousOnly(http.HandlerFunc(h.Login)))
	mux.Handle("GET /register", anonymousOnly(http.HandlerFunc(h.Register)))
	mux.Handle("GET /account", RequireAuth()(http.HandlerFunc(h.Account)))
}

// setupPageHandlers loads templates from disk in dev mode and from the
// embedded FS otherwise. Pages are not mounted when templates fail to load.
func setupPageHandlers(services RouterServices, logger *slog.Logger) *PageHandlers {
	templateFS := services.TemplateFS
	if templateFS == nil {
		if services.IsDev {
			templateFS = os.DirFS(TemplatePathFromRoot)
		} else {
			sub, err := fs.Sub(movielib.TemplateFS, TemplatePathFromRoot)
			if err != nil {
				logger.Error("failed to create sub-filesystem for templates", slog.Any("error", err))
				return nil
			}
			templateFS = sub
		}
	}

	tr, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS: templateFS,
		DevMode:    services.IsDev,
		Logger:     logger,
	})
	if err != nil {
		logger.Error("failed to create template renderer", slog.Any("error", err))
		return nil
	}
	return &PageHandlers{T: tr}
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: errors.New("not found")})
}

func authUnavailable(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, ErrorParams{
		Code:    http.StatusServiceUnavailable,
		ErrCode: "service_unavailable",
		Err:     errors.New("authentication is unavailable"),
	})
}
