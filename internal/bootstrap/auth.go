package bootstrap

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/target/movielib/config"
	"github.com/target/movielib/internal/adapters/memstore"
	redisadapter "github.com/target/movielib/internal/adapters/redis"
	"github.com/target/movielib/internal/data"
	"github.com/target/movielib/internal/data/cryptoutil"
	"github.com/target/movielib/internal/ports"
	"github.com/target/movielib/internal/service"
)

// AuthConfig contains configuration for the session and auth services.
type AuthConfig struct {
	Session     config.SessionConfig
	Auth        config.AuthConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// AuthComponents are the wired session and credential services.
type AuthComponents struct {
	Store    *memstore.SessionStore
	Sessions *service.SessionService
	Sweeper  *service.SessionSweeper
	// Auth is nil when the configured user store is unavailable.
	Auth *service.AuthService
}

// BuildAuth wires the session layer and, when a user store is reachable,
// the auth service. Session handling always works so that pages and the
// catalog stay reachable even when accounts cannot be served.
func BuildAuth(cfg AuthConfig) (AuthComponents, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	signer, err := buildSigner(cfg.Session.Secret, logger)
	if err != nil {
		return AuthComponents{}, err
	}

	store := memstore.NewSessionStore(memstore.Options{})
	sessions, err := service.NewSessionService(service.SessionServiceOptions{
		Store:  store,
		Signer: signer,
		MaxAge: cfg.Session.MaxAge,
		Logger: logger,
	})
	if err != nil {
		return AuthComponents{}, fmt.Errorf("session service: %w", err)
	}
	sweeper, err := service.NewSessionSweeper(service.SessionSweeperOptions{
		Store:    store,
		Interval: cfg.Session.SweepInterval,
		Logger:   logger,
	})
	if err != nil {
		return AuthComponents{}, fmt.Errorf("session sweeper: %w", err)
	}

	out := AuthComponents{Store: store, Sessions: sessions, Sweeper: sweeper}

	users := buildUserRepository(cfg, logger)
	if users == nil {
		return out, nil
	}
	credentials, err := service.NewCredentialService(service.CredentialServiceOptions{
		Hasher:  cryptoutil.NewPBKDF2Hasher(cfg.Auth.HashIterations),
		Workers: cfg.Auth.HashWorkers,
		Logger:  logger,
	})
	if err != nil {
		return AuthComponents{}, fmt.Errorf("credential service: %w", err)
	}
	out.Auth, err = service.NewAuthService(service.AuthServiceOptions{
		Users:       users,
		Credentials: credentials,
		Limiter:     buildLoginLimiter(cfg, logger),
		Logger:      logger,
	})
	if err != nil {
		return AuthComponents{}, fmt.Errorf("auth service: %w", err)
	}
	return out, nil
}

func buildSigner(secret string, logger *slog.Logger) (*cryptoutil.Signer, error) {
	signer, err := cryptoutil.NewSigner([]byte(secret))
	if err == nil {
		return signer, nil
	}
	if !errors.Is(err, cryptoutil.ErrEmptySecret) {
		return nil, fmt.Errorf("session signer: %w", err)
	}

	logger.Warn("SESSION_SECRET not set; using a random secret, sessions will not survive a restart")
	random, err := cryptoutil.RandomSecret()
	if err != nil {
		return nil, fmt.Errorf("generate session secret: %w", err)
	}
	return cryptoutil.NewSigner(random)
}

//nolint:ireturn // the repository backend is chosen at runtime.
func buildUserRepository(cfg AuthConfig, logger *slog.Logger) ports.UserRepository {
	switch cfg.Auth.UserStore {
	case config.UserStoreMemory:
		logger.Warn("using in-memory user store; accounts are lost on restart")
		return data.NewMemoryUserRepo()
	default:
		if cfg.DB == nil {
			logger.Warn("auth service disabled: database not configured", "user_store", cfg.Auth.UserStore)
			return nil
		}
		return data.NewUserRepo(cfg.DB)
	}
}

//nolint:ireturn // limiter backend is chosen at runtime.
func buildLoginLimiter(cfg AuthConfig, logger *slog.Logger) ports.LoginLimiter {
	throttle := cfg.Auth.LoginThrottle
	if !throttle.Enabled || cfg.RedisClient == nil {
		logger.Info("login throttling disabled")
		return redisadapter.NoopLoginLimiter{}
	}
	return redisadapter.NewLoginLimiter(cfg.RedisClient, redisadapter.LoginLimiterOptions{
		MaxAttempts: throttle.MaxAttempts,
		Cooldown:    throttle.Cooldown,
		ThrottleIP:  throttle.ThrottleIP,
	})
}
