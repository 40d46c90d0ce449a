package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/target/movielib/config"
	"golang.org/x/sync/errgroup"
)

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config *config.AppConfig
	Server *http.Server
	Auth   AuthComponents
	Logger *slog.Logger
}

// RunServicesWithShutdown serves HTTP and sweeps sessions until SIGINT or
// SIGTERM arrives or either component fails. The session store is closed
// after both have stopped.
func RunServicesWithShutdown(ctx context.Context, cfg *ServiceOrchestrationConfig) error {
	if cfg == nil || cfg.Config == nil || cfg.Server == nil {
		return errors.New("service orchestration config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return runServices(ctx, cfg, logger)
}

func runServices(ctx context.Context, cfg *ServiceOrchestrationConfig, logger *slog.Logger) error {
	ln, err := Listen(ctx, cfg.Server.Addr, cfg.Config.HTTP.MaxConnections)
	if err != nil {
		return err
	}

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error { return ServeHTTP(gctx, cfg.Server, ln, logger) })
	if cfg.Auth.Sweeper != nil {
		group.Go(func() error {
			if err := cfg.Auth.Sweeper.Run(gctx); err != nil {
				return fmt.Errorf("session sweeper: %w", err)
			}
			return nil
		})
	}

	runErr := group.Wait()
	logger.Info("services stopped")

	if cfg.Auth.Store != nil {
		if err := cfg.Auth.Store.Close(); err != nil {
			runErr = errors.Join(runErr, fmt.Errorf("close session store: %w", err))
		}
	}
	return runErr
}
