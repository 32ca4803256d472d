package client

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/MKhiriev/go-list-keeper/internal/config"
	"github.com/MKhiriev/go-list-keeper/internal/logger"
	"github.com/MKhiriev/go-list-keeper/internal/netmon"
	"github.com/MKhiriev/go-list-keeper/internal/service"
	"github.com/MKhiriev/go-list-keeper/internal/workers"
)

type App struct {
	services   *service.ClientServices
	background *workers.Workers
	logger     *logger.Logger
}

// NewApp assembles the client runtime. The background workers start in
// dependency order: the network monitor first, then the sync driver that
// listens to it, then the periodic drain job that nudges the driver.
func NewApp(services *service.ClientServices, monitor netmon.Monitor, cfg *config.ClientConfig, logger *logger.Logger) (*App, error) {
	if services == nil {
		return nil, errors.New("client services are required")
	}

	background := workers.NewWorkers(
		workers.NewWorker(monitor.Start, monitor.Stop),
		workers.NewWorker(services.SyncDriver.Start, services.SyncDriver.Stop),
		workers.NewWorker(func(ctx context.Context) {
			services.SyncJob.Start(ctx, cfg.Sync.Interval)
		}, services.SyncJob.Stop),
	)

	return &App{
		services:   services,
		background: background,
		logger:     logger,
	}, nil
}

// Run restores the stored session, starts the background workers and blocks
// until a stop signal arrives. Running without a stored session is allowed;
// the queue keeps accumulating mutations until a login succeeds.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
		syscall.SIGQUIT,
	)
	defer stop()

	if err := a.services.AuthService.Restore(ctx); err != nil {
		if !errors.Is(err, service.ErrNotAuthenticated) {
			return fmt.Errorf("restore session: %w", err)
		}
		a.logger.Warn().Msg("no stored session, starting unauthenticated")
	}

	a.background.Start(ctx)
	defer a.background.Stop()

	a.services.SyncDriver.TriggerDrain()

	<-ctx.Done()
	a.logger.Info().Msg("client shutdown gracefully")

	return nil
}
