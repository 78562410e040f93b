package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/woreda-portal/server/internal/config"
	"github.com/woreda-portal/server/internal/db"
	"github.com/woreda-portal/server/internal/httpapi"
	"github.com/woreda-portal/server/internal/portal/events"
	"github.com/woreda-portal/server/internal/portal/service"
	"github.com/woreda-portal/server/internal/portal/store"
	"github.com/woreda-portal/server/internal/portal/store/cache"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts.cfg)
		},
	}
}

func runServe(parent context.Context, cfg config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	be, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer be.close()

	tenants := service.NewTenantRegistry(be.tenants)
	if err := tenants.Register(ctx, cfg.KnownTenants); err != nil {
		return err
	}
	if !cfg.IsProd() && be.sqlDB != nil {
		if err := db.SeedDev(ctx, be.sqlDB, db.SeedDevOptions{Tenants: cfg.KnownTenants}); err != nil {
			return err
		}
		log.Info().Str("code", db.DevAccessCode).Msg("dev seed applied")
	}

	var grants store.AccessGrantStore = be.grants
	if cfg.GrantCacheCapacity > 0 {
		grants = cache.NewGrantStore(be.grants, cache.Config{
			Capacity: cfg.GrantCacheCapacity,
			TTL:      cfg.GrantCacheTTL(),
		})
	}

	var pub events.Publisher = events.Nop{}
	if cfg.AMQPURL != "" {
		amqpPub := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPQueue)
		defer func() { _ = amqpPub.Close() }()
		pub = amqpPub
	}

	srv := httpapi.NewServer(httpapi.Dependencies{
		Addr:        cfg.HTTPAddr,
		Version:     version,
		CORSOrigins: cfg.CORSOrigins,
		Admin: httpapi.AdminAuth{
			Secret: []byte(cfg.AdminJWTSecret),
			Issuer: cfg.AdminJWTIssuer,
		},
		Desk:      service.NewAccessDesk(be.requests, grants, tenants, nil),
		Issuer:    service.NewGrantIssuer(be.requests, grants, pub, nil),
		Scheduler: service.NewAppointmentScheduler(be.appointments, tenants, pub, nil),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("env", cfg.Env).Msg("listening")
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
