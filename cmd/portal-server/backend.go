package main

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog/log"

	"github.com/woreda-portal/server/internal/config"
	"github.com/woreda-portal/server/internal/db"
	"github.com/woreda-portal/server/internal/portal/store"
	"github.com/woreda-portal/server/internal/portal/store/postgres"
	"github.com/woreda-portal/server/internal/portal/store/sqlite"
)

// backend holds one implementation of every store interface plus the
// function that releases the underlying connections.
type backend struct {
	requests     store.AccessRequestStore
	grants       store.AccessGrantStore
	appointments store.AppointmentStore
	tenants      store.TenantStore

	// sqlDB is set for the sqlite driver only.
	sqlDB *sql.DB
	close func()
}

// openBackend connects to the configured database and applies pending
// migrations.
func openBackend(ctx context.Context, cfg config.Config) (*backend, error) {
	if cfg.DBDriver == config.DriverPostgres {
		pool, err := db.OpenPostgres(ctx, db.PostgresConfig{
			DSN:      cfg.PostgresDSN,
			MaxConns: int32(cfg.PostgresMaxConns), // range checked by config.Load
		})
		if err != nil {
			return nil, err
		}
		log.Info().Str("driver", cfg.DBDriver).Msg("database ready")

		st := postgres.New(pool)
		return &backend{
			requests:     st,
			grants:       st,
			appointments: st,
			tenants:      st,
			close:        pool.Close,
		}, nil
	}

	sqlDB, err := db.Open(ctx, db.Config{Path: cfg.DBPath, Env: cfg.Env})
	if err != nil {
		return nil, err
	}
	log.Info().Str("driver", cfg.DBDriver).Str("path", cfg.DBPath).Msg("database ready")

	writer := db.NewWorker(sqlDB)
	return &backend{
		requests:     sqlite.NewAccessRequestStore(sqlDB, writer),
		grants:       sqlite.NewAccessGrantStore(sqlDB, writer),
		appointments: sqlite.NewAppointmentStore(sqlDB, writer),
		tenants:      sqlite.NewTenantStore(sqlDB, writer),
		sqlDB:        sqlDB,
		close: func() {
			writer.Close()
			_ = sqlDB.Close()
		},
	}, nil
}
