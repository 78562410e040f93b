package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/woreda-portal/server/internal/db"
	"github.com/woreda-portal/server/internal/portal/service"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	var seedDev bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and register known tenants",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := opts.cfg

			// Opening the backend applies migrations.
			be, err := openBackend(ctx, cfg)
			if err != nil {
				return err
			}
			defer be.close()

			if err := service.NewTenantRegistry(be.tenants).Register(ctx, cfg.KnownTenants); err != nil {
				return err
			}
			if seedDev && be.sqlDB != nil {
				if err := db.SeedDev(ctx, be.sqlDB, db.SeedDevOptions{Tenants: cfg.KnownTenants}); err != nil {
					return err
				}
			}
			log.Info().Strs("tenants", cfg.KnownTenants).Msg("migrations applied")
			return nil
		},
	}
	cmd.Flags().BoolVar(&seedDev, "seed-dev", false, "also insert a sample pending request per tenant (sqlite only)")
	return cmd
}
