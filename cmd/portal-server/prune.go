package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/woreda-portal/server/internal/portal/service"
)

func newPruneGrantsCmd(opts *rootOptions) *cobra.Command {
	var retentionDays int

	cmd := &cobra.Command{
		Use:   "prune-grants",
		Short: "Delete grants that expired more than the retention period ago",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := opts.cfg
			if cmd.Flags().Changed("retention-days") {
				cfg.GrantRetentionDays = retentionDays
			}

			be, err := openBackend(ctx, cfg)
			if err != nil {
				return err
			}
			defer be.close()

			n, err := service.NewGrantPruner(be.grants, cfg.GrantRetentionDays, nil).PruneOnce(ctx)
			if err != nil {
				return err
			}
			log.Info().Int64("deleted", n).Int("retention_days", cfg.GrantRetentionDays).Msg("prune-grants done")
			return nil
		},
	}
	cmd.Flags().IntVar(&retentionDays, "retention-days", 0, "override grant_retention_days (0 disables pruning)")
	return cmd
}
