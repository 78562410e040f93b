package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/woreda-portal/server/internal/config"
	"github.com/woreda-portal/server/internal/logging"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

type rootOptions struct {
	configFile string
	envFile    string
	cfg        config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "portal-server",
		Short:         "Woreda portal server: visitor access grants and appointment scheduling",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configFile, opts.envFile)
			if err != nil {
				logging.InitLogger("info", true)
				log.Error().Err(err).Msg("load config")
				return err
			}
			logging.InitLogger(cfg.LogLevel, cfg.LogPretty || !cfg.IsProd())
			opts.cfg = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts.cfg)
		},
	}

	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "path to a TOML config file")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "path to an optional .env file")

	root.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newPruneGrantsCmd(opts),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the server version",
		// Skip config loading.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
