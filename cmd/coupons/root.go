package main

import (
	"github.com/gofiber/fiber/v3/log"
	"github.com/spf13/cobra"

	"github.com/lborres/coupons/internal/config"
)

func newRootCmd() *cobra.Command {
	var (
		envFiles []string
		cfg      config.Config
	)

	rootCmd := &cobra.Command{
		Use:          "coupons",
		Short:        "Betting tips subscription service",
		Long:         "coupons serves the tips API, applies the database schema and runs the subscription maintenance jobs.",
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			loaded, err := config.Load(envFiles...)
			if err != nil {
				return err
			}
			cfg = loaded
			log.SetLevel(cfg.Level())
			return nil
		},
	}
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "env files to load before reading the environment (default .env)")

	rootCmd.AddCommand(
		newServeCmd(&cfg),
		newMigrateCmd(&cfg),
		newExpireCmd(&cfg),
		newGrantAdminCmd(&cfg),
	)

	return rootCmd
}
