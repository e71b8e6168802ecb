package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lborres/coupons/internal/config"
)

func newMigrateCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.DatabaseURL == "" {
				return errDatabaseRequired
			}

			d, err := wireDeps(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			defer d.close()

			if err := d.migrate(cmd.Context()); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
			return err
		},
	}
}
