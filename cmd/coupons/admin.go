package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lborres/coupons/internal/config"
	"github.com/lborres/coupons/services"
)

func newGrantAdminCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "grant-admin <email>",
		Short: "Give the user registered under email access to the back office",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := wireDeps(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			defer d.close()

			p, err := services.NewProfileService(d.store, d.store).GrantAdmin(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("grant admin to %s: %w", args[0], err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) is now an admin\n", p.DisplayName, p.ID)
			return err
		},
	}
}
