package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3/log"
	"github.com/spf13/cobra"

	"github.com/lborres/coupons/internal/config"
	"github.com/lborres/coupons/services"
)

const expiryTimeout = 5 * time.Minute

func newExpireCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "expire",
		Short: "Downgrade lapsed subscriptions to free once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := wireDeps(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			defer d.close()

			// screenshots are never touched here, so no blob store
			payments := services.NewPaymentService(d.store, d.store, nil, d.locker, 0)
			n, err := runExpiry(cmd.Context(), payments)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d subscription(s) expired\n", n)
			return err
		},
	}
}

func runExpiry(ctx context.Context, payments *services.PaymentService) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, expiryTimeout)
	defer cancel()

	log.Info("[CRON] starting subscription expiry sweep")
	n, err := payments.ExpireSubscriptions(ctx)
	if err != nil {
		log.Errorw("[CRON] subscription expiry failed", "error", err)
		return 0, err
	}
	log.Infow("[CRON] subscription expiry finished", "expired", n)
	return n, nil
}
