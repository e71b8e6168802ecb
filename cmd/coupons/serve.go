package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/log"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/lborres/coupons"
	"github.com/lborres/coupons/adapters/blob"
	fiberadapter "github.com/lborres/coupons/adapters/fiber"
	"github.com/lborres/coupons/adapters/fixtures"
	"github.com/lborres/coupons/internal/config"
)

const (
	uploadsPrefix   = "/uploads"
	sweepSchedule   = "0 */10 * * * *"
	shutdownTimeout = 10 * time.Second
)

func newServeCmd(cfg *config.Config) *cobra.Command {
	var skipMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the scheduled maintenance jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), *cfg, skipMigrate)
		},
	}
	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not apply the database schema on start")

	return cmd
}

func serve(ctx context.Context, cfg config.Config, skipMigrate bool) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, err := wireDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer d.close()

	if d.pg != nil && !skipMigrate {
		if err := d.migrate(ctx); err != nil {
			return err
		}
	}

	blobs, err := blob.NewDiskStore(cfg.UploadDir, uploadsPrefix)
	if err != nil {
		return fmt.Errorf("upload dir: %w", err)
	}

	app := fiber.New(fiber.Config{
		AppName:   "coupons",
		BodyLimit: int(cfg.UploadMaxBytes) + 1<<20,
	})
	fiberadapter.Use(app, fiberadapter.MiddlewareConfig{
		AllowOrigins: []string{cfg.FrontendOrigin},
	})

	sessionConfig := coupons.DefaultSessionConfig()
	sessionConfig.MaxAge = cfg.SessionMaxAge

	c, err := coupons.New(coupons.Config{
		Secret:   cfg.AuthSecret,
		Database: d.store,
		HTTP: fiberadapter.New(app,
			fiberadapter.WithUploads(uploadsPrefix, blobs.Root()),
			fiberadapter.WithSecureCookies(strings.HasPrefix(cfg.PublicBaseURL, "https://")),
		),
		Blobs:         blobs,
		CacheAdapter:  d.cache,
		SessionConfig: &sessionConfig,
		Locker:        d.locker,
		Fixtures: fixtures.New(fixtures.Config{
			APIFootballURL: cfg.APIFootballBaseURL,
			APIFootballKey: cfg.APIFootballKey,
			SportsDBURL:    cfg.SportsDBURL,
		}),
		RequireEmailConfirmation: cfg.RequireEmailConfirmation,
		PublicBaseURL:            cfg.PublicBaseURL,
		UploadMaxBytes:           cfg.UploadMaxBytes,
		ProfileRetryDelays:       cfg.ProfileRetryDelays,
		AdminProfileWait:         cfg.AdminProfileWait,
		Registry:                 coupons.RegistryConfig{TTL: cfg.ClientIdleTTL, MaxSize: cfg.SessionCacheSize},
	})
	if err != nil {
		return err
	}

	sched, err := newScheduler(ctx, cfg, c)
	if err != nil {
		return err
	}
	sched.Start()
	log.Infow("scheduler started", "expiry", cfg.ExpirySchedule, "sweep", sweepSchedule)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(cfg.HTTPAddr, fiber.ListenConfig{DisableStartupMessage: true})
	}()
	log.Infow("listening", "addr", cfg.HTTPAddr, "base_path", c.BasePath)

	select {
	case err = <-errCh:
	case <-ctx.Done():
		log.Info("shutting down")
		err = app.ShutdownWithTimeout(shutdownTimeout)
	}

	<-sched.Stop().Done()
	log.Info("scheduler stopped")

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// newScheduler registers the subscription expiry job and the sweep of
// expired sessions and idle bootstrap clients.
func newScheduler(ctx context.Context, cfg config.Config, c *coupons.Coupons) (*cron.Cron, error) {
	sched := cron.New(cron.WithSeconds())

	if _, err := sched.AddFunc(cfg.ExpirySchedule, func() {
		// failures are logged inside and retried on the next run
		_, _ = runExpiry(ctx, c.Payments)
	}); err != nil {
		return nil, fmt.Errorf("expiry schedule %q: %w", cfg.ExpirySchedule, err)
	}

	if _, err := sched.AddFunc(sweepSchedule, func() {
		purged, err := c.Sessions.PurgeExpired(ctx)
		if err != nil {
			log.Errorw("[CRON] session purge failed", "error", err)
		}
		swept := c.Clients.Sweep()
		log.Debugw("[CRON] sweep finished", "sessions", purged, "clients", swept)
	}); err != nil {
		return nil, err
	}

	return sched, nil
}
