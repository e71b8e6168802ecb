// Package fixtures lists real-world football fixtures from API-Football,
// falling back to TheSportsDB when it is unreachable.
package fixtures

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gofiber/fiber/v3/client"
	"github.com/gofiber/fiber/v3/log"

	"github.com/lborres/coupons/core"
)

const (
	DefaultAPIFootballURL = "https://v3.football.api-sports.io"
	// next events of the English Premier League, on the public test key
	DefaultSportsDBURL = "https://www.thesportsdb.com/api/v1/json/3/eventsnextleague.php?id=4328"

	SourceAPIFootball = "api-football"
	SourceSportsDB    = "thesportsdb"
)

var errNoAPIKey = errors.New("no api-football key configured")

type Config struct {
	APIFootballURL string
	APIFootballKey string
	SportsDBURL    string
	Timeout        time.Duration
	// RetryDelay is the wait before the single API-Football retry.
	RetryDelay time.Duration
}

type Provider struct {
	http   *client.Client
	config Config
}

var _ core.FixturesProvider = (*Provider)(nil)

func New(cfg Config) *Provider {
	if cfg.APIFootballURL == "" {
		cfg.APIFootballURL = DefaultAPIFootballURL
	}
	if cfg.SportsDBURL == "" {
		cfg.SportsDBURL = DefaultSportsDBURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	return &Provider{http: client.New().SetTimeout(cfg.Timeout), config: cfg}
}

// Fixtures returns the fixtures of day. API-Football is asked twice at most;
// TheSportsDB answers otherwise.
func (p *Provider) Fixtures(ctx context.Context, day time.Time) ([]*core.Match, error) {
	matches, err := p.apiFootballWithRetry(ctx, day)
	if err == nil {
		return matches, nil
	}
	if ctx.Err() != nil {
		return nil, context.Cause(ctx)
	}
	log.Warnw("api-football unavailable, using thesportsdb", "error", err)

	matches, err = p.sportsDB(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: fixtures: %v", core.ErrUnavailable, err)
	}
	return matches, nil
}

func (p *Provider) apiFootballWithRetry(ctx context.Context, day time.Time) ([]*core.Match, error) {
	if p.config.APIFootballKey == "" {
		return nil, errNoAPIKey
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.config.RetryDelay

	return backoff.Retry(ctx, func() ([]*core.Match, error) {
		return p.apiFootball(ctx, day)
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(2),
	)
}

func (p *Provider) get(ctx context.Context, url string, cfg client.Config, out any) error {
	cfg.Ctx = ctx
	resp, err := p.http.Get(url, cfg)
	if err != nil {
		return err
	}
	defer resp.Close()

	status := resp.StatusCode()
	switch {
	case status >= 500 || status == 429:
		return fmt.Errorf("unexpected status %d", status)
	case status >= 400:
		// retrying will not help
		return backoff.Permanent(fmt.Errorf("unexpected status %d", status))
	}

	if err := resp.JSON(out); err != nil {
		return backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}
