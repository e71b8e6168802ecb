// Package config reads the server settings from the environment, after
// loading a .env file when one exists.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/gofiber/fiber/v3/log"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	DatabaseURL string `env:"DATABASE_URL"`

	AuthSecret               string        `env:"AUTH_SECRET"`
	SessionMaxAge            time.Duration `env:"SESSION_MAX_AGE" envDefault:"24h"`
	SessionCacheTTL          time.Duration `env:"SESSION_CACHE_TTL" envDefault:"5m"`
	SessionCacheSize         int           `env:"SESSION_CACHE_SIZE" envDefault:"10000"`
	ClientIdleTTL            time.Duration `env:"CLIENT_IDLE_TTL" envDefault:"30m"`
	RequireEmailConfirmation bool          `env:"REQUIRE_EMAIL_CONFIRMATION" envDefault:"false"`
	PublicBaseURL            string        `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`

	UploadDir      string `env:"UPLOAD_DIR" envDefault:"./uploads"`
	UploadMaxBytes int64  `env:"UPLOAD_MAX_BYTES" envDefault:"5242880"`

	RedisURL string `env:"REDIS_URL"`

	APIFootballKey     string `env:"API_FOOTBALL_KEY"`
	APIFootballBaseURL string `env:"API_FOOTBALL_BASE_URL" envDefault:"https://v3.football.api-sports.io"`
	SportsDBURL        string `env:"SPORTSDB_URL" envDefault:"https://www.thesportsdb.com/api/v1/json/3/eventsnextleague.php?id=4328"`

	FrontendOrigin string `env:"FRONTEND_ORIGIN" envDefault:"http://localhost:5173"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`

	// six-field cron spec, seconds first
	ExpirySchedule     string          `env:"EXPIRY_SCHEDULE" envDefault:"0 0 2 * * *"`
	AdminProfileWait   time.Duration   `env:"ADMIN_PROFILE_WAIT" envDefault:"5s"`
	ProfileRetryDelays []time.Duration `env:"PROFILE_RETRY_DELAYS" envDefault:"1s,2s,3s" envSeparator:","`
}

var ErrInvalidLogLevel = errors.New("log level must be trace, debug, info, warn or error")

var levels = map[string]log.Level{
	"trace": log.LevelTrace,
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

// Load reads the given .env files (".env" when none are named) and then
// the environment. Variables already set win over the files. Missing files
// are skipped.
func Load(files ...string) (Config, error) {
	var cfg Config

	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load env file: %w", err)
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if _, ok := levels[cfg.LogLevel]; !ok {
		return cfg, fmt.Errorf("%w: %q", ErrInvalidLogLevel, cfg.LogLevel)
	}
	return cfg, nil
}

// Level returns the fiber log level for LogLevel.
func (c Config) Level() log.Level {
	if l, ok := levels[c.LogLevel]; ok {
		return l
	}
	return log.LevelInfo
}
