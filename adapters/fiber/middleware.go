package fiber

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/logger"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"

	"github.com/lborres/coupons/core"
)

const sessionCookie = "auth_token"

type MiddlewareConfig struct {
	// AllowOrigins lists the front-end origins allowed to call the API with
	// credentials.
	AllowOrigins []string
	// DisableAccessLog turns the request logger off, e.g. in tests.
	DisableAccessLog bool
}

// Use installs the middleware every route shares, in order: panic
// recovery, request ids, the access log and CORS.
func Use(app *fiber.App, cfg MiddlewareConfig) {
	app.Use(recoverer.New(recoverer.Config{EnableStackTrace: true}))
	app.Use(requestid.New())

	if !cfg.DisableAccessLog {
		app.Use(logger.New(logger.Config{
			Format:     logFormat(),
			TimeFormat: "2006/01/02 15:04:05",
			TimeZone:   "Local",
		}))
	}

	if len(cfg.AllowOrigins) > 0 {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowOrigins,
			AllowCredentials: !hasWildcard(cfg.AllowOrigins),
			AllowHeaders: []string{
				fiber.HeaderOrigin,
				fiber.HeaderContentType,
				fiber.HeaderAccept,
				fiber.HeaderAuthorization,
			},
		}))
	}
}

// logFormat is the access log line. Credentials and request bodies stay
// out of it.
func logFormat() string {
	format := []string{
		// Timestamp & Request ID
		"${time}|${requestid}",

		// Response metadata
		"${status}|${latency}",

		// Client info
		"${ip}:${port}",

		// Transfer size
		"${bytesReceived}|${bytesSent}",

		// Request details
		"${method}|${path}|${queryParams}",

		// errors
		"${error}",
	}
	return strings.Join(format, "|") + "\n"
}

func hasWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

// rateLimiter counts requests per client IP. Each call returns a limiter
// with its own counters.
func (a *Adapter) rateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        a.limitMax,
		Expiration: a.limitWindow,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(http.StatusTooManyRequests).JSON(core.ErrorResponse{
				Error: "too many requests, please try again later",
			})
		},
	})
}

func (a *Adapter) setSessionCookie(c fiber.Ctx, token string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		Secure:   a.secureCookies,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (a *Adapter) clearSessionCookie(c fiber.Ctx) {
	c.ClearCookie(sessionCookie)
}
