// Package fiber serves the coupons API over gofiber.
package fiber

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/static"

	"github.com/lborres/coupons"
	"github.com/lborres/coupons/core"
)

const (
	defaultLimitMax    = 10
	defaultLimitWindow = time.Minute
)

type Adapter struct {
	app     *fiber.App
	coupons *coupons.Coupons

	uploadsPrefix string
	uploadsDir    string
	secureCookies bool
	limitMax      int
	limitWindow   time.Duration
}

var _ coupons.HTTPAdapter = (*Adapter)(nil)

type Option func(*Adapter)

// WithUploads serves the files under dir at prefix, e.g. "/uploads".
func WithUploads(prefix, dir string) Option {
	return func(a *Adapter) {
		a.uploadsPrefix = strings.TrimRight(prefix, "/")
		a.uploadsDir = dir
	}
}

// WithSecureCookies marks the session cookie Secure.
func WithSecureCookies(secure bool) Option {
	return func(a *Adapter) { a.secureCookies = secure }
}

// WithRateLimit bounds requests per client IP on rate limited endpoints.
func WithRateLimit(max int, window time.Duration) Option {
	return func(a *Adapter) {
		a.limitMax = max
		a.limitWindow = window
	}
}

func New(app *fiber.App, opts ...Option) *Adapter {
	a := &Adapter{
		app:         app,
		limitMax:    defaultLimitMax,
		limitWindow: defaultLimitWindow,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// RegisterRoutes mounts every endpoint of the registry under the base path,
// behind the guard its access level names.
func (a *Adapter) RegisterRoutes(c *coupons.Coupons) error {
	a.coupons = c

	if a.uploadsDir != "" {
		a.app.Get(a.uploadsPrefix+"*", static.New(a.uploadsDir))
	}

	api := a.app.Group(c.BasePath)
	handlers := a.handlers()

	for _, ep := range c.Endpoints.Endpoints() {
		handler, ok := handlers[ep.Metadata.OperationID]
		if !ok {
			return fmt.Errorf("%w: no handler for operation %s", core.ErrNotImplemented, ep.Metadata.OperationID)
		}

		if ep.Metadata.RateLimited {
			api.Use(ep.Path, a.rateLimiter())
		}

		methods := []string{ep.Method}
		switch ep.Access {
		case core.AccessAdmin:
			api.Add(methods, ep.Path, a.requireAdmin, handler)
		case core.AccessAuth:
			api.Add(methods, ep.Path, a.requireAuth, handler)
		default:
			api.Add(methods, ep.Path, handler)
		}
	}

	return nil
}

// handlers binds each operation id to its handler.
func (a *Adapter) handlers() map[string]fiber.Handler {
	return map[string]fiber.Handler{
		"health":         a.health,
		"listPlans":      a.listPlans,
		"listBookmakers": a.listBookmakers,
		"todayMatches":   a.todayMatches,

		"signUpWithEmailAndPassword": a.signUp,
		"signInWithEmailAndPassword": a.signIn,
		"signOut":                    a.signOut,
		"getSession":                 a.session,
		"refreshToken":               a.refresh,
		"confirmEmail":               a.confirmEmail,
		"requestPasswordReset":       a.requestPasswordReset,
		"resetPassword":              a.resetPassword,
		"updatePassword":             a.updatePassword,

		"getDashboard":     a.dashboard,
		"getProfile":       a.profile,
		"updateProfile":    a.updateProfile,
		"listPredictions":  a.predictions,
		"listPayments":     a.payments,
		"submitPayment":    a.submitPayment,
		"listPromoCodes":   a.promoCodes,
		"requestPromoCode": a.requestPromoCode,

		"adminStats":            a.adminStats,
		"adminListMatches":      a.adminListMatches,
		"adminCreateMatch":      a.adminCreateMatch,
		"adminUpdateMatch":      a.adminUpdateMatch,
		"adminDeleteMatch":      a.adminDeleteMatch,
		"adminListPredictions":  a.adminListPredictions,
		"adminCreatePrediction": a.adminCreatePrediction,
		"adminUpdatePrediction": a.adminUpdatePrediction,
		"adminDeletePrediction": a.adminDeletePrediction,
		"adminListPayments":     a.adminListPayments,
		"adminApprovePayment":   a.adminApprovePayment,
		"adminRejectPayment":    a.adminRejectPayment,
		"adminListUsers":        a.adminListUsers,
		"adminUpdateUser":       a.adminUpdateUser,
		"adminListPromoCodes":   a.adminListPromoCodes,
		"adminApprovePromoCode": a.adminApprovePromoCode,
		"adminRejectPromoCode":  a.adminRejectPromoCode,
	}
}
