package fiber

import (
	"context"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/log"

	"github.com/lborres/coupons/bootstrap"
	"github.com/lborres/coupons/core"
)

const (
	localsClient = "client"
	localsUser   = "user"

	loginPath = "/login"
	homePath  = "/"
)

// requireAuth resolves the caller's client from its token and lets the
// request through once a user is known. Callers without one are sent to
// the login page.
func (a *Adapter) requireAuth(c fiber.Ctx) error {
	client, st, err := a.authenticate(c)
	if err != nil {
		if mapErrorToStatus(err) == http.StatusServiceUnavailable {
			return handleError(c, err)
		}
		return deny(c, http.StatusUnauthorized, core.ErrUnauthenticated, loginPath)
	}
	if !st.Authenticated() {
		return deny(c, http.StatusUnauthorized, core.ErrUnauthenticated, loginPath)
	}

	c.Locals(localsClient, client)
	c.Locals(localsUser, st.User)
	return c.Next()
}

// requireAdmin additionally lets only admins through. The admin flag is
// read from storage so a revoked admin is turned away on the next request;
// while the profile row is still being created the bootstrap load is
// awaited, bounded. A profile still unresolved then counts as not admin.
func (a *Adapter) requireAdmin(c fiber.Ctx) error {
	client, st, err := a.authenticate(c)
	if err != nil {
		if mapErrorToStatus(err) == http.StatusServiceUnavailable {
			return handleError(c, err)
		}
		return deny(c, http.StatusUnauthorized, core.ErrUnauthenticated, loginPath)
	}
	if !st.Authenticated() {
		return deny(c, http.StatusUnauthorized, core.ErrUnauthenticated, loginPath)
	}

	user := st.User
	ctx, cancel := context.WithTimeout(c.Context(), a.coupons.AdminProfileWait)
	defer cancel()
	p, err := a.loadProfile(ctx, client, user.ID)
	if err != nil {
		log.Debugw("admin guard could not resolve profile", "user_id", user.ID, "error", err)
		return deny(c, http.StatusForbidden, core.ErrForbidden, homePath)
	}
	if !p.IsAdmin {
		return deny(c, http.StatusForbidden, core.ErrForbidden, homePath)
	}

	c.Locals(localsClient, client)
	c.Locals(localsUser, user)
	return c.Next()
}

// authenticate resolves the caller's client and waits for its session state.
// A client torn down while serving the request, e.g. evicted, no longer
// follows the session, so it is resolved once more; a second teardown
// counts as signed out.
func (a *Adapter) authenticate(c fiber.Ctx) (*bootstrap.Client, bootstrap.State, error) {
	token := extractToken(c)
	if token == "" {
		return nil, bootstrap.State{}, core.ErrMissingAuthHeader
	}

	for attempt := 0; ; attempt++ {
		client, err := a.coupons.Clients.Resolve(c.Context(), token, c.IP(), c.Get(fiber.HeaderUserAgent))
		if err != nil {
			return nil, bootstrap.State{}, err
		}

		st, err := client.Controller.WaitReady(c.Context())
		// signed-out clients are closed on purpose and need no second look
		stale := errors.Is(err, bootstrap.ErrClosed) ||
			(err == nil && st.Authenticated() && client.Controller.Closed())
		switch {
		case stale && attempt == 0:
			continue
		case stale:
			return nil, bootstrap.State{}, core.ErrUnauthenticated
		case err != nil:
			return nil, st, err
		}
		return client, st, nil
	}
}

// deny answers JSON clients with the error and where to go next, and
// redirects browsers there directly.
func deny(c fiber.Ctx, status int, err error, redirect string) error {
	if c.Accepts(fiber.MIMEApplicationJSON, fiber.MIMETextHTML) == fiber.MIMETextHTML {
		return c.Redirect().To(redirect)
	}
	return c.Status(status).JSON(core.ErrorResponse{Error: err.Error(), Redirect: redirect})
}

func currentClient(c fiber.Ctx) *bootstrap.Client {
	client, _ := c.Locals(localsClient).(*bootstrap.Client)
	return client
}

func currentUser(c fiber.Ctx) *core.User {
	user, _ := c.Locals(localsUser).(*core.User)
	return user
}

// extractToken extracts the authentication token from the request.
// Checks Authorization header (Bearer token) first, then falls back to cookie.
func extractToken(c fiber.Ctx) string {
	// Try Bearer token first
	authHeader := c.Get(fiber.HeaderAuthorization)
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		return authHeader[7:]
	}

	// Fall back to cookie
	return c.Cookies(sessionCookie)
}
