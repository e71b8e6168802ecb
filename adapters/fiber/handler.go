package fiber

import (
	"net/http"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/log"

	"github.com/lborres/coupons/core"
)

type messageResponse struct {
	Message string `json:"message"`
}

// signUp registers through a fresh client so the new session, when one is
// issued, comes with its bootstrap state already running.
func (a *Adapter) signUp(c fiber.Ctx) error {
	var input core.SignUpInput
	if err := c.Bind().Body(&input); err != nil {
		return badRequest(c)
	}

	client := a.coupons.Clients.NewClient(c.IP(), c.Get(fiber.HeaderUserAgent))
	res := client.Controller.SignUp(c.Context(), input.Email, input.Password, input.Name)
	if res.Err != nil {
		client.Close()
		return handleError(c, res.Err)
	}

	if res.Data.Token == "" {
		// awaiting email confirmation
		client.Close()
	} else {
		a.coupons.Clients.Adopt(client)
		a.setSessionCookie(c, res.Data.Token, res.Data.Session.ExpiresAt)
	}

	return c.Status(http.StatusCreated).JSON(res.Data)
}

func (a *Adapter) signIn(c fiber.Ctx) error {
	var input core.SignInInput
	if err := c.Bind().Body(&input); err != nil {
		return badRequest(c)
	}

	client := a.coupons.Clients.NewClient(c.IP(), c.Get(fiber.HeaderUserAgent))
	res := client.Controller.SignIn(c.Context(), input.Email, input.Password)
	if res.Err != nil {
		client.Close()
		return handleError(c, res.Err)
	}

	a.coupons.Clients.Adopt(client)
	a.setSessionCookie(c, res.Data.Token, res.Data.Session.ExpiresAt)
	return c.Status(http.StatusOK).JSON(res.Data)
}

func (a *Adapter) signOut(c fiber.Ctx) error {
	token := extractToken(c)
	if token == "" {
		return handleError(c, core.ErrMissingAuthHeader)
	}

	client, err := a.coupons.Clients.Resolve(c.Context(), token, c.IP(), c.Get(fiber.HeaderUserAgent))
	if err != nil {
		return handleError(c, err)
	}
	if !client.Controller.State().Authenticated() {
		return handleError(c, core.ErrInvalidToken)
	}

	if err := client.Controller.SignOut(c.Context()); err != nil {
		return handleError(c, err)
	}
	a.coupons.Clients.Forget(token)
	a.clearSessionCookie(c)

	return c.Status(http.StatusOK).JSON(messageResponse{Message: "signed out successfully"})
}

// session reports the caller's bootstrap state: user, profile and where
// loading stands.
func (a *Adapter) session(c fiber.Ctx) error {
	token := extractToken(c)
	if token == "" {
		return handleError(c, core.ErrMissingAuthHeader)
	}

	client, err := a.coupons.Clients.Resolve(c.Context(), token, c.IP(), c.Get(fiber.HeaderUserAgent))
	if err != nil {
		return handleError(c, err)
	}

	st := client.Controller.State()
	if !st.Authenticated() {
		return handleError(c, core.ErrInvalidToken)
	}
	return c.Status(http.StatusOK).JSON(st)
}

func (a *Adapter) refresh(c fiber.Ctx) error {
	token := extractToken(c)
	if token == "" {
		return handleError(c, core.ErrMissingAuthHeader)
	}

	client, err := a.coupons.Clients.Resolve(c.Context(), token, c.IP(), c.Get(fiber.HeaderUserAgent))
	if err != nil {
		return handleError(c, err)
	}
	if !client.Controller.State().Authenticated() {
		return handleError(c, core.ErrInvalidToken)
	}

	res, err := client.Session.Refresh(c.Context())
	if err != nil {
		return handleError(c, err)
	}
	a.coupons.Clients.Rekey(token, client)
	a.setSessionCookie(c, res.Token, res.Session.ExpiresAt)

	return c.Status(http.StatusOK).JSON(res)
}

func (a *Adapter) confirmEmail(c fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return handleError(c, core.ErrTokenRequired)
	}

	user, err := a.coupons.Auth.ConfirmEmail(c.Context(), token)
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"user": user})
}

type recoveryInput struct {
	Email string `json:"email"`
}

func (a *Adapter) requestPasswordReset(c fiber.Ctx) error {
	var input recoveryInput
	if err := c.Bind().Body(&input); err != nil {
		return badRequest(c)
	}

	if err := a.coupons.Auth.RequestPasswordReset(c.Context(), input.Email); err != nil {
		return handleError(c, err)
	}
	return c.Status(http.StatusOK).JSON(messageResponse{
		Message: "if an account exists for this address, a recovery link was sent",
	})
}

type resetInput struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (a *Adapter) resetPassword(c fiber.Ctx) error {
	var input resetInput
	if err := c.Bind().Body(&input); err != nil {
		return badRequest(c)
	}
	if input.Token == "" {
		return handleError(c, core.ErrTokenRequired)
	}

	if err := a.coupons.Auth.ResetPassword(c.Context(), input.Token, input.Password); err != nil {
		return handleError(c, err)
	}
	return c.Status(http.StatusOK).JSON(messageResponse{Message: "password updated, please sign in again"})
}

type passwordInput struct {
	Password string `json:"password"`
}

func (a *Adapter) updatePassword(c fiber.Ctx) error {
	var input passwordInput
	if err := c.Bind().Body(&input); err != nil {
		return badRequest(c)
	}

	client := currentClient(c)
	if err := client.Session.UpdatePassword(c.Context(), input.Password); err != nil {
		return handleError(c, err)
	}
	log.Infow("password updated", "user_id", currentUser(c).ID)
	return c.Status(http.StatusOK).JSON(messageResponse{Message: "password updated"})
}
