package fiber

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/log"

	"github.com/lborres/coupons/bootstrap"
	"github.com/lborres/coupons/core"
	"github.com/lborres/coupons/services"
)

const screenshotField = "screenshot"

func (a *Adapter) dashboard(c fiber.Ctx) error {
	d, err := a.coupons.Catalog.Dashboard(c.Context(), currentUser(c))
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(http.StatusOK).JSON(d)
}

// freshProfile reads the caller's profile from storage rather than the
// client's bootstrap copy, which may predate an edit.
func (a *Adapter) freshProfile(c fiber.Ctx) (*core.Profile, error) {
	ctx, cancel := context.WithTimeout(c.Context(), a.coupons.AdminProfileWait)
	defer cancel()
	return a.loadProfile(ctx, currentClient(c), currentUser(c).ID)
}

// loadProfile reads userID's profile from storage. While the row is still
// being created it falls back to the client's bootstrap load.
func (a *Adapter) loadProfile(ctx context.Context, client *bootstrap.Client, userID string) (*core.Profile, error) {
	p, err := a.coupons.Profiles.Get(ctx, userID)
	if !errors.Is(err, core.ErrProfileNotFound) {
		return p, err
	}

	st, _ := client.Controller.WaitProfile(ctx)
	if st.Profile == nil {
		return nil, core.ErrUnavailable
	}
	return st.Profile, nil
}

func (a *Adapter) profile(c fiber.Ctx) error {
	p, err := a.freshProfile(c)
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(http.StatusOK).JSON(p)
}

type profileInput struct {
	DisplayName string `json:"full_name"`
}

func (a *Adapter) updateProfile(c fiber.Ctx) error {
	var input profileInput
	if err := c.Bind().Body(&input); err != nil {
		return badRequest(c)
	}

	user := currentUser(c)
	p, err := a.coupons.Profiles.UpdateDisplayName(c.Context(), user.ID, input.DisplayName)
	if err != nil {
		return handleError(c, err)
	}

	if _, err := currentClient(c).Controller.ReloadProfile(c.Context()); err != nil {
		log.Warnw("profile reload failed", "user_id", user.ID, "error", err)
	}
	return c.Status(http.StatusOK).JSON(p)
}

func (a *Adapter) predictions(c fiber.Ctx) error {
	p, err := a.freshProfile(c)
	if err != nil {
		return handleError(c, err)
	}

	feed, err := a.coupons.Catalog.VisiblePredictions(c.Context(), p)
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(http.StatusOK).JSON(feed)
}

func (a *Adapter) payments(c fiber.Ctx) error {
	list, err := a.coupons.Payments.ListForUser(c.Context(), currentUser(c).ID)
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(http.StatusOK).JSON(list)
}

// submitPayment takes a multipart form: the order fields and the transfer
// screenshot under "screenshot".
func (a *Adapter) submitPayment(c fiber.Ctx) error {
	sub := core.PaymentSubmission{
		Plan:         core.Tier(c.FormValue("plan")),
		Duration:     core.PlanDuration(c.FormValue("duration")),
		Method:       core.PaymentMethod(c.FormValue("payment_method")),
		SenderNumber: c.FormValue("sender_number"),
	}
	if raw := strings.TrimSpace(c.FormValue("amount")); raw != "" {
		amount, err := strconv.Atoi(raw)
		if err != nil {
			return handleError(c, core.ErrAmountMismatch)
		}
		sub.Amount = amount
	}

	fh, err := c.FormFile(screenshotField)
	if err != nil {
		return handleError(c, core.ErrScreenshotRequired)
	}
	if fh.Size > a.coupons.UploadMaxBytes {
		return handleError(c, core.ErrScreenshotTooLarge)
	}
	f, err := fh.Open()
	if err != nil {
		return handleError(c, err)
	}
	defer f.Close()

	payment, err := a.coupons.Payments.Submit(c.Context(), currentUser(c).ID, sub, &services.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(payment)
}

func (a *Adapter) promoCodes(c fiber.Ctx) error {
	list, err := a.coupons.Promo.ListForUser(c.Context(), currentUser(c).ID)
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(http.StatusOK).JSON(list)
}

func (a *Adapter) requestPromoCode(c fiber.Ctx) error {
	var input services.PromoCodeInput
	if err := c.Bind().Body(&input); err != nil {
		return badRequest(c)
	}

	r, err := a.coupons.Promo.Request(c.Context(), currentUser(c).ID, input)
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(r)
}
