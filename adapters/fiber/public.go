package fiber

import (
	"net/http"

	"github.com/gofiber/fiber/v3"

	"github.com/lborres/coupons/core"
)

func (a *Adapter) health(c fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "ok"})
}

type plansResponse struct {
	Currency string                `json:"currency"`
	Plans    []core.Plan           `json:"plans"`
	Accounts []core.PaymentAccount `json:"paymentAccounts"`
}

func (a *Adapter) listPlans(c fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(plansResponse{
		Currency: core.Currency,
		Plans:    core.Plans,
		Accounts: core.PaymentAccounts,
	})
}

func (a *Adapter) listBookmakers(c fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"promoCode":  core.DefaultPromoCode,
		"bookmakers": core.Bookmakers,
	})
}

func (a *Adapter) todayMatches(c fiber.Ctx) error {
	matches, err := a.coupons.Catalog.TodayMatches(c.Context())
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(http.StatusOK).JSON(matches)
}
