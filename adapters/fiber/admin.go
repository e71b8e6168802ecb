package fiber

import (
	"net/http"

	"github.com/gofiber/fiber/v3"

	"github.com/lborres/coupons/core"
)

func (a *Adapter) adminStats(c fiber.Ctx) error {
	stats, err := a.coupons.Admin.Stats(c.Context())
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(http.StatusOK).JSON(stats)
}

// ============================================
// MATCHES
// ============================================

func (a *Adapter) adminListMatches(c fiber.Ctx) error {
	matches, err := a.coupons.Catalog.ListMatches(c.Context())
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(http.StatusOK).JSON(matches)
}

func (a *Adapter) adminCreateMatch(c fiber.Ctx) error {
	var m core.Match
	if err := c.Bind().Body(&m); err != nil {
		return badRequest(c)
	}

	created, err := a.coupons.Catalog.CreateMatch(c.Context(), currentUser(c).ID, &m)
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(created)
}

func (a *Adapter) adminUpdateMatch(c fiber.Ctx) error {
	var m core.Match
	if err := c.Bind().Body(&m); err != nil {
		return badRequest(c)
	}

	updated, err := a.coupons.Catalog.UpdateMatch(c.Context(), c.Params("id"), &m)
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(http.StatusOK).JSON(updated)
}

func (a *Adapter) adminDeleteMatch(c fiber.Ctx) error {
	if err := a.coupons.Catalog.DeleteMatch(c.Context(), c.Params("id")); err != nil {
		return handleError(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// ============================================
// PREDICTIONS
// ============================================

func (a *Adapter) adminListPredictions(c fiber.Ctx) error {
	list, err := a.coupons.Catalog.ListPredictions(c.Context())
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(http.StatusOK).JSON(list)
}

func (a *Adapter) adminCreatePrediction(c fiber.Ctx) error {
	var p core.Prediction
	if err := c.Bind().Body(&p); err != nil {
		return badRequest(c)
	}

	created, err := a.coupons.Catalog.CreatePrediction(c.Context(), currentUser(c).ID, &p)
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(created)
}

func (a *Adapter) adminUpdatePrediction(c fiber.Ctx) error {
	var p core.Prediction
	if err := c.Bind().Body(&p); err != nil {
		return badRequest(c)
	}

	updated, err := a.coupons.Catalog.UpdatePrediction(c.Context(), c.Params("id"), &p)
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(http.StatusOK).JSON(updated)
}

func (a *Adapter) adminDeletePrediction(c fiber.Ctx) error {
	if err := a.coupons.Catalog.DeletePrediction(c.Context(), c.Params("id")); err != nil {
		return handleError(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// ============================================
// PAYMENTS
// ============================================

func (a *Adapter) adminListPayments(c fiber.Ctx) error {
	list, err := a.coupons.Payments.List(c.Context(), c.Query("status"))
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(http.StatusOK).JSON(list)
}

func (a *Adapter) adminApprovePayment(c fiber.Ctx) error {
	decision, err := a.coupons.Payments.Approve(c.Context(), c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(http.StatusOK).JSON(decision)
}

func (a *Adapter) adminRejectPayment(c fiber.Ctx) error {
	payment, err := a.coupons.Payments.Reject(c.Context(), c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(http.StatusOK).JSON(payment)
}

// ============================================
// USERS
// ============================================

func (a *Adapter) adminListUsers(c fiber.Ctx) error {
	list, err := a.coupons.Profiles.List(c.Context())
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(http.StatusOK).JSON(list)
}

func (a *Adapter) adminUpdateUser(c fiber.Ctx) error {
	var u core.ProfileUpdate
	if err := c.Bind().Body(&u); err != nil {
		return badRequest(c)
	}

	p, err := a.coupons.Profiles.Update(c.Context(), c.Params("id"), u)
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(http.StatusOK).JSON(p)
}

// ============================================
// PROMO CODES
// ============================================

type promoDecisionInput struct {
	ApprovedCode string `json:"approved_code"`
	AdminNote    string `json:"admin_note"`
}

func (a *Adapter) adminListPromoCodes(c fiber.Ctx) error {
	list, err := a.coupons.Promo.List(c.Context(), c.Query("status"))
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(http.StatusOK).JSON(list)
}

func (a *Adapter) adminApprovePromoCode(c fiber.Ctx) error {
	var input promoDecisionInput
	if err := c.Bind().Body(&input); err != nil {
		return badRequest(c)
	}

	r, err := a.coupons.Promo.Approve(c.Context(), c.Params("id"), currentUser(c).ID, input.ApprovedCode, input.AdminNote)
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(http.StatusOK).JSON(r)
}

func (a *Adapter) adminRejectPromoCode(c fiber.Ctx) error {
	var input promoDecisionInput
	if len(c.Body()) > 0 {
		if err := c.Bind().Body(&input); err != nil {
			return badRequest(c)
		}
	}

	r, err := a.coupons.Promo.Reject(c.Context(), c.Params("id"), currentUser(c).ID, input.AdminNote)
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(http.StatusOK).JSON(r)
}
