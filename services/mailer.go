package services

import (
	"context"

	"github.com/gofiber/fiber/v3/log"

	"github.com/lborres/coupons/core"
)

// LogMailer writes outgoing mail to the application log instead of sending it.
type LogMailer struct{}

var _ core.Mailer = LogMailer{}

func (LogMailer) Send(_ context.Context, e core.Email) error {
	log.Infow("email", "to", e.To, "subject", e.Subject, "body", e.Body)
	return nil
}
