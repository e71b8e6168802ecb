package core

import "time"

type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// PaymentRequest is a manual mobile money payment awaiting verification.
// Only admins move it out of pending, and a decided request never changes again.
type PaymentRequest struct {
	ID            string        `json:"id"`
	UserID        string        `json:"user_id"`
	Plan          Tier          `json:"plan"`
	Duration      PlanDuration  `json:"duration"`
	Amount        int           `json:"amount"`
	Method        PaymentMethod `json:"payment_method"`
	SenderNumber  *string       `json:"sender_number,omitempty"`
	ScreenshotURL string        `json:"screenshot_url"`
	Status        RequestStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
	ValidatedAt   *time.Time    `json:"validated_at,omitempty"`

	// joined for admin listings
	UserName  string `json:"full_name,omitempty"`
	UserEmail string `json:"email,omitempty"`
}

type PaymentSubmission struct {
	Plan         Tier          `json:"plan"`
	Duration     PlanDuration  `json:"duration"`
	Amount       int           `json:"amount"` // optional, checked against the plan price
	Method       PaymentMethod `json:"payment_method"`
	SenderNumber string        `json:"sender_number"`
}

// PaymentDecision is the outcome of an approval, with the profile it produced.
type PaymentDecision struct {
	Payment *PaymentRequest `json:"payment"`
	Profile *Profile        `json:"profile,omitempty"`
}

// PromoCodeRequest asks an admin for a personalised bookmaker promo code.
type PromoCodeRequest struct {
	ID            string        `json:"id"`
	UserID        string        `json:"user_id"`
	Bookmaker     string        `json:"bookmaker"`
	RequestedCode string        `json:"requested_code"`
	Reason        string        `json:"reason"`
	Status        RequestStatus `json:"status"`
	ApprovedCode  *string       `json:"approved_code,omitempty"`
	AdminNote     *string       `json:"admin_note,omitempty"`
	AdminID       *string       `json:"admin_id,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`

	UserName  string `json:"full_name,omitempty"`
	UserEmail string `json:"email,omitempty"`
}

// SubscriptionGrant is the profile change produced by approving a payment.
// The period always starts on the approval day.
type SubscriptionGrant struct {
	Tier   Tier
	Start  time.Time
	End    time.Time
	Annual bool
}

func GrantFor(p *PaymentRequest, approvedAt time.Time) SubscriptionGrant {
	start := DateOf(approvedAt)
	return SubscriptionGrant{
		Tier:   p.Plan,
		Start:  start,
		End:    p.Duration.Extend(start),
		Annual: p.Duration == DurationAnnual,
	}
}

func (g SubscriptionGrant) Apply(p *Profile) {
	start, end := g.Start, g.End
	p.Tier = g.Tier
	p.SubscriptionStart = &start
	p.SubscriptionEnd = &end
	p.IsAnnual = g.Annual
}
