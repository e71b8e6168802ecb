package core

import (
	"strings"
	"time"
	"unicode/utf8"
)

type Tier string

const (
	TierFree     Tier = "free"
	TierStandard Tier = "standard"
	TierVIP      Tier = "vip"
)

func (t Tier) Valid() bool {
	switch t {
	case TierFree, TierStandard, TierVIP:
		return true
	}
	return false
}

const (
	DefaultDisplayName = "Utilisateur"
	maxDisplayNameLen  = 100
)

// Profile is the per-user application record. Its ID equals the user ID and
// there is at most one per user.
type Profile struct {
	ID                string     `json:"id"`
	Email             string     `json:"email,omitempty"`
	DisplayName       string     `json:"full_name"`
	Tier              Tier       `json:"subscription_type"`
	SubscriptionStart *time.Time `json:"subscription_start"`
	SubscriptionEnd   *time.Time `json:"subscription_end"`
	IsAnnual          bool       `json:"is_annual"`
	IsAdmin           bool       `json:"is_admin"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// NewDefaultProfile builds the profile inserted for a user that has none yet.
func NewDefaultProfile(u *User) *Profile {
	return &Profile{
		ID:          u.ID,
		DisplayName: DisplayNameFor(u),
		Tier:        TierFree,
	}
}

// DisplayNameFor picks the full_name metadata, then the email local part.
func DisplayNameFor(u *User) string {
	if u == nil {
		return DefaultDisplayName
	}
	if name := strings.TrimSpace(u.Name); name != "" {
		return name
	}
	if local, _, ok := strings.Cut(u.Email, "@"); ok && local != "" {
		return local
	}
	return DefaultDisplayName
}

func ValidateDisplayName(name string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	if n == 0 || n > maxDisplayNameLen {
		return ErrDisplayNameLength
	}
	return nil
}

// HasActiveSubscription reports whether a paid tier is in effect on the day of now.
// A missing end date is treated as open ended.
func (p *Profile) HasActiveSubscription(now time.Time) bool {
	if p == nil || p.Tier == TierFree || !p.Tier.Valid() {
		return false
	}
	if p.SubscriptionEnd == nil {
		return true
	}
	return !DateOf(*p.SubscriptionEnd).Before(DateOf(now))
}

// HasVIPAccess is the effective access rule for vip content.
func (p *Profile) HasVIPAccess(now time.Time) bool {
	if p == nil {
		return false
	}
	return p.IsAdmin || (p.Tier == TierVIP && p.HasActiveSubscription(now))
}

// HasStandardAccess is the effective access rule for the full standard feed.
func (p *Profile) HasStandardAccess(now time.Time) bool {
	if p == nil {
		return false
	}
	return p.IsAdmin || p.HasActiveSubscription(now)
}

// Label is the subscription badge shown on the dashboard.
func (p *Profile) Label(now time.Time) string {
	switch {
	case p == nil:
		return "Gratuit"
	case p.IsAdmin:
		return "Admin"
	case p.Tier == TierVIP && p.HasActiveSubscription(now):
		return "VIP"
	case p.Tier == TierStandard && p.HasActiveSubscription(now):
		return "Standard"
	default:
		return "Gratuit"
	}
}

// ProfileUpdate carries the admin-editable fields of a profile. Nil fields are left untouched.
type ProfileUpdate struct {
	DisplayName       *string `json:"full_name,omitempty"`
	Tier              *Tier   `json:"subscription_type,omitempty"`
	SubscriptionStart *string `json:"subscription_start,omitempty"` // YYYY-MM-DD
	SubscriptionEnd   *string `json:"subscription_end,omitempty"`   // YYYY-MM-DD
	IsAnnual          *bool   `json:"is_annual,omitempty"`
	IsAdmin           *bool   `json:"is_admin,omitempty"`
}

func (u ProfileUpdate) Apply(p *Profile) error {
	if u.DisplayName != nil {
		if err := ValidateDisplayName(*u.DisplayName); err != nil {
			return err
		}
		p.DisplayName = strings.TrimSpace(*u.DisplayName)
	}
	if u.Tier != nil {
		if !u.Tier.Valid() {
			return ErrInvalidTier
		}
		p.Tier = *u.Tier
	}
	if u.SubscriptionStart != nil {
		d, err := ParseDate(*u.SubscriptionStart)
		if err != nil {
			return err
		}
		p.SubscriptionStart = d
	}
	if u.SubscriptionEnd != nil {
		d, err := ParseDate(*u.SubscriptionEnd)
		if err != nil {
			return err
		}
		p.SubscriptionEnd = d
	}
	if u.IsAnnual != nil {
		p.IsAnnual = *u.IsAnnual
	}
	if u.IsAdmin != nil {
		p.IsAdmin = *u.IsAdmin
	}
	return nil
}
