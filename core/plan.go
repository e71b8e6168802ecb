package core

import "time"

const Currency = "FCFA"

type PlanDuration string

const (
	DurationMonthly PlanDuration = "monthly"
	DurationAnnual  PlanDuration = "annual"
)

func (d PlanDuration) Valid() bool {
	return d == DurationMonthly || d == DurationAnnual
}

// Extend returns the subscription end date for a period starting on start.
func (d PlanDuration) Extend(start time.Time) time.Time {
	if d == DurationAnnual {
		return AddMonths(start, 12)
	}
	return AddMonths(start, 1)
}

type Plan struct {
	Tier         Tier     `json:"id"`
	Name         string   `json:"name"`
	MonthlyPrice int      `json:"monthlyPrice"`
	AnnualPrice  int      `json:"annualPrice"`
	Discount     int      `json:"discount"` // percent off twelve monthly payments
	Popular      bool     `json:"popular"`
	Features     []string `json:"features"`
}

// Plans lists every tier, free included, in display order.
var Plans = []Plan{
	{
		Tier: TierFree,
		Name: "Gratuit",
		Features: []string{
			"Aperçu des matchs du jour",
			"Accès limité aux pronostics",
			"Publicité présente",
		},
	},
	{
		Tier:         TierStandard,
		Name:         "Standard",
		MonthlyPrice: 750,
		AnnualPrice:  7650,
		Discount:     15,
		Features: []string{
			"Tous les matchs du jour",
			"Pronostics standard",
			"Statistiques de base",
			"Historique 7 jours",
			"Support standard",
		},
	},
	{
		Tier:         TierVIP,
		Name:         "VIP",
		MonthlyPrice: 1500,
		AnnualPrice:  12600,
		Discount:     30,
		Popular:      true,
		Features: []string{
			"Accès complet illimité",
			"Pronostics VIP premium",
			"Statistiques avancées",
			"Support prioritaire",
			"Historique illimité",
			"Notifications prioritaires",
			"Badge VIP exclusif",
		},
	},
}

// PriceFor returns the amount due for a paid tier and duration.
func PriceFor(tier Tier, d PlanDuration) (int, error) {
	if !d.Valid() {
		return 0, ErrInvalidDuration
	}
	for _, p := range Plans {
		if p.Tier != tier || p.Tier == TierFree {
			continue
		}
		if d == DurationAnnual {
			return p.AnnualPrice, nil
		}
		return p.MonthlyPrice, nil
	}
	return 0, ErrInvalidPlan
}

type PaymentMethod string

const (
	MethodOrangeMoney PaymentMethod = "orange_money"
	MethodMoovMoney   PaymentMethod = "moov_money"
)

func (m PaymentMethod) Valid() bool {
	return m == MethodOrangeMoney || m == MethodMoovMoney
}

// PaymentAccount is a mobile money number users transfer to.
type PaymentAccount struct {
	Method        PaymentMethod `json:"method"`
	Provider      string        `json:"provider"`
	Number        string        `json:"number"`
	DisplayNumber string        `json:"displayNumber"`
}

var PaymentAccounts = []PaymentAccount{
	{Method: MethodOrangeMoney, Provider: "Orange Money", Number: "75185671", DisplayNumber: "75 18 56 71"},
	{Method: MethodMoovMoney, Provider: "Moov Money", Number: "53591517", DisplayNumber: "53 59 15 17"},
}

type Bookmaker struct {
	Name  string `json:"name"`
	Code  string `json:"code"`
	Link  string `json:"link"`
	Bonus string `json:"bonus"`
}

const DefaultPromoCode = "Le226"

var Bookmakers = []Bookmaker{
	{Name: "1xbet", Code: DefaultPromoCode, Link: "https://1xbet.com", Bonus: "Bonus de 130€"},
	{Name: "Betwinner", Code: DefaultPromoCode, Link: "https://betwinner.com", Bonus: "Bonus de 100€"},
	{Name: "Melbet", Code: DefaultPromoCode, Link: "https://melbet.com", Bonus: "Bonus de 100€"},
	{Name: "1win", Code: DefaultPromoCode, Link: "https://1win.com", Bonus: "Bonus de 500€"},
	{Name: "1xbit", Code: DefaultPromoCode, Link: "https://1xbit.com", Bonus: "Bonus de 7 BTC"},
}

func IsBookmaker(name string) bool {
	for _, b := range Bookmakers {
		if b.Name == name {
			return true
		}
	}
	return false
}
