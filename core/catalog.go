package core

import (
	"strings"
	"time"
)

type MatchStatus string

const (
	MatchScheduled MatchStatus = "scheduled"
	MatchLive      MatchStatus = "live"
	MatchFinished  MatchStatus = "finished"
	MatchPostponed MatchStatus = "postponed"
	MatchCancelled MatchStatus = "cancelled"
)

func (s MatchStatus) Valid() bool {
	switch s {
	case MatchScheduled, MatchLive, MatchFinished, MatchPostponed, MatchCancelled:
		return true
	}
	return false
}

type Match struct {
	ID        string      `json:"id"`
	HomeTeam  string      `json:"home_team"`
	AwayTeam  string      `json:"away_team"`
	MatchDate time.Time   `json:"match_date"`
	League    string      `json:"league"`
	Country   string      `json:"country"`
	Stadium   string      `json:"stadium"`
	Status    MatchStatus `json:"status"`
	HomeScore *int        `json:"home_score"`
	AwayScore *int        `json:"away_score"`
	CreatedBy *string     `json:"created_by,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`

	// Source is "admin" for stored rows, otherwise the fixtures provider name.
	Source string `json:"source,omitempty"`
}

// Normalize trims the text fields and defaults the status before validation.
func (m *Match) Normalize() {
	m.HomeTeam = strings.TrimSpace(m.HomeTeam)
	m.AwayTeam = strings.TrimSpace(m.AwayTeam)
	m.League = strings.TrimSpace(m.League)
	m.Country = strings.TrimSpace(m.Country)
	m.Stadium = strings.TrimSpace(m.Stadium)
	if m.Status == "" {
		m.Status = MatchScheduled
	}
}

func (m *Match) Validate() error {
	if m.HomeTeam == "" || m.AwayTeam == "" {
		return ErrMatchTeamsRequired
	}
	if m.MatchDate.IsZero() {
		return ErrMatchDateRequired
	}
	if !m.Status.Valid() {
		return ErrInvalidMatchStatus
	}
	return nil
}

type Confidence string

const (
	ConfidenceStandard Confidence = "standard"
	ConfidenceVIP      Confidence = "vip"
)

type PredictionResult string

const (
	ResultPending PredictionResult = "pending"
	ResultWon     PredictionResult = "won"
	ResultLost    PredictionResult = "lost"
)

func (r PredictionResult) Valid() bool {
	return r == ResultPending || r == ResultWon || r == ResultLost
}

var PredictionTypes = []string{"1X2", "BTTS", "Over/Under", "Double Chance", "Handicap"}

type Prediction struct {
	ID              string           `json:"id"`
	MatchID         string           `json:"match_id"`
	PredictionType  string           `json:"prediction_type"`
	PredictionValue string           `json:"prediction_value"`
	Odds            *float64         `json:"odds"`
	Confidence      Confidence       `json:"confidence_level"`
	Description     string           `json:"description"`
	Result          PredictionResult `json:"result"`
	AdminID         *string          `json:"admin_id,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`

	Match *Match `json:"matches,omitempty"`
}

func (p *Prediction) Normalize() {
	p.PredictionType = strings.TrimSpace(p.PredictionType)
	p.PredictionValue = strings.TrimSpace(p.PredictionValue)
	p.Description = strings.TrimSpace(p.Description)
	if p.Confidence == "" {
		p.Confidence = ConfidenceStandard
	}
	if p.Result == "" {
		p.Result = ResultPending
	}
}

func (p *Prediction) Validate() error {
	if p.MatchID == "" || p.PredictionType == "" || p.PredictionValue == "" {
		return ErrInvalidPrediction
	}
	if p.Confidence != ConfidenceStandard && p.Confidence != ConfidenceVIP {
		return ErrInvalidConfidence
	}
	if !p.Result.Valid() {
		return ErrInvalidResult
	}
	if p.Odds != nil && *p.Odds <= 1 {
		return ErrInvalidOdds
	}
	return nil
}

// AdminStats backs the admin home screen.
type AdminStats struct {
	UsersByTier         map[Tier]int             `json:"users_by_tier"`
	Admins              int                      `json:"admins"`
	PendingPayments     int                      `json:"pending_payments"`
	PendingPromoCodes   int                      `json:"pending_promo_codes"`
	MatchesToday        int                      `json:"matches_today"`
	PredictionsByResult map[PredictionResult]int `json:"predictions_by_result"`
}
