package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3/log"
	"golang.org/x/sync/errgroup"

	"github.com/lborres/coupons/core"
)

// FreePredictionLimit is how many standard predictions a user without a
// subscription gets to see.
const FreePredictionLimit = 3

const sourceAdmin = "admin"

// PredictionFeed is the prediction list as one user is allowed to see it.
type PredictionFeed struct {
	Standard       []*core.Prediction `json:"standard"`
	VIP            []*core.Prediction `json:"vip"`
	LockedStandard int                `json:"locked_standard"`
	LockedVIP      int                `json:"locked_vip"`
}

type Dashboard struct {
	Profile      *core.Profile   `json:"profile"`
	Label        string          `json:"subscription_label"`
	Active       bool            `json:"subscription_active"`
	ExpiresAt    *time.Time      `json:"subscription_end,omitempty"`
	MatchesToday []*core.Match   `json:"matches_today"`
	Predictions  *PredictionFeed `json:"predictions"`
}

type CatalogService struct {
	matches     core.MatchStorage
	predictions core.PredictionStorage
	profiles    core.ProfileStorage
	fixtures    core.FixturesProvider // optional
	now         func() time.Time
}

func NewCatalogService(matches core.MatchStorage, predictions core.PredictionStorage, profiles core.ProfileStorage, fixtures core.FixturesProvider) *CatalogService {
	return &CatalogService{
		matches:     matches,
		predictions: predictions,
		profiles:    profiles,
		fixtures:    fixtures,
		now:         time.Now,
	}
}

// TodayMatches prefers matches entered by admins for today. Without any it
// falls back to the fixtures provider, and to an empty list if that fails.
func (s *CatalogService) TodayMatches(ctx context.Context) ([]*core.Match, error) {
	today := core.DateOf(s.now())
	tomorrow := today.AddDate(0, 0, 1)

	stored, err := s.matches.ListMatches(ctx, core.MatchFilter{From: &today, To: &tomorrow})
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	if len(stored) > 0 {
		for _, m := range stored {
			m.Source = sourceAdmin
		}
		return stored, nil
	}

	if s.fixtures == nil {
		return []*core.Match{}, nil
	}
	fixtures, err := s.fixtures.Fixtures(ctx, today)
	if err != nil {
		log.Warnw("fixtures unavailable", "day", today.Format(core.DateLayout), "error", err)
		return []*core.Match{}, nil
	}
	if fixtures == nil {
		fixtures = []*core.Match{}
	}
	return fixtures, nil
}

// VisiblePredictions filters the prediction lists by what profile grants.
// A nil profile sees what a free user sees.
func (s *CatalogService) VisiblePredictions(ctx context.Context, profile *core.Profile) (*PredictionFeed, error) {
	standardLevel, vipLevel := core.ConfidenceStandard, core.ConfidenceVIP
	var standard, vip []*core.Prediction

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		standard, err = s.predictions.ListPredictions(gctx, core.PredictionFilter{Confidence: &standardLevel})
		return err
	})
	g.Go(func() error {
		var err error
		vip, err = s.predictions.ListPredictions(gctx, core.PredictionFilter{Confidence: &vipLevel})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to list predictions: %w", err)
	}

	return buildFeed(profile, s.now(), standard, vip), nil
}

func buildFeed(profile *core.Profile, now time.Time, standard, vip []*core.Prediction) *PredictionFeed {
	feed := &PredictionFeed{Standard: []*core.Prediction{}, VIP: []*core.Prediction{}}

	if profile != nil && profile.HasStandardAccess(now) {
		feed.Standard = append(feed.Standard, standard...)
	} else {
		shown := min(len(standard), FreePredictionLimit)
		feed.Standard = append(feed.Standard, standard[:shown]...)
		feed.LockedStandard = len(standard) - shown
	}

	if profile != nil && profile.HasVIPAccess(now) {
		feed.VIP = append(feed.VIP, vip...)
	} else {
		feed.LockedVIP = len(vip)
	}
	return feed
}

// Dashboard gathers what the signed-in home screen shows. The profile is
// always read fresh.
func (s *CatalogService) Dashboard(ctx context.Context, user *core.User) (*Dashboard, error) {
	var (
		profile *core.Profile
		matches []*core.Match
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.profiles.GetProfile(gctx, user.ID)
		if errors.Is(err, core.ErrProfileNotFound) {
			// not created yet; show the defaults it will be created with
			profile = core.NewDefaultProfile(user)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to get profile: %w", err)
		}
		profile = p
		return nil
	})
	g.Go(func() error {
		var err error
		matches, err = s.TodayMatches(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	feed, err := s.VisiblePredictions(ctx, profile)
	if err != nil {
		return nil, err
	}

	now := s.now()
	return &Dashboard{
		Profile:      profile,
		Label:        profile.Label(now),
		Active:       profile.HasActiveSubscription(now),
		ExpiresAt:    profile.SubscriptionEnd,
		MatchesToday: matches,
		Predictions:  feed,
	}, nil
}

// ============================================
// ADMIN: MATCHES
// ============================================

func (s *CatalogService) ListMatches(ctx context.Context) ([]*core.Match, error) {
	return s.matches.ListMatches(ctx, core.MatchFilter{})
}

func (s *CatalogService) CreateMatch(ctx context.Context, adminID string, m *core.Match) (*core.Match, error) {
	m.Normalize()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	m.ID = ""
	m.CreatedBy = &adminID
	m.Source = ""
	if err := s.matches.CreateMatch(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}
	return m, nil
}

func (s *CatalogService) UpdateMatch(ctx context.Context, id string, m *core.Match) (*core.Match, error) {
	existing, err := s.matches.GetMatch(ctx, id)
	if err != nil {
		return nil, err
	}

	m.Normalize()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	m.ID = existing.ID
	m.CreatedBy = existing.CreatedBy
	m.CreatedAt = existing.CreatedAt
	m.Source = ""
	if err := s.matches.UpdateMatch(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to update match: %w", err)
	}
	return m, nil
}

func (s *CatalogService) DeleteMatch(ctx context.Context, id string) error {
	return s.matches.DeleteMatch(ctx, id)
}

// ============================================
// ADMIN: PREDICTIONS
// ============================================

func (s *CatalogService) ListPredictions(ctx context.Context) ([]*core.Prediction, error) {
	return s.predictions.ListPredictions(ctx, core.PredictionFilter{})
}

func (s *CatalogService) CreatePrediction(ctx context.Context, adminID string, p *core.Prediction) (*core.Prediction, error) {
	p.Normalize()
	if err := p.Validate(); err != nil {
		return nil, err
	}

	match, err := s.matches.GetMatch(ctx, p.MatchID)
	if err != nil {
		return nil, err
	}

	p.ID = ""
	p.AdminID = &adminID
	p.Match = match
	if err := s.predictions.CreatePrediction(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create prediction: %w", err)
	}
	return p, nil
}

func (s *CatalogService) UpdatePrediction(ctx context.Context, id string, p *core.Prediction) (*core.Prediction, error) {
	existing, err := s.predictions.GetPrediction(ctx, id)
	if err != nil {
		return nil, err
	}

	p.Normalize()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.MatchID != existing.MatchID {
		if _, err := s.matches.GetMatch(ctx, p.MatchID); err != nil {
			return nil, err
		}
	}

	p.ID = existing.ID
	p.AdminID = existing.AdminID
	p.CreatedAt = existing.CreatedAt
	p.Match = nil
	if err := s.predictions.UpdatePrediction(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update prediction: %w", err)
	}
	return p, nil
}

func (s *CatalogService) DeletePrediction(ctx context.Context, id string) error {
	return s.predictions.DeletePrediction(ctx, id)
}
