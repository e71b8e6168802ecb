package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/lborres/coupons/core"
)

type ProfileService struct {
	profiles core.ProfileStorage
	users    core.UserStorage
}

func NewProfileService(profiles core.ProfileStorage, users core.UserStorage) *ProfileService {
	return &ProfileService{profiles: profiles, users: users}
}

func (s *ProfileService) Get(ctx context.Context, id string) (*core.Profile, error) {
	return s.profiles.GetProfile(ctx, id)
}

// UpdateDisplayName is the one profile field users edit themselves.
func (s *ProfileService) UpdateDisplayName(ctx context.Context, id, name string) (*core.Profile, error) {
	if err := core.ValidateDisplayName(name); err != nil {
		return nil, err
	}

	p, err := s.profiles.UpdateProfile(ctx, id, func(p *core.Profile) error {
		p.DisplayName = strings.TrimSpace(name)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProfileService) List(ctx context.Context) ([]*core.Profile, error) {
	return s.profiles.ListProfiles(ctx)
}

// Update applies an admin edit. Nothing is written when the edit is invalid.
func (s *ProfileService) Update(ctx context.Context, id string, u core.ProfileUpdate) (*core.Profile, error) {
	p, err := s.profiles.UpdateProfile(ctx, id, u.Apply)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GrantAdmin sets the admin flag of the user registered under email,
// creating the profile row when the user never signed in.
func (s *ProfileService) GrantAdmin(ctx context.Context, email string) (*core.Profile, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, core.ErrEmailRequired
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	// no-op when the row exists
	if err := s.profiles.InsertProfile(ctx, core.NewDefaultProfile(user)); err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	p, err := s.profiles.UpdateProfile(ctx, user.ID, func(p *core.Profile) error {
		p.IsAdmin = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}
