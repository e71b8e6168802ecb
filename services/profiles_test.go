package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lborres/coupons/adapters/memory"
	"github.com/lborres/coupons/core"
)

// approveOnRead lands an approval right after the first profile read, the
// way an admin decision can commit between a read and a write.
type approveOnRead struct {
	*memory.Store
	approve func()
}

func (s *approveOnRead) GetProfile(ctx context.Context, id string) (*core.Profile, error) {
	p, err := s.Store.GetProfile(ctx, id)
	s.fire()
	return p, err
}

func (s *approveOnRead) fire() {
	if s.approve != nil {
		approve := s.approve
		s.approve = nil
		approve()
	}
}

// Requirement: users rename themselves within the display name bounds.
func TestProfileService_UpdateDisplayName(t *testing.T) {
	// Arrange
	env := newTestEnv(t, AuthConfig{})
	result := env.signUp(t, "alice@example.com", "SecurePass123!")
	svc := NewProfileService(env.store, env.store)
	ctx := context.Background()

	// Act
	updated, err := svc.UpdateDisplayName(ctx, result.User.ID, "  Alice K.  ")
	_, emptyErr := svc.UpdateDisplayName(ctx, result.User.ID, "   ")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "Alice K.", updated.DisplayName)
	require.ErrorIs(t, emptyErr, core.ErrDisplayNameLength)
	stored, _ := svc.Get(ctx, result.User.ID)
	assert.Equal(t, "Alice K.", stored.DisplayName)
}

// Requirement: an invalid admin edit changes nothing.
func TestProfileService_Update(t *testing.T) {
	// Arrange
	env := newTestEnv(t, AuthConfig{})
	result := env.signUp(t, "alice@example.com", "SecurePass123!")
	svc := NewProfileService(env.store, env.store)
	ctx := context.Background()
	vip := core.TierVIP
	end := "2025-12-31"
	bad := "31/12/2025"

	// Act
	_, badErr := svc.Update(ctx, result.User.ID, core.ProfileUpdate{Tier: &vip, SubscriptionEnd: &bad})
	unchanged, _ := svc.Get(ctx, result.User.ID)
	updated, err := svc.Update(ctx, result.User.ID, core.ProfileUpdate{Tier: &vip, SubscriptionEnd: &end})
	list, listErr := svc.List(ctx)

	// Assert
	require.ErrorIs(t, badErr, core.ErrInvalidDate)
	assert.Equal(t, core.TierFree, unchanged.Tier)
	require.NoError(t, err)
	assert.Equal(t, core.TierVIP, updated.Tier)
	assert.Equal(t, datePtr(2025, 12, 31), updated.SubscriptionEnd)
	require.NoError(t, listErr)
	require.Len(t, list, 1)
	assert.Equal(t, "alice@example.com", list[0].Email)
}

// Requirement: GrantAdmin flags an existing user, creating the profile when missing.
func TestProfileService_GrantAdmin(t *testing.T) {
	// Arrange
	env := newTestEnv(t, AuthConfig{})
	ctx := context.Background()
	user := &core.User{Email: "boss@example.com"}
	require.NoError(t, env.store.CreateUser(ctx, user))
	svc := NewProfileService(env.store, env.store)

	// Act
	p, err := svc.GrantAdmin(ctx, " Boss@Example.com ")
	_, unknownErr := svc.GrantAdmin(ctx, "nobody@example.com")

	// Assert
	require.NoError(t, err)
	assert.True(t, p.IsAdmin)
	assert.Equal(t, "boss", p.DisplayName)
	require.ErrorIs(t, unknownErr, core.ErrUserNotFound)
}

// Requirement: a profile edit never undoes a subscription granted while it runs.
func TestProfileService_EditKeepsConcurrentApproval(t *testing.T) {
	name := "Alice K."
	tests := []struct {
		name string
		edit func(svc *ProfileService) (*core.Profile, error)
	}{
		{
			name: "self rename",
			edit: func(svc *ProfileService) (*core.Profile, error) {
				return svc.UpdateDisplayName(context.Background(), "user-1", name)
			},
		},
		{
			name: "admin rename",
			edit: func(svc *ProfileService) (*core.Profile, error) {
				return svc.Update(context.Background(), "user-1", core.ProfileUpdate{DisplayName: &name})
			},
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			// Arrange
			payments, store, _ := newTestPayments(t, time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
			ctx := context.Background()
			p, err := payments.Submit(ctx, "user-1", core.PaymentSubmission{
				Plan: core.TierStandard, Duration: core.DurationMonthly, Amount: 750, Method: core.MethodOrangeMoney,
			}, pngUpload())
			require.NoError(t, err)
			wrapped := &approveOnRead{Store: store, approve: func() {
				_, err := payments.Approve(ctx, p.ID)
				require.NoError(t, err)
			}}
			svc := NewProfileService(wrapped, store)

			// Act
			_, err = test.edit(svc)
			wrapped.fire()

			// Assert
			require.NoError(t, err)
			stored, err := store.GetProfile(ctx, "user-1")
			require.NoError(t, err)
			assert.Equal(t, "Alice K.", stored.DisplayName)
			assert.Equal(t, core.TierStandard, stored.Tier)
			assert.Equal(t, datePtr(2025, 4, 10), stored.SubscriptionEnd)
		})
	}
}
