package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/sync/singleflight"

	"github.com/lborres/coupons/core"
)

// DefaultRetryDelays is the wait before each re-fetch of a missing profile.
// The profile row may still be on its way from the sign-up path.
var DefaultRetryDelays = []time.Duration{1 * time.Second, 2 * time.Second, 3 * time.Second}

// ProfileRepository is the part of core.ProfileStorage the loader needs.
type ProfileRepository interface {
	GetProfile(ctx context.Context, id string) (*core.Profile, error)
	InsertProfile(ctx context.Context, p *core.Profile) error
}

// ProgressFunc is told about phase changes of a load.
type ProgressFunc func(phase Phase, attempt int)

// ProfileLoader fetches a user's profile, waiting out the sign-up race and
// creating the row when it never shows up. Concurrent loads for one user
// share a single fetch.
type ProfileLoader struct {
	repo   ProfileRepository
	delays []time.Duration
	group  singleflight.Group
}

func NewProfileLoader(repo ProfileRepository, delays []time.Duration) *ProfileLoader {
	if delays == nil {
		delays = DefaultRetryDelays
	}
	return &ProfileLoader{repo: repo, delays: delays}
}

// Load returns the profile of user. progress may be nil and only hears
// about loads this call started; callers joining a running load see just
// the outcome.
func (l *ProfileLoader) Load(ctx context.Context, user *core.User, progress ProgressFunc) (*core.Profile, error) {
	if progress == nil {
		progress = func(Phase, int) {}
	}

	for {
		ch := l.group.DoChan(user.ID, func() (any, error) {
			return l.load(ctx, user, progress)
		})

		select {
		case <-ctx.Done():
			return nil, context.Cause(ctx)
		case res := <-ch:
			if res.Err != nil {
				// the caller that started the shared load went away; start our own
				if errors.Is(res.Err, context.Canceled) && ctx.Err() == nil {
					continue
				}
				return nil, res.Err
			}
			p := *res.Val.(*core.Profile)
			return &p, nil
		}
	}
}

// Forget makes the next Load for userID read storage again instead of
// joining a load already under way.
func (l *ProfileLoader) Forget(userID string) {
	l.group.Forget(userID)
}

func (l *ProfileLoader) load(ctx context.Context, user *core.User, progress ProgressFunc) (*core.Profile, error) {
	progress(PhaseFetching, 0)

	attempt := 0
	fetch := func() (*core.Profile, error) {
		p, err := l.repo.GetProfile(ctx, user.ID)
		if err == nil {
			return p, nil
		}
		if errors.Is(err, core.ErrProfileNotFound) {
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}

	p, err := backoff.Retry(ctx, fetch,
		backoff.WithBackOff(newSchedule(l.delays)),
		backoff.WithNotify(func(error, time.Duration) {
			attempt++
			progress(PhaseRetrying, attempt)
		}),
	)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, core.ErrProfileNotFound) {
		return nil, err
	}

	progress(PhaseCreating, attempt)
	if err := l.repo.InsertProfile(ctx, core.NewDefaultProfile(user)); err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	// read back: another writer may have won the insert
	return l.repo.GetProfile(ctx, user.ID)
}

// schedule is a fixed list of waits, then stop.
type schedule struct {
	delays []time.Duration
	next   int
}

func newSchedule(delays []time.Duration) *schedule {
	return &schedule{delays: delays}
}

func (s *schedule) NextBackOff() time.Duration {
	if s.next >= len(s.delays) {
		return backoff.Stop
	}
	d := s.delays[s.next]
	s.next++
	return d
}

func (s *schedule) Reset() {
	s.next = 0
}
