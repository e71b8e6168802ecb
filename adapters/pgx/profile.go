package pgx

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/lborres/coupons/core"
)

const profileSelect = `SELECT p.id, p.full_name, p.subscription_type, p.subscription_start, p.subscription_end,
	p.is_annual, p.is_admin, p.created_at, p.updated_at, COALESCE(u.email, '')
	FROM public.profiles p LEFT JOIN public.users u ON u.id = p.id`

func scanProfile(row pgx.Row) (*core.Profile, error) {
	p := &core.Profile{}
	err := row.Scan(&p.ID, &p.DisplayName, &p.Tier, &p.SubscriptionStart, &p.SubscriptionEnd,
		&p.IsAnnual, &p.IsAdmin, &p.CreatedAt, &p.UpdatedAt, &p.Email)
	if err != nil {
		return nil, notFound(err, core.ErrProfileNotFound)
	}
	return p, nil
}

func getProfile(ctx context.Context, q querier, id string) (*core.Profile, error) {
	return scanProfile(q.QueryRow(ctx, profileSelect+` WHERE p.id = $1`, id))
}

func (a *Adapter) GetProfile(ctx context.Context, id string) (*core.Profile, error) {
	return getProfile(ctx, a.pool, id)
}

// InsertProfile races with the sign-up path; the loser's insert is dropped.
func (a *Adapter) InsertProfile(ctx context.Context, p *core.Profile) error {
	q := `INSERT INTO public.profiles (id, full_name, subscription_type, subscription_start, subscription_end, is_annual, is_admin)
	      VALUES ($1, $2, $3, $4, $5, $6, $7)
	      ON CONFLICT (id) DO NOTHING`
	_, err := a.pool.Exec(ctx, q, p.ID, p.DisplayName, p.Tier, p.SubscriptionStart, p.SubscriptionEnd, p.IsAnnual, p.IsAdmin)
	return err
}

// UpdateProfile locks the row for the read so a concurrent approval or
// expiry is never overwritten with stale columns.
func (a *Adapter) UpdateProfile(ctx context.Context, id string, edit func(*core.Profile) error) (*core.Profile, error) {
	var p *core.Profile
	err := a.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		p, err = scanProfile(tx.QueryRow(ctx, profileSelect+` WHERE p.id = $1 FOR UPDATE OF p`, id))
		if err != nil {
			return err
		}
		if err := edit(p); err != nil {
			return err
		}

		q := `UPDATE public.profiles
		      SET full_name = $2, subscription_type = $3, subscription_start = $4, subscription_end = $5,
		          is_annual = $6, is_admin = $7, updated_at = now()
		      WHERE id = $1 RETURNING created_at, updated_at`
		err = tx.QueryRow(ctx, q, id, p.DisplayName, p.Tier, p.SubscriptionStart, p.SubscriptionEnd, p.IsAnnual, p.IsAdmin).
			Scan(&p.CreatedAt, &p.UpdatedAt)
		return notFound(err, core.ErrProfileNotFound)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (a *Adapter) ListProfiles(ctx context.Context) ([]*core.Profile, error) {
	rows, err := a.pool.Query(ctx, profileSelect+` ORDER BY p.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := []*core.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (a *Adapter) ExpireSubscriptions(ctx context.Context, today time.Time) (int, error) {
	q := `UPDATE public.profiles
	      SET subscription_type = 'free', is_annual = false, updated_at = now()
	      WHERE subscription_type <> 'free' AND subscription_end IS NOT NULL AND subscription_end < $1`
	tag, err := a.pool.Exec(ctx, q, core.DateOf(today))
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
