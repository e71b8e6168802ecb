package pgx

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lborres/coupons/core"
)

const promoColumns = `c.id, c.user_id, c.bookmaker, c.requested_code, c.reason, c.status, c.approved_code,
	c.admin_note, c.admin_id, c.created_at, c.updated_at, COALESCE(p.full_name, ''), COALESCE(u.email, '')`

const promoJoins = ` LEFT JOIN public.users u ON u.id = c.user_id LEFT JOIN public.profiles p ON p.id = c.user_id`

func scanPromo(row pgx.Row, r *core.PromoCodeRequest) error {
	return row.Scan(&r.ID, &r.UserID, &r.Bookmaker, &r.RequestedCode, &r.Reason, &r.Status, &r.ApprovedCode,
		&r.AdminNote, &r.AdminID, &r.CreatedAt, &r.UpdatedAt, &r.UserName, &r.UserEmail)
}

func (a *Adapter) CreatePromoCode(ctx context.Context, r *core.PromoCodeRequest) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	q := `INSERT INTO public.custom_promo_codes (id, user_id, bookmaker, requested_code, reason, status)
	      VALUES ($1, $2, $3, $4, $5, $6)
	      RETURNING created_at, updated_at`
	return a.pool.QueryRow(ctx, q, r.ID, r.UserID, r.Bookmaker, r.RequestedCode, r.Reason, r.Status).
		Scan(&r.CreatedAt, &r.UpdatedAt)
}

func (a *Adapter) ListPromoCodes(ctx context.Context, filter core.PromoCodeFilter) ([]*core.PromoCodeRequest, error) {
	var (
		where []string
		args  []any
	)
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		where = append(where, fmt.Sprintf("c.user_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		where = append(where, fmt.Sprintf("c.status = $%d", len(args)))
	}

	q := `SELECT ` + promoColumns + ` FROM public.custom_promo_codes c` + promoJoins
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY c.created_at DESC`

	rows, err := a.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := []*core.PromoCodeRequest{}
	for rows.Next() {
		r := &core.PromoCodeRequest{}
		if err := scanPromo(rows, r); err != nil {
			return nil, err
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

func (a *Adapter) DecidePromoCode(ctx context.Context, r *core.PromoCodeRequest) error {
	q := `WITH c AS (
	          UPDATE public.custom_promo_codes
	          SET status = $2, approved_code = $3, admin_note = $4, admin_id = $5, updated_at = now()
	          WHERE id = $1 AND status = 'pending'
	          RETURNING *
	      )
	      SELECT ` + promoColumns + ` FROM c` + promoJoins

	err := scanPromo(a.pool.QueryRow(ctx, q, r.ID, r.Status, r.ApprovedCode, r.AdminNote, r.AdminID), r)
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	var exists bool
	if err := a.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM public.custom_promo_codes WHERE id = $1)`, r.ID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return core.ErrPromoCodeNotFound
	}
	return core.ErrPromoCodeDecided
}
