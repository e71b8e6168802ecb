package pgx

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lborres/coupons/core"
)

const paymentSelect = `SELECT r.id, r.user_id, r.plan, r.duration, r.amount, r.payment_method, r.sender_number,
	r.screenshot_url, r.status, r.created_at, r.validated_at, COALESCE(p.full_name, ''), COALESCE(u.email, '')
	FROM public.payment_requests r
	LEFT JOIN public.users u ON u.id = r.user_id
	LEFT JOIN public.profiles p ON p.id = r.user_id`

func scanPayment(row pgx.Row) (*core.PaymentRequest, error) {
	r := &core.PaymentRequest{}
	err := row.Scan(&r.ID, &r.UserID, &r.Plan, &r.Duration, &r.Amount, &r.Method, &r.SenderNumber,
		&r.ScreenshotURL, &r.Status, &r.CreatedAt, &r.ValidatedAt, &r.UserName, &r.UserEmail)
	if err != nil {
		return nil, notFound(err, core.ErrPaymentNotFound)
	}
	return r, nil
}

func getPayment(ctx context.Context, q querier, id string) (*core.PaymentRequest, error) {
	return scanPayment(q.QueryRow(ctx, paymentSelect+` WHERE r.id = $1`, id))
}

func (a *Adapter) CreatePayment(ctx context.Context, r *core.PaymentRequest) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Status == "" {
		r.Status = core.StatusPending
	}

	q := `INSERT INTO public.payment_requests
	      (id, user_id, plan, duration, amount, payment_method, sender_number, screenshot_url, status)
	      VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	      RETURNING created_at`
	return a.pool.QueryRow(ctx, q,
		r.ID, r.UserID, r.Plan, r.Duration, r.Amount, r.Method, r.SenderNumber, r.ScreenshotURL, r.Status,
	).Scan(&r.CreatedAt)
}

func (a *Adapter) GetPayment(ctx context.Context, id string) (*core.PaymentRequest, error) {
	return getPayment(ctx, a.pool, id)
}

func (a *Adapter) ListPayments(ctx context.Context, filter core.PaymentFilter) ([]*core.PaymentRequest, error) {
	var (
		where []string
		args  []any
	)
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		where = append(where, fmt.Sprintf("r.user_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		where = append(where, fmt.Sprintf("r.status = $%d", len(args)))
	}

	q := paymentSelect
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY r.created_at DESC`

	rows, err := a.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := []*core.PaymentRequest{}
	for rows.Next() {
		r, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, r)
	}
	return payments, rows.Err()
}

// ApprovePayment flips the request and grants the subscription in one
// transaction. The status condition on the UPDATE makes a second approval a
// no-op that reports ErrPaymentDecided.
func (a *Adapter) ApprovePayment(ctx context.Context, id string, at time.Time) (*core.PaymentDecision, error) {
	var decision *core.PaymentDecision

	err := a.inTx(ctx, func(tx pgx.Tx) error {
		claimed := &core.PaymentRequest{ID: id}
		err := tx.QueryRow(ctx,
			`UPDATE public.payment_requests SET status = 'approved', validated_at = $2
			 WHERE id = $1 AND status = 'pending'
			 RETURNING user_id, plan, duration`, id, at,
		).Scan(&claimed.UserID, &claimed.Plan, &claimed.Duration)
		if errors.Is(err, pgx.ErrNoRows) {
			return decidedOrMissing(ctx, tx, id)
		}
		if err != nil {
			return err
		}

		grant := core.GrantFor(claimed, at)
		tag, err := tx.Exec(ctx,
			`UPDATE public.profiles
			 SET subscription_type = $2, subscription_start = $3, subscription_end = $4, is_annual = $5, updated_at = now()
			 WHERE id = $1`,
			claimed.UserID, grant.Tier, grant.Start, grant.End, grant.Annual,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return core.ErrProfileNotFound
		}

		payment, err := getPayment(ctx, tx, id)
		if err != nil {
			return err
		}
		profile, err := getProfile(ctx, tx, claimed.UserID)
		if err != nil {
			return err
		}
		decision = &core.PaymentDecision{Payment: payment, Profile: profile}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return decision, nil
}

func (a *Adapter) RejectPayment(ctx context.Context, id string, at time.Time) (*core.PaymentRequest, error) {
	var payment *core.PaymentRequest

	err := a.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE public.payment_requests SET status = 'rejected', validated_at = $2
			 WHERE id = $1 AND status = 'pending'`, id, at,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return decidedOrMissing(ctx, tx, id)
		}
		payment, err = getPayment(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// decidedOrMissing explains why a conditional status update touched nothing.
func decidedOrMissing(ctx context.Context, q querier, id string) error {
	var status core.RequestStatus
	err := q.QueryRow(ctx, `SELECT status FROM public.payment_requests WHERE id = $1`, id).Scan(&status)
	if err != nil {
		return notFound(err, core.ErrPaymentNotFound)
	}
	return core.ErrPaymentDecided
}
