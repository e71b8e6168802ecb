package pgx

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lborres/coupons/core"
)

func (a *Adapter) CreateAccount(ctx context.Context, acc *core.Account) error {
	if acc.ID == "" {
		acc.ID = uuid.NewString()
	}

	query := `INSERT INTO public.accounts (id, user_id, provider_id, account_id, password)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING created_at, updated_at`

	var createdAt, updatedAt time.Time
	err := a.pool.QueryRow(ctx, query,
		acc.ID, acc.UserID, acc.ProviderID, acc.AccountID, acc.Password,
	).Scan(&createdAt, &updatedAt)

	if err != nil {
		return err
	}

	acc.CreatedAt = createdAt
	acc.UpdatedAt = updatedAt
	return nil
}

func (a *Adapter) GetAccountByUserAndProvider(ctx context.Context, userID, providerID string) ([]*core.Account, error) {
	query := `SELECT id, user_id, provider_id, account_id, password, created_at, updated_at
	          FROM public.accounts WHERE user_id = $1 AND provider_id = $2`

	rows, err := a.pool.Query(ctx, query, userID, providerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*core.Account
	for rows.Next() {
		acc := &core.Account{}
		err := rows.Scan(
			&acc.ID, &acc.UserID, &acc.ProviderID, &acc.AccountID, &acc.Password, &acc.CreatedAt, &acc.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return accounts, nil
}

// UpdateAccount always moves updated_at forward, even within one clock tick,
// so credential-derived stamps change on every write.
func (a *Adapter) UpdateAccount(ctx context.Context, acc *core.Account) error {
	query := `UPDATE public.accounts
	          SET account_id = $1, password = $2, updated_at = GREATEST(now(), updated_at + interval '1 microsecond')
	          WHERE id = $3 RETURNING updated_at`

	var updatedAt time.Time
	err := a.pool.QueryRow(ctx, query, acc.AccountID, acc.Password, acc.ID).Scan(&updatedAt)
	if err != nil {
		return notFound(err, core.ErrInvalidCredentials)
	}

	acc.UpdatedAt = updatedAt
	return nil
}
