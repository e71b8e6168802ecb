package pgx

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lborres/coupons/core"
)

const userColumns = `id, email, email_verified, name, created_at, updated_at`

func (a *Adapter) CreateUser(ctx context.Context, user *core.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	query := `INSERT INTO public.users (id, email, email_verified, name) VALUES ($1, $2, $3, $4) RETURNING created_at, updated_at`
	var createdAt, updatedAt time.Time

	err := a.pool.QueryRow(ctx, query, user.ID, user.Email, user.EmailVerified, user.Name).Scan(&createdAt, &updatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return core.ErrUserExists
		}
		return err
	}

	user.CreatedAt = createdAt
	user.UpdatedAt = updatedAt
	return nil
}

func (a *Adapter) GetUserByID(ctx context.Context, id string) (*core.User, error) {
	q := `SELECT ` + userColumns + ` FROM public.users WHERE id = $1`

	user := &core.User{}
	err := a.pool.QueryRow(ctx, q, id).Scan(&user.ID, &user.Email, &user.EmailVerified, &user.Name, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, notFound(err, core.ErrUserNotFound)
	}
	return user, nil
}

func (a *Adapter) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	q := `SELECT ` + userColumns + ` FROM public.users WHERE email = $1`

	user := &core.User{}
	err := a.pool.QueryRow(ctx, q, email).Scan(&user.ID, &user.Email, &user.EmailVerified, &user.Name, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, notFound(err, core.ErrUserNotFound)
	}
	return user, nil
}

func (a *Adapter) UpdateUser(ctx context.Context, user *core.User) error {
	q := `UPDATE public.users SET email = $1, email_verified = $2, name = $3, updated_at = now() WHERE id = $4 RETURNING updated_at`
	var updatedAt time.Time
	err := a.pool.QueryRow(ctx, q, user.Email, user.EmailVerified, user.Name, user.ID).Scan(&updatedAt)
	if err != nil {
		return notFound(err, core.ErrUserNotFound)
	}
	user.UpdatedAt = updatedAt
	return nil
}
