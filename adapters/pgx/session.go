package pgx

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lborres/coupons/core"
)

const sessionColumns = `id, user_id, token_hash, ip_address, user_agent, expires_at, created_at, updated_at`

func scanSession(row pgx.Row) (*core.Session, error) {
	s := &core.Session{}
	err := row.Scan(&s.ID, &s.UserID, &s.TokenHash, &s.IPAddress, &s.UserAgent, &s.ExpiresAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, notFound(err, core.ErrSessionNotFound)
	}
	return s, nil
}

func (a *Adapter) CreateSession(ctx context.Context, session *core.Session) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}

	q := `INSERT INTO public.sessions (id, user_id, token_hash, ip_address, user_agent, expires_at)
	      VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at, updated_at`
	return a.pool.QueryRow(ctx, q,
		session.ID, session.UserID, session.TokenHash, session.IPAddress, session.UserAgent, session.ExpiresAt,
	).Scan(&session.CreatedAt, &session.UpdatedAt)
}

func (a *Adapter) GetSessionByHash(ctx context.Context, tokenHash string) (*core.Session, error) {
	return scanSession(a.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM public.sessions WHERE token_hash = $1`, tokenHash))
}

func (a *Adapter) GetSessionByID(ctx context.Context, id string) (*core.Session, error) {
	return scanSession(a.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM public.sessions WHERE id = $1`, id))
}

func (a *Adapter) GetUserSessions(ctx context.Context, userID string) ([]*core.Session, error) {
	rows, err := a.pool.Query(ctx, `SELECT `+sessionColumns+` FROM public.sessions WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*core.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (a *Adapter) UpdateSession(ctx context.Context, session *core.Session) error {
	q := `UPDATE public.sessions SET expires_at = $1, ip_address = $2, user_agent = $3, updated_at = now()
	      WHERE token_hash = $4 RETURNING updated_at`
	err := a.pool.QueryRow(ctx, q, session.ExpiresAt, session.IPAddress, session.UserAgent, session.TokenHash).Scan(&session.UpdatedAt)
	return notFound(err, core.ErrSessionNotFound)
}

func (a *Adapter) DeleteSessionByID(ctx context.Context, id string) error {
	tag, err := a.pool.Exec(ctx, `DELETE FROM public.sessions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.ErrSessionNotFound
	}
	return nil
}

func (a *Adapter) DeleteSessionByHash(ctx context.Context, tokenHash string) error {
	tag, err := a.pool.Exec(ctx, `DELETE FROM public.sessions WHERE token_hash = $1`, tokenHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.ErrSessionNotFound
	}
	return nil
}

func (a *Adapter) DeleteUserSessions(ctx context.Context, userID string) (int, error) {
	tag, err := a.pool.Exec(ctx, `DELETE FROM public.sessions WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (a *Adapter) DeleteExpiredSessions(ctx context.Context) (int, error) {
	tag, err := a.pool.Exec(ctx, `DELETE FROM public.sessions WHERE expires_at < now()`)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
