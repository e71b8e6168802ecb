package pgx

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lborres/coupons/core"
)

const matchColumns = `m.id, m.home_team, m.away_team, m.match_date, m.league, m.country, m.stadium,
	m.status, m.home_score, m.away_score, m.created_by, m.created_at, m.updated_at`

func scanMatch(row pgx.Row) (*core.Match, error) {
	m := &core.Match{}
	err := row.Scan(&m.ID, &m.HomeTeam, &m.AwayTeam, &m.MatchDate, &m.League, &m.Country, &m.Stadium,
		&m.Status, &m.HomeScore, &m.AwayScore, &m.CreatedBy, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, notFound(err, core.ErrMatchNotFound)
	}
	return m, nil
}

func (a *Adapter) CreateMatch(ctx context.Context, m *core.Match) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	q := `INSERT INTO public.matches
	      (id, home_team, away_team, match_date, league, country, stadium, status, home_score, away_score, created_by)
	      VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	      RETURNING created_at, updated_at`
	return a.pool.QueryRow(ctx, q,
		m.ID, m.HomeTeam, m.AwayTeam, m.MatchDate, m.League, m.Country, m.Stadium, m.Status, m.HomeScore, m.AwayScore, m.CreatedBy,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
}

func (a *Adapter) GetMatch(ctx context.Context, id string) (*core.Match, error) {
	return scanMatch(a.pool.QueryRow(ctx, `SELECT `+matchColumns+` FROM public.matches m WHERE m.id = $1`, id))
}

func (a *Adapter) ListMatches(ctx context.Context, filter core.MatchFilter) ([]*core.Match, error) {
	var (
		where []string
		args  []any
	)
	if filter.From != nil {
		args = append(args, *filter.From)
		where = append(where, fmt.Sprintf("m.match_date >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		where = append(where, fmt.Sprintf("m.match_date < $%d", len(args)))
	}

	q := `SELECT ` + matchColumns + ` FROM public.matches m`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY m.match_date`

	rows, err := a.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := []*core.Match{}
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (a *Adapter) UpdateMatch(ctx context.Context, m *core.Match) error {
	q := `UPDATE public.matches
	      SET home_team = $2, away_team = $3, match_date = $4, league = $5, country = $6, stadium = $7,
	          status = $8, home_score = $9, away_score = $10, updated_at = now()
	      WHERE id = $1 RETURNING created_by, created_at, updated_at`
	err := a.pool.QueryRow(ctx, q,
		m.ID, m.HomeTeam, m.AwayTeam, m.MatchDate, m.League, m.Country, m.Stadium, m.Status, m.HomeScore, m.AwayScore,
	).Scan(&m.CreatedBy, &m.CreatedAt, &m.UpdatedAt)
	return notFound(err, core.ErrMatchNotFound)
}

// DeleteMatch removes the match; its predictions go with it through the foreign key.
func (a *Adapter) DeleteMatch(ctx context.Context, id string) error {
	tag, err := a.pool.Exec(ctx, `DELETE FROM public.matches WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.ErrMatchNotFound
	}
	return nil
}

const predictionSelect = `SELECT pr.id, pr.match_id, pr.prediction_type, pr.prediction_value, pr.odds::float8,
	pr.confidence_level, pr.description, pr.result, pr.admin_id, pr.created_at, pr.updated_at, ` + matchColumns + `
	FROM public.predictions pr JOIN public.matches m ON m.id = pr.match_id`

func scanPrediction(row pgx.Row) (*core.Prediction, error) {
	p := &core.Prediction{}
	m := &core.Match{}
	err := row.Scan(&p.ID, &p.MatchID, &p.PredictionType, &p.PredictionValue, &p.Odds,
		&p.Confidence, &p.Description, &p.Result, &p.AdminID, &p.CreatedAt, &p.UpdatedAt,
		&m.ID, &m.HomeTeam, &m.AwayTeam, &m.MatchDate, &m.League, &m.Country, &m.Stadium,
		&m.Status, &m.HomeScore, &m.AwayScore, &m.CreatedBy, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, notFound(err, core.ErrPredictionNotFound)
	}
	p.Match = m
	return p, nil
}

func (a *Adapter) CreatePrediction(ctx context.Context, p *core.Prediction) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	q := `INSERT INTO public.predictions
	      (id, match_id, prediction_type, prediction_value, odds, confidence_level, description, result, admin_id)
	      SELECT $1, m.id, $3, $4, $5, $6, $7, $8, $9 FROM public.matches m WHERE m.id = $2
	      RETURNING created_at, updated_at`
	err := a.pool.QueryRow(ctx, q,
		p.ID, p.MatchID, p.PredictionType, p.PredictionValue, p.Odds, p.Confidence, p.Description, p.Result, p.AdminID,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	return notFound(err, core.ErrMatchNotFound)
}

func (a *Adapter) GetPrediction(ctx context.Context, id string) (*core.Prediction, error) {
	return scanPrediction(a.pool.QueryRow(ctx, predictionSelect+` WHERE pr.id = $1`, id))
}

func (a *Adapter) ListPredictions(ctx context.Context, filter core.PredictionFilter) ([]*core.Prediction, error) {
	var (
		q    = predictionSelect
		args []any
	)
	if filter.Confidence != nil {
		args = append(args, *filter.Confidence)
		q += fmt.Sprintf(` WHERE pr.confidence_level = $%d`, len(args))
	}
	q += ` ORDER BY pr.created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		q += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := a.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	predictions := []*core.Prediction{}
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, err
		}
		predictions = append(predictions, p)
	}
	return predictions, rows.Err()
}

func (a *Adapter) UpdatePrediction(ctx context.Context, p *core.Prediction) error {
	q := `UPDATE public.predictions
	      SET match_id = $2, prediction_type = $3, prediction_value = $4, odds = $5, confidence_level = $6,
	          description = $7, result = $8, updated_at = now()
	      WHERE id = $1 RETURNING admin_id, created_at, updated_at`
	err := a.pool.QueryRow(ctx, q,
		p.ID, p.MatchID, p.PredictionType, p.PredictionValue, p.Odds, p.Confidence, p.Description, p.Result,
	).Scan(&p.AdminID, &p.CreatedAt, &p.UpdatedAt)
	if isForeignKeyViolation(err) {
		return core.ErrMatchNotFound
	}
	return notFound(err, core.ErrPredictionNotFound)
}

func (a *Adapter) DeletePrediction(ctx context.Context, id string) error {
	tag, err := a.pool.Exec(ctx, `DELETE FROM public.predictions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.ErrPredictionNotFound
	}
	return nil
}
