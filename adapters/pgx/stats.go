package pgx

import (
	"context"
	"time"

	"github.com/lborres/coupons/core"
)

func (a *Adapter) AdminStats(ctx context.Context, today time.Time) (*core.AdminStats, error) {
	today = core.DateOf(today)
	stats := &core.AdminStats{
		UsersByTier:         map[core.Tier]int{core.TierFree: 0, core.TierStandard: 0, core.TierVIP: 0},
		PredictionsByResult: map[core.PredictionResult]int{core.ResultPending: 0, core.ResultWon: 0, core.ResultLost: 0},
	}

	err := a.pool.QueryRow(ctx, `SELECT
	        (SELECT count(*) FROM public.profiles WHERE is_admin),
	        (SELECT count(*) FROM public.payment_requests WHERE status = 'pending'),
	        (SELECT count(*) FROM public.custom_promo_codes WHERE status = 'pending'),
	        (SELECT count(*) FROM public.matches WHERE match_date >= $1 AND match_date < $2)`,
		today, today.AddDate(0, 0, 1),
	).Scan(&stats.Admins, &stats.PendingPayments, &stats.PendingPromoCodes, &stats.MatchesToday)
	if err != nil {
		return nil, err
	}

	rows, err := a.pool.Query(ctx, `SELECT subscription_type, count(*) FROM public.profiles GROUP BY subscription_type`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var tier core.Tier
		var n int
		if err := rows.Scan(&tier, &n); err != nil {
			rows.Close()
			return nil, err
		}
		stats.UsersByTier[tier] = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = a.pool.Query(ctx, `SELECT result, count(*) FROM public.predictions GROUP BY result`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var result core.PredictionResult
		var n int
		if err := rows.Scan(&result, &n); err != nil {
			return nil, err
		}
		stats.PredictionsByResult[result] = n
	}
	return stats, rows.Err()
}
