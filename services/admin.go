package services

import (
	"context"
	"fmt"
	"time"

	"github.com/lborres/coupons/core"
)

type AdminService struct {
	stats core.StatsStorage
	now   func() time.Time
}

func NewAdminService(stats core.StatsStorage) *AdminService {
	return &AdminService{stats: stats, now: time.Now}
}

// Stats returns the counters of the admin home screen.
func (s *AdminService) Stats(ctx context.Context) (*core.AdminStats, error) {
	stats, err := s.stats.AdminStats(ctx, core.DateOf(s.now()))
	if err != nil {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}
	return stats, nil
}
