package service

import (
	"context"

	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/bingosvc/models"
)

type StatsService struct {
	stats StatsRepo
}

func NewStatsService(stats StatsRepo) *StatsService {
	return &StatsService{stats: stats}
}

func (s *StatsService) Get(ctx context.Context) (*models.Stats, error) {
	return s.stats.Get(ctx)
}
