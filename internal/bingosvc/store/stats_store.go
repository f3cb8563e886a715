package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/bingosvc/models"
)

// StatsStore owns the single aggregate row seeded by the migrations.
type StatsStore struct {
	db *pgxpool.Pool
}

func NewStatsStore(db *pgxpool.Pool) *StatsStore {
	return &StatsStore{db: db}
}

func (s *StatsStore) Get(ctx context.Context) (*models.Stats, error) {
	stats := &models.Stats{}
	err := s.db.QueryRow(ctx, `
		SELECT total_cards_sold, total_revenue, total_winners, updated_at FROM stats
	`).Scan(&stats.TotalCardsSold, &stats.TotalRevenue, &stats.TotalWinners, &stats.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return stats, nil
}

// AddWinner bumps the winner counter in place.
func (s *StatsStore) AddWinner(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		UPDATE stats SET total_winners = total_winners + 1, updated_at = now()
	`)
	if err != nil {
		return fmt.Errorf("failed to increment winner count: %w", err)
	}
	return nil
}
