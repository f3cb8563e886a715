package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/bingosvc/models"
)

type GameStore struct {
	db *pgxpool.Pool
}

func NewGameStore(db *pgxpool.Pool) *GameStore {
	return &GameStore{db: db}
}

const gameColumns = `id, name, mode, called_numbers, current_number, status, prize_pool, total_entries, version, created_at, ended_at`

func scanGame(row pgx.Row) (*models.Game, error) {
	game := &models.Game{}
	var called string
	err := row.Scan(
		&game.ID,
		&game.Name,
		&game.Mode,
		&called,
		&game.CurrentNumber,
		&game.Status,
		&game.PrizePool,
		&game.TotalEntries,
		&game.Version,
		&game.CreatedAt,
		&game.EndedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // game not found
		}
		return nil, fmt.Errorf("failed to scan game: %w", err)
	}
	if err := json.Unmarshal([]byte(called), &game.CalledNumbers); err != nil {
		return nil, fmt.Errorf("failed to decode called numbers: %w", err)
	}
	return game, nil
}

// Insert creates a new active game. A partial unique index on status makes
// a second concurrent insert fail instead of producing two active games.
func (s *GameStore) Insert(ctx context.Context, game *models.Game) error {
	called, err := json.Marshal(game.CalledNumbers)
	if err != nil {
		return fmt.Errorf("failed to encode called numbers: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO games (id, name, mode, called_numbers, current_number, status, prize_pool, total_entries, version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, game.ID, game.Name, game.Mode, string(called), game.CurrentNumber,
		game.Status, game.PrizePool, game.TotalEntries, game.Version, game.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUniqueViolation
		}
		return fmt.Errorf("failed to insert game: %w", err)
	}
	return nil
}

func (s *GameStore) GetByID(ctx context.Context, gameID string) (*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE id = $1`
	return scanGame(s.db.QueryRow(ctx, query, gameID))
}

// GetActive returns the single active game, or nil when no game is live.
func (s *GameStore) GetActive(ctx context.Context) (*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE status = 'active' LIMIT 1`
	return scanGame(s.db.QueryRow(ctx, query))
}

// UpdateCalled overwrites the called-number state. The version check keeps
// two concurrent callers from both appending onto the same snapshot.
func (s *GameStore) UpdateCalled(ctx context.Context, gameID string, called []int, current *int, version int) error {
	encoded, err := json.Marshal(called)
	if err != nil {
		return fmt.Errorf("failed to encode called numbers: %w", err)
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE games
		SET called_numbers = $1, current_number = $2, version = version + 1
		WHERE id = $3 AND status = 'active' AND version = $4
	`, string(encoded), current, gameID, version)
	if err != nil {
		return fmt.Errorf("failed to update called numbers: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return ErrStaleVersion
	}
	return nil
}

// End marks the game ended. Ending a non-active game reports ErrNotActive.
func (s *GameStore) End(ctx context.Context, gameID string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE games
		SET status = 'ended', ended_at = now()
		WHERE id = $1 AND status = 'active'
	`, gameID)
	if err != nil {
		return fmt.Errorf("failed to end game: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return ErrNotActive
	}
	return nil
}

// AddPrize bumps the prize pool and entry count with a single in-place
// increment; the pool is monotonically non-decreasing.
func (s *GameStore) AddPrize(ctx context.Context, gameID string, amount decimal.Decimal, entries int) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE games
		SET prize_pool = prize_pool + $1, total_entries = total_entries + $2
		WHERE id = $3 AND status = 'active'
	`, amount, entries, gameID)
	if err != nil {
		return fmt.Errorf("failed to add to prize pool: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return ErrNotActive
	}
	return nil
}
