package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/bingosvc/models"
)

type CardStore struct {
	db *pgxpool.Pool
}

func NewCardStore(db *pgxpool.Pool) *CardStore {
	return &CardStore{db: db}
}

const cardColumns = `id, numbers, title, game_mode, owner_address, payment_status, tx_hash, created_at, updated_at`

func scanCard(row pgx.Row) (*models.BingoCard, error) {
	card := &models.BingoCard{}
	var numbers string
	err := row.Scan(
		&card.ID,
		&numbers,
		&card.Title,
		&card.GameMode,
		&card.OwnerAddress,
		&card.PaymentStatus,
		&card.TxHash,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // card not found
		}
		return nil, fmt.Errorf("failed to scan card: %w", err)
	}
	if err := json.Unmarshal([]byte(numbers), &card.Numbers); err != nil {
		return nil, fmt.Errorf("failed to decode card numbers: %w", err)
	}
	return card, nil
}

func (s *CardStore) GetByID(ctx context.Context, cardID string) (*models.BingoCard, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = $1`
	return scanCard(s.db.QueryRow(ctx, query, cardID))
}

// ListByOwner returns the cards bought by a wallet, newest first.
func (s *CardStore) ListByOwner(ctx context.Context, ownerAddress string) ([]*models.BingoCard, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE owner_address = $1 ORDER BY created_at DESC`
	rows, err := s.db.Query(ctx, query, ownerAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards by owner: %w", err)
	}
	defer rows.Close()

	var cards []*models.BingoCard
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}
