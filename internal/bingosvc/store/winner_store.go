package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/bingosvc/models"
)

type WinnerStore struct {
	db *pgxpool.Pool
}

func NewWinnerStore(db *pgxpool.Pool) *WinnerStore {
	return &WinnerStore{db: db}
}

func (s *WinnerStore) Insert(ctx context.Context, winner *models.Winner) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO winners (id, game_id, claim_id, wallet_address, card_id, pattern, prize_amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, winner.ID, winner.GameID, winner.ClaimID, winner.WalletAddress,
		winner.CardID, winner.Pattern, winner.PrizeAmount, winner.Status, winner.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert winner: %w", err)
	}
	return nil
}

// MarkPaid records the payout transaction for a pending winner.
func (s *WinnerStore) MarkPaid(ctx context.Context, winnerID, txHash string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE winners
		SET status = 'paid', tx_hash = $1, paid_at = now()
		WHERE id = $2 AND status = 'pending'
	`, txHash, winnerID)
	if err != nil {
		return fmt.Errorf("failed to mark winner paid: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("winner %s: %w", winnerID, ErrNoPendingWinner)
	}
	return nil
}

func (s *WinnerStore) ListByGame(ctx context.Context, gameID string) ([]*models.Winner, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, game_id, claim_id, wallet_address, card_id, pattern, prize_amount, status, tx_hash, created_at, paid_at
		FROM winners WHERE game_id = $1 ORDER BY created_at
	`, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to list winners: %w", err)
	}
	defer rows.Close()

	var winners []*models.Winner
	for rows.Next() {
		w := &models.Winner{}
		if err := rows.Scan(&w.ID, &w.GameID, &w.ClaimID, &w.WalletAddress, &w.CardID,
			&w.Pattern, &w.PrizeAmount, &w.Status, &w.TxHash, &w.CreatedAt, &w.PaidAt); err != nil {
			return nil, fmt.Errorf("failed to scan winner: %w", err)
		}
		winners = append(winners, w)
	}
	return winners, rows.Err()
}
