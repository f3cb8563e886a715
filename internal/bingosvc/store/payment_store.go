package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/bingosvc/models"
)

type PaymentStore struct {
	db *pgxpool.Pool
}

func NewPaymentStore(db *pgxpool.Pool) *PaymentStore {
	return &PaymentStore{db: db}
}

// Insert creates the pending payment record before any settlement path
// runs. The unique (from_address, nonce) index rejects a replayed
// authorization instead of settling it twice.
func (s *PaymentStore) Insert(ctx context.Context, payment *models.Payment) error {
	cardIDs, err := json.Marshal(payment.CardIDs)
	if err != nil {
		return fmt.Errorf("failed to encode card ids: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO payments (id, card_ids, wallet_address, from_address, nonce, amount, network, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, payment.ID, string(cardIDs), payment.WalletAddress, payment.FromAddress,
		payment.Nonce, payment.Amount, payment.Network, payment.Status, payment.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUniqueViolation
		}
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

// ExistsByNonce reports whether the same signed authorization was already
// submitted by this sender.
func (s *PaymentStore) ExistsByNonce(ctx context.Context, fromAddress, nonce string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM payments WHERE from_address = $1 AND nonce = $2)`,
		fromAddress, nonce,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check payment nonce: %w", err)
	}
	return exists, nil
}

func (s *PaymentStore) GetByID(ctx context.Context, paymentID string) (*models.Payment, error) {
	payment := &models.Payment{}
	var cardIDs string
	err := s.db.QueryRow(ctx, `
		SELECT id, card_ids, wallet_address, from_address, nonce, amount, network, status, tx_hash, created_at, confirmed_at
		FROM payments WHERE id = $1
	`, paymentID).Scan(
		&payment.ID,
		&cardIDs,
		&payment.WalletAddress,
		&payment.FromAddress,
		&payment.Nonce,
		&payment.Amount,
		&payment.Network,
		&payment.Status,
		&payment.TxHash,
		&payment.CreatedAt,
		&payment.ConfirmedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // payment not found
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	if err := json.Unmarshal([]byte(cardIDs), &payment.CardIDs); err != nil {
		return nil, fmt.Errorf("failed to decode card ids: %w", err)
	}
	return payment, nil
}

// ConfirmPurchaseParams is everything the settlement commit touches.
type ConfirmPurchaseParams struct {
	PaymentID string
	TxRef     string
	Cards     []*models.BingoCard
	Price     decimal.Decimal
	GameID    string // empty when no game is live
}

// ConfirmPurchase applies the post-settlement writes in one transaction:
// payment to confirmed, cards persisted as paid, prize pool and entry count
// bumped on the active game, aggregate stats incremented. A failure on any
// statement rolls the whole purchase back so confirmed cards can never
// exist without a confirmed payment.
func (s *PaymentStore) ConfirmPurchase(ctx context.Context, params ConfirmPurchaseParams) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin purchase tx: %w", err)
	}
	defer tx.Rollback(ctx)

	cardIDs := make([]string, 0, len(params.Cards))
	for _, card := range params.Cards {
		cardIDs = append(cardIDs, card.ID)
	}
	encodedIDs, err := json.Marshal(cardIDs)
	if err != nil {
		return fmt.Errorf("failed to encode card ids: %w", err)
	}

	now := time.Now().UTC()
	tag, err := tx.Exec(ctx, `
		UPDATE payments
		SET status = 'confirmed', tx_hash = $1, card_ids = $2, confirmed_at = $3
		WHERE id = $4 AND status = 'pending'
	`, params.TxRef, string(encodedIDs), now, params.PaymentID)
	if err != nil {
		return fmt.Errorf("failed to confirm payment: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("payment %s is not pending", params.PaymentID)
	}

	for _, card := range params.Cards {
		numbers, err := json.Marshal(card.Numbers)
		if err != nil {
			return fmt.Errorf("failed to encode card numbers: %w", err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO cards (id, numbers, title, game_mode, owner_address, payment_status, tx_hash, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, 'confirmed', $6, $7, $7)
		`, card.ID, string(numbers), card.Title, card.GameMode, card.OwnerAddress, params.TxRef, now)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrUniqueViolation
			}
			return fmt.Errorf("failed to insert card %s: %w", card.ID, err)
		}
	}

	if params.GameID != "" {
		_, err = tx.Exec(ctx, `
			UPDATE games
			SET prize_pool = prize_pool + $1, total_entries = total_entries + $2
			WHERE id = $3 AND status = 'active'
		`, params.Price, len(params.Cards), params.GameID)
		if err != nil {
			return fmt.Errorf("failed to update prize pool: %w", err)
		}
	}

	_, err = tx.Exec(ctx, `
		UPDATE stats
		SET total_cards_sold = total_cards_sold + $1,
		    total_revenue = total_revenue + $2,
		    updated_at = now()
	`, len(params.Cards), params.Price)
	if err != nil {
		return fmt.Errorf("failed to update stats: %w", err)
	}

	return tx.Commit(ctx)
}
