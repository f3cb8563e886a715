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

type ClaimStore struct {
	db *pgxpool.Pool
}

func NewClaimStore(db *pgxpool.Pool) *ClaimStore {
	return &ClaimStore{db: db}
}

const claimColumns = `id, card_id, wallet_address, marked_numbers, card_numbers, pattern, game_id, called_at_claim, status, reject_reason, prize_amount, tx_hash, created_at, resolved_at`

func scanClaim(row pgx.Row) (*models.Claim, error) {
	claim := &models.Claim{}
	var marked, cardNumbers, calledAt string
	err := row.Scan(
		&claim.ID,
		&claim.CardID,
		&claim.WalletAddress,
		&marked,
		&cardNumbers,
		&claim.Pattern,
		&claim.GameID,
		&calledAt,
		&claim.Status,
		&claim.RejectReason,
		&claim.PrizeAmount,
		&claim.TxHash,
		&claim.CreatedAt,
		&claim.ResolvedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // claim not found
		}
		return nil, fmt.Errorf("failed to scan claim: %w", err)
	}
	if err := json.Unmarshal([]byte(marked), &claim.MarkedNumbers); err != nil {
		return nil, fmt.Errorf("failed to decode marked numbers: %w", err)
	}
	if err := json.Unmarshal([]byte(cardNumbers), &claim.CardNumbers); err != nil {
		return nil, fmt.Errorf("failed to decode card numbers: %w", err)
	}
	if err := json.Unmarshal([]byte(calledAt), &claim.CalledAtClaim); err != nil {
		return nil, fmt.Errorf("failed to decode called-at-claim snapshot: %w", err)
	}
	return claim, nil
}

// Insert persists a pending claim. The partial unique index on card_id
// (status pending/verified) backs the one-open-claim-per-card invariant
// even when two submissions race past the service-level check.
func (s *ClaimStore) Insert(ctx context.Context, claim *models.Claim) error {
	marked, err := json.Marshal(claim.MarkedNumbers)
	if err != nil {
		return fmt.Errorf("failed to encode marked numbers: %w", err)
	}
	cardNumbers, err := json.Marshal(claim.CardNumbers)
	if err != nil {
		return fmt.Errorf("failed to encode card numbers: %w", err)
	}
	calledAt, err := json.Marshal(claim.CalledAtClaim)
	if err != nil {
		return fmt.Errorf("failed to encode called-at-claim snapshot: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO claims (id, card_id, wallet_address, marked_numbers, card_numbers, pattern, game_id, called_at_claim, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, claim.ID, claim.CardID, claim.WalletAddress, string(marked), string(cardNumbers),
		claim.Pattern, claim.GameID, string(calledAt), claim.Status, claim.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUniqueViolation
		}
		return fmt.Errorf("failed to insert claim: %w", err)
	}
	return nil
}

func (s *ClaimStore) GetByID(ctx context.Context, claimID string) (*models.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims WHERE id = $1`
	return scanClaim(s.db.QueryRow(ctx, query, claimID))
}

// HasOpenClaim reports whether the card already has a pending or verified
// claim. Rejected claims do not block resubmission.
func (s *ClaimStore) HasOpenClaim(ctx context.Context, cardID string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM claims
			WHERE card_id = $1 AND status IN ('pending', 'verified')
		)
	`, cardID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check open claims: %w", err)
	}
	return exists, nil
}

// Resolve transitions a pending claim to verified or rejected. The WHERE
// clause on status makes double resolution lose cleanly: zero rows means
// the claim was not pending (or does not exist) and the caller re-reads it.
func (s *ClaimStore) Resolve(ctx context.Context, claimID, status, reason string, prize *decimal.Decimal) (*models.Claim, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE claims
		SET status = $1, reject_reason = $2, prize_amount = $3, resolved_at = $4
		WHERE id = $5 AND status = 'pending'
	`, status, reason, prize, time.Now().UTC(), claimID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve claim: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return nil, nil // not pending, caller reports current status
	}
	return s.GetByID(ctx, claimID)
}

// ListByGame returns a game's claims, newest first.
func (s *ClaimStore) ListByGame(ctx context.Context, gameID string) ([]*models.Claim, error) {
	rows, err := s.db.Query(ctx, `SELECT `+claimColumns+` FROM claims WHERE game_id = $1 ORDER BY created_at DESC`, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}
	defer rows.Close()

	var claims []*models.Claim
	for rows.Next() {
		claim, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		claims = append(claims, claim)
	}
	return claims, rows.Err()
}
