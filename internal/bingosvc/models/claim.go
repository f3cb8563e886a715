package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ClaimPending  = "pending"
	ClaimVerified = "verified"
	ClaimRejected = "rejected"
)

// Claim snapshots everything needed to audit a bingo call after the fact:
// the card numbers, the marks the player asserted and the authoritative
// called list at the moment of submission.
type Claim struct {
	ID            string           `json:"id"`
	CardID        string           `json:"card_id"`
	WalletAddress string           `json:"wallet_address"`
	MarkedNumbers []int            `json:"marked_numbers"`
	CardNumbers   [][]*int         `json:"card_numbers"`
	Pattern       string           `json:"pattern"`
	GameID        string           `json:"game_id,omitempty"`
	CalledAtClaim []int            `json:"called_numbers_at_claim"`
	Status        string           `json:"status"` // 'pending', 'verified', 'rejected'
	RejectReason  string           `json:"reject_reason,omitempty"`
	PrizeAmount   *decimal.Decimal `json:"prize_amount,omitempty"`
	TxHash        string           `json:"tx_hash,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	ResolvedAt    *time.Time       `json:"resolved_at,omitempty"`
}
