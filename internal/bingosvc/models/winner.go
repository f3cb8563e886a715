package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	WinnerPending = "pending"
	WinnerPaid    = "paid"
)

type Winner struct {
	ID            string          `json:"id"`
	GameID        string          `json:"game_id"`
	ClaimID       string          `json:"claim_id"`
	WalletAddress string          `json:"wallet_address"`
	CardID        string          `json:"card_id"`
	Pattern       string          `json:"pattern"`
	PrizeAmount   decimal.Decimal `json:"prize_amount"`
	Status        string          `json:"status"` // 'pending', 'paid'
	TxHash        string          `json:"tx_hash,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
}
