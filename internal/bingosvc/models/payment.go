package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PaymentPending   = "pending"
	PaymentConfirmed = "confirmed"
)

// Payment is created in 'pending' before any settlement path runs and is
// confirmed atomically with the cards it paid for. (FromAddress, Nonce)
// is unique so a replayed authorization is rejected instead of settled twice.
type Payment struct {
	ID            string          `json:"id"`
	CardIDs       []string        `json:"card_ids"`
	WalletAddress string          `json:"wallet_address"`
	FromAddress   string          `json:"from_address"`
	Nonce         string          `json:"nonce"`
	Amount        decimal.Decimal `json:"amount"`
	Network       string          `json:"network"`
	Status        string          `json:"status"` // 'pending', 'confirmed'
	TxHash        string          `json:"tx_hash,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	ConfirmedAt   *time.Time      `json:"confirmed_at,omitempty"`
}
