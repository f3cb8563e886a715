package models

import "time"

// BingoCard numbers are row-major; a nil cell is the free cell (75-ball
// center) or an empty 90-ball cell. Numbers are immutable once the card
// is paid for; Marked is client-side play state and is never trusted for
// adjudication.
type BingoCard struct {
	ID            string    `json:"id"`
	Numbers       [][]*int  `json:"numbers"`
	Marked        [][]bool  `json:"marked"`
	Title         string    `json:"title,omitempty"`
	GameMode      string    `json:"game_mode"`
	OwnerAddress  string    `json:"owner_address,omitempty"`
	PaymentStatus string    `json:"payment_status"` // 'ready', 'confirmed'
	TxHash        string    `json:"tx_hash,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

const (
	CardReady     = "ready"
	CardConfirmed = "confirmed"
)
