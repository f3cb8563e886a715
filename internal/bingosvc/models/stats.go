package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stats is a single aggregate row updated in-place alongside card, claim
// and payment writes.
type Stats struct {
	TotalCardsSold int             `json:"totalCardsSold"`
	TotalRevenue   decimal.Decimal `json:"totalRevenue"`
	TotalWinners   int             `json:"totalWinners"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
