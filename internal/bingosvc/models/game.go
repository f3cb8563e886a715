package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	Mode75 = "1-75"
	Mode90 = "1-90"
)

const (
	GameActive = "active"
	GameEnded  = "ended"
)

// Game is the single source of truth for a live round. CalledNumbers is an
// append-only sequence during play (uncall pops the tail); Version guards
// concurrent writers with an optimistic check.
type Game struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Mode          string          `json:"mode"` // '1-75' or '1-90'
	CalledNumbers []int           `json:"calledNumbers"`
	CurrentNumber *int            `json:"currentNumber"`
	Status        string          `json:"status"`
	PrizePool     decimal.Decimal `json:"prizePool"`
	TotalEntries  int             `json:"totalEntries"`
	Version       int             `json:"-"`
	CreatedAt     time.Time       `json:"created_at"`
	EndedAt       *time.Time      `json:"ended_at,omitempty"`
}

// MaxNumber is the top of the callable range for the game's mode.
func (g *Game) MaxNumber() int {
	if g.Mode == Mode90 {
		return 90
	}
	return 75
}
