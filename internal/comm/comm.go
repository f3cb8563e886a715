// Package comm holds the message types shared between the bingo API, the
// auto-caller, the websocket relay and robot players.
package comm

import "encoding/json"

// Subjects the services publish and subscribe on.
const (
	SubjectGameEvents = "game.events"
)

// Message types carried on SubjectGameEvents.
const (
	TypeNumberCalled   = "number-called"
	TypeNumberUncalled = "number-uncalled"
	TypeCalledSynced   = "called-synced"
	TypeGameCreated    = "game-created"
	TypeGameEnded      = "game-ended"
	TypePrizePool      = "prize-pool-updated"
	TypeClaimUpdated   = "claim-updated"
	TypeWinnerPaid     = "winner-paid"
)

// WSMessage is the envelope for both NATS and WebSocket traffic.
type WSMessage struct {
	Type     string          `json:"type"`
	Data     json.RawMessage `json:"data"`
	SocketId string          `json:"socketid,omitempty"`
}

// CallMessage announces a called (or uncalled) number together with the
// full history so late listeners can catch up from one message.
type CallMessage struct {
	GameID  string `json:"gameId"`
	Number  int    `json:"number"`
	Current *int   `json:"current"`
	History []int  `json:"history"`
}

type GameLifecycle struct {
	GameID string `json:"gameId"`
	Name   string `json:"name,omitempty"`
	Mode   string `json:"mode,omitempty"`
	Status string `json:"status"`
}

type PrizePoolUpdate struct {
	GameID       string `json:"gameId"`
	PrizePool    string `json:"prizePool"`
	TotalEntries int    `json:"totalEntries"`
}

type ClaimUpdate struct {
	ClaimID string `json:"claimId"`
	CardID  string `json:"cardId"`
	Status  string `json:"status"`
	Reason  string `json:"reason,omitempty"`
}

type WinnerPaid struct {
	WinnerID string `json:"winnerId"`
	GameID   string `json:"gameId"`
	TxHash   string `json:"txHash"`
}
