package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/bingo"
	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/bingosvc/models"
	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/bingosvc/store"
	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/comm"
)

type ClaimRepo interface {
	Insert(ctx context.Context, claim *models.Claim) error
	GetByID(ctx context.Context, claimID string) (*models.Claim, error)
	HasOpenClaim(ctx context.Context, cardID string) (bool, error)
	Resolve(ctx context.Context, claimID, status, reason string, prize *decimal.Decimal) (*models.Claim, error)
	ListByGame(ctx context.Context, gameID string) ([]*models.Claim, error)
}

type CardRepo interface {
	GetByID(ctx context.Context, cardID string) (*models.BingoCard, error)
	ListByOwner(ctx context.Context, ownerAddress string) ([]*models.BingoCard, error)
}

type WinnerRepo interface {
	Insert(ctx context.Context, winner *models.Winner) error
	MarkPaid(ctx context.Context, winnerID, txHash string) error
	ListByGame(ctx context.Context, gameID string) ([]*models.Winner, error)
}

type StatsRepo interface {
	Get(ctx context.Context) (*models.Stats, error)
	AddWinner(ctx context.Context) error
}

type ClaimService struct {
	claims  ClaimRepo
	cards   CardRepo
	games   GameRepo
	winners WinnerRepo
	stats   StatsRepo
	pub     Publisher
}

func NewClaimService(claims ClaimRepo, cards CardRepo, games GameRepo,
	winners WinnerRepo, stats StatsRepo, pub Publisher) *ClaimService {
	return &ClaimService{
		claims:  claims,
		cards:   cards,
		games:   games,
		winners: winners,
		stats:   stats,
		pub:     pub,
	}
}

type SubmitClaimRequest struct {
	CardID        string `json:"cardId"`
	WalletAddress string `json:"walletAddress"`
	MarkedNumbers []int  `json:"markedNumbers"`
	Pattern       string `json:"pattern"`
}

// Submit validates and records a bingo claim. The card's marked matrix is
// rebuilt server-side from the submitted number list: a cell counts only if
// it is the free cell or its number is in markedNumbers, and every marked
// number must actually have been called. Client-side marked booleans are
// never consulted.
func (s *ClaimService) Submit(ctx context.Context, req SubmitClaimRequest) (*models.Claim, error) {
	if req.CardID == "" {
		return nil, invalidf("cardId", "cardId is required")
	}
	if req.WalletAddress == "" {
		return nil, invalidf("walletAddress", "walletAddress is required")
	}
	if req.Pattern == "" {
		req.Pattern = bingo.PatternLine
	}

	card, err := s.cards.GetByID(ctx, req.CardID)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, ErrNotFound
	}

	open, err := s.claims.HasOpenClaim(ctx, req.CardID)
	if err != nil {
		return nil, err
	}
	if open {
		return nil, conflictf("card %s already has a claim under review or verified", req.CardID)
	}

	marked := bingo.Reconstruct(card.Numbers, req.MarkedNumbers)
	if !bingo.CheckWin(card.Numbers, marked, req.Pattern) {
		return nil, invalidf("", "invalid claim: pattern %q is not satisfied", req.Pattern)
	}

	game, err := s.games.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	var gameID string
	var calledSnapshot []int
	if game != nil {
		gameID = game.ID
		calledSnapshot = append([]int(nil), game.CalledNumbers...)
		if len(game.CalledNumbers) > 0 {
			called := make(map[int]bool, len(game.CalledNumbers))
			for _, n := range game.CalledNumbers {
				called[n] = true
			}
			for _, n := range req.MarkedNumbers {
				if !called[n] {
					return nil, invalidf("markedNumbers", "number %d was never called", n)
				}
			}
		}
	}

	claim := &models.Claim{
		ID:            uuid.New().String(),
		CardID:        card.ID,
		WalletAddress: req.WalletAddress,
		MarkedNumbers: append([]int(nil), req.MarkedNumbers...),
		CardNumbers:   card.Numbers,
		Pattern:       req.Pattern,
		GameID:        gameID,
		CalledAtClaim: calledSnapshot,
		Status:        models.ClaimPending,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.claims.Insert(ctx, claim); err != nil {
		if errors.Is(err, store.ErrUniqueViolation) {
			return nil, conflictf("card %s already has a claim under review or verified", req.CardID)
		}
		return nil, err
	}

	s.publish(comm.TypeClaimUpdated, comm.ClaimUpdate{
		ClaimID: claim.ID, CardID: claim.CardID, Status: claim.Status,
	})
	return claim, nil
}

const (
	ResolveVerify = "verify"
	ResolveReject = "reject"
)

// Resolve adjudicates a pending claim. Verification snapshots the game's
// prize pool into the claim and records a pending winner; rejection
// requires a reason and frees the card for another claim.
func (s *ClaimService) Resolve(ctx context.Context, claimID, action, reason string) (*models.Claim, error) {
	claim, err := s.claims.GetByID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if claim == nil {
		return nil, ErrNotFound
	}
	if claim.Status != models.ClaimPending {
		return nil, conflictf("claim is already %s", claim.Status)
	}

	switch action {
	case ResolveVerify:
		return s.verify(ctx, claim)
	case ResolveReject:
		if reason == "" {
			return nil, invalidf("reason", "a reason is required to reject a claim")
		}
		return s.reject(ctx, claim, reason)
	default:
		return nil, invalidf("action", "action must be %q or %q", ResolveVerify, ResolveReject)
	}
}

func (s *ClaimService) verify(ctx context.Context, claim *models.Claim) (*models.Claim, error) {
	var prize *decimal.Decimal
	if claim.GameID != "" {
		game, err := s.games.GetByID(ctx, claim.GameID)
		if err != nil {
			return nil, err
		}
		if game != nil {
			p := game.PrizePool
			prize = &p
		}
	}

	resolved, err := s.claims.Resolve(ctx, claim.ID, models.ClaimVerified, "", prize)
	if err != nil {
		return nil, err
	}
	if resolved == nil {
		return nil, conflictf("claim was resolved concurrently")
	}

	if prize != nil {
		winner := &models.Winner{
			ID:            uuid.New().String(),
			GameID:        claim.GameID,
			ClaimID:       claim.ID,
			WalletAddress: claim.WalletAddress,
			CardID:        claim.CardID,
			Pattern:       claim.Pattern,
			PrizeAmount:   *prize,
			Status:        models.WinnerPending,
			CreatedAt:     time.Now().UTC(),
		}
		if err := s.winners.Insert(ctx, winner); err != nil {
			log.Errorf("Error recording winner for claim %s: %s", claim.ID, err)
		}
	}
	if err := s.stats.AddWinner(ctx); err != nil {
		log.Errorf("Error incrementing winner stats: %s", err)
	}

	s.publish(comm.TypeClaimUpdated, comm.ClaimUpdate{
		ClaimID: resolved.ID, CardID: resolved.CardID, Status: resolved.Status,
	})
	return resolved, nil
}

func (s *ClaimService) reject(ctx context.Context, claim *models.Claim, reason string) (*models.Claim, error) {
	resolved, err := s.claims.Resolve(ctx, claim.ID, models.ClaimRejected, reason, nil)
	if err != nil {
		return nil, err
	}
	if resolved == nil {
		return nil, conflictf("claim was resolved concurrently")
	}

	s.publish(comm.TypeClaimUpdated, comm.ClaimUpdate{
		ClaimID: resolved.ID, CardID: resolved.CardID, Status: resolved.Status, Reason: reason,
	})
	return resolved, nil
}

// GameClaims returns a game's claims, newest first.
func (s *ClaimService) GameClaims(ctx context.Context, gameID string) ([]*models.Claim, error) {
	if gameID == "" {
		return nil, invalidf("gameId", "gameId is required")
	}
	return s.claims.ListByGame(ctx, gameID)
}

// GameWinners returns a game's recorded winners in verification order.
func (s *ClaimService) GameWinners(ctx context.Context, gameID string) ([]*models.Winner, error) {
	if gameID == "" {
		return nil, invalidf("gameId", "gameId is required")
	}
	return s.winners.ListByGame(ctx, gameID)
}

// MarkWinnerPaid records the payout transaction for a pending winner.
func (s *ClaimService) MarkWinnerPaid(ctx context.Context, winnerID, gameID, txHash string) error {
	if txHash == "" {
		return invalidf("transactionHash", "transactionHash is required")
	}
	if err := s.winners.MarkPaid(ctx, winnerID, txHash); err != nil {
		if errors.Is(err, store.ErrNoPendingWinner) {
			return conflictf("winner %s has no pending payout", winnerID)
		}
		return err
	}

	s.publish(comm.TypeWinnerPaid, comm.WinnerPaid{
		WinnerID: winnerID, GameID: gameID, TxHash: txHash,
	})
	return nil
}

func (s *ClaimService) publish(msgType string, payload interface{}) {
	if s.pub == nil {
		return
	}
	if err := s.pub.Publish(msgType, payload); err != nil {
		log.Errorf("Error publishing %s event: %s", msgType, err)
	}
}
