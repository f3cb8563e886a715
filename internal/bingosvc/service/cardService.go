package service

import (
	"context"

	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/bingo"
	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/bingosvc/models"
)

type CardService struct {
	cards     CardRepo
	generator *bingo.Generator
}

func NewCardService(cards CardRepo) *CardService {
	return &CardService{cards: cards, generator: bingo.NewGenerator()}
}

// Generate produces fresh unpaid cards for the storefront preview.
func (s *CardService) Generate(count int, mode, title string) ([]*models.BingoCard, error) {
	if count < 1 {
		count = 1
	}
	cards := make([]*models.BingoCard, 0, count)
	for i := 0; i < count; i++ {
		card, err := s.generator.Generate(mode, title)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, nil
}

func (s *CardService) Get(ctx context.Context, cardID string) (*models.BingoCard, error) {
	card, err := s.cards.GetByID(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, ErrNotFound
	}
	return card, nil
}

func (s *CardService) ListByOwner(ctx context.Context, ownerAddress string) ([]*models.BingoCard, error) {
	return s.cards.ListByOwner(ctx, ownerAddress)
}

// Verification is the server-trusted view of a card against a called list.
type Verification struct {
	HasBingo      bool  `json:"hasBingo"`
	MarkedNumbers []int `json:"markedNumbers"`
	TotalNumbers  int   `json:"totalNumbers"`
	CalledCount   int   `json:"calledCount"`
}

// Verify re-derives the marked state of a card purely from the called
// list. Only numbers independently confirmed called count as marked.
func (s *CardService) Verify(ctx context.Context, cardID string, calledNumbers []int, pattern string) (*models.BingoCard, *Verification, error) {
	card, err := s.Get(ctx, cardID)
	if err != nil {
		return nil, nil, err
	}
	if pattern == "" {
		pattern = bingo.PatternLine
	}

	called := make(map[int]bool, len(calledNumbers))
	for _, n := range calledNumbers {
		called[n] = true
	}

	var markedNumbers []int
	total := 0
	for _, row := range card.Numbers {
		for _, cell := range row {
			if cell == nil {
				continue
			}
			total++
			if called[*cell] {
				markedNumbers = append(markedNumbers, *cell)
			}
		}
	}

	marked := bingo.Reconstruct(card.Numbers, markedNumbers)
	return card, &Verification{
		HasBingo:      bingo.CheckWin(card.Numbers, marked, pattern),
		MarkedNumbers: markedNumbers,
		TotalNumbers:  total,
		CalledCount:   len(calledNumbers),
	}, nil
}
