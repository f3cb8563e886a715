package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/bingosvc/models"
	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/bingosvc/store"
	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/x402"
)

// In-memory repository fakes mirroring the store package's contracts,
// including its sentinel errors, so the services can be exercised without
// Postgres.

type fakeGameRepo struct {
	mu    sync.Mutex
	games map[string]*models.Game
}

func newFakeGameRepo() *fakeGameRepo {
	return &fakeGameRepo{games: map[string]*models.Game{}}
}

func cloneGame(g *models.Game) *models.Game {
	cp := *g
	cp.CalledNumbers = append([]int(nil), g.CalledNumbers...)
	if g.CurrentNumber != nil {
		n := *g.CurrentNumber
		cp.CurrentNumber = &n
	}
	return &cp
}

func (f *fakeGameRepo) Insert(_ context.Context, game *models.Game) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.games {
		if g.Status == models.GameActive && game.Status == models.GameActive {
			return store.ErrUniqueViolation
		}
	}
	f.games[game.ID] = cloneGame(game)
	return nil
}

func (f *fakeGameRepo) GetByID(_ context.Context, gameID string) (*models.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.games[gameID]
	if !ok {
		return nil, nil
	}
	return cloneGame(g), nil
}

func (f *fakeGameRepo) GetActive(_ context.Context) (*models.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.games {
		if g.Status == models.GameActive {
			return cloneGame(g), nil
		}
	}
	return nil, nil
}

func (f *fakeGameRepo) UpdateCalled(_ context.Context, gameID string, called []int, current *int, version int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.games[gameID]
	if !ok || g.Status != models.GameActive || g.Version != version {
		return store.ErrStaleVersion
	}
	g.CalledNumbers = append([]int(nil), called...)
	g.CurrentNumber = current
	g.Version++
	return nil
}

func (f *fakeGameRepo) End(_ context.Context, gameID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.games[gameID]
	if !ok || g.Status != models.GameActive {
		return store.ErrNotActive
	}
	g.Status = models.GameEnded
	return nil
}

func (f *fakeGameRepo) AddPrize(_ context.Context, gameID string, amount decimal.Decimal, entries int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.games[gameID]
	if !ok || g.Status != models.GameActive {
		return store.ErrNotActive
	}
	g.PrizePool = g.PrizePool.Add(amount)
	g.TotalEntries += entries
	return nil
}

type fakeCardRepo struct {
	mu    sync.Mutex
	cards map[string]*models.BingoCard
}

func newFakeCardRepo() *fakeCardRepo {
	return &fakeCardRepo{cards: map[string]*models.BingoCard{}}
}

func (f *fakeCardRepo) put(card *models.BingoCard) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cards[card.ID] = card
}

func (f *fakeCardRepo) GetByID(_ context.Context, cardID string) (*models.BingoCard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cards[cardID], nil
}

func (f *fakeCardRepo) ListByOwner(_ context.Context, owner string) ([]*models.BingoCard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.BingoCard
	for _, c := range f.cards {
		if c.OwnerAddress == owner {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeClaimRepo struct {
	mu     sync.Mutex
	claims map[string]*models.Claim
}

func newFakeClaimRepo() *fakeClaimRepo {
	return &fakeClaimRepo{claims: map[string]*models.Claim{}}
}

func (f *fakeClaimRepo) Insert(_ context.Context, claim *models.Claim) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.claims {
		if c.CardID == claim.CardID && (c.Status == models.ClaimPending || c.Status == models.ClaimVerified) {
			return store.ErrUniqueViolation
		}
	}
	cp := *claim
	f.claims[claim.ID] = &cp
	return nil
}

func (f *fakeClaimRepo) GetByID(_ context.Context, claimID string) (*models.Claim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.claims[claimID]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (f *fakeClaimRepo) HasOpenClaim(_ context.Context, cardID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.claims {
		if c.CardID == cardID && (c.Status == models.ClaimPending || c.Status == models.ClaimVerified) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeClaimRepo) Resolve(_ context.Context, claimID, status, reason string, prize *decimal.Decimal) (*models.Claim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.claims[claimID]
	if !ok || c.Status != models.ClaimPending {
		return nil, nil
	}
	c.Status = status
	c.RejectReason = reason
	c.PrizeAmount = prize
	cp := *c
	return &cp, nil
}

func (f *fakeClaimRepo) ListByGame(_ context.Context, gameID string) ([]*models.Claim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Claim
	for _, c := range f.claims {
		if c.GameID == gameID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

type confirmedPurchase struct {
	params store.ConfirmPurchaseParams
}

type fakePaymentRepo struct {
	mu        sync.Mutex
	payments  map[string]*models.Payment
	nonces    map[string]bool
	confirmed []confirmedPurchase
	cards     *fakeCardRepo // confirmed cards land here, like the real tx
	failNext  error
}

func newFakePaymentRepo(cards *fakeCardRepo) *fakePaymentRepo {
	return &fakePaymentRepo{
		payments: map[string]*models.Payment{},
		nonces:   map[string]bool{},
		cards:    cards,
	}
}

func nonceKey(from, nonce string) string { return from + "|" + nonce }

func (f *fakePaymentRepo) Insert(_ context.Context, payment *models.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := nonceKey(payment.FromAddress, payment.Nonce)
	if f.nonces[key] {
		return store.ErrUniqueViolation
	}
	f.nonces[key] = true
	cp := *payment
	f.payments[payment.ID] = &cp
	return nil
}

func (f *fakePaymentRepo) ExistsByNonce(_ context.Context, from, nonce string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nonces[nonceKey(from, nonce)], nil
}

func (f *fakePaymentRepo) ConfirmPurchase(_ context.Context, params store.ConfirmPurchaseParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return err
	}
	p, ok := f.payments[params.PaymentID]
	if !ok || p.Status != models.PaymentPending {
		return fmt.Errorf("payment %s is not pending", params.PaymentID)
	}
	p.Status = models.PaymentConfirmed
	p.TxHash = params.TxRef
	f.confirmed = append(f.confirmed, confirmedPurchase{params: params})
	if f.cards != nil {
		for _, card := range params.Cards {
			f.cards.put(card)
		}
	}
	return nil
}

type fakeWinnerRepo struct {
	mu      sync.Mutex
	winners []*models.Winner
}

func (f *fakeWinnerRepo) Insert(_ context.Context, winner *models.Winner) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.winners = append(f.winners, winner)
	return nil
}

func (f *fakeWinnerRepo) MarkPaid(_ context.Context, winnerID, txHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, w := range f.winners {
		if w.ID == winnerID && w.Status == models.WinnerPending {
			w.Status = models.WinnerPaid
			w.TxHash = txHash
			return nil
		}
	}
	return store.ErrNoPendingWinner
}

func (f *fakeWinnerRepo) ListByGame(_ context.Context, gameID string) ([]*models.Winner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Winner
	for _, w := range f.winners {
		if w.GameID == gameID {
			cp := *w
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeStatsRepo struct {
	mu      sync.Mutex
	winners int
}

func (f *fakeStatsRepo) Get(_ context.Context) (*models.Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &models.Stats{TotalWinners: f.winners}, nil
}

func (f *fakeStatsRepo) AddWinner(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.winners++
	return nil
}

type publishedEvent struct {
	msgType string
	payload interface{}
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (f *fakePublisher) Publish(msgType string, payload interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{msgType: msgType, payload: payload})
	return nil
}

func (f *fakePublisher) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.msgType)
	}
	return out
}

type fakeTokenIssuer struct{}

func (fakeTokenIssuer) Issue(wallet string, cardIDs []string) (string, error) {
	return fmt.Sprintf("token-%s-%d", wallet, len(cardIDs)), nil
}

type fakeFacilitator struct {
	verify *x402.VerifyResponse
	settle *x402.SettleResponse
	err    error
}

func (f *fakeFacilitator) Verify(context.Context, *x402.Envelope, *x402.Requirements) (*x402.VerifyResponse, error) {
	return f.verify, f.err
}

func (f *fakeFacilitator) Settle(context.Context, *x402.Envelope, *x402.Requirements) (*x402.SettleResponse, error) {
	return f.settle, f.err
}
