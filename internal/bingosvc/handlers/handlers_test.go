package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/bingosvc/models"
	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/bingosvc/service"
	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/bingosvc/store"
	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/x402"
)

// Minimal in-memory repos so the full HTTP surface can be exercised with
// httptest and no Postgres.

type memGameRepo struct {
	mu    sync.Mutex
	games map[string]*models.Game
}

func newMemGameRepo() *memGameRepo { return &memGameRepo{games: map[string]*models.Game{}} }

func (m *memGameRepo) Insert(_ context.Context, game *models.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.games {
		if g.Status == models.GameActive {
			return store.ErrUniqueViolation
		}
	}
	cp := *game
	m.games[game.ID] = &cp
	return nil
}

func (m *memGameRepo) GetByID(_ context.Context, id string) (*models.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[id]
	if !ok {
		return nil, nil
	}
	cp := *g
	return &cp, nil
}

func (m *memGameRepo) GetActive(_ context.Context) (*models.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.games {
		if g.Status == models.GameActive {
			cp := *g
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memGameRepo) UpdateCalled(_ context.Context, id string, called []int, current *int, version int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[id]
	if !ok || g.Status != models.GameActive || g.Version != version {
		return store.ErrStaleVersion
	}
	g.CalledNumbers = called
	g.CurrentNumber = current
	g.Version++
	return nil
}

func (m *memGameRepo) End(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[id]
	if !ok || g.Status != models.GameActive {
		return store.ErrNotActive
	}
	g.Status = models.GameEnded
	return nil
}

func (m *memGameRepo) AddPrize(_ context.Context, id string, amount decimal.Decimal, entries int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[id]
	if !ok || g.Status != models.GameActive {
		return store.ErrNotActive
	}
	g.PrizePool = g.PrizePool.Add(amount)
	g.TotalEntries += entries
	return nil
}

type memCardRepo struct {
	mu    sync.Mutex
	cards map[string]*models.BingoCard
}

func newMemCardRepo() *memCardRepo { return &memCardRepo{cards: map[string]*models.BingoCard{}} }

func (m *memCardRepo) GetByID(_ context.Context, id string) (*models.BingoCard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cards[id], nil
}

func (m *memCardRepo) ListByOwner(_ context.Context, owner string) ([]*models.BingoCard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.BingoCard
	for _, c := range m.cards {
		if c.OwnerAddress == owner {
			out = append(out, c)
		}
	}
	return out, nil
}

type memClaimRepo struct {
	mu     sync.Mutex
	claims map[string]*models.Claim
}

func newMemClaimRepo() *memClaimRepo { return &memClaimRepo{claims: map[string]*models.Claim{}} }

func (m *memClaimRepo) Insert(_ context.Context, claim *models.Claim) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *claim
	m.claims[claim.ID] = &cp
	return nil
}

func (m *memClaimRepo) GetByID(_ context.Context, id string) (*models.Claim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.claims[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (m *memClaimRepo) HasOpenClaim(_ context.Context, cardID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.claims {
		if c.CardID == cardID && (c.Status == models.ClaimPending || c.Status == models.ClaimVerified) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memClaimRepo) Resolve(_ context.Context, id, status, reason string, prize *decimal.Decimal) (*models.Claim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.claims[id]
	if !ok || c.Status != models.ClaimPending {
		return nil, nil
	}
	c.Status = status
	c.RejectReason = reason
	c.PrizeAmount = prize
	cp := *c
	return &cp, nil
}

func (m *memClaimRepo) ListByGame(_ context.Context, gameID string) ([]*models.Claim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Claim
	for _, c := range m.claims {
		if c.GameID == gameID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memPaymentRepo struct {
	mu     sync.Mutex
	nonces map[string]bool
	cards  *memCardRepo
}

func newMemPaymentRepo(cards *memCardRepo) *memPaymentRepo {
	return &memPaymentRepo{nonces: map[string]bool{}, cards: cards}
}

func (m *memPaymentRepo) Insert(_ context.Context, p *models.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := p.FromAddress + "|" + p.Nonce
	if m.nonces[key] {
		return store.ErrUniqueViolation
	}
	m.nonces[key] = true
	return nil
}

func (m *memPaymentRepo) ExistsByNonce(_ context.Context, from, nonce string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nonces[from+"|"+nonce], nil
}

func (m *memPaymentRepo) ConfirmPurchase(_ context.Context, params store.ConfirmPurchaseParams) error {
	m.cards.mu.Lock()
	defer m.cards.mu.Unlock()
	for _, card := range params.Cards {
		m.cards.cards[card.ID] = card
	}
	return nil
}

type memWinnerRepo struct{}

func (memWinnerRepo) Insert(context.Context, *models.Winner) error   { return nil }
func (memWinnerRepo) MarkPaid(context.Context, string, string) error { return nil }
func (memWinnerRepo) ListByGame(context.Context, string) ([]*models.Winner, error) {
	return nil, nil
}

type memStatsRepo struct{}

func (memStatsRepo) Get(context.Context) (*models.Stats, error) {
	return &models.Stats{TotalCardsSold: 12}, nil
}
func (memStatsRepo) AddWinner(context.Context) error { return nil }

type testServer struct {
	router *chi.Mux
	cards  *memCardRepo
}

func newTestServer() *testServer {
	gameRepo := newMemGameRepo()
	cardRepo := newMemCardRepo()
	claimRepo := newMemClaimRepo()
	paymentRepo := newMemPaymentRepo(cardRepo)

	cfg := service.PurchaseConfig{
		PricePerCard: decimal.RequireFromString("0.01"),
		PayTo:        "0x209693Bc6afc0C5328bA36FaF03C514EF312287C",
		Asset:        "0x036CbD53842c5426634e7929541eC2318f3dCF7e",
		Network:      "base-sepolia",
		Facilitator:  "https://x402.org/facilitator",
		Currency:     "USDC",
		DemoMode:     true,
	}

	auth := NewTokenAuth("test-secret")
	games := service.NewGameService(gameRepo, nil)
	claims := service.NewClaimService(claimRepo, cardRepo, gameRepo, memWinnerRepo{}, memStatsRepo{}, nil)
	purchases := service.NewPurchaseService(cfg, paymentRepo, gameRepo, nil, auth, nil, nil)
	cards := service.NewCardService(cardRepo)
	stats := service.NewStatsService(memStatsRepo{})

	h := NewHandler(games, claims, purchases, cards, stats, auth)
	r := chi.NewRouter()
	h.SetRoutes(r)
	return &testServer{router: r, cards: cardRepo}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func paymentHeader(t *testing.T, value string) string {
	t.Helper()
	auth, err := x402.BuildAuthorization(
		"0x857b06519E91e3A54538791bDbb0E22373e36b66",
		"0x209693Bc6afc0C5328bA36FaF03C514EF312287C",
		value, time.Now())
	require.NoError(t, err)
	env, err := x402.BuildEnvelope("base-sepolia", x402.EIP712Domain{Name: "USDC", Version: "2", ChainID: 84532},
		auth, func(x402.EIP712Domain, x402.Authorization) (string, error) { return "0xsig", nil })
	require.NoError(t, err)
	header, err := x402.EncodeEnvelope(env)
	require.NoError(t, err)
	return header
}

func TestPurchase402RoundTrip(t *testing.T) {
	s := newTestServer()
	body := map[string]interface{}{
		"cardCount":     3,
		"walletAddress": "0x857b06519E91e3A54538791bDbb0E22373e36b66",
		"gameMode":      models.Mode75,
	}

	// no payment header: challenge
	rec := s.do(t, http.MethodPost, "/v1/cards/purchase", body, nil)
	require.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Equal(t, "true", rec.Header().Get("X-Payment-Required"))
	assert.Equal(t, "30000", rec.Header().Get("X-Payment-Amount"))
	assert.Equal(t, "base-sepolia", rec.Header().Get("X-Payment-Network"))
	assert.Equal(t, "https://x402.org/facilitator", rec.Header().Get("X-Facilitator-URL"))

	var challenge x402.PaymentRequired
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &challenge))
	assert.Equal(t, "exact", challenge.Scheme)
	assert.Equal(t, "30000", challenge.Requirements.MaxAmountRequired)
	assert.Equal(t, "0.03", challenge.PaymentInfo.Amount)

	// with payment header: settlement
	rec = s.do(t, http.MethodPost, "/v1/cards/purchase", body, map[string]string{
		"X-Payment": paymentHeader(t, "30000"),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result purchaseResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.NotEmpty(t, result.GameToken)
	require.Len(t, result.CardIDs, 3)

	for _, id := range result.CardIDs {
		card, err := s.cards.GetByID(context.Background(), id)
		require.NoError(t, err)
		require.NotNil(t, card)
		assert.Equal(t, models.CardConfirmed, card.PaymentStatus)
	}
}

func TestPurchaseUnderpaymentIs400(t *testing.T) {
	s := newTestServer()
	rec := s.do(t, http.MethodPost, "/v1/cards/purchase", map[string]interface{}{
		"cardCount":     3,
		"walletAddress": "0xabc",
	}, map[string]string{"X-Payment": paymentHeader(t, "20000")})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Error)
}

func TestGameLifecycleOverHTTP(t *testing.T) {
	s := newTestServer()

	// no active game yet
	rec := s.do(t, http.MethodGet, "/v1/games?active=true", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"game":null}`, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/v1/games", map[string]string{"name": "g", "mode": models.Mode75}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		GameID string `json:"gameId"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.GameID)

	// second create conflicts
	rec = s.do(t, http.MethodPost, "/v1/games", map[string]string{"name": "h", "mode": models.Mode75}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	for _, n := range []int{5, 12, 47} {
		rec = s.do(t, http.MethodPatch, "/v1/games/"+created.GameID,
			map[string]interface{}{"action": "call", "number": n}, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodPatch, "/v1/games/"+created.GameID,
		map[string]interface{}{"action": "uncall"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var state struct {
		CalledNumbers []int `json:"calledNumbers"`
		CurrentNumber *int  `json:"currentNumber"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, []int{5, 12}, state.CalledNumbers)
	require.NotNil(t, state.CurrentNumber)
	assert.Equal(t, 12, *state.CurrentNumber)

	rec = s.do(t, http.MethodPatch, "/v1/games/"+created.GameID,
		map[string]interface{}{"action": "end"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPatch, "/v1/games/"+created.GameID,
		map[string]interface{}{"action": "call", "number": 9}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownGameIs404(t *testing.T) {
	s := newTestServer()
	rec := s.do(t, http.MethodGet, "/v1/games/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGenerateCardsEndpoint(t *testing.T) {
	s := newTestServer()
	rec := s.do(t, http.MethodGet, "/v1/cards/generate?count=2&mode=1-90", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Cards []*models.BingoCard `json:"cards"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Cards, 2)
	assert.Equal(t, models.Mode90, body.Cards[0].GameMode)
	assert.Len(t, body.Cards[0].Numbers, 3)
}

func TestStatsEndpoint(t *testing.T) {
	s := newTestServer()
	rec := s.do(t, http.MethodGet, "/v1/stats", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats models.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 12, stats.TotalCardsSold)
}

func TestMyCardsRequiresToken(t *testing.T) {
	s := newTestServer()
	rec := s.do(t, http.MethodGet, "/v1/cards", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
