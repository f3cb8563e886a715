package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/bingosvc/models"
	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/x402"
)

const (
	testPayTo = "0x209693Bc6afc0C5328bA36FaF03C514EF312287C"
	testAsset = "0x036CbD53842c5426634e7929541eC2318f3dCF7e"
	testBuyer = "0x857b06519E91e3A54538791bDbb0E22373e36b66"
)

func testPurchaseConfig() PurchaseConfig {
	return PurchaseConfig{
		PricePerCard: decimal.RequireFromString("0.01"),
		PayTo:        testPayTo,
		Asset:        testAsset,
		Network:      "base-sepolia",
		Facilitator:  "https://x402.org/facilitator",
		Currency:     "USDC",
		DemoMode:     true,
	}
}

type purchaseFixture struct {
	svc      *PurchaseService
	payments *fakePaymentRepo
	cards    *fakeCardRepo
	gameRepo *fakeGameRepo
	games    *GameService
	fac      *fakeFacilitator
	pub      *fakePublisher
}

func newPurchaseFixture(cfg PurchaseConfig) *purchaseFixture {
	cards := newFakeCardRepo()
	payments := newFakePaymentRepo(cards)
	gameRepo := newFakeGameRepo()
	fac := &fakeFacilitator{
		verify: &x402.VerifyResponse{IsValid: true, Payer: testBuyer},
		settle: &x402.SettleResponse{Success: true, Transaction: "0xsettled", Network: "base-sepolia"},
	}
	pub := &fakePublisher{}
	return &purchaseFixture{
		svc:      NewPurchaseService(cfg, payments, gameRepo, fac, fakeTokenIssuer{}, nil, pub),
		payments: payments,
		cards:    cards,
		gameRepo: gameRepo,
		games:    NewGameService(gameRepo, nil),
		fac:      fac,
		pub:      pub,
	}
}

// signedHeader builds a valid X-Payment header carrying an authorization for
// the given base-unit value.
func signedHeader(t *testing.T, value string) string {
	t.Helper()
	auth, err := x402.BuildAuthorization(testBuyer, testPayTo, value, time.Now())
	require.NoError(t, err)

	domain := x402.EIP712Domain{Name: "USDC", Version: "2", ChainID: 84532, VerifyingContract: testAsset}
	env, err := x402.BuildEnvelope("base-sepolia", domain, auth, func(x402.EIP712Domain, x402.Authorization) (string, error) {
		return "0xfeedsignature", nil
	})
	require.NoError(t, err)

	header, err := x402.EncodeEnvelope(env)
	require.NoError(t, err)
	return header
}

func TestPurchaseService_ChallengeQuotesThreeCards(t *testing.T) {
	f := newPurchaseFixture(testPurchaseConfig())

	challenge := f.svc.Challenge(3)
	assert.Equal(t, x402.Version, challenge.X402Version)
	assert.Equal(t, x402.SchemeExact, challenge.Scheme)
	assert.Equal(t, "base-sepolia", challenge.Network)
	assert.Equal(t, testPayTo, challenge.Requirements.Recipient)
	assert.Equal(t, testAsset, challenge.Requirements.Asset)
	assert.Equal(t, "30000", challenge.Requirements.MaxAmountRequired)
	assert.Equal(t, "0.03", challenge.PaymentInfo.Amount)
	assert.Equal(t, "USDC", challenge.PaymentInfo.Currency)
	assert.Equal(t, "https://x402.org/facilitator", challenge.PaymentInfo.Facilitator)
}

func TestPurchaseService_DemoPurchaseConfirmsCards(t *testing.T) {
	f := newPurchaseFixture(testPurchaseConfig())
	ctx := context.Background()

	result, err := f.svc.Purchase(ctx, PurchaseRequest{
		CardCount:     3,
		WalletAddress: testBuyer,
		GameMode:      models.Mode75,
	}, signedHeader(t, "30000"))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(result.Transaction, "demo-"))
	assert.Len(t, result.CardIDs, 3)
	assert.NotEmpty(t, result.GameToken)
	assert.False(t, result.PrizePoolUpdated, "no active game")

	for _, id := range result.CardIDs {
		card, err := f.cards.GetByID(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, card)
		assert.Equal(t, models.CardConfirmed, card.PaymentStatus)
		assert.Equal(t, testBuyer, card.OwnerAddress)
		assert.Equal(t, result.Transaction, card.TxHash)
	}

	require.Len(t, f.payments.confirmed, 1)
	assert.Equal(t, "0.03", f.payments.confirmed[0].params.Price.StringFixed(2))
}

func TestPurchaseService_DirectModeSkipsFacilitator(t *testing.T) {
	cfg := testPurchaseConfig()
	cfg.DemoMode = false
	cfg.DirectMode = true
	f := newPurchaseFixture(cfg)
	f.fac.err = assert.AnError // must never be reached

	result, err := f.svc.Purchase(context.Background(), PurchaseRequest{
		CardCount:     1,
		WalletAddress: testBuyer,
	}, signedHeader(t, "10000"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.Transaction, "direct-"))
}

func TestPurchaseService_FacilitatorPath(t *testing.T) {
	cfg := testPurchaseConfig()
	cfg.DemoMode = false
	f := newPurchaseFixture(cfg)

	result, err := f.svc.Purchase(context.Background(), PurchaseRequest{
		CardCount:     1,
		WalletAddress: testBuyer,
	}, signedHeader(t, "10000"))
	require.NoError(t, err)
	assert.Equal(t, "0xsettled", result.Transaction)
}

func TestPurchaseService_FacilitatorRejectionForwardsReason(t *testing.T) {
	cfg := testPurchaseConfig()
	cfg.DemoMode = false
	f := newPurchaseFixture(cfg)
	f.fac.verify = &x402.VerifyResponse{IsValid: false, InvalidReason: "invalid_signature"}

	_, err := f.svc.Purchase(context.Background(), PurchaseRequest{
		CardCount:     1,
		WalletAddress: testBuyer,
	}, signedHeader(t, "10000"))
	var external *ExternalError
	require.ErrorAs(t, err, &external)
	assert.Equal(t, "invalid_signature", external.Reason)
}

func TestPurchaseService_SettlementFailureForwardsReason(t *testing.T) {
	cfg := testPurchaseConfig()
	cfg.DemoMode = false
	f := newPurchaseFixture(cfg)
	f.fac.settle = &x402.SettleResponse{Success: false, ErrorReason: "insufficient_funds"}

	_, err := f.svc.Purchase(context.Background(), PurchaseRequest{
		CardCount:     1,
		WalletAddress: testBuyer,
	}, signedHeader(t, "10000"))
	var external *ExternalError
	require.ErrorAs(t, err, &external)
	assert.Equal(t, "insufficient_funds", external.Reason)
}

func TestPurchaseService_RejectsUnderpayment(t *testing.T) {
	f := newPurchaseFixture(testPurchaseConfig())

	_, err := f.svc.Purchase(context.Background(), PurchaseRequest{
		CardCount:     3,
		WalletAddress: testBuyer,
	}, signedHeader(t, "20000"))
	var invalid *ValidationError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "value", invalid.Field)
}

func TestPurchaseService_RejectsReplayedNonce(t *testing.T) {
	f := newPurchaseFixture(testPurchaseConfig())
	ctx := context.Background()
	header := signedHeader(t, "10000")

	_, err := f.svc.Purchase(ctx, PurchaseRequest{CardCount: 1, WalletAddress: testBuyer}, header)
	require.NoError(t, err)

	_, err = f.svc.Purchase(ctx, PurchaseRequest{CardCount: 1, WalletAddress: testBuyer}, header)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Contains(t, err.Error(), "already submitted")
}

func TestPurchaseService_RejectsExpiredAuthorization(t *testing.T) {
	f := newPurchaseFixture(testPurchaseConfig())

	auth, err := x402.BuildAuthorization(testBuyer, testPayTo, "10000", time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	env, err := x402.BuildEnvelope("base-sepolia", x402.EIP712Domain{}, auth, func(x402.EIP712Domain, x402.Authorization) (string, error) {
		return "0xsig", nil
	})
	require.NoError(t, err)
	header, err := x402.EncodeEnvelope(env)
	require.NoError(t, err)

	_, err = f.svc.Purchase(context.Background(), PurchaseRequest{CardCount: 1, WalletAddress: testBuyer}, header)
	var invalid *ValidationError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "validBefore", invalid.Field)
}

func TestPurchaseService_RejectsWrongNetwork(t *testing.T) {
	cfg := testPurchaseConfig()
	cfg.Network = "base"
	f := newPurchaseFixture(cfg)

	_, err := f.svc.Purchase(context.Background(), PurchaseRequest{
		CardCount:     1,
		WalletAddress: testBuyer,
	}, signedHeader(t, "10000"))
	var invalid *ValidationError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "network", invalid.Field)
}

func TestPurchaseService_RejectsGarbageHeader(t *testing.T) {
	f := newPurchaseFixture(testPurchaseConfig())

	_, err := f.svc.Purchase(context.Background(), PurchaseRequest{
		CardCount:     1,
		WalletAddress: testBuyer,
	}, "not base64 json")
	var invalid *ValidationError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "X-Payment", invalid.Field)
}

func TestPurchaseService_FundsActiveGamePool(t *testing.T) {
	f := newPurchaseFixture(testPurchaseConfig())
	ctx := context.Background()

	game, err := f.games.Create(ctx, "night game", models.Mode75)
	require.NoError(t, err)

	result, err := f.svc.Purchase(ctx, PurchaseRequest{
		CardCount:     2,
		WalletAddress: testBuyer,
	}, signedHeader(t, "20000"))
	require.NoError(t, err)
	assert.True(t, result.PrizePoolUpdated)

	require.Len(t, f.payments.confirmed, 1)
	assert.Equal(t, game.ID, f.payments.confirmed[0].params.GameID)
}

func TestPurchaseService_ValidatesSubmittedCards(t *testing.T) {
	f := newPurchaseFixture(testPurchaseConfig())

	bad := make([][]*int, 5)
	for i := range bad {
		bad[i] = make([]*int, 5)
		for j := range bad[i] {
			n := 1 // every cell the same number
			bad[i][j] = &n
		}
	}

	_, err := f.svc.Purchase(context.Background(), PurchaseRequest{
		Cards:         []CardSubmission{{ID: "c1", Numbers: bad}},
		WalletAddress: testBuyer,
	}, signedHeader(t, "10000"))
	var invalid *ValidationError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "cards", invalid.Field)
}

func TestPurchaseService_RequestValidation(t *testing.T) {
	f := newPurchaseFixture(testPurchaseConfig())
	ctx := context.Background()
	header := signedHeader(t, "10000")

	var invalid *ValidationError
	_, err := f.svc.Purchase(ctx, PurchaseRequest{CardCount: 1}, header)
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "walletAddress", invalid.Field)

	_, err = f.svc.Purchase(ctx, PurchaseRequest{WalletAddress: testBuyer}, header)
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "cardCount", invalid.Field)

	_, err = f.svc.Purchase(ctx, PurchaseRequest{CardCount: 1, WalletAddress: testBuyer, GameMode: "1-50"}, header)
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "gameMode", invalid.Field)
}
