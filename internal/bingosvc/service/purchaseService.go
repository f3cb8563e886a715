package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/bingo"
	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/bingosvc/models"
	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/bingosvc/store"
	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/comm"
	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/x402"
)

// PaymentRepo is what the purchase flow needs from persistence.
type PaymentRepo interface {
	Insert(ctx context.Context, payment *models.Payment) error
	ExistsByNonce(ctx context.Context, fromAddress, nonce string) (bool, error)
	ConfirmPurchase(ctx context.Context, params store.ConfirmPurchaseParams) error
}

// Facilitator verifies and settles signed authorizations on-chain.
type Facilitator interface {
	Verify(ctx context.Context, env *x402.Envelope, reqs *x402.Requirements) (*x402.VerifyResponse, error)
	Settle(ctx context.Context, env *x402.Envelope, reqs *x402.Requirements) (*x402.SettleResponse, error)
}

// TokenIssuer mints the opaque game-access token returned on purchase.
type TokenIssuer interface {
	Issue(walletAddress string, cardIDs []string) (string, error)
}

// AuditTrail records raw payment envelopes and facilitator traffic for
// offline review. Failures are logged, never fatal to a purchase.
type AuditTrail interface {
	RecordEnvelope(ctx context.Context, paymentID string, env *x402.Envelope) error
	RecordSettlement(ctx context.Context, paymentID, stage string, detail interface{}) error
}

// PurchaseConfig fixes the commercial terms of the 402 challenge.
type PurchaseConfig struct {
	PricePerCard decimal.Decimal
	PayTo        string // recipient address
	Asset        string // stablecoin contract address
	Network      string
	Facilitator  string // facilitator base URL, advertised in the challenge
	Currency     string
	DirectMode   bool // trust the signature without external verification
	DemoMode     bool // simulate settlement entirely
}

type PurchaseService struct {
	cfg         PurchaseConfig
	payments    PaymentRepo
	games       GameRepo
	facilitator Facilitator
	tokens      TokenIssuer
	audit       AuditTrail
	generator   *bingo.Generator
	pub         Publisher
}

func NewPurchaseService(cfg PurchaseConfig, payments PaymentRepo, games GameRepo,
	facilitator Facilitator, tokens TokenIssuer, audit AuditTrail, pub Publisher) *PurchaseService {
	return &PurchaseService{
		cfg:         cfg,
		payments:    payments,
		games:       games,
		facilitator: facilitator,
		tokens:      tokens,
		audit:       audit,
		generator:   bingo.NewGenerator(),
		pub:         pub,
	}
}

// CardSubmission is a client-generated card awaiting purchase.
type CardSubmission struct {
	ID      string   `json:"id"`
	Numbers [][]*int `json:"numbers"`
}

type PurchaseRequest struct {
	Cards         []CardSubmission `json:"cards"`
	CardCount     int              `json:"cardCount"`
	WalletAddress string           `json:"walletAddress"`
	GameMode      string           `json:"gameMode"`
	GameTitle     string           `json:"gameTitle"`
}

type PurchaseResult struct {
	GameToken        string
	Transaction      string
	PaymentID        string
	CardIDs          []string
	PrizePoolUpdated bool
}

// Challenge builds the 402 response for a purchase of cardCount cards.
func (s *PurchaseService) Challenge(cardCount int) *x402.PaymentRequired {
	if cardCount < 1 {
		cardCount = 1
	}
	price := x402.Price(s.cfg.PricePerCard, cardCount)

	return &x402.PaymentRequired{
		X402Version: x402.Version,
		Scheme:      x402.SchemeExact,
		Network:     s.cfg.Network,
		Requirements: x402.Requirements{
			Recipient:         s.cfg.PayTo,
			Asset:             s.cfg.Asset,
			MaxAmountRequired: x402.BaseUnits(price),
			Description:       fmt.Sprintf("%d bingo card(s) at %s %s each", cardCount, s.cfg.PricePerCard.StringFixed(2), s.cfg.Currency),
		},
		PaymentInfo: x402.PaymentInfo{
			Amount:      price.StringFixed(2),
			Currency:    s.cfg.Currency,
			Recipient:   s.cfg.PayTo,
			Network:     s.cfg.Network,
			Asset:       s.cfg.Asset,
			Facilitator: s.cfg.Facilitator,
		},
	}
}

// Purchase runs the payment side of a card purchase: decode and validate
// the envelope, record a pending payment, settle through the configured
// path (direct, demo, or facilitator) and commit payment + cards + prize
// pool + stats atomically. Validation and settlement failures leave no
// partial writes beyond the pending payment record.
func (s *PurchaseService) Purchase(ctx context.Context, req PurchaseRequest, paymentHeader string) (*PurchaseResult, error) {
	cards, err := s.resolveCards(req)
	if err != nil {
		return nil, err
	}

	env, err := x402.DecodeEnvelope(paymentHeader)
	if err != nil {
		return nil, &ValidationError{Field: "X-Payment", Message: err.Error()}
	}
	if env.Network != s.cfg.Network {
		return nil, invalidf("network", "payment network %q, expected %q", env.Network, s.cfg.Network)
	}

	price := x402.Price(s.cfg.PricePerCard, len(cards))
	required, _ := new(big.Int).SetString(x402.BaseUnits(price), 10)
	if env.ValueBaseUnits().Cmp(required) < 0 {
		return nil, invalidf("value", "signed value %s below required %s", env.Payload.Authorization.Value, required)
	}

	validBefore, err := strconv.ParseInt(env.Payload.Authorization.ValidBefore, 10, 64)
	if err != nil || validBefore <= time.Now().Unix() {
		return nil, invalidf("validBefore", "authorization has expired, sign a fresh one")
	}

	auth := env.Payload.Authorization
	exists, err := s.payments.ExistsByNonce(ctx, auth.From, auth.Nonce)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, conflictf("this authorization was already submitted")
	}

	payment := &models.Payment{
		ID:            uuid.New().String(),
		WalletAddress: req.WalletAddress,
		FromAddress:   auth.From,
		Nonce:         auth.Nonce,
		Amount:        price,
		Network:       env.Network,
		Status:        models.PaymentPending,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.payments.Insert(ctx, payment); err != nil {
		if errors.Is(err, store.ErrUniqueViolation) {
			return nil, conflictf("this authorization was already submitted")
		}
		return nil, err
	}
	s.recordAudit(ctx, payment.ID, env)

	txRef, err := s.settle(ctx, payment.ID, env, price, len(cards))
	if err != nil {
		return nil, err
	}

	for _, card := range cards {
		card.OwnerAddress = auth.From
		card.PaymentStatus = models.CardConfirmed
		card.TxHash = txRef
	}

	game, err := s.games.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	gameID := ""
	if game != nil {
		gameID = game.ID
	}

	if err := s.payments.ConfirmPurchase(ctx, store.ConfirmPurchaseParams{
		PaymentID: payment.ID,
		TxRef:     txRef,
		Cards:     cards,
		Price:     price,
		GameID:    gameID,
	}); err != nil {
		return nil, err
	}

	if game != nil {
		s.publishPool(game, price, len(cards))
	}

	token, err := s.tokens.Issue(auth.From, cardIDsOf(cards))
	if err != nil {
		return nil, fmt.Errorf("failed to issue game token: %w", err)
	}

	return &PurchaseResult{
		GameToken:        token,
		Transaction:      txRef,
		PaymentID:        payment.ID,
		CardIDs:          cardIDsOf(cards),
		PrizePoolUpdated: game != nil,
	}, nil
}

// resolveCards validates client-submitted card matrices, or generates them
// server-side when the request only states a count.
func (s *PurchaseService) resolveCards(req PurchaseRequest) ([]*models.BingoCard, error) {
	mode := req.GameMode
	if mode == "" {
		mode = models.Mode75
	}
	if mode != models.Mode75 && mode != models.Mode90 {
		return nil, invalidf("gameMode", "gameMode must be %q or %q", models.Mode75, models.Mode90)
	}
	if req.WalletAddress == "" {
		return nil, invalidf("walletAddress", "walletAddress is required")
	}

	count := req.CardCount
	if count == 0 {
		count = len(req.Cards)
	}
	if count < 1 {
		return nil, invalidf("cardCount", "cardCount must be at least 1")
	}
	if len(req.Cards) > 0 && len(req.Cards) != count {
		return nil, invalidf("cardCount", "cardCount %d does not match %d submitted cards", count, len(req.Cards))
	}

	now := time.Now().UTC()
	cards := make([]*models.BingoCard, 0, count)
	if len(req.Cards) == 0 {
		for i := 0; i < count; i++ {
			card, err := s.generator.Generate(mode, req.GameTitle)
			if err != nil {
				return nil, err
			}
			cards = append(cards, card)
		}
		return cards, nil
	}

	for i, sub := range req.Cards {
		if err := bingo.Validate(sub.Numbers, mode); err != nil {
			return nil, invalidf("cards", "card %d: %s", i, err)
		}
		id := sub.ID
		if id == "" {
			id = uuid.New().String()
		}
		cards = append(cards, &models.BingoCard{
			ID:            id,
			Numbers:       sub.Numbers,
			Title:         req.GameTitle,
			GameMode:      mode,
			PaymentStatus: models.CardReady,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}
	return cards, nil
}

// settle runs the mutually-exclusive settlement paths in fixed order:
// direct trust, demo simulation, then the external facilitator.
func (s *PurchaseService) settle(ctx context.Context, paymentID string, env *x402.Envelope, price decimal.Decimal, cardCount int) (string, error) {
	if s.cfg.DirectMode {
		return "direct-" + uuid.New().String(), nil
	}
	if s.cfg.DemoMode {
		return "demo-" + uuid.New().String(), nil
	}

	reqs := &x402.Requirements{
		Recipient:         s.cfg.PayTo,
		Asset:             s.cfg.Asset,
		MaxAmountRequired: x402.BaseUnits(price),
		Description:       fmt.Sprintf("%d bingo card(s)", cardCount),
	}

	verify, err := s.facilitator.Verify(ctx, env, reqs)
	if err != nil {
		return "", &ExternalError{Reason: err.Error()}
	}
	s.recordSettlement(ctx, paymentID, "verify", verify)
	if !verify.IsValid {
		return "", &ExternalError{Reason: verify.InvalidReason}
	}

	settle, err := s.facilitator.Settle(ctx, env, reqs)
	if err != nil {
		return "", &ExternalError{Reason: err.Error()}
	}
	s.recordSettlement(ctx, paymentID, "settle", settle)
	if !settle.Success {
		return "", &ExternalError{Reason: settle.ErrorReason}
	}
	return settle.Transaction, nil
}

func (s *PurchaseService) publishPool(game *models.Game, price decimal.Decimal, entries int) {
	if s.pub == nil {
		return
	}
	update := comm.PrizePoolUpdate{
		GameID:       game.ID,
		PrizePool:    game.PrizePool.Add(price).StringFixed(2),
		TotalEntries: game.TotalEntries + entries,
	}
	if err := s.pub.Publish(comm.TypePrizePool, update); err != nil {
		log.Errorf("Error publishing prize pool update: %s", err)
	}
}

func (s *PurchaseService) recordAudit(ctx context.Context, paymentID string, env *x402.Envelope) {
	if s.audit == nil {
		return
	}
	if err := s.audit.RecordEnvelope(ctx, paymentID, env); err != nil {
		log.Errorf("Error recording payment envelope audit: %s", err)
	}
}

func (s *PurchaseService) recordSettlement(ctx context.Context, paymentID, stage string, detail interface{}) {
	if s.audit == nil {
		return
	}
	if err := s.audit.RecordSettlement(ctx, paymentID, stage, detail); err != nil {
		log.Errorf("Error recording %s audit: %s", stage, err)
	}
}

func cardIDsOf(cards []*models.BingoCard) []string {
	ids := make([]string, 0, len(cards))
	for _, card := range cards {
		ids = append(ids, card.ID)
	}
	return ids
}
