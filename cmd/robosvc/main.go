package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"time"

	log "github.com/sirupsen/logrus"

	config "github.com/davidrodr1guez/ultrabingo402-sub000/configs"
	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/bingo"
	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/bingosvc/models"
	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/pollsync"
	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/x402"
)

const SERVICE_NAME = "robot"

var instanceId string

func init() {
	instanceId = "001"
	config.Logging(SERVICE_NAME + "_service_" + instanceId)
	config.LoadEnv(SERVICE_NAME)
}

// robot is one autonomous demo player: it buys a card through the payment
// flow, follows called numbers via the polling synchronizer and claims when
// its card completes a line.
type robot struct {
	baseURL string
	wallet  string
	client  *http.Client

	card    *models.BingoCard
	marked  []int
	claimed bool
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	baseURL := os.Getenv("BINGO_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:" + cfg.ServicePort
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	r := &robot{
		baseURL: baseURL,
		wallet:  fmt.Sprintf("0xr0b0t%032x", rng.Int63()),
		client:  &http.Client{Timeout: 15 * time.Second},
	}

	if err := r.buyCard(cfg); err != nil {
		log.Fatalf("Failed to buy a card: %v", err)
	}
	log.Infof("robot %s bought card %s", r.wallet, r.card.ID)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt)
		<-stop
		cancel()
	}()

	sync := pollsync.New(baseURL, cfg.PollInterval, pollsync.Hooks{
		OnGameStarted: func(game *models.Game) {
			log.Infof("game %s started, robot is playing", game.ID)
		},
		OnGameEnded: func(gameID string) {
			log.Infof("game %s ended", gameID)
			r.marked = nil
			r.claimed = false
		},
		OnCalledChanged: func(called []int, _ *int) {
			r.reconcile(called)
		},
	})

	log.Infof("%s service polling %s every %s", SERVICE_NAME, baseURL, cfg.PollInterval)
	if err := sync.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("synchronizer stopped: %v", err)
	}
	log.Infof("%s service stopped", SERVICE_NAME)
}

// buyCard runs the full 402 flow against the API: fetch the challenge, sign
// a matching demo authorization and retry with the payment header.
func (r *robot) buyCard(cfg *config.Config) error {
	body := map[string]interface{}{
		"cardCount":     1,
		"walletAddress": r.wallet,
		"gameMode":      models.Mode75,
		"gameTitle":     "robot",
	}

	challenge, err := r.fetchChallenge(body)
	if err != nil {
		return err
	}

	auth, err := x402.BuildAuthorization(r.wallet, challenge.Requirements.Recipient,
		challenge.Requirements.MaxAmountRequired, time.Now())
	if err != nil {
		return err
	}
	// demo mode never verifies the signature on-chain
	env, err := x402.BuildEnvelope(challenge.Network, x402.EIP712Domain{
		Name:              cfg.Currency,
		Version:           "2",
		VerifyingContract: challenge.Requirements.Asset,
	}, auth, func(x402.EIP712Domain, x402.Authorization) (string, error) {
		return "0x" + auth.Nonce[2:34], nil
	})
	if err != nil {
		return err
	}
	header, err := x402.EncodeEnvelope(env)
	if err != nil {
		return err
	}

	raw, _ := json.Marshal(body)
	req, err := http.NewRequest(http.MethodPost, r.baseURL+"/v1/cards/purchase", bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Payment", header)

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("purchase returned status %d", resp.StatusCode)
	}

	var result struct {
		CardIDs []string `json:"cardIds"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return err
	}
	if len(result.CardIDs) == 0 {
		return fmt.Errorf("purchase returned no cards")
	}
	return r.loadCard(result.CardIDs[0])
}

func (r *robot) fetchChallenge(body map[string]interface{}) (*x402.PaymentRequired, error) {
	raw, _ := json.Marshal(body)
	resp, err := r.client.Post(r.baseURL+"/v1/cards/purchase", "application/json", bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusPaymentRequired {
		return nil, fmt.Errorf("expected 402 challenge, got status %d", resp.StatusCode)
	}

	challenge := &x402.PaymentRequired{}
	if err := json.NewDecoder(resp.Body).Decode(challenge); err != nil {
		return nil, err
	}
	return challenge, nil
}

func (r *robot) loadCard(cardID string) error {
	resp, err := r.client.Get(r.baseURL + "/v1/cards/" + cardID)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("card fetch returned status %d", resp.StatusCode)
	}

	var body struct {
		Card *models.BingoCard `json:"card"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return err
	}
	r.card = body.Card
	return nil
}

// reconcile rebuilds the marked list from the authoritative called list and
// claims once the card has a line.
func (r *robot) reconcile(called []int) {
	if r.card == nil || r.claimed {
		return
	}

	calledSet := make(map[int]bool, len(called))
	for _, n := range called {
		calledSet[n] = true
	}

	r.marked = r.marked[:0]
	for _, row := range r.card.Numbers {
		for _, cell := range row {
			if cell != nil && calledSet[*cell] {
				r.marked = append(r.marked, *cell)
			}
		}
	}

	marks := bingo.Reconstruct(r.card.Numbers, r.marked)
	if !bingo.CheckWin(r.card.Numbers, marks, bingo.PatternLine) {
		return
	}

	log.Infof("robot has bingo with %d marks, submitting claim", len(r.marked))
	if err := r.submitClaim(); err != nil {
		log.Errorf("claim failed: %v", err)
		return
	}
	r.claimed = true
}

func (r *robot) submitClaim() error {
	raw, _ := json.Marshal(map[string]interface{}{
		"cardId":        r.card.ID,
		"walletAddress": r.wallet,
		"markedNumbers": r.marked,
		"pattern":       bingo.PatternLine,
	})

	resp, err := r.client.Post(r.baseURL+"/v1/claims", "application/json", bytes.NewReader(raw))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("claim returned status %d", resp.StatusCode)
	}
	log.Infof("claim accepted for card %s", r.card.ID)
	return nil
}
