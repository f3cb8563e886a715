// Package pollsync is the client-side game synchronizer: it polls the
// active-game snapshot at a fixed interval and reconciles local state
// idempotently, so any number of missed intervals is recovered by the next
// successful poll. It is the authoritative sync path; the websocket relay
// is only a latency optimization on top.
package pollsync

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/bingosvc/models"
)

// DefaultInterval matches the 2-3 second cadence the web client uses.
const DefaultInterval = 3 * time.Second

// Hooks are invoked from Poll as state changes are detected. All hooks are
// optional. OnCalledChanged always receives the full authoritative list, not
// a delta, so handlers can rebuild rather than patch.
type Hooks struct {
	OnGameStarted   func(game *models.Game)
	OnGameEnded     func(gameID string)
	OnNumberCalled  func(number int)
	OnCalledChanged func(called []int, current *int)
	OnPrizePool     func(prizePool string, totalEntries int)
}

type Synchronizer struct {
	baseURL  string
	client   *http.Client
	interval time.Duration
	hooks    Hooks

	gameID    string
	called    []int
	prizePool string
	entries   int
}

func New(baseURL string, interval time.Duration, hooks Hooks) *Synchronizer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Synchronizer{
		baseURL:  baseURL,
		client:   &http.Client{Timeout: 10 * time.Second},
		interval: interval,
		hooks:    hooks,
	}
}

// Run polls until the context is cancelled. Poll errors are logged and the
// next tick retries; a transient outage only delays reconciliation.
func (s *Synchronizer) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.Poll(ctx); err != nil {
			log.Warnf("poll failed, retrying next tick: %s", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Poll fetches the active-game snapshot once and reconciles against it.
func (s *Synchronizer) Poll(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/v1/games?active=true", nil)
	if err != nil {
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("snapshot request returned status %d", resp.StatusCode)
	}

	var snapshot struct {
		Game *models.Game `json:"game"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}

	s.reconcile(snapshot.Game)
	return nil
}

func (s *Synchronizer) reconcile(game *models.Game) {
	if game == nil {
		if s.gameID != "" {
			ended := s.gameID
			s.reset()
			if s.hooks.OnGameEnded != nil {
				s.hooks.OnGameEnded(ended)
			}
		}
		return
	}

	if game.ID != s.gameID {
		if s.gameID != "" && s.hooks.OnGameEnded != nil {
			s.hooks.OnGameEnded(s.gameID)
		}
		s.reset()
		s.gameID = game.ID
		if s.hooks.OnGameStarted != nil {
			s.hooks.OnGameStarted(game)
		}
	}

	s.reconcileCalled(game)

	pool := game.PrizePool.StringFixed(2)
	if pool != s.prizePool || game.TotalEntries != s.entries {
		s.prizePool = pool
		s.entries = game.TotalEntries
		if s.hooks.OnPrizePool != nil {
			s.hooks.OnPrizePool(pool, game.TotalEntries)
		}
	}
}

// reconcileCalled fires OnNumberCalled per appended number when the new
// list extends the known one; any other shape (uncall, sync, out-of-order
// toggle) falls back to OnCalledChanged with the full list.
func (s *Synchronizer) reconcileCalled(game *models.Game) {
	extended := len(game.CalledNumbers) >= len(s.called)
	if extended {
		for i, n := range s.called {
			if game.CalledNumbers[i] != n {
				extended = false
				break
			}
		}
	}

	if extended {
		for _, n := range game.CalledNumbers[len(s.called):] {
			if s.hooks.OnNumberCalled != nil {
				s.hooks.OnNumberCalled(n)
			}
		}
		if len(game.CalledNumbers) > len(s.called) && s.hooks.OnCalledChanged != nil {
			s.hooks.OnCalledChanged(game.CalledNumbers, game.CurrentNumber)
		}
	} else if s.hooks.OnCalledChanged != nil {
		s.hooks.OnCalledChanged(game.CalledNumbers, game.CurrentNumber)
	}

	s.called = append([]int(nil), game.CalledNumbers...)
}

func (s *Synchronizer) reset() {
	s.gameID = ""
	s.called = nil
	s.prizePool = ""
	s.entries = 0
}
