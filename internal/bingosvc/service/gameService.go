package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/bingosvc/models"
	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/bingosvc/store"
	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/comm"
)

// GameRepo is what the game service needs from persistence.
type GameRepo interface {
	Insert(ctx context.Context, game *models.Game) error
	GetByID(ctx context.Context, gameID string) (*models.Game, error)
	GetActive(ctx context.Context) (*models.Game, error)
	UpdateCalled(ctx context.Context, gameID string, called []int, current *int, version int) error
	End(ctx context.Context, gameID string) error
}

// Publisher pushes game events onto the NATS relay. A nil publisher is
// fine; the polling snapshot stays the authoritative sync path either way.
type Publisher interface {
	Publish(msgType string, payload interface{}) error
}

type GameService struct {
	games GameRepo
	pub   Publisher
}

func NewGameService(games GameRepo, pub Publisher) *GameService {
	return &GameService{games: games, pub: pub}
}

func (s *GameService) publish(msgType string, payload interface{}) {
	if s.pub == nil {
		return
	}
	if err := s.pub.Publish(msgType, payload); err != nil {
		log.Errorf("Error publishing %s event: %s", msgType, err)
	}
}

// Create starts a new active game. Fails with a conflict while another
// game is still active.
func (s *GameService) Create(ctx context.Context, name, mode string) (*models.Game, error) {
	if name == "" {
		return nil, invalidf("name", "name is required")
	}
	if mode != models.Mode75 && mode != models.Mode90 {
		return nil, invalidf("mode", "mode must be %q or %q", models.Mode75, models.Mode90)
	}

	active, err := s.games.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, conflictf("a game is already active: %s", active.ID)
	}

	game := &models.Game{
		ID:            uuid.New().String(),
		Name:          name,
		Mode:          mode,
		CalledNumbers: []int{},
		Status:        models.GameActive,
		PrizePool:     decimal.Zero,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.games.Insert(ctx, game); err != nil {
		if errors.Is(err, store.ErrUniqueViolation) {
			return nil, conflictf("a game is already active")
		}
		return nil, err
	}

	s.publish(comm.TypeGameCreated, comm.GameLifecycle{
		GameID: game.ID, Name: game.Name, Mode: game.Mode, Status: game.Status,
	})
	return game, nil
}

// Active returns the live game, or nil when none is running.
func (s *GameService) Active(ctx context.Context) (*models.Game, error) {
	return s.games.GetActive(ctx)
}

func (s *GameService) Get(ctx context.Context, gameID string) (*models.Game, error) {
	game, err := s.games.GetByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrNotFound
	}
	return game, nil
}

// mutableGame loads the game and checks it is still accepting transitions.
func (s *GameService) mutableGame(ctx context.Context, gameID string) (*models.Game, error) {
	game, err := s.Get(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game.Status != models.GameActive {
		return nil, conflictf("game is not active")
	}
	return game, nil
}

// Call appends a number to the called list and makes it current.
func (s *GameService) Call(ctx context.Context, gameID string, number int) (*models.Game, error) {
	game, err := s.mutableGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if number < 1 || number > game.MaxNumber() {
		return nil, invalidf("number", "number %d outside range 1-%d", number, game.MaxNumber())
	}
	for _, n := range game.CalledNumbers {
		if n == number {
			return nil, conflictf("number %d already called", number)
		}
	}

	called := append(append([]int(nil), game.CalledNumbers...), number)
	current := number
	if err := s.applyCalled(ctx, game, called, &current); err != nil {
		return nil, err
	}

	s.publish(comm.TypeNumberCalled, comm.CallMessage{
		GameID: game.ID, Number: number, Current: game.CurrentNumber, History: game.CalledNumbers,
	})
	return game, nil
}

// Uncall removes the most recently called number, strict LIFO.
func (s *GameService) Uncall(ctx context.Context, gameID string) (*models.Game, error) {
	game, err := s.mutableGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if len(game.CalledNumbers) == 0 {
		return nil, invalidf("calledNumbers", "no numbers have been called")
	}

	popped := game.CalledNumbers[len(game.CalledNumbers)-1]
	called := append([]int(nil), game.CalledNumbers[:len(game.CalledNumbers)-1]...)
	var current *int
	if len(called) > 0 {
		n := called[len(called)-1]
		current = &n
	}
	if err := s.applyCalled(ctx, game, called, current); err != nil {
		return nil, err
	}

	s.publish(comm.TypeNumberUncalled, comm.CallMessage{
		GameID: game.ID, Number: popped, Current: game.CurrentNumber, History: game.CalledNumbers,
	})
	return game, nil
}

// Toggle flips one number: calls it if absent, removes it from wherever it
// sits if present. Unlike Uncall this is not LIFO; it exists as a manual
// correction tool for the controller UI and can leave currentNumber
// pointing at the new tail rather than the latest chronological call.
func (s *GameService) Toggle(ctx context.Context, gameID string, number int) (*models.Game, error) {
	game, err := s.mutableGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if number < 1 || number > game.MaxNumber() {
		return nil, invalidf("number", "number %d outside range 1-%d", number, game.MaxNumber())
	}

	called := make([]int, 0, len(game.CalledNumbers)+1)
	removed := false
	for _, n := range game.CalledNumbers {
		if n == number {
			removed = true
			continue
		}
		called = append(called, n)
	}
	if !removed {
		called = append(called, number)
	}

	var current *int
	if len(called) > 0 {
		n := called[len(called)-1]
		current = &n
	}
	if err := s.applyCalled(ctx, game, called, current); err != nil {
		return nil, err
	}

	msgType := comm.TypeNumberCalled
	if removed {
		msgType = comm.TypeNumberUncalled
	}
	s.publish(msgType, comm.CallMessage{
		GameID: game.ID, Number: number, Current: game.CurrentNumber, History: game.CalledNumbers,
	})
	return game, nil
}

// SyncCalled bulk-overwrites the called list from the controller UI.
func (s *GameService) SyncCalled(ctx context.Context, gameID string, numbers []int) (*models.Game, error) {
	game, err := s.mutableGame(ctx, gameID)
	if err != nil {
		return nil, err
	}

	seen := make(map[int]bool, len(numbers))
	for _, n := range numbers {
		if n < 1 || n > game.MaxNumber() {
			return nil, invalidf("calledNumbers", "number %d outside range 1-%d", n, game.MaxNumber())
		}
		if seen[n] {
			return nil, invalidf("calledNumbers", "number %d appears twice", n)
		}
		seen[n] = true
	}

	called := append([]int(nil), numbers...)
	var current *int
	if len(called) > 0 {
		n := called[len(called)-1]
		current = &n
	}
	if err := s.applyCalled(ctx, game, called, current); err != nil {
		return nil, err
	}

	s.publish(comm.TypeCalledSynced, comm.CallMessage{
		GameID: game.ID, Current: game.CurrentNumber, History: game.CalledNumbers,
	})
	return game, nil
}

// End finishes the game; a second End reports "game is not active".
func (s *GameService) End(ctx context.Context, gameID string) (*models.Game, error) {
	if _, err := s.Get(ctx, gameID); err != nil {
		return nil, err
	}
	if err := s.games.End(ctx, gameID); err != nil {
		if errors.Is(err, store.ErrNotActive) {
			return nil, conflictf("game is not active")
		}
		return nil, err
	}

	game, err := s.Get(ctx, gameID)
	if err != nil {
		return nil, err
	}
	s.publish(comm.TypeGameEnded, comm.GameLifecycle{GameID: game.ID, Status: game.Status})
	return game, nil
}

func (s *GameService) applyCalled(ctx context.Context, game *models.Game, called []int, current *int) error {
	err := s.games.UpdateCalled(ctx, game.ID, called, current, game.Version)
	if err != nil {
		if errors.Is(err, store.ErrStaleVersion) {
			return conflictf("game was updated concurrently, retry")
		}
		return err
	}
	game.CalledNumbers = called
	game.CurrentNumber = current
	game.Version++
	return nil
}
