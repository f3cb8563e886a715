package main

import (
	"context"
	"math/rand"
	"os"
	"os/signal"
	"time"

	log "github.com/sirupsen/logrus"

	config "github.com/davidrodr1guez/ultrabingo402-sub000/configs"
	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/bingosvc/broker"
	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/bingosvc/db"
	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/bingosvc/models"
	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/bingosvc/service"
	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/bingosvc/store"
	natscli "github.com/davidrodr1guez/ultrabingo402-sub000/internal/nats"
)

const SERVICE_NAME = "caller"

var instanceId string

func init() {
	instanceId = config.CreateUniqueInstance(SERVICE_NAME)
	config.Logging(SERVICE_NAME + "_service_" + instanceId)
	config.LoadEnv(SERVICE_NAME)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// pg connection
	dbpool, err := db.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer db.ClosePool()
	log.Printf("pg connection established successfully")

	// connect to NATS
	n, err := natscli.Connect()
	if err != nil {
		log.Fatalf("unable to connect to NATS: %v", err)
	}
	defer n.Conn.Close()
	log.Infof("NATS connected at %s", n.Url)

	gameService := service.NewGameService(store.NewGameStore(dbpool), broker.NewBroker(n.Conn))

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt)
		<-stop
		cancel()
	}()

	log.Infof("%s service drawing every %s", SERVICE_NAME, cfg.CallerInterval)
	runCaller(ctx, gameService, rng, cfg.CallerInterval)
	log.Infof("%s service stopped", SERVICE_NAME)
}

// runCaller draws one uncalled number for the active game per tick, through
// the same service path the controller UI uses, and ends the game once the
// deck is exhausted.
func runCaller(ctx context.Context, games *service.GameService, rng *rand.Rand, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		game, err := games.Active(ctx)
		if err != nil {
			log.Errorf("failed to load active game: %v", err)
			continue
		}
		if game == nil {
			continue
		}

		number, ok := drawNumber(rng, game)
		if !ok {
			log.Infof("deck exhausted for game %s, ending it", game.ID)
			if _, err := games.End(ctx, game.ID); err != nil {
				log.Errorf("failed to end game %s: %v", game.ID, err)
			}
			continue
		}

		if _, err := games.Call(ctx, game.ID, number); err != nil {
			// a concurrent controller call is fine, the next tick re-reads
			log.Warnf("call %d on game %s failed: %v", number, game.ID, err)
			continue
		}
		log.Infof("called %d for game %s (%d/%d)", number, game.ID, len(game.CalledNumbers)+1, game.MaxNumber())
	}
}

// drawNumber picks a uniformly random not-yet-called number, or reports the
// deck exhausted.
func drawNumber(rng *rand.Rand, game *models.Game) (int, bool) {
	called := make(map[int]bool, len(game.CalledNumbers))
	for _, n := range game.CalledNumbers {
		called[n] = true
	}

	var remaining []int
	for n := 1; n <= game.MaxNumber(); n++ {
		if !called[n] {
			remaining = append(remaining, n)
		}
	}
	if len(remaining) == 0 {
		return 0, false
	}
	return remaining[rng.Intn(len(remaining))], true
}
