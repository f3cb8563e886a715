package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"
	log "github.com/sirupsen/logrus"

	config "github.com/davidrodr1guez/ultrabingo402-sub000/configs"
	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/audit"
	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/bingosvc/broker"
	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/bingosvc/db"
	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/bingosvc/handlers"
	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/bingosvc/service"
	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/bingosvc/store"
	mongodb "github.com/davidrodr1guez/ultrabingo402-sub000/internal/db"
	nats "github.com/davidrodr1guez/ultrabingo402-sub000/internal/nats"
	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/x402"
)

const SERVICE_NAME = "bingo"

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

	if err := db.RunMigrations(cfg.MigrationsURL, cfg.PostgresURL); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	gameStore := store.NewGameStore(dbpool)
	cardStore := store.NewCardStore(dbpool)
	claimStore := store.NewClaimStore(dbpool)
	paymentStore := store.NewPaymentStore(dbpool)
	winnerStore := store.NewWinnerStore(dbpool)
	statsStore := store.NewStatsStore(dbpool)

	// Connect to NATS
	n, err := nats.Connect()
	if err != nil {
		log.Errorf("Error: unable to connect to NATS server %v", err)
		os.Exit(0)
	}
	defer n.Conn.Close()
	log.Printf("NATS connection established successfully %s", n.Url)

	pub := broker.NewBroker(n.Conn)

	// Mongo audit trail is optional; without it purchases still settle.
	var trail service.AuditTrail
	if cfg.MongoURI != "" {
		auditDB, cancelAudit, err := mongodb.ConnectToDB(cfg.MongoURI)
		if err != nil {
			log.Fatalf("Failed to connect to audit DB: %v", err)
		}
		defer cancelAudit()
		mongodb.CreateTTLIndexForCollection(auditDB, audit.CollectionName())
		trail = audit.NewRecorder(auditDB)
		log.Printf("mongo audit trail enabled")
	}

	tokenAuth := handlers.NewTokenAuth(cfg.JWTSecretKey)

	purchaseCfg := service.PurchaseConfig{
		PricePerCard: cfg.PricePerCard,
		PayTo:        cfg.PaymentPayTo,
		Asset:        cfg.PaymentAsset,
		Network:      cfg.PaymentNetwork,
		Facilitator:  cfg.FacilitatorURL,
		Currency:     cfg.Currency,
		DirectMode:   cfg.DirectMode,
		DemoMode:     cfg.DemoMode,
	}
	facilitator := x402.NewFacilitatorClient(cfg.FacilitatorURL)

	gameService := service.NewGameService(gameStore, pub)
	claimService := service.NewClaimService(claimStore, cardStore, gameStore, winnerStore, statsStore, pub)
	purchaseService := service.NewPurchaseService(purchaseCfg, paymentStore, gameStore, facilitator, tokenAuth, trail, pub)
	cardService := service.NewCardService(cardStore)
	statsService := service.NewStatsService(statsStore)

	// Setup router
	r := chi.NewRouter()
	c := config.CORS(cfg.AllowedOrigins)

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(c.Handler)

	// to protect the service api from any over requests
	r.Use(httprate.LimitByIP(cfg.RateLimit, 1*time.Minute))

	// Init handlers and routes
	h := handlers.NewHandler(gameService, claimService, purchaseService, cardService, statsService, tokenAuth)
	h.SetRoutes(r)

	// Create server with timeout settings
	server := &http.Server{
		Addr:         ":" + cfg.ServicePort,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	log.Infof("%s service running at port %s", SERVICE_NAME, server.Addr)

	// Wait for interrupt signal to gracefully shutdown the server
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
