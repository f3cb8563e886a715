package config

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/joho/godotenv"
)

var InstanceId string

// Config is the typed view of the environment shared by all services.
type Config struct {
	ServicePort string `env:"SERVICE_PORT" envDefault:"8080"`
	RateLimit   int    `env:"RATE_LIMIT" envDefault:"120"`

	PostgresURL   string `env:"POSTGRES_URL"`
	MigrationsURL string `env:"MIGRATIONS_URL" envDefault:"file://db/migrations"`
	NatsURL       string `env:"NATS_URL" envDefault:"nats://localhost:4222"`
	MongoURI      string `env:"MONGODB_URI"`

	JWTSecretKey string `env:"JWT_SECRET_KEY" envDefault:"dev-secret"`

	PricePerCard   decimal.Decimal `env:"PRICE_PER_CARD" envDefault:"0.01"`
	PaymentPayTo   string          `env:"PAYMENT_RECIPIENT"`
	PaymentAsset   string          `env:"PAYMENT_ASSET"`
	PaymentNetwork string          `env:"PAYMENT_NETWORK" envDefault:"base-sepolia"`
	FacilitatorURL string          `env:"FACILITATOR_URL" envDefault:"https://x402.org/facilitator"`
	Currency       string          `env:"PAYMENT_CURRENCY" envDefault:"USDC"`
	DirectMode     bool            `env:"PAYMENT_DIRECT_MODE"`
	DemoMode       bool            `env:"PAYMENT_DEMO_MODE"`

	CallerInterval time.Duration `env:"CALLER_INTERVAL" envDefault:"10s"`
	PollInterval   time.Duration `env:"POLL_INTERVAL" envDefault:"3s"`

	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
}

// Load parses the environment into a Config. Call LoadEnv first so the .env
// file is visible.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadEnv(service string) {
	log.Info("service configuration and env variables loading started ...")
	err := godotenv.Load("./.env")
	if err != nil {
		log.Warn("no .env file found, relying on process environment")
		return
	}

	log.Info(".env file loaded.")
}

func CreateUniqueInstance(service string) string {
	id, err := uuid.NewV4() // instance identifier
	if err != nil {
		log.Errorf("error generating instanceId: %s", err)
		os.Exit(0)
	}
	InstanceId = id.String()
	log.Infof(service+" service with Instance ID: %s is ready", id)
	return id.String()
}

func GetInstanceId() string {
	return InstanceId
}

func CORS(allowedOrigins []string) *cors.Cors {
	corsOptions := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "X-Payment"},
		ExposedHeaders: []string{
			"Link", "X-Payment-Required", "X-Payment-Address", "X-Payment-Amount",
			"X-Payment-Network", "X-Payment-Asset", "X-Facilitator-URL",
		},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	})

	return corsOptions
}

func Logging(service string) {
	logFolder := ".l_g"

	_, err := os.Stat(logFolder)
	if os.IsNotExist(err) {
		err = os.Mkdir(logFolder, 0755)
		if err != nil {
			log.Warnf("unable to create folder for log %s", err)
			return
		}
	}

	logFilePath := filepath.Join(logFolder, service+".log")

	file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		log.Fatal("Failed to open log file:", err)
	}

	log.SetOutput(file)

	log.SetFormatter(&log.TextFormatter{})
	log.SetLevel(log.InfoLevel)

	log.Infof("log to file started for service: %s", service)
}

func CustomLoggerMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				log.Printf("%s %s %s %d %s %s",
					r.Method,
					r.RequestURI,
					r.RemoteAddr,
					ww.Status(),
					http.StatusText(ww.Status()),
					time.Since(start),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
