package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

var (
	ErrMissingJWTSecret = errors.New("no JWT_SECRET provided")
	ErrMissingDBString  = errors.New("missing DB_CONNECTION_STRING in environment variables")
)

type Config struct {
	HTTPAddr           string
	DBConnectionString string
	JWTSecret          string

	TemplatesDir  string
	EmailAddress  string
	EmailPassword string
	SMTPHost      string
	SMTPPort      string
	AppBaseURL    string

	MarketDataAPIKey string

	PaymentsAPIKey        string
	PaymentsAPISecret     string
	PaymentsWebhookSecret string
	PaymentsBaseURL       string

	AIAPIKey  string
	AIBaseURL string
	AIModel   string

	CronSecret          string
	MaterializeSchedule string
	PriceSchedule       string
	CatalogPath         string
	Debug               bool
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("Error loading .env file, continuing with system environment variables")
	}

	cfg := &Config{
		HTTPAddr:              env("HTTP_ADDR", ":8080"),
		DBConnectionString:    os.Getenv("DB_CONNECTION_STRING"),
		JWTSecret:             os.Getenv("JWT_SECRET"),
		TemplatesDir:          env("TEMPLATES_DIR", "templates"),
		EmailAddress:          os.Getenv("EMAIL_ADDRESS"),
		EmailPassword:         os.Getenv("EMAIL_PASSWORD"),
		SMTPHost:              env("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:              env("SMTP_PORT", "587"),
		AppBaseURL:            env("APP_BASE_URL", "http://localhost:5173"),
		MarketDataAPIKey:      os.Getenv("MARKET_DATA_API_KEY"),
		PaymentsAPIKey:        os.Getenv("PAYMENTS_API_KEY"),
		PaymentsAPISecret:     os.Getenv("PAYMENTS_API_SECRET"),
		PaymentsWebhookSecret: os.Getenv("PAYMENTS_WEBHOOK_SECRET"),
		PaymentsBaseURL:       env("PAYMENTS_BASE_URL", "https://api.razorpay.com/v1"),
		AIAPIKey:              os.Getenv("AI_API_KEY"),
		AIBaseURL:             env("AI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai/"),
		AIModel:               env("AI_MODEL", "gemini-2.0-flash"),
		CronSecret:            os.Getenv("CRON_SECRET"),
		MaterializeSchedule:   env("MATERIALIZE_SCHEDULE", "@daily"),
		PriceSchedule:         env("PRICE_SCHEDULE", "@every 6h"),
		CatalogPath:           env("CATALOG_PATH", "content/catalog.yaml"),
	}
	cfg.Debug, _ = strconv.ParseBool(os.Getenv("DEBUG"))

	if cfg.JWTSecret == "" {
		return nil, ErrMissingJWTSecret
	}
	if cfg.DBConnectionString == "" {
		return nil, ErrMissingDBString
	}
	return cfg, nil
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
