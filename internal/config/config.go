package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewTierCatalogHolder),
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	OTLPEndpoint string

	AdminAPIToken string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBPath            string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	Stripe    StripeConfig
	Payment   PaymentConfig
	RateLimit RateLimitConfig
	Events    EventsConfig
	Scheduler SchedulerConfig
}

type StripeConfig struct {
	SecretKey           string
	WebhookSecret       string
	StatementDescriptor string
}

// Configured reports whether a secret key is present.
func (s StripeConfig) Configured() bool {
	return strings.TrimSpace(s.SecretKey) != ""
}

type PaymentConfig struct {
	DefaultCurrency string
	VerifyTierPrice bool
}

type RateLimitConfig struct {
	Backend       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	PaymentIntentLimit  int
	PaymentIntentWindow time.Duration
	RegistrationLimit   int
	RegistrationWindow  time.Duration
	InvestorLimit       int
	InvestorWindow      time.Duration
}

type EventsConfig struct {
	AMQPURL  string
	Exchange string
}

type SchedulerConfig struct {
	Enabled     bool
	RunInterval time.Duration
	BatchSize   int
	EnabledJobs []string
}

const (
	RateLimitBackendMemory = "memory"
	RateLimitBackendRedis  = "redis"
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:       getenv("APP_SERVICE", "foundr"),
		AppVersion:    getenv("APP_VERSION", "0.1.0"),
		Environment:   getenv("ENVIRONMENT", "development"),
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		OTLPEndpoint:  getenv("OTLP_ENDPOINT", "localhost:4317"),
		AdminAPIToken: strings.TrimSpace(getenv("ADMIN_API_TOKEN", "")),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "foundr"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBPath:            getenv("DATABASE_PATH", "foundr.db"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),

		Stripe: StripeConfig{
			SecretKey:           strings.TrimSpace(getenv("STRIPE_SECRET_KEY", "")),
			WebhookSecret:       strings.TrimSpace(getenv("STRIPE_WEBHOOK_SECRET", "")),
			StatementDescriptor: getenv("STRIPE_STATEMENT_DESCRIPTOR", "THEFOUNDR MEMBER"),
		},
		Payment: PaymentConfig{
			DefaultCurrency: strings.ToLower(getenv("PAYMENT_DEFAULT_CURRENCY", "eur")),
			VerifyTierPrice: getenvBool("PAYMENT_VERIFY_TIER_PRICE", true),
		},
		RateLimit: RateLimitConfig{
			Backend:             strings.ToLower(getenv("RATE_LIMIT_BACKEND", RateLimitBackendMemory)),
			RedisAddr:           strings.TrimSpace(getenv("REDIS_ADDR", "")),
			RedisPassword:       strings.TrimSpace(getenv("REDIS_PASSWORD", "")),
			RedisDB:             getenvInt("REDIS_DB", 0),
			PaymentIntentLimit:  getenvInt("RATE_LIMIT_PAYMENT_INTENT_LIMIT", 10),
			PaymentIntentWindow: getenvDuration("RATE_LIMIT_PAYMENT_INTENT_WINDOW", time.Minute),
			RegistrationLimit:   getenvInt("RATE_LIMIT_REGISTRATION_LIMIT", 5),
			RegistrationWindow:  getenvDuration("RATE_LIMIT_REGISTRATION_WINDOW", 5*time.Minute),
			InvestorLimit:       getenvInt("RATE_LIMIT_INVESTOR_LIMIT", 5),
			InvestorWindow:      getenvDuration("RATE_LIMIT_INVESTOR_WINDOW", 5*time.Minute),
		},
		Events: EventsConfig{
			AMQPURL:  strings.TrimSpace(getenv("AMQP_URL", "")),
			Exchange: getenv("AMQP_EXCHANGE", "foundr.events"),
		},
		Scheduler: SchedulerConfig{
			Enabled:     getenvBool("SCHEDULER_ENABLED", true),
			RunInterval: getenvDuration("SCHEDULER_RUN_INTERVAL", 5*time.Minute),
			BatchSize:   getenvInt("SCHEDULER_BATCH_SIZE", 100),
			EnabledJobs: getenvList("SCHEDULER_JOBS"),
		},
	}

	return cfg
}

// IsProduction reports whether the service runs in production.
func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getenvDuration accepts Go durations ("90s") or plain seconds ("90").
func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	if parsed, err := time.ParseDuration(value); err == nil && parsed > 0 {
		return parsed
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return def
}
