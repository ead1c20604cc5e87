package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/SscSPs/campus_escrow/internal/core/domain"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	defaultJWTSecret = "a-very-secret-key-should-be-longer-and-random"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL    string
	Port           string
	IsProduction   bool
	EnableDBCheck  bool
	StoreDriver    string
	MigrationsPath string
	JWTSecret      string

	// Ledger policy
	CommissionRate         decimal.Decimal
	CurrencyCode           string
	RequireVerifiedRelease bool
	SweepBatchSize         int

	// Auto-release worker
	AutoReleaseEnabled  bool
	AutoReleaseInterval time.Duration
	AutoReleaseAfter    time.Duration
	SweepLockTTL        time.Duration

	// Payment provider
	PaystackSecretKey    string
	PaystackBaseURL      string
	PaymentVerifyTimeout time.Duration

	RedisURL           string
	PosthogAPIKey      string
	PosthogEndpoint    string
	RateLimit          string
	CORSAllowedOrigins []string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("ENABLE_DB_CHECK", false)
	v.SetDefault("STORE_DRIVER", StoreDriverPostgres)
	v.SetDefault("MIGRATIONS_PATH", "file://migrations")
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("COMMISSION_RATE", domain.DefaultCommissionRate.String())
	v.SetDefault("CURRENCY", "NGN")
	v.SetDefault("REQUIRE_VERIFIED_RELEASE", false)
	v.SetDefault("SWEEP_BATCH_SIZE", 500)
	v.SetDefault("AUTO_RELEASE_ENABLED", true)
	v.SetDefault("AUTO_RELEASE_INTERVAL", "60s")
	v.SetDefault("AUTO_RELEASE_AFTER", "24h")
	v.SetDefault("SWEEP_LOCK_TTL", "55s")
	v.SetDefault("PAYSTACK_SECRET_KEY", "")
	v.SetDefault("PAYSTACK_BASE_URL", "https://api.paystack.co")
	v.SetDefault("PAYMENT_VERIFY_TIMEOUT", "10s")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("POSTHOG_API_KEY", "")
	v.SetDefault("POSTHOG_ENDPOINT", "")
	v.SetDefault("RATE_LIMIT", "120-M")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")

	v.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:            v.GetString("PGSQL_URL"),
		Port:                   v.GetString("PORT"),
		IsProduction:           v.GetBool("IS_PRODUCTION"),
		EnableDBCheck:          v.GetBool("ENABLE_DB_CHECK"),
		StoreDriver:            strings.ToLower(strings.TrimSpace(v.GetString("STORE_DRIVER"))),
		MigrationsPath:         v.GetString("MIGRATIONS_PATH"),
		JWTSecret:              v.GetString("JWT_SECRET"),
		CurrencyCode:           strings.ToUpper(v.GetString("CURRENCY")),
		RequireVerifiedRelease: v.GetBool("REQUIRE_VERIFIED_RELEASE"),
		SweepBatchSize:         v.GetInt("SWEEP_BATCH_SIZE"),
		AutoReleaseEnabled:     v.GetBool("AUTO_RELEASE_ENABLED"),
		PaystackSecretKey:      v.GetString("PAYSTACK_SECRET_KEY"),
		PaystackBaseURL:        v.GetString("PAYSTACK_BASE_URL"),
		RedisURL:               v.GetString("REDIS_URL"),
		PosthogAPIKey:          v.GetString("POSTHOG_API_KEY"),
		PosthogEndpoint:        v.GetString("POSTHOG_ENDPOINT"),
		RateLimit:              v.GetString("RATE_LIMIT"),
		CORSAllowedOrigins:     splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
	}

	if cfg.Port == "" {
		cfg.Port = "8080" // Default port
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("PGSQL_URL is required when STORE_DRIVER=%s", StoreDriverPostgres)
		}
	case StoreDriverMemory:
		log.Println("Warning: STORE_DRIVER=memory, escrow records will not survive a restart.")
	default:
		return nil, fmt.Errorf("invalid STORE_DRIVER %q, want %s or %s", cfg.StoreDriver, StoreDriverPostgres, StoreDriverMemory)
	}

	if cfg.JWTSecret == "" || cfg.JWTSecret == defaultJWTSecret {
		if cfg.IsProduction {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		cfg.JWTSecret = defaultJWTSecret // !! CHANGE IN PRODUCTION !!
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	rate, err := decimal.NewFromString(strings.TrimSpace(v.GetString("COMMISSION_RATE")))
	if err != nil {
		return nil, fmt.Errorf("invalid COMMISSION_RATE: %w", err)
	}
	if !domain.ValidCommissionRate(rate) {
		return nil, fmt.Errorf("invalid COMMISSION_RATE %s, must be in [0, 1) with at most %d decimal places", rate, domain.CommissionRatePlaces)
	}
	cfg.CommissionRate = rate

	if cfg.SweepBatchSize <= 0 {
		log.Printf("Warning: Invalid value for SWEEP_BATCH_SIZE (%d). Defaulting to 500.\n", cfg.SweepBatchSize)
		cfg.SweepBatchSize = 500
	}

	cfg.AutoReleaseInterval = durationOrDefault(v, "AUTO_RELEASE_INTERVAL", time.Minute)
	cfg.AutoReleaseAfter = durationOrDefault(v, "AUTO_RELEASE_AFTER", 24*time.Hour)
	cfg.SweepLockTTL = durationOrDefault(v, "SWEEP_LOCK_TTL", 55*time.Second)
	cfg.PaymentVerifyTimeout = durationOrDefault(v, "PAYMENT_VERIFY_TIMEOUT", 10*time.Second)

	if cfg.PaystackSecretKey == "" {
		log.Println("Warning: PAYSTACK_SECRET_KEY not set. Checkout and payment verification will not function.")
	}

	return cfg, nil
}

// durationOrDefault parses key as a duration, falling back to def on a missing,
// invalid or non-positive value.
func durationOrDefault(v *viper.Viper, key string, def time.Duration) time.Duration {
	raw := v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, def)
		}
		return def
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
