package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/chopchop-pos/order-engine/internal/money"
)

type AppConfig struct {
	Port         string
	MerchantName string
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MigrationsPath  string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type EngineConfig struct {
	TaxRate         decimal.Decimal
	QRRailAddress   string
	QRVerifyTimeout time.Duration
	SweepInterval   time.Duration
	SweepBatchSize  int
}

type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Engine   EngineConfig
}

// Load reads configuration from the environment, optionally seeded from a
// .env file. Database settings are required; everything else has defaults.
func Load(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	cfg := &Config{}
	cfg.App.Port = getEnv("APP_PORT", "8080")
	cfg.App.MerchantName = getEnv("MERCHANT_NAME", "ChopChopRestaurant")

	for _, req := range []struct {
		key string
		dst *string
	}{
		{"DB_HOST", &cfg.Postgres.Host},
		{"DB_PORT", &cfg.Postgres.Port},
		{"DB_USER", &cfg.Postgres.User},
		{"DB_PASSWORD", &cfg.Postgres.Password},
		{"DB_NAME", &cfg.Postgres.DBName},
	} {
		*req.dst = os.Getenv(req.key)
		if *req.dst == "" {
			return nil, fmt.Errorf("%s is required", req.key)
		}
	}

	cfg.Postgres.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Postgres.MigrationsPath = getEnv("DB_MIGRATIONS_PATH", "migrations")
	cfg.Postgres.MaxConns = 10
	cfg.Postgres.MinConns = 2
	cfg.Postgres.MaxConnLifetime = 30 * time.Minute

	cfg.Engine.TaxRate = money.DefaultTaxRate
	if v := os.Getenv("TAX_RATE"); v != "" {
		taxRate, err := decimal.NewFromString(v)
		if err != nil {
			return nil, fmt.Errorf("invalid TAX_RATE: %w", err)
		}
		cfg.Engine.TaxRate = taxRate
	}

	cfg.Engine.QRRailAddress = getEnv("QR_RAIL_ADDRESS", "http://localhost:8081")

	var err error
	cfg.Engine.QRVerifyTimeout, err = getDuration("QR_VERIFY_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.Engine.SweepInterval, err = getDuration("INVOICE_SWEEP_INTERVAL", time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.Engine.SweepBatchSize, err = getInt("INVOICE_SWEEP_BATCH_SIZE", 20)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
