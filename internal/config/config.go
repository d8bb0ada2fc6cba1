package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	Database DatabaseConfig `envconfig:"DB"`
	Server   ServerConfig   `envconfig:"SERVER"`
	App      AppConfig      `envconfig:"APP"`
	Match    MatchConfig    `envconfig:"MATCH"`
	Redis    RedisConfig    `envconfig:"REDIS"`
}

type DatabaseConfig struct {
	Host         string `envconfig:"HOST" default:"localhost"`
	Port         string `envconfig:"PORT" default:"5432"`
	User         string `envconfig:"USER" default:"postgres"`
	Password     string `envconfig:"PASSWORD" default:"postgres"`
	DBName       string `envconfig:"NAME" default:"recon_db"`
	SSLMode      string `envconfig:"SSLMODE" default:"disable"`
	MaxOpenConns int    `envconfig:"MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns int    `envconfig:"MAX_IDLE_CONNS" default:"5"`
}

type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8080"`
}

type AppConfig struct {
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	BatchSize   int    `envconfig:"BATCH_SIZE" default:"10000"`
	AutoMigrate bool   `envconfig:"AUTO_MIGRATE" default:"true"`
	Timezone    string `envconfig:"TIMEZONE" default:"Asia/Bangkok"`
	// AtomicConfirm wraps a ledger confirmation in one transaction. When false
	// rows are written one by one and the batch stops at the first failure.
	AtomicConfirm bool `envconfig:"ATOMIC_CONFIRM" default:"true"`
}

type MatchConfig struct {
	AmountTolerance decimal.Decimal `envconfig:"AMOUNT_TOLERANCE" default:"1"`
}

// RedisConfig is optional: an empty Addr disables the order lock and the summary cache.
type RedisConfig struct {
	Addr       string        `envconfig:"ADDR"`
	Password   string        `envconfig:"PASSWORD"`
	DB         int           `envconfig:"DB" default:"0"`
	LockTTL    time.Duration `envconfig:"LOCK_TTL" default:"15s"`
	SummaryTTL time.Duration `envconfig:"SUMMARY_TTL" default:"5m"`
}

func Load() (*Config, error) {
	// .env is a local convenience; a missing file is not an error.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if cfg.App.BatchSize <= 0 {
		cfg.App.BatchSize = 10000
	}
	if cfg.Match.AmountTolerance.IsNegative() {
		return nil, fmt.Errorf("MATCH_AMOUNT_TOLERANCE must not be negative")
	}
	if _, err := cfg.App.Location(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// Location resolves the reporting timezone used for periods and days overdue.
func (c *AppConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *RedisConfig) Enabled() bool {
	return c.Addr != ""
}
