package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 10000, cfg.App.BatchSize)
	assert.True(t, cfg.App.AtomicConfirm)
	assert.True(t, cfg.Match.AmountTolerance.Equal(decimal.NewFromInt(1)))
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, 15*time.Second, cfg.Redis.LockTTL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("MATCH_AMOUNT_TOLERANCE", "0.5")
	t.Setenv("APP_ATOMIC_CONFIRM", "false")
	t.Setenv("REDIS_ADDR", "127.0.0.1:6379")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.True(t, cfg.Match.AmountTolerance.Equal(decimal.RequireFromString("0.5")))
	assert.False(t, cfg.App.AtomicConfirm)
	assert.True(t, cfg.Redis.Enabled())
}

func TestLoad_RejectsNegativeTolerance(t *testing.T) {
	t.Setenv("MATCH_AMOUNT_TOLERANCE", "-1")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RejectsUnknownTimezone(t *testing.T) {
	t.Setenv("APP_TIMEZONE", "Mars/Olympus")

	_, err := Load()
	assert.Error(t, err)
}

func TestDatabaseConfig_ConnectionString(t *testing.T) {
	db := DatabaseConfig{Host: "h", Port: "1", User: "u", Password: "p", DBName: "d", SSLMode: "disable"}
	assert.Equal(t, "host=h port=1 user=u password=p dbname=d sslmode=disable", db.ConnectionString())
}
