package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attendlab/clinic-noshow-sim/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Env)

	assert.Equal(t, "memory", cfg.Simulation.StoreBackend)
	assert.Empty(t, cfg.Simulation.StartDate)
	assert.Zero(t, cfg.Simulation.RandomSeed)
	assert.False(t, cfg.Simulation.SeedDemoData)

	assert.Empty(t, cfg.Scorer.Endpoint)
	assert.Equal(t, 10*time.Second, cfg.Scorer.Timeout)

	assert.False(t, cfg.OTEL.Enabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("SIM_START_DATE", "2025-01-06")
	t.Setenv("SIM_RANDOM_SEED", "42")
	t.Setenv("SIM_SEED_DEMO_DATA", "true")
	t.Setenv("SCORER_ENDPOINT", "http://scorer:9000")
	t.Setenv("SCORER_TIMEOUT_SECONDS", "3")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Simulation.StoreBackend)
	assert.Equal(t, "2025-01-06", cfg.Simulation.StartDate)
	assert.Equal(t, int64(42), cfg.Simulation.RandomSeed)
	assert.True(t, cfg.Simulation.SeedDemoData)
	assert.Equal(t, "http://scorer:9000", cfg.Scorer.Endpoint)
	assert.Equal(t, 3*time.Second, cfg.Scorer.Timeout)
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-port")
	t.Setenv("SIM_SEED_DEMO_DATA", "definitely")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.False(t, cfg.Simulation.SeedDemoData)
}

func TestDatabaseDSN(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:     "db",
		Port:     5433,
		User:     "sim",
		Password: "secret",
		Database: "noshow",
		SSLMode:  "disable",
	}

	assert.Equal(t, "host=db port=5433 user=sim password=secret dbname=noshow sslmode=disable", cfg.DatabaseDSN())
}

func TestRedisAddr(t *testing.T) {
	cfg := config.RedisConfig{Host: "cache", Port: 6380}
	assert.Equal(t, "cache:6380", cfg.RedisAddr())
}
