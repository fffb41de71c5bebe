package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"FLARE_RPC_URL", "FLARE_RPC_FALLBACK_URL", "DATABASE_URL", "REDIS_URL",
		"INDEXER_POLL_INTERVAL_MS", "INDEXER_REORG_WINDOW", "JWT_SECRET",
		"JWT_EXPIRY_HOURS", "TELEGRAM_BOT_TOKEN", "DISCORD_BOT_TOKEN",
		"RESEND_API_KEY", "EMAIL_FROM", "DB_MAX_CONNECTIONS",
	}
	for _, k := range keys {
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestFromEnvRequiresDatabaseURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "shh")
	_, err := FromEnv()
	require.ErrorContains(t, err, "DATABASE_URL")
}

func TestFromEnvRequiresJWTSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/flare")
	_, err := FromEnv()
	require.ErrorContains(t, err, "JWT_SECRET")
}

func TestFromEnvAppliesDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/flare")
	t.Setenv("JWT_SECRET", "shh")

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, "https://flare-api.flare.network/ext/C/rpc", cfg.FlareRPCURL)
	require.Equal(t, "redis://localhost:6379", cfg.RedisURL)
	require.Equal(t, 1500*time.Millisecond, cfg.PollInterval)
	require.Equal(t, uint64(10), cfg.ReorgWindow)
	require.Equal(t, uint64(24), cfg.JWTExpiryHours)
	require.Equal(t, 20, cfg.DBMaxConnections)
}

func TestFromEnvOverridesDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/flare")
	t.Setenv("JWT_SECRET", "shh")
	t.Setenv("INDEXER_POLL_INTERVAL_MS", "2500")
	t.Setenv("INDEXER_REORG_WINDOW", "20")

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, 2500*time.Millisecond, cfg.PollInterval)
	require.Equal(t, uint64(20), cfg.ReorgWindow)
}

func TestFromEnvRejectsNonNumericPollInterval(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/flare")
	t.Setenv("JWT_SECRET", "shh")
	t.Setenv("INDEXER_POLL_INTERVAL_MS", "not-a-number")

	_, err := FromEnv()
	require.Error(t, err)
}
