// Package config loads the indexer's environment configuration. Grounded
// on flare_common::config::AppConfig (common/src/config.rs): same
// variable names, same defaults, same required/optional split (spec §6).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mangekyou-labs/flare-emissary/internal/chainerr"
)

// Config is the process-wide configuration loaded once at startup.
type Config struct {
	// FlareRPCURL is the primary chain RPC endpoint.
	FlareRPCURL string
	// FlareRPCFallbackURL is consulted when the primary endpoint errors
	// out (wiring of the fallback itself is left to cmd/, spec §6).
	FlareRPCFallbackURL string

	DatabaseURL string
	RedisURL    string

	PollInterval time.Duration
	ReorgWindow  uint64

	JWTSecret      string
	JWTExpiryHours uint64

	TelegramBotToken string
	DiscordBotToken  string
	ResendAPIKey     string
	EmailFrom        string

	DBMaxConnections int
}

// FromEnv loads Config from the process environment, applying the
// defaults named in spec §6. DatabaseURL and JWTSecret are required; a
// missing required variable is a Fatal per spec §7.
func FromEnv() (*Config, error) {
	cfg := &Config{
		FlareRPCURL:         getenvDefault("FLARE_RPC_URL", "https://flare-api.flare.network/ext/C/rpc"),
		FlareRPCFallbackURL: os.Getenv("FLARE_RPC_FALLBACK_URL"),
		RedisURL:            getenvDefault("REDIS_URL", "redis://localhost:6379"),
		TelegramBotToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		DiscordBotToken:     os.Getenv("DISCORD_BOT_TOKEN"),
		ResendAPIKey:        os.Getenv("RESEND_API_KEY"),
		EmailFrom:           os.Getenv("EMAIL_FROM"),
	}

	var err error
	if cfg.DatabaseURL, err = requireEnv("DATABASE_URL"); err != nil {
		return nil, err
	}
	if cfg.JWTSecret, err = requireEnv("JWT_SECRET"); err != nil {
		return nil, err
	}

	pollMS, err := parseUintDefault("INDEXER_POLL_INTERVAL_MS", 1500)
	if err != nil {
		return nil, fmt.Errorf("INDEXER_POLL_INTERVAL_MS must be a valid uint: %w", err)
	}
	cfg.PollInterval = time.Duration(pollMS) * time.Millisecond

	if cfg.ReorgWindow, err = parseUintDefault("INDEXER_REORG_WINDOW", 10); err != nil {
		return nil, fmt.Errorf("INDEXER_REORG_WINDOW must be a valid uint: %w", err)
	}
	if cfg.JWTExpiryHours, err = parseUintDefault("JWT_EXPIRY_HOURS", 24); err != nil {
		return nil, fmt.Errorf("JWT_EXPIRY_HOURS must be a valid uint: %w", err)
	}

	dbMax, err := parseUintDefault("DB_MAX_CONNECTIONS", 20)
	if err != nil {
		return nil, fmt.Errorf("DB_MAX_CONNECTIONS must be a valid uint: %w", err)
	}
	cfg.DBMaxConnections = int(dbMax)

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) (string, error) {
	v := os.Getenv(key)
	if v == "" {
		return "", chainerr.NewFatal(fmt.Errorf("%s environment variable is required", key))
	}
	return v, nil
}

func parseUintDefault(key string, def uint64) (uint64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	return strconv.ParseUint(v, 10, 64)
}
