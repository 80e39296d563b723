package config

import (
	"fmt"
	"math/big"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
)

// DefaultJWTSecret signs admin tokens when JWT_SECRET is unset. Local use only.
const DefaultJWTSecret = "dev-only-change-me"

type Config struct {
	// Telegram Bot
	BotToken string

	// Public base URL used to register the webhook. Empty means long polling.
	ServerURL string

	// Database
	DatabaseURL string

	// Chain
	RPCURL         string
	FactoryAddress common.Address
	ChainID        *big.Int
	ExplorerURI    string
	TxTimeout      time.Duration
	LightKeystore  bool

	// Web Server
	WebBind string

	// Admin API
	JWTSecret string

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() (*Config, error) {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	cfg := &Config{
		BotToken:    os.Getenv("BOT_TOKEN"),
		ServerURL:   strings.TrimRight(os.Getenv("SERVER_URL"), "/"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RPCURL:      os.Getenv("RPC_URL"),
		ExplorerURI: strings.TrimRight(os.Getenv("EXPLORER_URI"), "/"),
		WebBind:     getEnvDefault("WEB_BIND", "0.0.0.0:5000"),
		JWTSecret:   getEnvDefault("JWT_SECRET", DefaultJWTSecret),
		LogLevel:    getEnvDefault("LOG_LEVEL", "info"),
		LogFormat:   getEnvDefault("LOG_FORMAT", "text"),
	}

	if cfg.BotToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN is required")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("RPC_URL is required")
	}

	addr := os.Getenv("CONTRACT_ADDRESS")
	if !common.IsHexAddress(addr) {
		return nil, fmt.Errorf("CONTRACT_ADDRESS must be a hex address, got %q", addr)
	}
	cfg.FactoryAddress = common.HexToAddress(addr)

	if raw := os.Getenv("CHAIN_ID"); raw != "" {
		id, ok := new(big.Int).SetString(raw, 10)
		if !ok || id.Sign() <= 0 {
			return nil, fmt.Errorf("CHAIN_ID must be a positive integer, got %q", raw)
		}
		cfg.ChainID = id
	}

	timeout, err := time.ParseDuration(getEnvDefault("TX_TIMEOUT", "2m"))
	if err != nil {
		return nil, fmt.Errorf("TX_TIMEOUT: %w", err)
	}
	cfg.TxTimeout = timeout

	switch scrypt := getEnvDefault("KEYSTORE_SCRYPT", "standard"); scrypt {
	case "standard":
	case "light":
		cfg.LightKeystore = true
	default:
		return nil, fmt.Errorf("KEYSTORE_SCRYPT must be standard or light, got %q", scrypt)
	}

	if cfg.ServerURL != "" {
		if _, err := url.ParseRequestURI(cfg.ServerURL); err != nil {
			return nil, fmt.Errorf("SERVER_URL: %w", err)
		}
	}

	return cfg, nil
}

// DefaultSecret reports whether the admin API is signed with the public
// development secret.
func (c *Config) DefaultSecret() bool {
	return c.JWTSecret == DefaultJWTSecret
}

// WebhookPath is the route Telegram pushes updates to.
func (c *Config) WebhookPath() string {
	return "/bot" + c.BotToken
}

// WebhookURL returns the public webhook URL, or "" when polling.
func (c *Config) WebhookURL() string {
	if c.ServerURL == "" {
		return ""
	}
	return c.ServerURL + c.WebhookPath()
}

func getEnvDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
