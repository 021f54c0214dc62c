// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ericfisherdev/tokenvault/internal/encryption"
)

// Config holds the vault configuration loaded from environment variables.
type Config struct {
	// DBPath is the SQLite database file. TOKENVAULT_DB_PATH, default
	// "tokenvault.db".
	DBPath string
	// EncryptionKey is the base64 AES-256 key. TOKENVAULT_ENCRYPTION_KEY;
	// may be empty here, the cipher re-resolves it and fails fast at
	// construction when no key is available anywhere.
	EncryptionKey string
	// LogLevel controls slog output. TOKENVAULT_LOG_LEVEL, one of
	// debug/info/warn/error, default info.
	LogLevel slog.Level
}

// Load reads configuration from environment variables and returns a validated
// Config.
func Load() (*Config, error) {
	dbPath := "tokenvault.db"
	if v, ok := os.LookupEnv("TOKENVAULT_DB_PATH"); ok && v != "" {
		dbPath = v
	}

	level := slog.LevelInfo
	if v, ok := os.LookupEnv("TOKENVAULT_LOG_LEVEL"); ok && v != "" {
		switch strings.ToLower(v) {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		default:
			return nil, fmt.Errorf("TOKENVAULT_LOG_LEVEL has invalid level %q (want debug, info, warn, or error)", v)
		}
	}

	return &Config{
		DBPath:        dbPath,
		EncryptionKey: os.Getenv(encryption.EnvKey),
		LogLevel:      level,
	}, nil
}
