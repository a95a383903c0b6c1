// Package config loads application configuration from environment
// variables.
package config

import (
	"encoding/hex"
	"log"
	"os"
	"strconv"
)

// Config holds all runtime configuration. Token secrets and the at-rest
// encryption key are immutable for the process lifetime; rotating them
// invalidates all outstanding tokens and ciphertexts respectively.
type Config struct {
	Env  string
	Port string

	AccessSecret       string
	RefreshSecret      string
	AccessTTLMin       int
	RefreshTTLDays     int
	BlacklistMaxTTLSec int

	// Bootstrap admin credentials. Both empty is allowed; provisioning is
	// then skipped and only pre-existing accounts can log in.
	AdminEmail    string
	AdminPassword string

	// EncryptionKey is the decoded 32-byte AES key for at-rest API keys.
	EncryptionKey []byte

	BcryptCost int

	// Optional audit trail wiring. Empty DBHost or AMQPURL disables the
	// respective half of the pipeline.
	DBUser  string
	DBPass  string
	DBHost  string
	DBPort  string
	DBName  string
	AMQPURL string
}

// Load reads configuration from the environment. Missing or malformed
// required values abort startup.
func Load() Config {
	cfg := Config{
		Env:                must("APP_ENV"),
		Port:               must("APP_PORT"),
		AccessSecret:       must("JWT_ACCESS_SECRET"),
		RefreshSecret:      must("JWT_REFRESH_SECRET"),
		AccessTTLMin:       mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays:     mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BlacklistMaxTTLSec: mustInt("JWT_BLACKLIST_TTL_SEC"),
		AdminEmail:         os.Getenv("ADMIN_EMAIL"),
		AdminPassword:      os.Getenv("ADMIN_PASSWORD"),
		BcryptCost:         intOr("BCRYPT_COST", 12),
		DBUser:             os.Getenv("DB_USER"),
		DBPass:             os.Getenv("DB_PASS"),
		DBHost:             os.Getenv("DB_HOST"),
		DBPort:             os.Getenv("DB_PORT"),
		DBName:             os.Getenv("DB_NAME"),
		AMQPURL:            os.Getenv("RABBITMQ_URL"),
	}

	if cfg.AccessSecret == cfg.RefreshSecret {
		log.Fatalf("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}

	key, err := hex.DecodeString(must("DB_ENCRYPTION_KEY"))
	if err != nil || len(key) != 32 {
		log.Fatalf("DB_ENCRYPTION_KEY must be 64 hex characters (32 bytes)")
	}
	cfg.EncryptionKey = key

	return cfg
}

// must retrieves a required environment variable or aborts.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must but parses the value as an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// intOr parses an optional integer variable with a default.
func intOr(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
