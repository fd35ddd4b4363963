// Package config reads service configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime knob. Defaults suit a local single-process
// deployment with the file-backed user store.
type Config struct {
	Addr      string
	JWTSecret string

	// PGDSN switches the user store to Postgres when set.
	PGDSN string
	// UsersFile backs the flat-file store when PGDSN is empty.
	UsersFile string
	// StoreStrict makes a malformed users file a startup error instead of
	// degrading to an empty collection.
	StoreStrict bool

	AccessTTL  time.Duration
	RefreshTTL time.Duration

	RateBurst     int
	RatePerSecond int
}

// Load reads configuration, merging in a .env file when one exists.
func Load() (Config, error) {
	// Missing .env is the normal production case.
	_ = godotenv.Load()

	cfg := Config{
		Addr:          getEnv("SOSCANCER_ADDR", ":8080"),
		JWTSecret:     os.Getenv("SOSCANCER_JWT_SECRET"),
		PGDSN:         os.Getenv("SOSCANCER_PG_DSN"),
		UsersFile:     getEnv("SOSCANCER_USERS_FILE", "data/users.json"),
		StoreStrict:   getEnvBool("SOSCANCER_STORE_STRICT", false),
		RateBurst:     getEnvInt("SOSCANCER_RATE_BURST", 20),
		RatePerSecond: getEnvInt("SOSCANCER_RATE_PER_SECOND", 10),
	}

	accessTTL, err := getEnvDuration("SOSCANCER_ACCESS_TTL", 15*time.Minute)
	if err != nil {
		return Config{}, err
	}
	refreshTTL, err := getEnvDuration("SOSCANCER_REFRESH_TTL", 7*24*time.Hour)
	if err != nil {
		return Config{}, err
	}
	cfg.AccessTTL = accessTTL
	cfg.RefreshTTL = refreshTTL

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("SOSCANCER_JWT_SECRET is required")
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, nil
}
