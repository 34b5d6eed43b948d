package database

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// LoadConfigFromEnv loads database connection settings from RELAY_DB_*
// environment variables, with localhost defaults for development.
// RELAY_DATABASE_URL, when set, overrides the individual settings with a
// full DSN.
func LoadConfigFromEnv() (Config, error) {
	if url := os.Getenv("RELAY_DATABASE_URL"); url != "" {
		return Config{
			URL:             url,
			Database:        getEnvOrDefault("RELAY_DB_NAME", "relay"),
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
		}, nil
	}

	port, err := strconv.Atoi(getEnvOrDefault("RELAY_DB_PORT", "5432"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid RELAY_DB_PORT: %w", err)
	}

	maxOpen, _ := strconv.Atoi(getEnvOrDefault("RELAY_DB_MAX_OPEN_CONNS", "10"))
	maxIdle, _ := strconv.Atoi(getEnvOrDefault("RELAY_DB_MAX_IDLE_CONNS", "5"))

	return Config{
		Host:            getEnvOrDefault("RELAY_DB_HOST", "localhost"),
		Port:            port,
		User:            getEnvOrDefault("RELAY_DB_USER", "relay"),
		Password:        os.Getenv("RELAY_DB_PASSWORD"),
		Database:        getEnvOrDefault("RELAY_DB_NAME", "relay"),
		SSLMode:         getEnvOrDefault("RELAY_DB_SSLMODE", "disable"),
		MaxOpenConns:    maxOpen,
		MaxIdleConns:    maxIdle,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
	}, nil
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
