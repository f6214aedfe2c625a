package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all configuration for the application
type Config struct {
	// Server
	Port            int
	Debug           bool
	ShutdownTimeout int // seconds

	// Exercises
	ExercisesPath string

	// Progress storage. DatabaseURL selects Postgres; when empty the
	// daemon falls back to the embedded SQLite store at SQLitePath.
	DatabaseURL string
	SQLitePath  string

	// RabbitMQ progress event fan-out. Empty disables the queue.
	RabbitMQURL     string
	ConsumerWorkers int

	// Redis best-score cache. Empty disables the cache.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Upstream progress API. Set to mirror results into a remote
	// service instead of the local store.
	ProgressAPIURL string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:            getEnvInt("PORT", 8080),
		Debug:           getEnvBool("DEBUG", false),
		ShutdownTimeout: getEnvInt("SHUTDOWN_TIMEOUT", 10),
		ExercisesPath:   getEnv("EXERCISES_PATH", "./exercises"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		SQLitePath:      getEnv("SQLITE_PATH", "./data/stepwise.db"),
		RabbitMQURL:     getEnv("RABBITMQ_URL", ""),
		ConsumerWorkers: getEnvInt("CONSUMER_WORKERS", 2),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		ProgressAPIURL:  getEnv("PROGRESS_API_URL", ""),
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("PORT must be between 1 and 65535, got %d", cfg.Port)
	}
	if cfg.DatabaseURL == "" && cfg.SQLitePath == "" {
		return nil, fmt.Errorf("either DATABASE_URL or SQLITE_PATH must be set")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
