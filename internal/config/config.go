package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// Config holds everything both processes read from the environment.
// The API needs the database and the broker; the worker needs the broker,
// the API base URL and the worker key.
type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisAddr     string
	RedisPassword string

	JWTSecret string

	// WorkerKey is the static shared secret the worker presents on
	// /internal routes. It is not a user credential.
	WorkerKey string

	// APIBaseURL is where the worker calls back to complete deliveries.
	APIBaseURL string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("Failed to load .env file", "error", err)
	}

	cfg := &Config{
		DBHost:        os.Getenv("DB_HOST"),
		DBPort:        os.Getenv("DB_PORT"),
		DBUser:        os.Getenv("DB_USER"),
		DBPassword:    os.Getenv("DB_PASSWORD"),
		DBName:        os.Getenv("DB_NAME"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		WorkerKey:     os.Getenv("WORKER_KEY"),
		APIBaseURL:    os.Getenv("API_BASE_URL"),
	}

	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "http://localhost:8080"
	}

	// The broker is not optional: starting without it would silently
	// degrade to no async delivery.
	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("REDIS_ADDR is required")
	}

	return cfg, nil
}

// ValidateAPI checks the variables only the API process needs.
func (c *Config) ValidateAPI() error {
	if c.DBHost == "" || c.DBPort == "" || c.DBUser == "" || c.DBPassword == "" || c.DBName == "" {
		return fmt.Errorf("missing required database environment variables: DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.WorkerKey == "" {
		return fmt.Errorf("WORKER_KEY is required")
	}
	return nil
}

// ValidateWorker checks the variables only the worker process needs.
func (c *Config) ValidateWorker() error {
	if c.WorkerKey == "" {
		return fmt.Errorf("WORKER_KEY is required")
	}
	return nil
}
