package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	Environment    string // "development" or "production"
	RedisURL       string
	GridAPIKey     string
	DatabaseURL    string
	GeminiAPIKey   string // optional: report summaries degrade to plain rendering without it
	WindowMonths   int    // default analysis window for scouting reports
	TrustedProxies string
}

func Load() (*Config, error) {
	// Load .env file (OK if it fails in production)
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: .env file not found: %v\n", err)
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		RedisURL:       os.Getenv("REDIS_URL"),
		GridAPIKey:     os.Getenv("GRID_API_KEY"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		WindowMonths:   getEnvInt("ANALYSIS_WINDOW_MONTHS", 12),
		TrustedProxies: os.Getenv("TRUSTED_PROXIES"),
	}

	// Validate required fields
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL environment variable is required")
	}
	if cfg.GridAPIKey == "" {
		return nil, fmt.Errorf("GRID_API_KEY environment variable is required")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if cfg.WindowMonths < 1 {
		return nil, fmt.Errorf("ANALYSIS_WINDOW_MONTHS must be a positive integer")
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
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
