package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration values.
type Config struct {
	APIBaseURL    string
	HTTPTimeout   time.Duration
	SessionFile   string
	RazorpayKeyID string
}

// Load reads environment variables and returns a populated Config.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		APIBaseURL:    getEnv("API_BASE_URL", "http://localhost:3000"),
		HTTPTimeout:   getEnvDuration("HTTP_TIMEOUT_SECONDS", 15) * time.Second,
		SessionFile:   getEnv("SESSION_FILE", defaultSessionFile()),
		RazorpayKeyID: getEnv("RAZORPAY_KEY_ID", ""),
	}

	if cfg.APIBaseURL == "" {
		log.Fatal("API_BASE_URL must be set")
	}

	return cfg
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "session.json"
	}
	return filepath.Join(home, ".devifoods", "session.json")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback int) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return time.Duration(parsed)
		}
	}
	return time.Duration(fallback)
}
