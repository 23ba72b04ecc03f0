// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds everything parlayd needs from the environment. Flags may
// override the non-secret fields.
type Config struct {
	// Secrets
	OddsAPIKey       string // ODDS_API_KEY, required
	OpenRouterAPIKey string // OPENROUTER_API_KEY, required
	SerperAPIKey     string // SERPER_API_KEY, optional; empty disables research

	// Service
	HTTPAddr     string // HTTP_ADDR, default ":8080"
	DefaultModel string // DEFAULT_MODEL, default "openai/gpt-4o-mini"
}

// Load reads a .env file if present, then resolves the environment. Missing
// required secrets are an error; optional fields fall back to defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := &Config{
		OddsAPIKey:       os.Getenv("ODDS_API_KEY"),
		OpenRouterAPIKey: os.Getenv("OPENROUTER_API_KEY"),
		SerperAPIKey:     os.Getenv("SERPER_API_KEY"),
		HTTPAddr:         getenvDefault("HTTP_ADDR", ":8080"),
		DefaultModel:     getenvDefault("DEFAULT_MODEL", "openai/gpt-4o-mini"),
	}

	var missing []string
	if cfg.OddsAPIKey == "" {
		missing = append(missing, "ODDS_API_KEY")
	}
	if cfg.OpenRouterAPIKey == "" {
		missing = append(missing, "OPENROUTER_API_KEY")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %v", missing)
	}

	return cfg, nil
}

// ResearchEnabled reports whether a search key is configured.
func (c *Config) ResearchEnabled() bool {
	return c.SerperAPIKey != ""
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
