package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Secrets holds credentials read from the environment rather than the YAML file.
type Secrets struct {
	AlpacaKey     string
	AlpacaSecret  string
	TelegramToken string
}

// LoadSecrets pulls broker and notifier credentials from the environment,
// loading a .env file first if one is present. The telegram token is
// optional; missing broker credentials are an error because the live bot
// cannot start without them.
func LoadSecrets() (*Secrets, error) {
	_ = godotenv.Load() // best-effort

	s := &Secrets{
		AlpacaKey:     os.Getenv("ALPACA_KEY"),
		AlpacaSecret:  os.Getenv("ALPACA_SECRET"),
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
	}
	if s.AlpacaKey == "" || s.AlpacaSecret == "" {
		return nil, fmt.Errorf("missing required environment variable ALPACA_KEY or ALPACA_SECRET")
	}
	return s, nil
}
