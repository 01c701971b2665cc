package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const defaultDatabaseURL = "./data/nem_price.db"

// Config holds the process environment settings. Everything else the bot
// needs lives in SQLite.
type Config struct {
	TeloxideToken string
	DatabaseURL   string
	AdminChatID   int64 // 0 = no admin notifications
}

// Load reads .env (if present) and the process environment.
// A missing TELOXIDE_TOKEN is fatal; everything else has a default.
func Load() (*Config, error) {
	// .env is a convenience for local runs; deployed instances use real env vars.
	godotenv.Load()

	token := os.Getenv("TELOXIDE_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELOXIDE_TOKEN not set")
	}

	cfg := &Config{
		TeloxideToken: token,
		DatabaseURL:   defaultDatabaseURL,
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("ADMIN_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ADMIN_CHAT_ID %q: %w", v, err)
		}
		cfg.AdminChatID = id
	}
	return cfg, nil
}
