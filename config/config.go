package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration. It is constructed once in main
// and passed explicitly to the components that need it.
type Config struct {
	// Database configuration
	DatabaseURL string

	// HTTP adapter configuration
	ListenAddr string

	// Ledger configuration
	StartingBalance int64

	// AdminUserIDs are the user handles allowed to resolve/void markets,
	// adjust balances and reset the store
	AdminUserIDs []string

	// Environment is "development", "production" or "test"
	Environment string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	config := &Config{
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		ListenAddr:      ":8080",
		StartingBalance: 1000,
		Environment:     os.Getenv("ENVIRONMENT"),
	}

	if addr := os.Getenv("LISTEN_ADDR"); addr != "" {
		config.ListenAddr = addr
	}

	if balance := os.Getenv("STARTING_BALANCE"); balance != "" {
		parsed, err := strconv.ParseInt(balance, 10, 64)
		if err != nil || parsed < 0 {
			return nil, fmt.Errorf("invalid STARTING_BALANCE %q", balance)
		}
		config.StartingBalance = parsed
	}

	if adminIDs := os.Getenv("ADMIN_USER_IDS"); adminIDs != "" {
		for _, id := range strings.Split(adminIDs, ",") {
			id = strings.TrimSpace(id)
			if id != "" {
				config.AdminUserIDs = append(config.AdminUserIDs, id)
			}
		}
	}

	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	}

	return config, nil
}

// IsAdmin reports whether the given user handle is on the admin allow-list
func (c *Config) IsAdmin(userID string) bool {
	for _, id := range c.AdminUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}
