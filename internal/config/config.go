package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config carries the process-wide settings. Everything is read from the
// environment, optionally seeded from a .env file.
type Config struct {
	Port  string
	Debug bool

	// MarketplaceAccount is the custody address the marketplace uses at the
	// asset and currency collaborators.
	MarketplaceAccount string

	RegistryOwner string
	FeeRecipient  string
	FeeRateBps    uint64

	// DataDir enables the durable badger ledger when set; empty keeps the
	// ledger in memory.
	DataDir string

	// WebhookURL enables event delivery over HTTP when set.
	WebhookURL string
}

// Init loads the optional .env file into the process environment.
func Init() {
	_ = godotenv.Load(".env")
}

// Get reads the current configuration from the environment.
func Get() *Config {
	return &Config{
		Port:               getString("PORT", "8081"),
		Debug:              getBool("DEBUG", false),
		MarketplaceAccount: getString("MARKETPLACE_ACCOUNT", "marketplace"),
		RegistryOwner:      getString("REGISTRY_OWNER", "owner"),
		FeeRecipient:       getString("FEE_RECIPIENT", "treasury"),
		FeeRateBps:         getUint64("FEE_RATE_BPS", 250),
		DataDir:            getString("DATA_DIR", ""),
		WebhookURL:         getString("WEBHOOK_URL", ""),
	}
}

func getString(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if val, err := strconv.ParseBool(getString(key, "")); err == nil {
		return val
	}
	return defaultValue
}

func getUint64(key string, defaultValue uint64) uint64 {
	if val, err := strconv.ParseUint(getString(key, ""), 10, 64); err == nil {
		return val
	}
	return defaultValue
}
