package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL string
	Port        string
	IsProduction bool

	// Reconciliation engine tuning
	ReconWorkers  int           // Fan-out worker pool size
	StoreTimeout  time.Duration // Per-target store I/O budget
	SurplusPolicy string        // "hold" or "carry"

	// Rate limit applied to recompute endpoints, in ulule/limiter format
	RateLimitRecompute string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("RECON_WORKERS", 4)
	viper.SetDefault("STORE_TIMEOUT", "10s")
	viper.SetDefault("SURPLUS_POLICY", "hold")
	viper.SetDefault("RATE_LIMIT_RECOMPUTE", "10-M")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")

	cfg.ReconWorkers = viper.GetInt("RECON_WORKERS")
	if cfg.ReconWorkers <= 0 {
		cfg.ReconWorkers = 4
		log.Printf("Warning: RECON_WORKERS must be positive. Defaulting to %d.\n", cfg.ReconWorkers)
	}

	storeTimeoutStr := viper.GetString("STORE_TIMEOUT")
	storeTimeout, err := time.ParseDuration(storeTimeoutStr)
	if err != nil {
		storeTimeout = 10 * time.Second
		if storeTimeoutStr != "" {
			log.Printf("Warning: Invalid value for STORE_TIMEOUT ('%s'). Defaulting to %s.\n", storeTimeoutStr, storeTimeout)
		}
	}
	cfg.StoreTimeout = storeTimeout

	cfg.SurplusPolicy = viper.GetString("SURPLUS_POLICY")
	switch cfg.SurplusPolicy {
	case "hold", "carry":
	default:
		log.Printf("Warning: Unknown SURPLUS_POLICY ('%s'). Defaulting to hold.\n", cfg.SurplusPolicy)
		cfg.SurplusPolicy = "hold"
	}

	cfg.RateLimitRecompute = viper.GetString("RATE_LIMIT_RECOMPUTE")

	return cfg, nil
}
