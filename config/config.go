package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL string

	// HTTP configuration
	ListenAddr string

	// Payout policy defaults
	DefaultThresholdCents     int64
	GracePeriodMonths         int
	PlatformFeeBps            int64
	CreatorThresholdOverrides map[uuid.UUID]int64 // creator ID -> threshold cents (0 = always paid)

	// Worker configuration
	StuckRunTimeout    time.Duration // how long a run may sit in processing before the sweeper fails it
	SweepInterval      time.Duration
	CalculationWorkers int

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		// Database
		DatabaseURL: os.Getenv("DATABASE_URL"),

		// HTTP with default
		ListenAddr: ":8080",

		// Policy defaults: $20 threshold, 12-month grace, 15% platform fee
		DefaultThresholdCents: 2000,
		GracePeriodMonths:     12,
		PlatformFeeBps:        1500,

		// Worker defaults
		StuckRunTimeout:    30 * time.Minute,
		SweepInterval:      1 * time.Minute,
		CalculationWorkers: 2,

		// Environment
		Environment: os.Getenv("ENVIRONMENT"),
	}

	if addr := os.Getenv("LISTEN_ADDR"); addr != "" {
		config.ListenAddr = addr
	}

	// Override policy defaults if environment variables are set
	if threshold := os.Getenv("PAYOUT_THRESHOLD_CENTS"); threshold != "" {
		if parsed, err := strconv.ParseInt(threshold, 10, 64); err == nil {
			config.DefaultThresholdCents = parsed
		}
	}
	if grace := os.Getenv("GRACE_PERIOD_MONTHS"); grace != "" {
		if parsed, err := strconv.Atoi(grace); err == nil {
			config.GracePeriodMonths = parsed
		}
	}
	if fee := os.Getenv("PLATFORM_FEE_BPS"); fee != "" {
		if parsed, err := strconv.ParseInt(fee, 10, 64); err == nil {
			config.PlatformFeeBps = parsed
		}
	}
	if timeout := os.Getenv("STUCK_RUN_TIMEOUT_MINUTES"); timeout != "" {
		if parsed, err := strconv.Atoi(timeout); err == nil {
			config.StuckRunTimeout = time.Duration(parsed) * time.Minute
		}
	}

	// Parse per-creator threshold overrides ("uuid=cents,uuid=cents")
	if overrides := os.Getenv("CREATOR_THRESHOLD_OVERRIDES"); overrides != "" {
		config.CreatorThresholdOverrides = make(map[uuid.UUID]int64)
		for _, pair := range strings.Split(overrides, ",") {
			pair = strings.TrimSpace(pair)
			if pair == "" {
				continue
			}
			parts := strings.SplitN(pair, "=", 2)
			if len(parts) != 2 {
				return nil, fmt.Errorf("invalid CREATOR_THRESHOLD_OVERRIDES entry %q", pair)
			}
			creatorID, err := uuid.Parse(strings.TrimSpace(parts[0]))
			if err != nil {
				return nil, fmt.Errorf("invalid creator ID in CREATOR_THRESHOLD_OVERRIDES: %w", err)
			}
			cents, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid threshold in CREATOR_THRESHOLD_OVERRIDES: %w", err)
			}
			config.CreatorThresholdOverrides[creatorID] = cents
		}
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	}

	return config, nil
}
