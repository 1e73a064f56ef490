package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// NATS configuration
	NATSServers        string // NATS server addresses (comma-separated)
	ResultFeedSubject  string // subject the match-result feed publishes on
	OddsFeedSubject    string // subject the odds estimate feed publishes on
	EventSubjectPrefix string // prefix for outbound domain event subjects

	// Redis configuration
	RedisAddr string

	// Metrics configuration
	MetricsPort string

	// Odds configuration
	HouseMargin    float64   // overround added to implied probabilities
	MinPrice       decimal.Decimal
	MaxPrice       decimal.Decimal
	OverUnderLines []decimal.Decimal // baseline 2.5 plus alternates
	// Placeholder over/under policy: probability of "over" when the goal
	// estimate is above, at, or below the line. Configurable because the
	// buckets are not derived from real modelling.
	OverProbAbove float64
	OverProbAt    float64
	OverProbBelow float64

	// Wager configuration
	MinStake      decimal.Decimal
	MaxStake      decimal.Decimal
	MaxParlayLegs int
	// ParlayPartialRefund keeps the conservative policy of refunding only
	// the stake when no leg lost but not every leg won.
	ParlayPartialRefund bool

	// Treasury configuration
	MinDeposit     decimal.Decimal
	MinWithdrawal  decimal.Decimal
	CommissionRate decimal.Decimal

	// Settlement configuration
	SettlementWorkers int
	FeedRatePerSecond int // rate limit applied to inbound feed deliveries

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		NATSServers:        getEnvWithDefault("NATS_SERVERS", "nats://nats:4222"),
		ResultFeedSubject:  getEnvWithDefault("RESULT_FEED_SUBJECT", "feed.match.result"),
		OddsFeedSubject:    getEnvWithDefault("ODDS_FEED_SUBJECT", "feed.match.odds"),
		EventSubjectPrefix: getEnvWithDefault("EVENT_SUBJECT_PREFIX", "bookmaker"),

		RedisAddr: getEnvWithDefault("REDIS_ADDR", "localhost:6379"),

		MetricsPort: getEnvWithDefault("METRICS_PORT", "9095"),

		HouseMargin:   getEnvFloat("HOUSE_MARGIN", 0.10),
		MinPrice:      getEnvDecimal("MIN_PRICE", "1.01"),
		MaxPrice:      getEnvDecimal("MAX_PRICE", "50.00"),
		OverProbAbove: getEnvFloat("OVER_PROB_ABOVE", 0.55),
		OverProbAt:    getEnvFloat("OVER_PROB_AT", 0.50),
		OverProbBelow: getEnvFloat("OVER_PROB_BELOW", 0.45),

		MinStake:            getEnvDecimal("MIN_STAKE", "1.00"),
		MaxStake:            getEnvDecimal("MAX_STAKE", "10000.00"),
		MaxParlayLegs:       getEnvInt("MAX_PARLAY_LEGS", 10),
		ParlayPartialRefund: getEnvBool("PARLAY_PARTIAL_REFUND", true),

		MinDeposit:     getEnvDecimal("MIN_DEPOSIT", "10.00"),
		MinWithdrawal:  getEnvDecimal("MIN_WITHDRAWAL", "10.00"),
		CommissionRate: getEnvDecimal("COMMISSION_RATE", "0.02"),

		SettlementWorkers: getEnvInt("SETTLEMENT_WORKERS", 8),
		FeedRatePerSecond: getEnvInt("FEED_RATE_PER_SECOND", 20),

		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Over/under lines: baseline 2.5 plus any configured alternates
	lines := getEnvWithDefault("OVER_UNDER_LINES", "2.5")
	for _, raw := range strings.Split(lines, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		line, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid over/under line %q: %w", raw, err)
		}
		config.OverUnderLines = append(config.OverUnderLines, line)
	}

	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.DatabaseName != "" && strings.TrimSpace(config.DatabaseName) == "" {
			return nil, fmt.Errorf("DATABASE_NAME cannot be empty when provided")
		}
	}

	return config, nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDecimal(key, defaultValue string) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if parsed, err := decimal.NewFromString(value); err == nil {
			return parsed
		}
	}
	return decimal.RequireFromString(defaultValue)
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:   "test",
		HouseMargin:   0.10,
		MinPrice:      decimal.RequireFromString("1.01"),
		MaxPrice:      decimal.RequireFromString("50.00"),
		OverUnderLines: []decimal.Decimal{
			decimal.RequireFromString("2.5"),
		},
		OverProbAbove: 0.55,
		OverProbAt:    0.50,
		OverProbBelow: 0.45,

		MinStake:            decimal.RequireFromString("1.00"),
		MaxStake:            decimal.RequireFromString("10000.00"),
		MaxParlayLegs:       10,
		ParlayPartialRefund: true,

		MinDeposit:     decimal.RequireFromString("10.00"),
		MinWithdrawal:  decimal.RequireFromString("10.00"),
		CommissionRate: decimal.RequireFromString("0.02"),

		SettlementWorkers: 2,
		FeedRatePerSecond: 100,
	}
}
