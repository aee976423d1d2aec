package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Port       int
	LogLevel   string
	LogFormat  string
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string
	APIKey     string // API key guarding the admin surface

	// Ledger tunables
	InitialBalance      int64 // balance granted on registration and bankruptcy
	MaxStakeWhileInDebt int64 // deepest negative balance staking may reach
	NotableStake        int64 // minimum amount for a stake message / feed shout-out

	// Session tunables
	SessionTTLMinutes int
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists, but don't fail if it doesn't (could be real env vars)
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:   getEnv("LOG_LEVEL", "INFO"),
		LogFormat:  getEnv("LOG_FORMAT", "text"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBName:     getEnv("DB_NAME", "stakebot"),
		APIKey:     getEnv("API_KEY", ""),
	}

	port, err := getEnvInt("PORT", 8080)
	if err != nil {
		return nil, err
	}
	cfg.Port = port

	if cfg.InitialBalance, err = getEnvInt64("INITIAL_BALANCE", DefaultInitialBalance); err != nil {
		return nil, err
	}
	if cfg.MaxStakeWhileInDebt, err = getEnvInt64("MAX_STAKE_WHILE_IN_DEBT", DefaultMaxStakeWhileInDebt); err != nil {
		return nil, err
	}
	if cfg.NotableStake, err = getEnvInt64("NOTABLE_STAKE", DefaultNotableStake); err != nil {
		return nil, err
	}
	if cfg.SessionTTLMinutes, err = getEnvInt("SESSION_TTL_MINUTES", DefaultSessionTTLMinutes); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("API_KEY environment variable must be set for security")
	}
	if c.InitialBalance <= 0 {
		return fmt.Errorf("INITIAL_BALANCE must be positive, got %d", c.InitialBalance)
	}
	if c.MaxStakeWhileInDebt < 0 {
		return fmt.Errorf("MAX_STAKE_WHILE_IN_DEBT must not be negative, got %d", c.MaxStakeWhileInDebt)
	}
	if c.NotableStake <= 0 {
		return fmt.Errorf("NOTABLE_STAKE must be positive, got %d", c.NotableStake)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return v, nil
}

func getEnvInt64(key string, defaultValue int64) (int64, error) {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return v, nil
}

// GetDBConnString returns the PostgreSQL connection string
func (c *Config) GetDBConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBName,
	)
}
