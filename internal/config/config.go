package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the scene server configuration. Every field can be set through
// the environment; a .env file is loaded first if one exists.
type Config struct {
	Env        string
	ListenAddr string

	// DBDriver selects the group store dialect: "mysql", "sqlite" or "memory".
	DBDriver string
	DBDSN    string

	// JWTSecret verifies session tickets issued by the login server.
	JWTSecret string

	// PumpInterval is the cadence of the update poller.
	PumpInterval time.Duration

	MaxPartySize       int
	MaxGuildSize       int
	MaxGuildNameLength int
}

// Load reads the configuration from the environment. A missing .env file is
// not an error; a malformed value is.
func Load() (*Config, error) {
	// Ignore the error: running without a .env file is the normal case in
	// production where everything comes from the process environment.
	_ = godotenv.Load()

	cfg := &Config{
		Env:        getenv("APP_ENV", "development"),
		ListenAddr: getenv("LISTEN_ADDR", ":8080"),
		DBDriver:   getenv("DB_DRIVER", "sqlite"),
		DBDSN:      getenv("DB_DSN", "scened.db"),
		JWTSecret:  os.Getenv("JWT_SECRET"),
	}

	var err error
	if cfg.PumpInterval, err = getenvDuration("PUMP_INTERVAL", time.Second); err != nil {
		return nil, err
	}
	if cfg.MaxPartySize, err = getenvInt("MAX_PARTY_SIZE", 6); err != nil {
		return nil, err
	}
	if cfg.MaxGuildSize, err = getenvInt("MAX_GUILD_SIZE", 100); err != nil {
		return nil, err
	}
	if cfg.MaxGuildNameLength, err = getenvInt("MAX_GUILD_NAME_LENGTH", 64); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "mysql", "sqlite", "memory":
	default:
		return fmt.Errorf("config: unsupported DB_DRIVER %q (expected mysql, sqlite or memory)", c.DBDriver)
	}
	if c.DBDriver != "memory" && c.DBDSN == "" {
		return fmt.Errorf("config: DB_DSN is required for driver %q", c.DBDriver)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("config: JWT_SECRET is required")
	}
	if c.PumpInterval <= 0 {
		return fmt.Errorf("config: PUMP_INTERVAL must be positive")
	}
	if c.MaxPartySize < 1 || c.MaxGuildSize < 1 {
		return fmt.Errorf("config: group sizes must be at least 1")
	}
	if c.MaxGuildNameLength < 1 {
		return fmt.Errorf("config: MAX_GUILD_NAME_LENGTH must be at least 1")
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s: %w", key, err)
	}
	return d, nil
}
