package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters.
type Config struct {
	Port      string
	Env       string
	JWTSecret string

	Admin  AdminConfig
	DB     DatabaseConfig
	Redis  RedisConfig
	Sunlux SunluxConfig
	Engine EngineConfig
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig contains Redis connection parameters.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// SunluxConfig contains credentials for the SUNLUX ESL cloud API. All four
// values are required before any vendor call can be signed; they may be left
// empty at boot, in which case operations that need the vendor fail with a
// configuration error.
type SunluxConfig struct {
	BaseURL string
	UID     string
	SID     string
	Key     string
}

// AdminConfig seeds the initial operator account.
type AdminConfig struct {
	Username string
	Password string
}

// EngineConfig contains tunables for the sync engine.
type EngineConfig struct {
	DebounceDelay  time.Duration // delay before a triggered sync job starts
	DisplacedDelay time.Duration // separate debounce for a displaced owner's re-sync
	RetryAttempts  int           // attempts for the sync unit of work under contention
	RetryBackoff   time.Duration // fixed wait between attempts
	TagPageSize    int           // page size for the vendor tag list
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first. It returns a populated
// Config or an error with a human-friendly message.
func Load() (*Config, error) {
	// Load .env if present; ignore error if file is missing so that production
	// environments relying solely on real environment variables keep working.
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")
	cfg.JWTSecret = getEnv("JWT_SECRET", "")

	// Database
	cfg.DB = DatabaseConfig{
		Host:     getEnv("DB_HOST", ""),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", ""),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", ""),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Redis
	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", "redis"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	// SUNLUX vendor API
	cfg.Sunlux = SunluxConfig{
		BaseURL: getEnv("SUNLUX_BASE_URL", ""),
		UID:     getEnv("SUNLUX_UID", ""),
		SID:     getEnv("SUNLUX_SID", ""),
		Key:     getEnv("SUNLUX_KEY", ""),
	}

	// Initial operator account
	cfg.Admin = AdminConfig{
		Username: getEnv("ADMIN_USERNAME", "admin"),
		Password: getEnv("ADMIN_PASSWORD", ""),
	}

	// Engine tunables
	var err error
	if cfg.Engine.DebounceDelay, err = parseDurationEnv("SYNC_DEBOUNCE_DELAY", "4s"); err != nil {
		return nil, fmt.Errorf("invalid SYNC_DEBOUNCE_DELAY: %w", err)
	}
	if cfg.Engine.DisplacedDelay, err = parseDurationEnv("SYNC_DISPLACED_DELAY", "2s"); err != nil {
		return nil, fmt.Errorf("invalid SYNC_DISPLACED_DELAY: %w", err)
	}
	if cfg.Engine.RetryBackoff, err = parseDurationEnv("SYNC_RETRY_BACKOFF", "5s"); err != nil {
		return nil, fmt.Errorf("invalid SYNC_RETRY_BACKOFF: %w", err)
	}
	cfg.Engine.RetryAttempts = getEnvInt("SYNC_RETRY_ATTEMPTS", 4)
	if cfg.Engine.RetryAttempts < 1 {
		return nil, errors.New("SYNC_RETRY_ATTEMPTS must be >= 1")
	}
	cfg.Engine.TagPageSize = getEnvInt("SUNLUX_TAG_PAGE_SIZE", 200)

	// Basic validation for DB parameters.
	if cfg.DB.Host == "" || cfg.DB.User == "" || cfg.DB.Name == "" {
		return nil, errors.New("database configuration incomplete: ensure DB_HOST, DB_USER, and DB_NAME are set")
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET must be set for authentication")
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}
