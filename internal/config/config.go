package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Security SecurityConfig
	Email    EmailConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Address     string
	Environment string
	LogLevel    string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	DSN         string
	MaxConns    int32
	MinConns    int32
	AutoMigrate bool
}

// JWTConfig holds session token configuration
type JWTConfig struct {
	Secret        string
	ExpiresIn     time.Duration
	CookieExpires time.Duration
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	BCryptCost      int
	RateLimitMax    int
	RateLimitWindow time.Duration
	MaxBodySize     int
}

// EmailConfig holds mail transport configuration
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Address:     getEnv("SERVER_ADDRESS", "0.0.0.0:3000"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", ""),
		},
		Database: loadDatabase(),
		JWT: JWTConfig{
			Secret:        getEnv("JWT_SECRET", ""),
			ExpiresIn:     getEnvAsDuration("JWT_EXPIRES_IN", 90*24*time.Hour),
			CookieExpires: time.Duration(getEnvAsInt("JWT_COOKIE_EXPIRES_IN", 90)) * 24 * time.Hour,
		},
		Security: SecurityConfig{
			BCryptCost:      getEnvAsInt("BCRYPT_COST", 12),
			RateLimitMax:    getEnvAsInt("RATE_LIMIT_MAX", 100),
			RateLimitWindow: getEnvAsDuration("RATE_LIMIT_WINDOW", time.Hour),
			MaxBodySize:     getEnvAsInt("MAX_BODY_SIZE", 10*1024),
		},
		Email: EmailConfig{
			Host:     getEnv("EMAIL_HOST", "localhost"),
			Port:     getEnvAsInt("EMAIL_PORT", 2525),
			Username: getEnv("EMAIL_USERNAME", ""),
			Password: getEnv("EMAIL_PASSWORD", ""),
			From:     getEnv("EMAIL_FROM", "Natours <admin@natours.io>"),
		},
	}

	if cfg.Database.DSN == "" {
		return nil, fmt.Errorf("DATABASE_DSN is required")
	}

	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

// LoadDatabase reads the database settings only, for tools that never serve
// HTTP
func LoadDatabase() (DatabaseConfig, error) {
	_ = godotenv.Load()

	db := loadDatabase()
	if db.DSN == "" {
		return db, fmt.Errorf("DATABASE_DSN is required")
	}
	return db, nil
}

func loadDatabase() DatabaseConfig {
	return DatabaseConfig{
		DSN:         databaseDSN(os.Getenv("DATABASE_DSN"), os.Getenv("DATABASE_PASSWORD")),
		MaxConns:    int32(getEnvAsInt("DATABASE_MAX_CONNS", 25)),
		MinConns:    int32(getEnvAsInt("DATABASE_MIN_CONNS", 5)),
		AutoMigrate: getEnv("DATABASE_AUTOMIGRATE", "true") == "true",
	}
}

// databaseDSN substitutes the <PASSWORD> placeholder of the connection string
func databaseDSN(dsn, password string) string {
	return strings.ReplaceAll(dsn, "<PASSWORD>", password)
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("90m") or a day count suffixed with "d" ("90d")
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if days, ok := strings.CutSuffix(value, "d"); ok {
		if n, err := strconv.Atoi(days); err == nil {
			return time.Duration(n) * 24 * time.Hour
		}
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	return defaultValue
}
