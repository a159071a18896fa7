// Package config provides configuration management for the fanout
// standalone server. It loads settings from environment variables with
// sensible defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all configuration for the fanout server.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Fanout   FanoutConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds delivery-store connection configuration.
// Leaving DB_NAME unset runs the server in in-memory-only mode with no
// durability across restarts.
type DatabaseConfig struct {
	Driver   string // mysql, postgres, sqlite3
	Host     string
	Port     int
	User     string
	Password string
	Database string
	Prefix   string // Table prefix (default: "fanout_")
}

// FanoutConfig holds delivery-engine configuration.
type FanoutConfig struct {
	PushTimeout         int  // Synchronous push timeout in seconds
	AckDelay            int  // Receipt-confirmation grace delay in seconds
	AckWorkers          int  // Receipt-confirmation worker count
	EnableNotifications bool // Enable the logging notification service
}

// Load loads configuration from environment variables.
// Follows 12-factor app principles - configuration via environment.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "sqlite3"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 3306),
			User:     getEnv("DB_USER", "fanout"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", ""),
			Prefix:   getEnv("DB_PREFIX", "fanout_"),
		},
		Fanout: FanoutConfig{
			PushTimeout:         getEnvInt("FANOUT_PUSH_TIMEOUT", 10),
			AckDelay:            getEnvInt("FANOUT_ACK_DELAY", 30),
			AckWorkers:          getEnvInt("FANOUT_ACK_WORKERS", 4),
			EnableNotifications: getEnvBool("FANOUT_ENABLE_NOTIFICATIONS", true),
		},
	}

	if cfg.Fanout.PushTimeout <= 0 {
		return nil, fmt.Errorf("FANOUT_PUSH_TIMEOUT must be > 0")
	}
	if cfg.Fanout.AckWorkers <= 0 {
		return nil, fmt.Errorf("FANOUT_ACK_WORKERS must be > 0")
	}
	if cfg.Database.Durable() {
		switch strings.ToLower(cfg.Database.Driver) {
		case "mysql", "postgres", "sqlite3":
		default:
			return nil, fmt.Errorf("unsupported DB_DRIVER: %s", cfg.Database.Driver)
		}
	}

	return cfg, nil
}

// Durable reports whether a delivery database is configured. When false the
// server runs the in-memory tracker only.
func (c *DatabaseConfig) Durable() bool {
	return c.Database != ""
}

// GetDSN returns the database connection string based on driver.
func (c *DatabaseConfig) GetDSN() string {
	switch strings.ToLower(c.Driver) {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
			c.User, c.Password, c.Host, c.Port, c.Database)
	case "postgres":
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			c.Host, c.Port, c.User, c.Password, c.Database)
	case "sqlite3":
		return c.Database // SQLite uses file path as DSN
	default:
		return ""
	}
}

// getEnv retrieves environment variable or returns default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves environment variable as integer or returns default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvBool retrieves environment variable as boolean or returns default value.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
