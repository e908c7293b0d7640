// Package config provides configuration for the application
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Logging  LoggingConfig
	CORS     CORSConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port int
	// MaxRequestSize is the largest accepted request body in bytes
	MaxRequestSize int64
	// RateLimit is the number of requests per minute allowed from one IP
	RateLimit int
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// EditorConfig holds settings of the command-line editor
type EditorConfig struct {
	BackendURL string
	Timeout    time.Duration
	LogLevel   string
}

// Load reads configuration from environment variables.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	var err error

	// Database configuration
	if cfg.Database.Host, err = requireEnv("DB_HOST"); err != nil {
		return nil, err
	}
	portStr, err := requireEnv("DB_PORT")
	if err != nil {
		return nil, err
	}
	if cfg.Database.Port, err = strconv.Atoi(portStr); err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	if cfg.Database.User, err = requireEnv("DB_USER"); err != nil {
		return nil, err
	}
	if cfg.Database.Password, err = requireEnv("DB_PASSWORD"); err != nil {
		return nil, err
	}
	if cfg.Database.DBName, err = requireEnv("DB_NAME"); err != nil {
		return nil, err
	}

	// Server configuration
	if cfg.Server.Port, err = envInt("SERVER_PORT", 8080); err != nil {
		return nil, err
	}
	maxSize, err := envInt("MAX_REQUEST_SIZE", 10*1024*1024)
	if err != nil {
		return nil, err
	}
	cfg.Server.MaxRequestSize = int64(maxSize)
	if cfg.Server.RateLimit, err = envInt("RATE_LIMIT_PER_MINUTE", 100); err != nil {
		return nil, err
	}

	cfg.Logging.Level = envOr("LOG_LEVEL", "info")
	cfg.CORS.AllowedOrigins = parseOrigins(os.Getenv("CORS_ALLOWED_ORIGINS"))

	return cfg, nil
}

// LoadEditor reads the configuration of the command-line editor
func LoadEditor() (*EditorConfig, error) {
	_ = godotenv.Load()

	cfg := &EditorConfig{
		BackendURL: strings.TrimRight(envOr("EDITOR_BACKEND_URL", "http://localhost:8080"), "/"),
		LogLevel:   envOr("LOG_LEVEL", "warn"),
	}

	timeout, err := time.ParseDuration(envOr("EDITOR_TIMEOUT", "15s"))
	if err != nil {
		return nil, fmt.Errorf("invalid EDITOR_TIMEOUT: %w", err)
	}
	cfg.Timeout = timeout

	return cfg, nil
}

// DSN returns the database connection string.
//
// clientFoundRows makes UPDATE report matched rows, so an update that leaves a row unchanged is
// not mistaken for a missing row.
func (c *Config) DSN() string {
	dsn := mysql.NewConfig()
	dsn.User = c.Database.User
	dsn.Passwd = c.Database.Password
	dsn.Net = "tcp"
	dsn.Addr = fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port)
	dsn.DBName = c.Database.DBName
	dsn.ParseTime = true
	dsn.ClientFoundRows = true
	dsn.Params = map[string]string{"charset": "utf8mb4"}
	return dsn.FormatDSN()
}

func requireEnv(key string) (string, error) {
	v := os.Getenv(key)
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

// parseOrigins splits a comma-separated origin list; an empty list allows all origins
func parseOrigins(raw string) []string {
	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
