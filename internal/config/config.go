package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds the application configuration.
type Config struct {
	ServerPort          int           `yaml:"port"`
	DatabaseDriver      string        `yaml:"database_driver"`
	DatabaseDSN         string        `yaml:"database_dsn"` // File path for sqlite, connection string for postgres
	AllowedOrigins      []string      `yaml:"allowed_origins"`
	LogLevel            string        `yaml:"log_level"`
	MaintenanceSchedule string        `yaml:"maintenance_schedule"` // cron spec
	ShutdownTimeout     time.Duration `yaml:"shutdown_timeout"`
}

func defaults() *Config {
	return &Config{
		ServerPort:          4000,
		DatabaseDriver:      DriverSQLite,
		AllowedOrigins:      []string{"http://localhost:3000"},
		LogLevel:            "info",
		MaintenanceSchedule: "@every 1h",
		ShutdownTimeout:     5 * time.Second,
	}
}

// Load builds the configuration from defaults, an optional YAML file named by
// CONFIG_FILE and finally environment variables.
func Load() (*Config, error) {
	cfg := defaults()

	if path := getEnv("CONFIG_FILE", ""); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if portStr, ok := os.LookupEnv("PORT"); ok {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", portStr, err)
		}
		cfg.ServerPort = port
	}

	cfg.DatabaseDriver = strings.ToLower(getEnv("DB_DRIVER", cfg.DatabaseDriver))

	switch cfg.DatabaseDriver {
	case DriverSQLite:
		cfg.DatabaseDSN = getEnv("DATABASE_PATH", orDefault(cfg.DatabaseDSN, "./tasks.db"))
	case DriverPostgres:
		if dsn := getEnv("DATABASE_URL", ""); dsn != "" {
			cfg.DatabaseDSN = dsn
		} else if cfg.DatabaseDSN == "" || hasPostgresEnv() {
			cfg.DatabaseDSN = postgresDSNFromEnv()
		}
	}

	if origins := getEnv("CORS_ALLOWED_ORIGINS", ""); origins != "" {
		cfg.AllowedOrigins = splitList(origins)
	}

	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.MaintenanceSchedule = getEnv("MAINTENANCE_SCHEDULE", cfg.MaintenanceSchedule)

	if raw, ok := os.LookupEnv("SHUTDOWN_TIMEOUT"); ok {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid SHUTDOWN_TIMEOUT %q: %w", raw, err)
		}
		cfg.ShutdownTimeout = d
	}
	return nil
}

func (c *Config) validate() error {
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("invalid server port %d", c.ServerPort)
	}
	if c.DatabaseDriver != DriverSQLite && c.DatabaseDriver != DriverPostgres {
		return fmt.Errorf("unsupported database driver %q", c.DatabaseDriver)
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("database DSN is empty")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}
	return nil
}

func hasPostgresEnv() bool {
	for _, key := range []string{"DB_HOST", "DB_PORT", "DB_USERNAME", "DB_PASSWORD", "DB_DATABASE", "DB_SSLMODE"} {
		if _, ok := os.LookupEnv(key); ok {
			return true
		}
	}
	return false
}

func postgresDSNFromEnv() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(getEnv("DB_USERNAME", "postgres"), getEnv("DB_PASSWORD", "")),
		Host:   getEnv("DB_HOST", "localhost") + ":" + getEnv("DB_PORT", "5432"),
		Path:   "/" + getEnv("DB_DATABASE", "todo_api_db"),
	}
	q := url.Values{}
	q.Set("sslmode", getEnv("DB_SSLMODE", "disable"))
	u.RawQuery = q.Encode()
	return u.String()
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
