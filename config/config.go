package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Supported storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds the full application configuration loaded from environment variables or .env file.
//
// Example ENV equivalent:
//
//	SERVER_PORT=8080
//	STORAGE_DRIVER=sqlite
//	SQLITE_PATH=./data/stocks.db
//	POSTGRES_HOST=localhost
//	POSTGRES_PORT=5432
//	POSTGRES_USER=admin
//	POSTGRES_PASSWORD=secret
//	POSTGRES_DB=pricebook
//	POSTGRES_SSLMODE=disable
//	UPSTREAM_URL=https://query1.finance.yahoo.com/v7/finance/quote
//	UPSTREAM_TIMEOUT=5s
type Config struct {
	Server   ServerConfig   // HTTP server configuration
	Storage  StorageConfig  // Which database backs the price store
	Postgres PostgresConfig // PostgreSQL connection settings
	Upstream UpstreamConfig // Optional external quote source
	Import   ImportConfig   // Batch importer defaults
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string        // The TCP port the HTTP server will listen on (e.g., "8080")
	RequestTimeout     time.Duration // Per-request context deadline
	RateLimitPerMinute int           // Requests allowed per client IP per minute
}

// StorageConfig selects the price store backend.
//
// Driver is either "sqlite" (file-backed, the default) or "postgres".
// SQLitePath is only used by the sqlite driver.
type StorageConfig struct {
	Driver     string
	SQLitePath string
}

// PostgresConfig defines connection details for PostgreSQL.
//
// Fields:
//   - Host: hostname of the database server.
//   - Port: port number of the database server (default 5432).
//   - User: username for authentication.
//   - Password: password for authentication.
//   - DBName: target database name.
//   - SSLMode: SSL mode (e.g., "disable", "require").
//   - URL: computed DSN used by database/sql to connect.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	URL      string
}

// UpstreamConfig configures the optional quote source. An empty URL disables it.
type UpstreamConfig struct {
	URL     string
	Timeout time.Duration
}

// Enabled reports whether an upstream quote source is configured.
func (u UpstreamConfig) Enabled() bool { return strings.TrimSpace(u.URL) != "" }

// ImportConfig holds defaults for the import mode.
type ImportConfig struct {
	ServerURL string
}

// AppConfig is the globally accessible configuration instance.
//
// It is populated once via LoadConfig() and read by cmd and internal/app.
var AppConfig Config

// LoadConfig initializes the global AppConfig by reading from .env file
// or directly from environment variables.
//
// Precedence (from lowest to highest):
//  1. Defaults set in this function.
//  2. Values from .env file (if present).
//  3. Environment variables.
//
// Fatal exit:
//   - If required variables for the selected driver are missing, validateConfig()
//     terminates the app with a descriptive log message.
func LoadConfig() {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("REQUEST_TIMEOUT", "10s")
	viper.SetDefault("RATE_LIMIT_PER_MINUTE", 120)
	viper.SetDefault("STORAGE_DRIVER", DriverSQLite)
	viper.SetDefault("SQLITE_PATH", "./data/stocks.db")
	viper.SetDefault("POSTGRES_HOST", "localhost")
	viper.SetDefault("POSTGRES_PORT", 5432)
	viper.SetDefault("POSTGRES_USER", "postgres")
	viper.SetDefault("POSTGRES_PASSWORD", "postgres")
	viper.SetDefault("POSTGRES_DB", "pricebook")
	viper.SetDefault("POSTGRES_SSLMODE", "disable")
	viper.SetDefault("UPSTREAM_URL", "")
	viper.SetDefault("UPSTREAM_TIMEOUT", "5s")
	viper.SetDefault("IMPORT_SERVER_URL", "http://localhost:8080")

	// Optionally read from .env if present (common in local dev)
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig() // ignore error if no .env

	viper.AutomaticEnv()

	AppConfig = Config{
		Server: ServerConfig{
			Port:               viper.GetString("SERVER_PORT"),
			RequestTimeout:     viper.GetDuration("REQUEST_TIMEOUT"),
			RateLimitPerMinute: viper.GetInt("RATE_LIMIT_PER_MINUTE"),
		},
		Storage: StorageConfig{
			Driver:     strings.ToLower(strings.TrimSpace(viper.GetString("STORAGE_DRIVER"))),
			SQLitePath: viper.GetString("SQLITE_PATH"),
		},
		Postgres: PostgresConfig{
			Host:     viper.GetString("POSTGRES_HOST"),
			Port:     viper.GetInt("POSTGRES_PORT"),
			User:     viper.GetString("POSTGRES_USER"),
			Password: viper.GetString("POSTGRES_PASSWORD"),
			DBName:   viper.GetString("POSTGRES_DB"),
			SSLMode:  viper.GetString("POSTGRES_SSLMODE"),
		},
		Upstream: UpstreamConfig{
			URL:     viper.GetString("UPSTREAM_URL"),
			Timeout: viper.GetDuration("UPSTREAM_TIMEOUT"),
		},
		Import: ImportConfig{
			ServerURL: viper.GetString("IMPORT_SERVER_URL"),
		},
	}

	AppConfig.Postgres.URL = AppConfig.Postgres.DSN()

	validateConfig()
}

// DSN builds the database/sql connection string for lib/pq.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User,
		p.Password,
		p.Host,
		p.Port,
		p.DBName,
		p.SSLMode,
	)
}

// validateConfig ensures required variables are present and terminates
// the application if they are missing.
//
// Postgres fields are only required when STORAGE_DRIVER=postgres.
func validateConfig() {
	if missing := missingKeys(AppConfig); len(missing) > 0 {
		log.Fatalf("missing or invalid environment variables: %v\n", missing)
	}
}

func missingKeys(cfg Config) []string {
	var missing []string

	if cfg.Server.Port == "" {
		missing = append(missing, "SERVER_PORT")
	}

	switch cfg.Storage.Driver {
	case DriverSQLite:
		if cfg.Storage.SQLitePath == "" {
			missing = append(missing, "SQLITE_PATH")
		}
	case DriverPostgres:
		if cfg.Postgres.Host == "" {
			missing = append(missing, "POSTGRES_HOST")
		}
		if cfg.Postgres.Port == 0 {
			missing = append(missing, "POSTGRES_PORT")
		}
		if cfg.Postgres.User == "" {
			missing = append(missing, "POSTGRES_USER")
		}
		if cfg.Postgres.Password == "" {
			missing = append(missing, "POSTGRES_PASSWORD")
		}
		if cfg.Postgres.DBName == "" {
			missing = append(missing, "POSTGRES_DB")
		}
	default:
		missing = append(missing, "STORAGE_DRIVER")
	}

	if cfg.Upstream.Enabled() && cfg.Upstream.Timeout <= 0 {
		missing = append(missing, "UPSTREAM_TIMEOUT")
	}

	return missing
}
