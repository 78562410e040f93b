// Package config resolves server settings from defaults, an optional TOML
// file, an optional .env file and PORTAL_* environment variables, in that
// order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	HTTPAddr string `toml:"http_addr"`
	Env      string `toml:"env"` // "dev" | "prod"

	LogLevel  string `toml:"log_level"`
	LogPretty bool   `toml:"log_pretty"`

	// DB
	DBDriver         string `toml:"db_driver"` // "sqlite" | "postgres"
	DBPath           string `toml:"db_path"`   // e.g. "./data/portal.db"
	PostgresDSN      string `toml:"postgres_dsn"`
	PostgresMaxConns int    `toml:"postgres_max_conns"`

	// Tenants accepting public submissions; registered at startup.
	KnownTenants []string `toml:"known_tenants"`

	AdminJWTSecret string   `toml:"admin_jwt_secret"`
	AdminJWTIssuer string   `toml:"admin_jwt_issuer"`
	CORSOrigins    []string `toml:"cors_origins"`

	// Events; an empty URL disables the broker.
	AMQPURL   string `toml:"amqp_url"`
	AMQPQueue string `toml:"amqp_queue"`

	GrantCacheCapacity   int `toml:"grant_cache_capacity"` // 0 = no cache
	GrantCacheTTLSeconds int `toml:"grant_cache_ttl_seconds"`

	GrantRetentionDays int `toml:"grant_retention_days"` // 0 = keep forever
}

// GrantCacheTTL returns the configured cache TTL as a duration.
func (c Config) GrantCacheTTL() time.Duration {
	return time.Duration(c.GrantCacheTTLSeconds) * time.Second
}

func (c Config) IsProd() bool { return c.Env == "prod" }

func Defaults() Config {
	return Config{
		HTTPAddr:             ":8080",
		Env:                  "dev",
		LogLevel:             "info",
		DBDriver:             DriverSQLite,
		DBPath:               "./data/portal.db",
		PostgresMaxConns:     10,
		KnownTenants:         []string{"woreda-9"},
		AdminJWTIssuer:       "woreda-portal",
		AMQPQueue:            "portal.events",
		GrantCacheCapacity:   10000,
		GrantCacheTTLSeconds: 300,
		GrantRetentionDays:   30,
	}
}

// Load builds a Config.  path names an optional TOML file and dotenv an
// optional .env file; a missing .env is not an error.
func Load(path, dotenv string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if dotenv != "" {
		// godotenv never overrides variables already set in the process.
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read %s: %w", dotenv, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(c *Config) {
	c.HTTPAddr = getenvDefault("PORTAL_HTTP_ADDR", c.HTTPAddr)
	c.Env = getenvDefault("PORTAL_ENV", c.Env)
	c.LogLevel = getenvDefault("PORTAL_LOG_LEVEL", c.LogLevel)
	c.LogPretty = getenvBool("PORTAL_LOG_PRETTY", c.LogPretty)

	c.DBDriver = getenvDefault("PORTAL_DB_DRIVER", c.DBDriver)
	c.DBPath = getenvDefault("PORTAL_DB_PATH", c.DBPath)
	c.PostgresDSN = getenvDefault("PORTAL_POSTGRES_DSN", c.PostgresDSN)
	c.PostgresMaxConns = getenvInt("PORTAL_POSTGRES_MAX_CONNS", c.PostgresMaxConns)

	if v := splitCSV(os.Getenv("PORTAL_KNOWN_TENANTS")); v != nil {
		c.KnownTenants = v
	}

	c.AdminJWTSecret = getenvDefault("PORTAL_ADMIN_JWT_SECRET", c.AdminJWTSecret)
	c.AdminJWTIssuer = getenvDefault("PORTAL_ADMIN_JWT_ISSUER", c.AdminJWTIssuer)
	if v := splitCSV(os.Getenv("PORTAL_CORS_ORIGINS")); v != nil {
		c.CORSOrigins = v
	}

	c.AMQPURL = getenvDefault("PORTAL_AMQP_URL", c.AMQPURL)
	c.AMQPQueue = getenvDefault("PORTAL_AMQP_QUEUE", c.AMQPQueue)

	c.GrantCacheCapacity = getenvInt("PORTAL_GRANT_CACHE_CAPACITY", c.GrantCacheCapacity)
	c.GrantCacheTTLSeconds = getenvInt("PORTAL_GRANT_CACHE_TTL_SECONDS", c.GrantCacheTTLSeconds)
	c.GrantRetentionDays = getenvInt("PORTAL_GRANT_RETENTION_DAYS", c.GrantRetentionDays)
}

func (c *Config) normalize() error {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	if c.Env != "dev" && c.Env != "prod" {
		// fail-soft: treat unknown as dev
		c.Env = "dev"
	}

	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	switch c.DBDriver {
	case DriverSQLite:
	case DriverPostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			return errors.New("config: postgres_dsn is required when db_driver is postgres")
		}
	default:
		return fmt.Errorf("config: unknown db_driver %q", c.DBDriver)
	}

	if c.PostgresMaxConns < 0 || c.PostgresMaxConns > math.MaxInt32 {
		return fmt.Errorf("config: postgres_max_conns %d out of range", c.PostgresMaxConns)
	}

	if c.IsProd() && c.AdminJWTSecret == "" {
		return errors.New("config: admin_jwt_secret is required in prod")
	}
	return nil
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func getenvBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return strings.EqualFold(v, "true") || v == "1"
}

func splitCSV(v string) []string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
