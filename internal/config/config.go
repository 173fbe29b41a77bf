// Package config loads runtime configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Auth providers.
const (
	AuthProviderSupabase = "supabase"
	AuthProviderLocal    = "local"
)

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Supabase  SupabaseConfig
	Auth      AuthConfig
	Cache     CacheConfig
	HTTP      HTTPConfig
	Logging   LoggingConfig
	Scheduler SchedulerConfig
	Resources ResourcesConfig
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr            string        `env:"HTTP_ADDR,default=:8080"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT,default=15s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT,default=30s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT,default=10s"`
}

// DatabaseConfig selects the Postgres store. An empty DSN selects the in-memory store.
type DatabaseConfig struct {
	DSN             string        `env:"DATABASE_URL"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS,default=20"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS,default=5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME,default=30m"`
	AutoMigrate     bool          `env:"DB_AUTO_MIGRATE,default=true"`
}

// SupabaseConfig points at the hosted backend project.
type SupabaseConfig struct {
	URL          string `env:"SUPABASE_URL"`
	AnonKey      string `env:"SUPABASE_ANON_KEY"`
	ServiceKey   string `env:"SUPABASE_SERVICE_KEY"`
	JWTSecret    string `env:"SUPABASE_JWT_SECRET"`
	AvatarBucket string `env:"SUPABASE_AVATAR_BUCKET,default=avatars"`
}

// AuthConfig selects the identity provider.
type AuthConfig struct {
	Provider     string        `env:"AUTH_PROVIDER,default=local"`
	JWTSecret    string        `env:"AUTH_JWT_SECRET"`
	TokenTTL     time.Duration `env:"AUTH_TOKEN_TTL,default=24h"`
	AdminUserIDs string        `env:"ADMIN_USER_IDS"`
}

// CacheConfig enables the Redis-backed directory cache when URL is set.
type CacheConfig struct {
	RedisURL string        `env:"REDIS_URL"`
	TTL      time.Duration `env:"CACHE_TTL,default=2m"`
}

// HTTPConfig holds cross-cutting HTTP middleware settings.
type HTTPConfig struct {
	AllowedOrigins string `env:"CORS_ALLOWED_ORIGINS,default=http://localhost:5173"`
	RateLimitRPS   int    `env:"RATE_LIMIT_RPS,default=20"`
	RateLimitBurst int    `env:"RATE_LIMIT_BURST,default=40"`
	AuditLogFile   string `env:"AUDIT_LOG_FILE"`
}

// LoggingConfig feeds pkg/logger.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL,default=info"`
	Format string `env:"LOG_FORMAT,default=json"`
	Output string `env:"LOG_OUTPUT,default=stdout"`
}

// SchedulerConfig configures background jobs.
type SchedulerConfig struct {
	ReadingReminderSpec string `env:"READING_REMINDER_SCHEDULE,default=0 6 * * *"`
	Disabled            bool   `env:"SCHEDULER_DISABLED,default=false"`
}

// ResourcesConfig points at the optional YAML seed for the resource library.
type ResourcesConfig struct {
	SeedFile string `env:"RESOURCES_SEED_FILE"`
}

// Load reads an optional .env file and decodes the environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if f == "" {
			continue
		}
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	c.Auth.Provider = strings.ToLower(strings.TrimSpace(c.Auth.Provider))
	switch c.Auth.Provider {
	case AuthProviderSupabase:
		if c.Supabase.URL == "" || c.Supabase.AnonKey == "" {
			return fmt.Errorf("AUTH_PROVIDER=supabase requires SUPABASE_URL and SUPABASE_ANON_KEY")
		}
	case AuthProviderLocal:
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("AUTH_PROVIDER=local requires AUTH_JWT_SECRET")
		}
	default:
		return fmt.Errorf("unsupported AUTH_PROVIDER %q", c.Auth.Provider)
	}
	if c.HTTP.RateLimitRPS <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be positive")
	}
	if c.HTTP.RateLimitBurst < c.HTTP.RateLimitRPS {
		c.HTTP.RateLimitBurst = c.HTTP.RateLimitRPS
	}
	return nil
}

// AdminIDs returns the admin allowlist as a set.
func (c *Config) AdminIDs() map[string]struct{} {
	return ParseCSVSet(c.Auth.AdminUserIDs)
}

// Origins returns the CORS allowlist.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.HTTP.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// SupabaseStorageEnabled reports whether avatar uploads can use Supabase storage.
func (c *Config) SupabaseStorageEnabled() bool {
	return c.Supabase.URL != "" && c.Supabase.ServiceKey != ""
}

// ParseCSVSet splits a comma separated list into a set, dropping blanks.
func ParseCSVSet(raw string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out[trimmed] = struct{}{}
	}
	return out
}
