package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Persist backends selectable via PERSIST_BACKEND.
const (
	PersistMemory   = "memory"
	PersistRedis    = "redis"
	PersistPostgres = "postgres"
)

// Config aggregates application settings that may be sourced from files or
// environment variables.
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Persist  PersistConfig  `mapstructure:"persist"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	AI       AIConfig       `mapstructure:"ai"`
	Session  SessionConfig  `mapstructure:"session"`
}

// APIConfig contains HTTP server settings.
type APIConfig struct {
	Port           int    `mapstructure:"port"`
	AllowedOrigins string `mapstructure:"allowed_origins"`
	ClamdAddr      string `mapstructure:"clamd_addr"`
}

// Origins splits the comma-separated websocket origin whitelist.
func (a APIConfig) Origins() []string {
	if strings.TrimSpace(a.AllowedOrigins) == "" {
		return nil
	}
	parts := strings.Split(a.AllowedOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// PersistConfig selects the durable backend for the builder store.
type PersistConfig struct {
	Backend string `mapstructure:"backend"`
}

// DatabaseConfig contains connection options for PostgreSQL.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig contains redis connection settings.
type RedisConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr joins host and port for the redis clients.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// MinIOConfig contains connection options for MinIO/S3-compatible storage.
type MinIOConfig struct {
	Endpoint         string `mapstructure:"endpoint"`
	PublicEndpoint   string `mapstructure:"public_endpoint"`
	AccessKeyID      string `mapstructure:"access_key_id"`
	SecretAccessKey  string `mapstructure:"secret_access_key"`
	UseSSL           bool   `mapstructure:"use_ssl"`
	Region           string `mapstructure:"region"`
	Bucket           string `mapstructure:"bucket"`
	BucketLookup     string `mapstructure:"bucket_lookup"`
	AutoCreateBucket bool   `mapstructure:"auto_create_bucket"`
}

// AIConfig points at the external generation service.
type AIConfig struct {
	ServiceURL       string `mapstructure:"service_url"`
	APIKey           string `mapstructure:"api_key"`
	RateLimitPerHour int    `mapstructure:"rate_limit_per_hour"`
}

// SessionConfig controls the editing-session tokens.
type SessionConfig struct {
	Secret           string `mapstructure:"secret"`
	TTLMinutes       int    `mapstructure:"ttl_minutes"`
	GatePasswordHash string `mapstructure:"gate_password_hash"`
}

// DSN builds a lib/pq compatible connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host,
		d.Port,
		d.User,
		d.Password,
		d.Name,
		d.SSLMode,
	)
}

// Load reads configuration solely from environment variables (with
// optional defaults).
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if err := bindEnv(v); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MustLoad wraps Load and panics on failure.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.port", 8080)
	v.SetDefault("persist.backend", PersistRedis)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "pagecraft")
	v.SetDefault("database.user", "pagecraft")
	v.SetDefault("database.password", "pagecraft")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.public_endpoint", "http://localhost:9000")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.bucket", "pagecraft-exports")
	v.SetDefault("minio.bucket_lookup", "auto")
	v.SetDefault("minio.auto_create_bucket", true)
	v.SetDefault("ai.rate_limit_per_hour", 30)
	v.SetDefault("session.ttl_minutes", 12*60)
}

func bindEnv(v *viper.Viper) error {
	mappings := map[string]string{
		"api.port":                   "API_PORT",
		"api.allowed_origins":        "API_ALLOWED_ORIGINS",
		"api.clamd_addr":             "CLAMD_ADDR",
		"persist.backend":            "PERSIST_BACKEND",
		"database.host":              "DATABASE_HOST",
		"database.port":              "DATABASE_PORT",
		"database.name":              "POSTGRES_DB",
		"database.user":              "POSTGRES_USER",
		"database.password":          "POSTGRES_PASSWORD",
		"database.sslmode":           "DATABASE_SSLMODE",
		"redis.host":                 "REDIS_HOST",
		"redis.port":                 "REDIS_PORT",
		"minio.endpoint":             "MINIO_ENDPOINT",
		"minio.public_endpoint":      "MINIO_PUBLIC_ENDPOINT",
		"minio.access_key_id":        "MINIO_ACCESS_KEY_ID",
		"minio.secret_access_key":    "MINIO_SECRET_ACCESS_KEY",
		"minio.use_ssl":              "MINIO_USE_SSL",
		"minio.region":               "MINIO_REGION",
		"minio.bucket":               "MINIO_BUCKET",
		"minio.bucket_lookup":        "MINIO_BUCKET_LOOKUP",
		"minio.auto_create_bucket":   "MINIO_AUTO_CREATE_BUCKET",
		"ai.service_url":             "AI_SERVICE_URL",
		"ai.api_key":                 "AI_API_KEY",
		"ai.rate_limit_per_hour":     "AI_RATE_LIMIT_PER_HOUR",
		"session.secret":             "SESSION_SECRET",
		"session.ttl_minutes":        "SESSION_TTL_MINUTES",
		"session.gate_password_hash": "BUILDER_GATE_PASSWORD_HASH",
	}

	for key, env := range mappings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s to %s: %w", key, env, err)
		}
	}

	return nil
}

func validate(cfg Config) error {
	if cfg.API.Port <= 0 {
		return errors.New("api port must be positive")
	}
	switch cfg.Persist.Backend {
	case PersistMemory, PersistRedis, PersistPostgres:
	default:
		return fmt.Errorf("unknown persist backend %q", cfg.Persist.Backend)
	}
	if cfg.Persist.Backend == PersistPostgres {
		if cfg.Database.Host == "" {
			return errors.New("database host is required")
		}
		if cfg.Database.Port <= 0 {
			return errors.New("database port must be positive")
		}
		if cfg.Database.Name == "" {
			return errors.New("database name is required")
		}
		if cfg.Database.User == "" {
			return errors.New("database user is required")
		}
		if cfg.Database.Password == "" {
			return errors.New("database password is required")
		}
		if cfg.Database.SSLMode == "" {
			return errors.New("database sslmode is required")
		}
	}
	if cfg.Redis.Host == "" {
		return errors.New("redis host is required")
	}
	if cfg.Redis.Port <= 0 {
		return errors.New("redis port must be positive")
	}
	if cfg.MinIO.Endpoint == "" {
		return errors.New("minio endpoint is required")
	}
	if cfg.MinIO.Bucket == "" {
		return errors.New("minio bucket is required")
	}
	if cfg.Session.Secret == "" {
		return errors.New("session secret is required")
	}
	if cfg.Session.TTLMinutes <= 0 {
		return errors.New("session ttl must be positive")
	}
	return nil
}
