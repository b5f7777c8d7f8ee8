package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration for the account service.
// It merges file defaults and environment overrides to support both local and deployed runs.
type Config struct {
	ServiceID   string
	Environment string

	HTTPPort int
	GRPCPort int

	DatabaseURL  string
	RedisURL     string
	KafkaBrokers []string
	AuditTopic   string

	JWTAccessSecret  string
	JWTRefreshSecret string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration

	BcryptCost int

	AllowedOrigins []string

	ShortTierLimit   int
	ShortTierWindow  time.Duration
	LongTierLimit    int
	LongTierWindow   time.Duration
	StrictTierLimit  int
	StrictTierWindow time.Duration

	RequestTimeout time.Duration

	AuditBufferSize   int
	AuditPollInterval time.Duration
	AuditBatchSize    int
	AuditMaxRetries   int

	MaxDBConns int
}

// Production reports whether the service runs with production hardening
// (CSRF rejection, sanitized 500 bodies).
func (c Config) Production() bool {
	return strings.EqualFold(c.Environment, "production")
}

// configFile mirrors the YAML schema used by configs/default.yaml.
// It is intentionally separate from Config so runtime-only fields stay internal.
type configFile struct {
	Service struct {
		ID          string `yaml:"id"`
		Environment string `yaml:"environment"`
		HTTPPort    int    `yaml:"http_port"`
		GRPCPort    int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL  string   `yaml:"postgres_url"`
		RedisURL     string   `yaml:"redis_url"`
		KafkaBrokers []string `yaml:"kafka_brokers"`
		AuditTopic   string   `yaml:"audit_topic"`
	} `yaml:"dependencies"`
	Security struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"security"`
}

// LoadConfig resolves configuration in priority order: defaults -> file -> env.
// This order keeps local bootstrap simple while allowing environment-specific overrides.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:         "account-service",
		Environment:       "development",
		HTTPPort:          8080,
		GRPCPort:          9090,
		AuditTopic:        "auth.audit",
		AccessTokenTTL:    15 * time.Minute,
		RefreshTokenTTL:   7 * 24 * time.Hour,
		BcryptCost:        12,
		ShortTierLimit:    100,
		ShortTierWindow:   time.Minute,
		LongTierLimit:     1000,
		LongTierWindow:    time.Hour,
		StrictTierLimit:   5,
		StrictTierWindow:  time.Minute,
		RequestTimeout:    30 * time.Second,
		AuditBufferSize:   256,
		AuditPollInterval: 2 * time.Second,
		AuditBatchSize:    100,
		AuditMaxRetries:   5,
		MaxDBConns:        20,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.Environment != "" {
			cfg.Environment = f.Service.Environment
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Service.GRPCPort > 0 {
			cfg.GRPCPort = f.Service.GRPCPort
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if len(f.Dependencies.KafkaBrokers) > 0 {
			cfg.KafkaBrokers = f.Dependencies.KafkaBrokers
		}
		if f.Dependencies.AuditTopic != "" {
			cfg.AuditTopic = f.Dependencies.AuditTopic
		}
		if len(f.Security.AllowedOrigins) > 0 {
			cfg.AllowedOrigins = f.Security.AllowedOrigins
		}
	}

	cfg.Environment = envOrDefault("APP_ENV", cfg.Environment)
	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.AuditTopic = envOrDefault("AUDIT_TOPIC", cfg.AuditTopic)
	cfg.JWTAccessSecret = envOrDefault("JWT_ACCESS_SECRET", cfg.JWTAccessSecret)
	cfg.JWTRefreshSecret = envOrDefault("JWT_REFRESH_SECRET", cfg.JWTRefreshSecret)
	cfg.AllowedOrigins = envCSV("ALLOWED_ORIGINS", cfg.AllowedOrigins)

	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.BcryptCost = envInt("BCRYPT_ROUNDS", cfg.BcryptCost)
	cfg.MaxDBConns = envInt("DB_MAX_CONNS", cfg.MaxDBConns)

	cfg.AccessTokenTTL = time.Duration(envInt("ACCESS_TOKEN_TTL_MINUTES", int(cfg.AccessTokenTTL.Minutes()))) * time.Minute
	cfg.RefreshTokenTTL = time.Duration(envInt("REFRESH_TOKEN_TTL_DAYS", int(cfg.RefreshTokenTTL.Hours()/24))) * 24 * time.Hour
	cfg.RequestTimeout = time.Duration(envInt("REQUEST_TIMEOUT_SECONDS", int(cfg.RequestTimeout.Seconds()))) * time.Second

	cfg.ShortTierLimit = envInt("RATE_LIMIT_SHORT_THRESHOLD", cfg.ShortTierLimit)
	cfg.ShortTierWindow = time.Duration(envInt("RATE_LIMIT_SHORT_WINDOW_SECONDS", int(cfg.ShortTierWindow.Seconds()))) * time.Second
	cfg.LongTierLimit = envInt("RATE_LIMIT_LONG_THRESHOLD", cfg.LongTierLimit)
	cfg.LongTierWindow = time.Duration(envInt("RATE_LIMIT_LONG_WINDOW_SECONDS", int(cfg.LongTierWindow.Seconds()))) * time.Second
	cfg.StrictTierLimit = envInt("RATE_LIMIT_STRICT_THRESHOLD", cfg.StrictTierLimit)
	cfg.StrictTierWindow = time.Duration(envInt("RATE_LIMIT_STRICT_WINDOW_SECONDS", int(cfg.StrictTierWindow.Seconds()))) * time.Second

	cfg.AuditBufferSize = envInt("AUDIT_BUFFER_SIZE", cfg.AuditBufferSize)
	cfg.AuditPollInterval = time.Duration(envInt("AUDIT_POLL_SECONDS", int(cfg.AuditPollInterval.Seconds()))) * time.Second
	cfg.AuditBatchSize = envInt("AUDIT_BATCH_SIZE", cfg.AuditBatchSize)
	cfg.AuditMaxRetries = envInt("AUDIT_MAX_RETRIES", cfg.AuditMaxRetries)

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing DB_URL/POSTGRES_URL")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("missing REDIS_URL")
	}
	if cfg.JWTAccessSecret == "" || cfg.JWTRefreshSecret == "" {
		return Config{}, fmt.Errorf("missing JWT_ACCESS_SECRET or JWT_REFRESH_SECRET")
	}

	return cfg, nil
}

// envOrDefault returns an env var when present, otherwise the provided fallback.
func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt parses integer env vars with safe fallback on empty/invalid values.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// envCSV parses comma-separated env vars and removes empty segments.
func envCSV(name string, fallback []string) []string {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	parts := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		parts = append(parts, trimmed)
	}
	if len(parts) == 0 {
		return fallback
	}
	return parts
}
