// Package config provides configuration management for the Replane
// control plane.
//
// Configuration is loaded from:
// 1. config.yaml file (optional)
// 2. Environment variables (ADR-0018: standard names like DATABASE_URL, SERVER_PORT)
// 3. Default values
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Security SecurityConfig `mapstructure:"security"`
	Hashing  HashingConfig  `mapstructure:"hashing"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Policy   PolicyConfig   `mapstructure:"policy"`
	Replica  ReplicaConfig  `mapstructure:"replica"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// CORS, served via github.com/gin-contrib/cors.
	AllowedOrigins        []string `mapstructure:"allowed_origins"`
	AllowCredentials      bool     `mapstructure:"allow_credentials"`
	UnsafeAllowAllOrigins bool     `mapstructure:"unsafe_allow_all_origins"`
}

// DatabaseConfig contains PostgreSQL connection settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`

	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`

	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`

	AutoMigrate bool `mapstructure:"auto_migrate"`
}

// DSN returns the PostgreSQL connection string.
// Priority: DATABASE_URL > constructed from individual fields.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, sslmode,
	)
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

// SecurityConfig contains session/JWT signing settings.
// ADR-0025: Auto-generate secrets on first boot if missing.
type SecurityConfig struct {
	SessionSecret       string        `mapstructure:"session_secret"`
	JWTIssuer           string        `mapstructure:"jwt_issuer"`
	JWTExpiresIn        time.Duration `mapstructure:"jwt_expires_in"`
	JWTLeeway           time.Duration `mapstructure:"jwt_leeway"`
	JWTVerificationKeys []string      `mapstructure:"jwt_verification_keys"`
}

// HashingConfig controls the Argon2id cost parameters used to hash
// admin API keys; see internal/hashing.
type HashingConfig struct {
	Argon2MemoryKiB   uint32 `mapstructure:"argon2_memory_kib"`
	Argon2TimeCost    uint32 `mapstructure:"argon2_time_cost"`
	Argon2Parallelism uint8  `mapstructure:"argon2_parallelism"`
}

// WorkerConfig contains the fire-and-forget background pool size, used
// for the admin-API-key lastUsedAt update that should not block the
// request goroutine; see internal/pkg/worker.
type WorkerConfig struct {
	GeneralPoolSize int `mapstructure:"general_pool_size"`
}

// PolicyConfig holds the require-proposals and allow-self-approvals
// defaults (spec.md §6, REQUIRE_PROPOSALS_DEFAULT / ALLOW_SELF_APPROVALS_DEFAULT).
// Load reads them, but nothing else consumes them: project creation takes
// both flags from the request and does not fall back to these values.
type PolicyConfig struct {
	RequireProposalsDefault   bool `mapstructure:"require_proposals_default"`
	AllowSelfApprovalsDefault bool `mapstructure:"allow_self_approvals_default"`
}

// ReplicaConfig sizes SDKVerifier's in-process verification cache
// (spec.md §6, SDK_VERIFIER_CACHE_SIZE / TTL_MS).
type ReplicaConfig struct {
	VerifierCacheSize int           `mapstructure:"verifier_cache_size"`
	VerifierTTL       time.Duration `mapstructure:"verifier_ttl"`
}

var (
	bootstrapLoggerOnce sync.Once
	bootstrapLogger     *zap.Logger
)

// Load reads configuration from file and environment variables.
// ADR-0018: Standard environment variables without prefix (DATABASE_URL, SERVER_PORT, etc.).
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/replane")

	// Environment variable override (ADR-0018)
	// No prefix: uses standard names like DATABASE_URL, SERVER_PORT, LOG_LEVEL
	// Maps nested config: database.max_conns → DATABASE_MAX_CONNS
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file is optional, use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.ensureSecrets(); err != nil {
		return nil, fmt.Errorf("ensure secrets: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// Validate checks for critical configuration errors.
func (c *Config) Validate() error {
	if c.Security.SessionSecret == "" {
		return fmt.Errorf("security.session_secret must not be empty")
	}
	if len(c.Security.SessionSecret) < 32 {
		return fmt.Errorf("security.session_secret must be at least 32 characters")
	}
	if c.Server.UnsafeAllowAllOrigins && c.Server.AllowCredentials {
		return fmt.Errorf("server.unsafe_allow_all_origins cannot be combined with server.allow_credentials")
	}
	return nil
}

// ensureSecrets auto-generates missing secrets per ADR-0025.
func (c *Config) ensureSecrets() error {
	if c.Security.SessionSecret == "" {
		secret, err := generateSecureRandomHex(32)
		if err != nil {
			return fmt.Errorf("auto-generate session secret: %w", err)
		}
		c.Security.SessionSecret = secret
		logBootstrapWarn(
			"auto-generated session_secret (ADR-0025); set SECURITY_SESSION_SECRET env var for persistence",
			zap.Int("length", len(secret)),
		)
	}
	return nil
}

func logBootstrapWarn(msg string, fields ...zap.Field) {
	bootstrapLoggerOnce.Do(func() {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)

		l, err := cfg.Build()
		if err != nil {
			bootstrapLogger = zap.NewNop()
			return
		}
		bootstrapLogger = l
	})

	bootstrapLogger.Warn(msg, fields...)
}

// generateSecureRandomHex produces a hex-encoded string of n random bytes.
func generateSecureRandomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("crypto/rand: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.allow_credentials", true)
	v.SetDefault("server.unsafe_allow_all_origins", false)

	// Database
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "replane")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "replane")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 50)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "10m")
	v.SetDefault("database.auto_migrate", false)

	// Log
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Security
	v.SetDefault("security.jwt_issuer", "replane")
	v.SetDefault("security.jwt_expires_in", "24h")
	v.SetDefault("security.jwt_leeway", "5s")
	v.SetDefault("security.jwt_verification_keys", []string{})

	// Hashing (spec.md §4.2 defaults)
	v.SetDefault("hashing.argon2_memory_kib", 1<<16)
	v.SetDefault("hashing.argon2_time_cost", 3)
	v.SetDefault("hashing.argon2_parallelism", 1)

	// Worker Pool
	v.SetDefault("worker.general_pool_size", 100)

	// Policy defaults (spec.md §6)
	v.SetDefault("policy.require_proposals_default", false)
	v.SetDefault("policy.allow_self_approvals_default", true)

	// Replica / SDKVerifier cache (spec.md §4.8, §6)
	v.SetDefault("replica.verifier_cache_size", 10000)
	v.SetDefault("replica.verifier_ttl", "60s")
}
