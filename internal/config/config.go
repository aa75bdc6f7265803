package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	Auth      AuthConfig      `koanf:"auth"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	CORS      CORSConfig      `koanf:"cors"`
	Storage   StorageConfig   `koanf:"storage"`
	Logging   LoggingConfig   `koanf:"logging"`
}

type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	TLSCertFile     string        `koanf:"tls_cert_file"`
	TLSKeyFile      string        `koanf:"tls_key_file"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	MaxBodyBytes    int64         `koanf:"max_body_bytes"`
	StrictSecurity  bool          `koanf:"strict_security"`
	Environment     string        `koanf:"environment"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	PingTimeout     time.Duration `koanf:"ping_timeout"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
}

// RedisConfig is optional. Either URL or Addr enables it.
type RedisConfig struct {
	URL      string `koanf:"url"`
	Addr     string `koanf:"addr"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	TLS      bool   `koanf:"tls"`

	CacheTTL     time.Duration `koanf:"cache_ttl"` // catalog read cache; 0 disables
	CacheTimeout time.Duration `koanf:"cache_timeout"`
}

func (r RedisConfig) Enabled() bool { return r.URL != "" || r.Addr != "" }

type AuthConfig struct {
	JWTSecret       string        `koanf:"jwt_secret"`
	TokenTTL        time.Duration `koanf:"token_ttl"`
	ClockSkew       time.Duration `koanf:"clock_skew"`
	AdminEmails     []string      `koanf:"admin_emails"`
	Argon2Memory    uint32        `koanf:"argon2_memory"`
	Argon2Iter      uint32        `koanf:"argon2_iter"`
	Argon2Par       uint8         `koanf:"argon2_par"`
	LoginMaxAttempt int           `koanf:"login_max_attempts"`
	LoginWindow     time.Duration `koanf:"login_window"`
}

type RateLimitConfig struct {
	RatePerSecond float64 `koanf:"rps"`
	Burst         int     `koanf:"burst"`
	Hourly        int     `koanf:"hourly"`
}

type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// StorageConfig points at an S3-compatible bucket. Empty Bucket disables uploads.
type StorageConfig struct {
	Endpoint        string `koanf:"endpoint"`
	Region          string `koanf:"region"`
	Bucket          string `koanf:"bucket"`
	AccessKeyID     string `koanf:"access_key_id"`
	SecretAccessKey string `koanf:"secret_access_key"`
	PublicBaseURL   string `koanf:"public_base_url"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":3000",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBodyBytes:    10 << 20,
			Environment:     "development",
		},
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    10,
			ConnMaxIdleTime: 5 * time.Minute,
			ConnMaxLifetime: 30 * time.Minute,
			PingTimeout:     3 * time.Second,
			AutoMigrate:     true,
		},
		Redis: RedisConfig{
			CacheTTL:     5 * time.Minute,
			CacheTimeout: 150 * time.Millisecond,
		},
		Auth: AuthConfig{
			TokenTTL:        7 * 24 * time.Hour,
			ClockSkew:       60 * time.Second,
			Argon2Memory:    131072,
			Argon2Iter:      3,
			Argon2Par:       1,
			LoginMaxAttempt: 10,
			LoginWindow:     5 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			RatePerSecond: 5,
			Burst:         20,
			Hourly:        3000,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:5173"},
		},
		Storage: StorageConfig{
			Region: "auto",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// envToPath maps environment variable names onto config paths. Unlisted variables are ignored.
var envToPath = map[string]string{
	"HTTP_ADDR":              "server.addr",
	"TLS_CERT_FILE":          "server.tls_cert_file",
	"TLS_KEY_FILE":           "server.tls_key_file",
	"READ_TIMEOUT":           "server.read_timeout",
	"WRITE_TIMEOUT":          "server.write_timeout",
	"SHUTDOWN_TIMEOUT":       "server.shutdown_timeout",
	"MAX_BODY_SIZE":          "server.max_body_bytes",
	"STRICT_SECURITY":        "server.strict_security",
	"APP_ENV":                "server.environment",
	"DATABASE_URL":           "database.url",
	"DB_MAX_OPEN_CONNS":      "database.max_open_conns",
	"DB_MAX_IDLE_CONNS":      "database.max_idle_conns",
	"DB_CONN_MAX_IDLE_TIME":  "database.conn_max_idle_time",
	"DB_CONN_MAX_LIFETIME":   "database.conn_max_lifetime",
	"DB_AUTO_MIGRATE":        "database.auto_migrate",
	"REDIS_URL":              "redis.url",
	"UPSTASH_REDIS_URL":      "redis.url",
	"REDIS_ADDR":             "redis.addr",
	"REDIS_USER":             "redis.user",
	"REDIS_PASSWORD":         "redis.password",
	"REDIS_TLS":              "redis.tls",
	"CATALOG_CACHE_TTL":      "redis.cache_ttl",
	"CACHE_TIMEOUT":          "redis.cache_timeout",
	"AUTH_JWT_SECRET":        "auth.jwt_secret",
	"AUTH_TOKEN_TTL":         "auth.token_ttl",
	"AUTH_CLOCK_SKEW":        "auth.clock_skew",
	"ADMIN_EMAILS":           "auth.admin_emails",
	"ARGON2_MEMORY":          "auth.argon2_memory",
	"ARGON2_ITER":            "auth.argon2_iter",
	"ARGON2_PAR":             "auth.argon2_par",
	"LOGIN_MAX_ATTEMPTS":     "auth.login_max_attempts",
	"LOGIN_WINDOW":           "auth.login_window",
	"RATE_LIMIT_RPS":         "rate_limit.rps",
	"RATE_LIMIT_BURST":       "rate_limit.burst",
	"RATE_LIMIT_HOURLY":      "rate_limit.hourly",
	"CORS_ALLOWED_ORIGINS":   "cors.allowed_origins",
	"AWS_ENDPOINT":           "storage.endpoint",
	"AWS_REGION":             "storage.region",
	"AWS_BUCKET":             "storage.bucket",
	"AWS_ACCESS_KEY_ID":      "storage.access_key_id",
	"AWS_SECRET_ACCESS_KEY":  "storage.secret_access_key",
	"UPLOAD_PUBLIC_BASE_URL": "storage.public_base_url",
	"LOG_LEVEL":              "logging.level",
	"LOG_FORMAT":             "logging.format",
	"LOG_CALLER":             "logging.caller",
}

// sliceConfigPaths are parsed from comma-separated env values.
var sliceConfigPaths = []string{
	"auth.admin_emails",
	"cors.allowed_origins",
}

func envTransformFunc(key string) string {
	return envToPath[strings.ToUpper(key)]
}

// Load builds the configuration: struct defaults, then environment overrides.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.Auth.AdminEmails = lowerAll(cfg.Auth.AdminEmails)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.ToLower(strings.TrimSpace(s)))
	}
	return out
}

// Validate fails fast on configuration the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Database.URL == "" {
		errs = append(errs, errors.New("DATABASE_URL not set"))
	}
	if len(c.Auth.JWTSecret) < 32 {
		errs = append(errs, errors.New("AUTH_JWT_SECRET must be at least 32 characters"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("AUTH_TOKEN_TTL must be positive, got %s", c.Auth.TokenTTL))
	}
	if c.Auth.Argon2Memory < 65536 {
		errs = append(errs, errors.New("ARGON2_MEMORY must be >= 65536"))
	}
	if c.Auth.Argon2Iter < 2 {
		errs = append(errs, errors.New("ARGON2_ITER must be >= 2"))
	}
	if c.Auth.Argon2Par < 1 {
		errs = append(errs, errors.New("ARGON2_PAR must be >= 1"))
	}
	if (c.Server.TLSCertFile == "") != (c.Server.TLSKeyFile == "") {
		errs = append(errs, errors.New("TLS_CERT_FILE and TLS_KEY_FILE must be set together"))
	}
	return errors.Join(errs...)
}

// HardeningWarnings returns non-fatal warnings worth logging on startup.
func (c *Config) HardeningWarnings() []string {
	var warns []string
	if c.Auth.TokenTTL > 30*24*time.Hour {
		warns = append(warns, fmt.Sprintf("AUTH_TOKEN_TTL=%s is > 30 days; consider shorter tokens", c.Auth.TokenTTL))
	}
	if !strings.EqualFold(c.Server.Environment, "production") {
		return warns
	}
	if c.Server.TLSCertFile == "" {
		warns = append(warns, "TLS not configured; terminate TLS in front of the server")
	}
	if strings.HasPrefix(c.Redis.URL, "redis://") {
		warns = append(warns, "REDIS_URL uses redis:// (no TLS). Prefer rediss://")
	}
	if c.Redis.Addr != "" && (c.Redis.User == "" || c.Redis.Password == "") {
		warns = append(warns, "REDIS_ADDR provided without REDIS_USER/REDIS_PASSWORD; require auth in production")
	}
	if !c.Redis.Enabled() {
		warns = append(warns, "redis not configured; rate limits are per process and logout cannot revoke tokens")
	}
	for _, o := range c.CORS.AllowedOrigins {
		if o == "*" {
			warns = append(warns, "CORS_ALLOWED_ORIGINS contains *")
		}
	}
	return warns
}
