package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "change-me-in-production"

type Config struct {
	// Application
	AppName string
	AppEnv  string
	AppURL  string
	Port    string

	// Database (driver switch via ENV: sqlite, pgx or mongo)
	DBDriver      string
	DBConnection  string
	MongoDatabase string

	// Security
	JWTSecret      string
	JWTExpiry      time.Duration
	AllowedOrigins []string

	// Rate limiting for register/login
	RateLimitAuth   int
	RateLimitWindow time.Duration
	TrustedProxies  []netip.Prefix // peers whose X-Forwarded-For is honoured

	// Cache (optional, Redis)
	RedisURL     string
	FeedCacheTTL time.Duration

	// Email
	EmailFrom    string
	ResendAPIKey string
	EmailDevMode bool // log mails instead of sending them

	// Observability (optional)
	SentryDSN string

	// Storage: s3 (any S3-compatible service: MinIO, AWS S3, Cloudflare R2, etc.) or memory
	StorageDriver   string
	S3Region        string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3Endpoint      string        // Optional: for S3-compatible services
	S3PublicURL     string        // Optional: CDN or bucket website base URL
	S3UploadTimeout time.Duration // Upper bound for a single upload
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	appEnv := envRequired("APP_ENV") // development, production or test

	trustedProxies, err := parsePrefixes(envList("TRUSTED_PROXIES", ""))
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	cfg := &Config{
		AppName: envString("APP_NAME", "SmartStudy"),
		AppEnv:  appEnv,
		AppURL:  envString("APP_URL", "http://localhost:5000"),
		Port:    envString("PORT", "5000"),

		DBDriver:      envString("DB_DRIVER", "sqlite"),
		DBConnection:  envString("DB_CONNECTION", "./data/smartstudy.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(3000)"),
		MongoDatabase: envString("MONGO_DATABASE", "smartstudy"),

		JWTSecret:      envRequired("JWT_SECRET"),
		JWTExpiry:      envDuration("JWT_EXPIRY", 100*time.Hour),
		AllowedOrigins: envList("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:5174"),

		RateLimitAuth:   envInt("RATE_LIMIT_AUTH", 10),
		RateLimitWindow: envDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
		TrustedProxies:  trustedProxies,

		RedisURL:     envString("REDIS_URL", ""),
		FeedCacheTTL: envDuration("FEED_CACHE_TTL", 30*time.Second),

		EmailFrom:    envString("EMAIL_FROM", "noreply@smartstudy.local"),
		ResendAPIKey: envString("RESEND_API_KEY", ""),
		EmailDevMode: envBool("EMAIL_DEV_MODE", !isProductionEnv(appEnv)),

		SentryDSN: envString("SENTRY_DSN", ""),

		StorageDriver:   envString("STORAGE_DRIVER", "s3"),
		S3Region:        envString("S3_REGION", "us-east-1"),
		S3Bucket:        envString("S3_BUCKET", "smartstudy"),
		S3AccessKey:     envString("S3_ACCESS_KEY", ""),
		S3SecretKey:     envString("S3_SECRET_KEY", ""),
		S3Endpoint:      envString("S3_ENDPOINT", ""),
		S3PublicURL:     envString("S3_PUBLIC_URL", ""),
		S3UploadTimeout: envDuration("S3_UPLOAD_TIMEOUT", 60*time.Second),
	}

	err = cfg.Validate()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	return cfg
}

// Validate checks the values Load cannot default safely.
// Production is strict about secrets and CORS; other environments only warn.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	switch c.DBDriver {
	case "sqlite", "pgx", "mongo":
	default:
		return errors.New("DB_DRIVER must be one of sqlite, pgx, mongo")
	}

	switch c.StorageDriver {
	case "s3", "memory":
	default:
		return errors.New("STORAGE_DRIVER must be one of s3, memory")
	}

	if c.IsProduction() {
		if c.StorageDriver == "memory" {
			return errors.New("STORAGE_DRIVER=memory is not allowed in production")
		}
		if c.JWTSecret == defaultJWTSecret || len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		for _, origin := range c.AllowedOrigins {
			if origin == "*" {
				return errors.New("ALLOWED_ORIGINS must not contain * in production")
			}
		}
		return nil
	}

	if len(c.JWTSecret) < 32 {
		slog.Warn("JWT_SECRET is shorter than 32 characters")
	}
	return nil
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

// envList splits a comma separated value, dropping blanks.
func envList(key, def string) []string {
	raw := envString(key, def)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parsePrefixes accepts CIDR ranges and bare addresses.
func parsePrefixes(values []string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, v := range values {
		if prefix, err := netip.ParsePrefix(v); err == nil {
			out = append(out, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(v)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES: %q is not an IP address or CIDR range", v)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return isProductionEnv(c.AppEnv)
}

func isProductionEnv(env string) bool {
	return env == "production" || env == "prod"
}

// UsesMongo reports whether the document store backend is selected.
func (c *Config) UsesMongo() bool {
	return c.DBDriver == "mongo"
}

