package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName string
	AppEnv  string
	Port    string

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Security
	JWTSecret   string
	JWTExpiry   time.Duration
	CORSOrigins string

	// Observability (optional)
	SentryDSN string

	// Storage (S3-compatible: MinIO, AWS S3, Cloudflare R2, etc.)
	S3Region        string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3Endpoint      string // Optional: for S3-compatible services
	S3PublicBaseURL string // Optional: CDN or bucket website in front of the bucket

	// Uploads
	UploadMaxBytes int64

	// Blob deletion reconciliation
	ReconcileInterval    time.Duration // 0 disables the in-process loop
	ReconcileBatchSize   int
	ReconcileMaxAttempts int
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppName: envString("APP_NAME", "rentdesk"),
		AppEnv:  envRequired("APP_ENV"), // Required: 'development' or 'production'
		Port:    envString("PORT", "8090"),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/rentdesk.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"),

		// Security
		JWTSecret:   envRequired("JWT_SECRET"),
		JWTExpiry:   envDuration("JWT_EXPIRY", 12*time.Hour),
		CORSOrigins: envString("CORS_ORIGINS", "http://localhost:3000"),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),

		// Storage
		S3Region:        envRequired("S3_REGION"),
		S3Bucket:        envRequired("S3_BUCKET"),
		S3AccessKey:     envString("S3_ACCESS_KEY", ""),
		S3SecretKey:     envString("S3_SECRET_KEY", ""),
		S3Endpoint:      envString("S3_ENDPOINT", ""),
		S3PublicBaseURL: envString("S3_PUBLIC_BASE_URL", ""),

		// Uploads
		UploadMaxBytes: int64(envInt("UPLOAD_MAX_BYTES", 25<<20)), // 25MB

		// Reconciliation
		ReconcileInterval:    envDuration("RECONCILE_INTERVAL", 0),
		ReconcileBatchSize:   envInt("RECONCILE_BATCH_SIZE", 100),
		ReconcileMaxAttempts: envInt("RECONCILE_MAX_ATTEMPTS", 10),
	}

	return cfg
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
	return c.AppEnv == "production"
}

// S3PathStyle reports whether path-style addressing should be used.
// Custom endpoints (MinIO, R2) need it; AWS does not.
func (c *Config) S3PathStyle() bool {
	return envBool("S3_PATH_STYLE", c.S3Endpoint != "")
}
