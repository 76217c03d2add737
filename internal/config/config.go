// Package config loads process settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string

	MongoURI      string
	MongoDatabase string

	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	CartCacheTTL    time.Duration
	CartCacheJitter time.Duration
	BreakerFailures uint32
	BreakerTimeout  time.Duration

	KafkaBrokers  []string
	CheckoutTopic string

	DefaultPageSize int
	MaxPageSize     int

	MaxFileSize     int64
	UploadPath      string
	UploadGCSBucket string
	UploadGCSPrefix string
	UploadPublicURL string

	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	NotificationArchiveInterval time.Duration
	CartMaxRetries              int
	SeedOnStartup               bool
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Load reads an optional .env file and then the environment. Invalid values
// are reported together.
func Load() (*Config, error) {
	_ = godotenv.Load()

	p := &parser{}
	cfg := &Config{
		Port:        getEnv("PORT", "3000"),
		Environment: getEnv("ENVIRONMENT", "development"),

		MongoURI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGODB_DATABASE", "ecommerce"),

		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         p.int("REDIS_DB", 0),
		CartCacheTTL:    p.duration("CART_CACHE_TTL", 15*time.Minute),
		CartCacheJitter: p.duration("CART_CACHE_JITTER", 5*time.Minute),
		BreakerFailures: uint32(p.int("CACHE_BREAKER_FAILURES", 5)),
		BreakerTimeout:  p.duration("CACHE_BREAKER_TIMEOUT", 30*time.Second),

		KafkaBrokers:  splitList(getEnv("KAFKA_BROKERS", "")),
		CheckoutTopic: getEnv("CHECKOUT_TOPIC", "checkout-outbox"),

		DefaultPageSize: p.int("DEFAULT_PAGE_SIZE", 10),
		MaxPageSize:     p.int("MAX_PAGE_SIZE", 100),

		MaxFileSize:     p.size("MAX_FILE_SIZE", 5<<20),
		UploadPath:      getEnv("UPLOAD_PATH", "./uploads"),
		UploadGCSBucket: getEnv("UPLOAD_GCS_BUCKET", ""),
		UploadGCSPrefix: getEnv("UPLOAD_GCS_PREFIX", "uploads"),
		UploadPublicURL: getEnv("UPLOAD_PUBLIC_URL", ""),

		RequestTimeout:  p.duration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout: p.duration("SHUTDOWN_TIMEOUT", 10*time.Second),

		NotificationArchiveInterval: p.duration("NOTIFICATION_ARCHIVE_INTERVAL", 0),
		CartMaxRetries:              p.int("CART_MAX_RETRIES", 3),
		SeedOnStartup:               p.bool("SEED_ON_STARTUP", true),
	}

	defaultLevel := "debug"
	if cfg.IsProduction() {
		defaultLevel = "info"
	}
	cfg.LogLevel = getEnv("LOG_LEVEL", defaultLevel)

	if cfg.DefaultPageSize < 1 || cfg.MaxPageSize < cfg.DefaultPageSize {
		p.errs = append(p.errs, fmt.Sprintf("page sizes must satisfy 1 <= DEFAULT_PAGE_SIZE (%d) <= MAX_PAGE_SIZE (%d)", cfg.DefaultPageSize, cfg.MaxPageSize))
	}
	if len(p.errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(p.errs, "; "))
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parser collects every malformed value instead of stopping at the first.
type parser struct {
	errs []string
}

func (p *parser) int(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		p.errs = append(p.errs, fmt.Sprintf("%s: %q is not a non-negative integer", key, v))
		return def
	}
	return n
}

func (p *parser) bool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Sprintf("%s: %q is not a boolean", key, v))
		return def
	}
	return b
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		p.errs = append(p.errs, fmt.Sprintf("%s: %q is not a duration", key, v))
		return def
	}
	return d
}

func (p *parser) size(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := parseSize(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Sprintf("%s: %v", key, err))
		return def
	}
	return n
}

var sizeUnits = []struct {
	suffix string
	mult   int64
}{
	{"GB", 1 << 30},
	{"MB", 1 << 20},
	{"KB", 1 << 10},
	{"B", 1},
}

// parseSize accepts plain byte counts and KB/MB/GB suffixes (binary units).
func parseSize(s string) (int64, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	mult := int64(1)
	for _, u := range sizeUnits {
		if strings.HasSuffix(upper, u.suffix) {
			upper = strings.TrimSpace(strings.TrimSuffix(upper, u.suffix))
			mult = u.mult
			break
		}
	}
	n, err := strconv.ParseInt(upper, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%q is not a size", s)
	}
	return n * mult, nil
}
