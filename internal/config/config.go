package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server
	Port        string
	Environment string

	// Upstream platform API (the REST backend every admin table reads from)
	PlatformAPIURL string
	RequestTimeout time.Duration
	RatePerSecond  float64

	// Session
	SessionCookieName string

	// Pagination
	DefaultPageSize int
	MaxPageSize     int
	PageWindowDelta int

	// Stock classification
	LowStockThreshold int

	// Redis (list-page cache)
	RedisAddr     string
	RedisPassword string
	CacheTTL      time.Duration

	// NATS (audit events)
	NATSURL string
}

func Load() *Config {
	timeoutSecs, _ := strconv.Atoi(getEnv("REQUEST_TIMEOUT_SECONDS", "20"))
	rps, _ := strconv.ParseFloat(getEnv("PLATFORM_RATE_PER_SECOND", "10"), 64)
	defaultPageSize, _ := strconv.Atoi(getEnv("DEFAULT_PAGE_SIZE", "20"))
	maxPageSize, _ := strconv.Atoi(getEnv("MAX_PAGE_SIZE", "100"))
	windowDelta, _ := strconv.Atoi(getEnv("PAGE_WINDOW_DELTA", "2"))
	lowStock, _ := strconv.Atoi(getEnv("LOW_STOCK_THRESHOLD", "20"))
	cacheTTLSecs, _ := strconv.Atoi(getEnv("CACHE_TTL_SECONDS", "60"))

	return &Config{
		Port:        getEnv("PORT", "8094"),
		Environment: getEnv("ENVIRONMENT", "development"),

		PlatformAPIURL: getEnv("PLATFORM_API_URL", "http://platform-api:8080"),
		RequestTimeout: time.Duration(timeoutSecs) * time.Second,
		RatePerSecond:  rps,

		SessionCookieName: getEnv("SESSION_COOKIE_NAME", "admin_session"),

		DefaultPageSize: defaultPageSize,
		MaxPageSize:     maxPageSize,
		PageWindowDelta: windowDelta,

		LowStockThreshold: lowStock,

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		CacheTTL:      time.Duration(cacheTTLSecs) * time.Second,

		NATSURL: getEnv("NATS_URL", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
