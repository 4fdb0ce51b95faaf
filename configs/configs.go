// Package configs provides application configuration loaded from environment variables.
// All configuration is externalized via environment variables for 12-factor app compliance.
package configs

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all application configuration.
// Load it once at startup using AppLoad().
type AppConfig struct {
	// LogLevel is a logrus level name ("debug", "info", "warn", ...).
	LogLevel string

	// MarketData contains settings for the coin and news REST APIs.
	MarketData MarketDataConfig

	// Identity contains settings for the hosted auth/profile/storage service.
	Identity IdentityConfig

	// Search contains settings for search-as-you-type.
	Search SearchConfig

	// Breaker contains circuit breaker settings for upstream market calls.
	Breaker BreakerConfig

	// Server contains settings for the local client API.
	Server ServerConfig
}

// MarketDataConfig holds the RapidAPI coin and news endpoint settings.
type MarketDataConfig struct {
	// APIKey is sent as X-RapidAPI-Key on every request. Required.
	APIKey string

	// CoinsBaseURL is the coin API root (e.g., "https://coinranking1.p.rapidapi.com").
	CoinsBaseURL string

	// CoinsHost is sent as X-RapidAPI-Host for coin requests.
	CoinsHost string

	// NewsBaseURL is the news API root including its path prefix.
	NewsBaseURL string

	// NewsHost is sent as X-RapidAPI-Host for news requests.
	NewsHost string

	// ReferenceCurrencyUUID selects the quote currency. Default: US Dollar.
	ReferenceCurrencyUUID string

	// TimePeriod is the change window ("24h", "7d", ...).
	TimePeriod string

	// Tiers filters coins by tier.
	Tiers string

	// OrderBy and OrderDirection control list sorting.
	OrderBy        string
	OrderDirection string

	// Limit and Offset page the coin list.
	Limit  int
	Offset int

	// RequestsPerSecond paces outbound calls to stay inside the API quota.
	RequestsPerSecond float64

	// RequestTimeout is the transport timeout for a single call.
	RequestTimeout time.Duration
}

// IdentityConfig holds the hosted identity service settings.
type IdentityConfig struct {
	// BaseURL is the project URL (e.g., "https://xyz.supabase.co"). Required.
	BaseURL string

	// AnonKey is the public API key sent as "apikey". Required.
	AnonKey string

	// ProfilesTable is the table holding one profile row per user.
	ProfilesTable string

	// AvatarBucket is the storage bucket for avatar images.
	AvatarBucket string

	// SessionFile is where the session is persisted across restarts.
	SessionFile string

	// RefreshMargin is how long before expiry a session gets refreshed.
	RefreshMargin time.Duration

	// RequestTimeout is the transport timeout for a single call.
	RequestTimeout time.Duration
}

// SearchConfig holds search-as-you-type settings.
type SearchConfig struct {
	// Debounce is the quiet period before a search fires.
	Debounce time.Duration

	// MinLength is the shortest query that reaches the network.
	MinLength int
}

// BreakerConfig holds circuit breaker settings.
type BreakerConfig struct {
	// MaxFailures is the consecutive failure count that opens the breaker.
	MaxFailures int

	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
}

// ServerConfig holds local API settings.
type ServerConfig struct {
	// Port is the HTTP listen port.
	Port string

	// GinMode is "debug", "release" or "test".
	GinMode string

	// HealthInterval is the period between health checks.
	HealthInterval time.Duration
}

// AppLoad loads all application configuration from environment variables.
// It attempts to load a .env file first (for local development).
// Call this once at application startup.
func AppLoad() *AppConfig {
	_ = godotenv.Load() // Ignore error - .env is optional

	return &AppConfig{
		LogLevel: getEnv("LOG_LEVEL", "info"),
		MarketData: MarketDataConfig{
			APIKey:                getEnv("RAPIDAPI_KEY", ""),
			CoinsBaseURL:          getEnv("COINS_BASE_URL", "https://coinranking1.p.rapidapi.com"),
			CoinsHost:             getEnv("COINS_API_HOST", "coinranking1.p.rapidapi.com"),
			NewsBaseURL:           getEnv("NEWS_BASE_URL", "https://cryptocurrency-news2.p.rapidapi.com/v1/cryptodaily"),
			NewsHost:              getEnv("NEWS_API_HOST", "cryptocurrency-news2.p.rapidapi.com"),
			ReferenceCurrencyUUID: getEnv("COINS_REFERENCE_CURRENCY", "yhjMzLPhuIDl"),
			TimePeriod:            getEnv("COINS_TIME_PERIOD", "24h"),
			Tiers:                 getEnv("COINS_TIERS", "1"),
			OrderBy:               getEnv("COINS_ORDER_BY", "marketCap"),
			OrderDirection:        getEnv("COINS_ORDER_DIRECTION", "desc"),
			Limit:                 getEnvInt("COINS_LIMIT", 50),
			Offset:                getEnvInt("COINS_OFFSET", 0),
			RequestsPerSecond:     getEnvFloat("MARKET_REQUESTS_PER_SECOND", 5),
			RequestTimeout:        getEnvDuration("MARKET_REQUEST_TIMEOUT", 30*time.Second),
		},
		Identity: IdentityConfig{
			BaseURL:        getEnv("IDENTITY_URL", ""),
			AnonKey:        getEnv("IDENTITY_ANON_KEY", ""),
			ProfilesTable:  getEnv("IDENTITY_PROFILES_TABLE", "profiles"),
			AvatarBucket:   getEnv("IDENTITY_AVATAR_BUCKET", "avatar"),
			SessionFile:    getEnv("SESSION_FILE", ".coinview/session.json"),
			RefreshMargin:  getEnvDuration("SESSION_REFRESH_MARGIN", time.Minute),
			RequestTimeout: getEnvDuration("IDENTITY_REQUEST_TIMEOUT", 15*time.Second),
		},
		Search: SearchConfig{
			Debounce:  getEnvDuration("SEARCH_DEBOUNCE", 400*time.Millisecond),
			MinLength: getEnvInt("SEARCH_MIN_LENGTH", 3),
		},
		Breaker: BreakerConfig{
			MaxFailures: getEnvInt("BREAKER_MAX_FAILURES", 5),
			OpenTimeout: getEnvDuration("BREAKER_OPEN_TIMEOUT", 30*time.Second),
		},
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "8080"),
			GinMode:        getEnv("GIN_MODE", "release"),
			HealthInterval: getEnvDuration("HEALTH_INTERVAL", 30*time.Second),
		},
	}
}

// Validate reports every missing required value.
func (c *AppConfig) Validate() error {
	var errs []error
	if c.MarketData.APIKey == "" {
		errs = append(errs, errors.New("RAPIDAPI_KEY is required"))
	}
	if c.Identity.BaseURL == "" {
		errs = append(errs, errors.New("IDENTITY_URL is required"))
	}
	if c.Identity.AnonKey == "" {
		errs = append(errs, errors.New("IDENTITY_ANON_KEY is required"))
	}
	return errors.Join(errs...)
}

// getEnv returns the environment variable value or a default.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

// getEnvDuration accepts Go duration strings ("400ms", "30s").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
