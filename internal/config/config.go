package config

import (
	"os"      // For environment variables
	"strconv" // For string to number conversion
	"strings" // For list parsing
	"time"    // For durations

	"github.com/joho/godotenv"      // For loading .env files
	"github.com/shopspring/decimal" // For money settings
)

// Config holds the application configuration
type Config struct {
	AppPort    string        // Application port
	DBUser     string        // Database user
	DBPassword string        // Database password
	DBHost     string        // Database host
	DBPort     string        // Database port
	DBName     string        // Database name
	JWTSecret  string        // JWT secret key
	JWTTTL     time.Duration // Session token lifetime
	RedisAddr  string        // Redis server address
	RedisPass  string        // Redis password
	RedisDB    int           // Redis database number
	IsProd     bool          // Is production environment

	CommissionAmount      decimal.Decimal // Credited to a referrer per completed signup
	TrialDays             int             // Trial subscription length for new accounts
	ReferralBaseURL       string          // Base of generated referral links
	EnforceReferralExpiry bool            // Reject expired referral codes at signup
	DashboardCacheTTL     time.Duration   // Dashboard cache lifetime

	SerpAPIKey      string        // Market data provider key
	SerpAPIURL      string        // Market data provider endpoint
	UpstreamTimeout time.Duration // Timeout for market data requests

	ExtensionAPIURL            string        // API URL baked into generated extensions
	DeviceTokenTTL             time.Duration // Lifetime of embedded device tokens
	ExtensionEmbedSessionToken bool          // Embed the caller's session token instead of a device token

	BackendURL   string        // Backend base URL used by the extension relay
	RelayTimeout time.Duration // Per-request timeout of the relay

	AuthRateLimit     int      // Auth attempts per IP per 15 minutes
	WithdrawRateLimit int      // Withdrawals per IP per hour
	TrustedProxies    []string // Proxies gin trusts for client IPs
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	isProd := getEnvBool("IS_PROD", false)
	authLimit, withdrawLimit := 50, 20 // Relaxed limits for development
	if isProd {
		authLimit, withdrawLimit = 5, 3 // Strict limits in production
	}
	return &Config{
		AppPort:    getEnv("APP_PORT", "5001"),              // Application port
		DBUser:     getEnv("DB_USER", "root"),               // Database user
		DBPassword: getEnv("DB_PASSWORD", ""),               // Database password
		DBHost:     getEnv("DB_HOST", "127.0.0.1"),          // Database host
		DBPort:     getEnv("DB_PORT", "3306"),               // Database port
		DBName:     getEnv("DB_NAME", "radar"),              // Database name
		JWTSecret:  os.Getenv("JWT_SECRET"),                 // JWT secret key
		JWTTTL:     getEnvDuration("JWT_TTL", 24*time.Hour), // Session token lifetime
		RedisAddr:  getEnv("REDIS_ADDR", "127.0.0.1:6379"),  // Redis server address
		RedisPass:  os.Getenv("REDIS_PASS"),                 // Redis password
		RedisDB:    getEnvInt("REDIS_DB", 0),                // Redis database number
		IsProd:     isProd,                                  // Is production environment

		CommissionAmount:      getEnvDecimal("COMMISSION_AMOUNT", decimal.NewFromInt(300)),
		TrialDays:             getEnvInt("TRIAL_DAYS", 30),
		ReferralBaseURL:       strings.TrimRight(getEnv("REFERRAL_BASE_URL", "https://exzakvibe.com"), "/"),
		EnforceReferralExpiry: getEnvBool("ENFORCE_REFERRAL_EXPIRY", false),
		DashboardCacheTTL:     getEnvDuration("DASHBOARD_CACHE_TTL", 30*time.Second),

		SerpAPIKey:      os.Getenv("SERPAPI_KEY"),
		SerpAPIURL:      getEnv("SERPAPI_URL", "https://serpapi.com/search.json"),
		UpstreamTimeout: getEnvDuration("UPSTREAM_TIMEOUT", 20*time.Second),

		ExtensionAPIURL:            getEnv("EXTENSION_API_URL", "http://localhost:3000/api"),
		DeviceTokenTTL:             getEnvDuration("DEVICE_TOKEN_TTL", 90*24*time.Hour),
		ExtensionEmbedSessionToken: getEnvBool("EXTENSION_EMBED_SESSION_TOKEN", false),

		BackendURL:   strings.TrimRight(getEnv("BACKEND_URL", "http://localhost:5001/api"), "/"),
		RelayTimeout: getEnvDuration("RELAY_TIMEOUT", 15*time.Second),

		AuthRateLimit:     getEnvInt("RATE_LIMIT_AUTH", authLimit),
		WithdrawRateLimit: getEnvInt("RATE_LIMIT_WITHDRAW", withdrawLimit),
		TrustedProxies:    getEnvList("TRUSTED_PROXIES", []string{"127.0.0.1"}),
	}
}

// DSN builds the MySQL data source name
func (c *Config) DSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?parseTime=true&loc=UTC"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}

func getEnvDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	if v, err := decimal.NewFromString(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
