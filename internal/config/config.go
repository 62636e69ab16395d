package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderLocal    = "local"
	ProviderSupabase = "supabase"
)

type Config struct {
	// Server
	AppEnv      string
	Port        string
	CORSOrigins string
	BodyLimitMB int

	// Logging
	LogLevel         string
	LogRetentionDays int

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Bound applied to every request's store/provider calls
	UpstreamTimeout time.Duration

	// Identity provider: "local" or "supabase"
	IdentityProvider string

	// Local provider tokens
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// Supabase Auth
	SupabaseURL            string
	SupabaseAnonKey        string
	SupabaseServiceRoleKey string

	// First administrator, registered on startup when no ADMIN exists
	BootstrapAdminName     string
	BootstrapAdminEmail    string
	BootstrapAdminPassword string

	SentryDSN string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		AppEnv:      getEnv("APP_ENV", "production"),
		Port:        getEnv("PORT", "3001"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		BodyLimitMB: parseInt(getEnv("BODY_LIMIT_MB", "10"), 10),

		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogRetentionDays: parseInt(getEnv("LOG_RETENTION_DAYS", "30"), 30),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "limpatech"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		UpstreamTimeout: parseDuration(getEnv("UPSTREAM_TIMEOUT", "10s"), 10*time.Second),

		IdentityProvider: strings.ToLower(getEnv("IDENTITY_PROVIDER", ProviderLocal)),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTAccessExpiry:  parseDuration(getEnv("JWT_ACCESS_EXPIRY", "1h"), time.Hour),
		JWTRefreshExpiry: parseDuration(getEnv("JWT_REFRESH_EXPIRY", "168h"), 168*time.Hour),

		SupabaseURL:            strings.TrimRight(getEnv("SUPABASE_URL", ""), "/"),
		SupabaseAnonKey:        getEnv("SUPABASE_ANON_KEY", ""),
		SupabaseServiceRoleKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),

		BootstrapAdminName:     getEnv("BOOTSTRAP_ADMIN_NAME", "Administrador"),
		BootstrapAdminEmail:    getEnv("BOOTSTRAP_ADMIN_EMAIL", ""),
		BootstrapAdminPassword: getEnv("BOOTSTRAP_ADMIN_PASSWORD", ""),

		SentryDSN: getEnv("SENTRY_DSN", ""),
	}
}

// Validate reports the first missing setting that would keep the server from working.
func (c *Config) Validate() error {
	if c.DBPassword == "" {
		return errors.New("DB_PASSWORD environment variable is required")
	}
	switch c.IdentityProvider {
	case ProviderLocal:
		if c.JWTSecret == "" {
			return errors.New("JWT_SECRET environment variable is required for the local identity provider")
		}
	case ProviderSupabase:
		if c.SupabaseURL == "" || c.SupabaseAnonKey == "" {
			return errors.New("SUPABASE_URL and SUPABASE_ANON_KEY are required for the supabase identity provider")
		}
	default:
		return errors.New("IDENTITY_PROVIDER must be local or supabase")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) BootstrapEnabled() bool {
	return c.BootstrapAdminEmail != "" && c.BootstrapAdminPassword != ""
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
