package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Auth          AuthConfig
	Security      SecurityConfig
	RateLimit     RateLimitConfig
	Upload        UploadConfig
	Email         EmailConfig
	Redis         RedisConfig
	Reminder      ReminderConfig
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string
	Port           string
	CORSOrigin     string
	RequestTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// AuthConfig holds token signing configuration
type AuthConfig struct {
	AccessSecret  string
	AccessExpiry  time.Duration
	RefreshSecret string
	RefreshExpiry time.Duration
}

// SecurityConfig holds password hashing and lockout configuration
type SecurityConfig struct {
	Argon2Memory       uint32
	Argon2Iterations   uint32
	Argon2Parallelism  uint8
	Argon2SaltLength   uint32
	Argon2KeyLength    uint32
	LockoutMaxAttempts int
	LockoutDuration    time.Duration
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Window      time.Duration
	MaxRequests int
}

// UploadConfig holds report file upload configuration
type UploadConfig struct {
	MaxBytes int64
	Dir      string
}

// EmailConfig holds the outbound email provider configuration. An
// empty ProviderKey disables delivery.
type EmailConfig struct {
	ProviderURL string
	ProviderKey string
	From        string
}

// RedisConfig holds tenant cache configuration. An empty Addr falls
// back to the in-process cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// ReminderConfig holds the reminder dispatcher configuration
type ReminderConfig struct {
	PollInterval time.Duration
}

// ObservabilityConfig holds logging and tracing configuration
type ObservabilityConfig struct {
	LogLevel       string
	LogFormat      string
	OTELEnabled    bool
	SamplingRate   float64
	ServiceName    string
	ServiceVersion string
}

// Load loads configuration from the environment, reading a local
// .env file first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnv("SERVER_PORT", "8080"),
			CORSOrigin:     getEnv("CORS_ORIGIN", "*"),
			RequestTimeout: parseDuration("SERVER_REQUEST_TIMEOUT", "60s"),
			ReadTimeout:    parseDuration("SERVER_READ_TIMEOUT", "15s"),
			WriteTimeout:   parseDuration("SERVER_WRITE_TIMEOUT", "15s"),
			IdleTimeout:    parseDuration("SERVER_IDLE_TIMEOUT", "60s"),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "carebase"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "carebase"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: parseInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: parseInt("DB_MAX_IDLE_CONNS", 5),
		},
		Auth: AuthConfig{
			AccessSecret:  getEnv("JWT_SECRET", ""),
			AccessExpiry:  parseDuration("JWT_EXPIRY", "15m"),
			RefreshSecret: getEnv("JWT_REFRESH_SECRET", ""),
			RefreshExpiry: parseDuration("JWT_REFRESH_EXPIRY", "168h"),
		},
		Security: SecurityConfig{
			Argon2Memory:       uint32(parseInt("ARGON2_MEMORY", 65536)),
			Argon2Iterations:   uint32(parseInt("ARGON2_ITERATIONS", 3)),
			Argon2Parallelism:  uint8(parseInt("ARGON2_PARALLELISM", 4)),
			Argon2SaltLength:   uint32(parseInt("ARGON2_SALT_LENGTH", 16)),
			Argon2KeyLength:    uint32(parseInt("ARGON2_KEY_LENGTH", 32)),
			LockoutMaxAttempts: parseInt("SECURITY_LOCKOUT_MAX_ATTEMPTS", 5),
			LockoutDuration:    parseDuration("SECURITY_LOCKOUT_DURATION", "15m"),
		},
		RateLimit: RateLimitConfig{
			Window:      parseDuration("RATE_LIMIT_WINDOW", "1m"),
			MaxRequests: parseInt("RATE_LIMIT_MAX", 120),
		},
		Upload: UploadConfig{
			MaxBytes: int64(parseInt("UPLOAD_MAX_BYTES", 10485760)),
			Dir:      getEnv("UPLOAD_DIR", "./uploads"),
		},
		Email: EmailConfig{
			ProviderURL: getEnv("EMAIL_PROVIDER_URL", ""),
			ProviderKey: getEnv("EMAIL_PROVIDER_KEY", ""),
			From:        getEnv("EMAIL_FROM", "noreply@carebase.io"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt("REDIS_DB", 0),
			TTL:      parseDuration("REDIS_TTL", "5m"),
		},
		Reminder: ReminderConfig{
			PollInterval: parseDuration("REMINDER_POLL_INTERVAL", "1m"),
		},
		Observability: ObservabilityConfig{
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			LogFormat:      getEnv("LOG_FORMAT", "json"),
			OTELEnabled:    parseBool("OTEL_ENABLED", false),
			SamplingRate:   parseFloat("OTEL_SAMPLING_RATE", 1.0),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "carebase"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "0.1.0"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Auth.RefreshSecret == "" {
		return fmt.Errorf("JWT_REFRESH_SECRET is required")
	}
	if c.RateLimit.MaxRequests <= 0 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate limit window and max must be positive")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func parseBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func parseFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func parseDuration(key string, defaultValue string) time.Duration {
	value := getEnv(key, defaultValue)
	d, err := time.ParseDuration(value)
	if err != nil {
		d, _ = time.ParseDuration(defaultValue)
	}
	return d
}
