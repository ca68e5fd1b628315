// Package config loads settings from an optional .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Session store backends.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendMongo  = "mongo"
	BackendRedis  = "redis"
)

// Config covers both the onboarding client and the development stub API.
type Config struct {
	Env       string
	LogLevel  string
	LogFormat string

	// Client
	APIBaseURL        string
	HTTPTimeout       time.Duration
	SessionBackend    string
	SessionFile       string
	SessionNamespace  string
	SessionSettle     time.Duration
	OTPResendCooldown time.Duration

	// Shared storage
	MongoURI      string
	MongoDatabase string
	RedisAddr     string
	RedisPrefix   string

	// Stub API
	Port                string
	JWTSecret           string
	JWTAccessTTL        time.Duration
	JWTRefreshTTL       time.Duration
	OTPTTL              time.Duration
	OTPResendInterval   time.Duration
	StubStorage         string
	AllowedOrigins      []string
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
}

// Load reads .env when present (a missing file is ignored), then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:       GetEnv("APP_ENV", "development"),
		LogLevel:  GetEnv("LOG_LEVEL", "info"),
		LogFormat: GetEnv("LOG_FORMAT", "text"),

		APIBaseURL:       strings.TrimRight(GetEnv("API_BASE_URL", "http://localhost:8080/api/v1"), "/"),
		SessionBackend:   strings.ToLower(GetEnv("SESSION_BACKEND", BackendFile)),
		SessionFile:      GetEnv("SESSION_FILE", "./data/session.json"),
		SessionNamespace: GetEnv("SESSION_NAMESPACE", "default"),

		MongoURI:      GetEnv("MONGO_URI", ""),
		MongoDatabase: GetEnv("MONGO_DATABASE", "vendora"),
		RedisAddr:     GetEnv("REDIS_ADDR", "localhost:6379"),
		RedisPrefix:   GetEnv("REDIS_PREFIX", "vendora:session:"),

		Port:                GetEnv("PORT", "8080"),
		JWTSecret:           GetEnv("JWT_SECRET", ""),
		StubStorage:         strings.ToLower(GetEnv("STUB_STORAGE", BackendMemory)),
		AllowedOrigins:      splitList(GetEnv("CORS_ALLOWED_ORIGINS", "http://localhost:8081,http://localhost:19006")),
		CloudinaryCloudName: GetEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryAPIKey:    GetEnv("CLOUDINARY_API_KEY", ""),
		CloudinaryAPISecret: GetEnv("CLOUDINARY_API_SECRET", ""),
	}

	var err error
	durations := []struct {
		key  string
		def  string
		dest *time.Duration
	}{
		{"HTTP_TIMEOUT", "15s", &cfg.HTTPTimeout},
		{"SESSION_SETTLE_DELAY", "300ms", &cfg.SessionSettle},
		{"OTP_RESEND_COOLDOWN", "0s", &cfg.OTPResendCooldown},
		{"JWT_ACCESS_TTL", "15m", &cfg.JWTAccessTTL},
		{"JWT_REFRESH_TTL", "168h", &cfg.JWTRefreshTTL},
		{"OTP_TTL", "10m", &cfg.OTPTTL},
		{"OTP_RESEND_INTERVAL", "30s", &cfg.OTPResendInterval},
	}
	for _, d := range durations {
		if *d.dest, err = parseDuration(d.key, d.def); err != nil {
			return nil, err
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.APIBaseURL == "" {
		return errors.New("config: API_BASE_URL must be set")
	}
	switch c.SessionBackend {
	case BackendFile:
		if c.SessionFile == "" {
			return errors.New("config: SESSION_FILE must be set for the file backend")
		}
	case BackendMemory, BackendRedis:
	case BackendMongo:
		if c.MongoURI == "" {
			return errors.New("config: MONGO_URI must be set for the mongo backend")
		}
	default:
		return fmt.Errorf("config: unknown SESSION_BACKEND %q", c.SessionBackend)
	}
	switch c.StubStorage {
	case BackendMemory, BackendMongo:
	default:
		return fmt.Errorf("config: STUB_STORAGE must be memory or mongo, got %q", c.StubStorage)
	}
	if c.SessionSettle < 0 || c.OTPResendCooldown < 0 {
		return errors.New("config: delays must not be negative")
	}
	return nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// StubAddr is the listen address of the stub API.
func (c *Config) StubAddr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

// CloudinaryEnabled reports whether all Cloudinary credentials are present.
func (c *Config) CloudinaryEnabled() bool {
	return c.CloudinaryCloudName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

func GetEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetEnvInt returns the integer value of key, or defaultValue when unset or invalid.
func GetEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return v
}

func parseDuration(key, def string) (time.Duration, error) {
	raw := GetEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
