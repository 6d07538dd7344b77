package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// placeholderSecret is the example value shipped in .env.example; running with
// it would make every deployment share a signing key.
const placeholderSecret = "your-super-secret-jwt-key-change-this-in-production"

type Config struct {
	Port        string
	Env         string // "development" | "production"
	FrontendURL string

	MongoURI string
	MongoDB  string

	JWTSecret   string
	JWTTTLHours int

	RedisAddr string

	RabbitURL string
	Exchange  string

	SentryDSN    string
	DisableCSRF  bool
	HTTPSEnabled bool

	GuestRateLimit     int
	GuestRateWindowMin int

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	FromEmail    string

	// notify worker
	Queue       string
	BindKey     string
	Concurrency int
}

func Load() Config {
	return Config{
		Port:        getenv("APP_PORT", "8080"),
		Env:         getenv("APP_ENV", "development"),
		FrontendURL: getenv("FRONTEND_URL", "http://localhost:3000"),

		MongoURI: getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:  getenv("MONGO_DB", "yaake"),

		JWTSecret:   os.Getenv("JWT_SECRET"),
		JWTTTLHours: atoi(getenv("JWT_TTL_HOURS", "24")),

		RedisAddr: os.Getenv("REDIS_ADDR"),

		RabbitURL: os.Getenv("RABBIT_URL"),
		Exchange:  getenv("RABBIT_EXCHANGE", "auth.events"),

		SentryDSN:    os.Getenv("SENTRY_DSN"),
		DisableCSRF:  getenv("DISABLE_CSRF", "false") == "true",
		HTTPSEnabled: getenv("HTTPS_ENABLED", "false") == "true",

		GuestRateLimit:     atoi(getenv("GUEST_RATE_LIMIT", "10")),
		GuestRateWindowMin: atoi(getenv("GUEST_RATE_WINDOW_MIN", "15")),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     atoi(getenv("SMTP_PORT", "587")),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		FromEmail:    getenv("FROM_EMAIL", "no-reply@yaake.com"),

		Queue:       getenv("RABBIT_QUEUE", "notifyq"),
		BindKey:     getenv("RABBIT_BIND_KEY", "user.#"),
		Concurrency: atoi(getenv("RABBIT_CONCURRENCY", "4")),
	}
}

func (c Config) IsProduction() bool { return c.Env == "production" }

// Validate checks the environment before the service starts. A returned error
// is fatal; warnings cover recommended settings that only degrade features.
func (c Config) Validate() (warnings []string, err error) {
	if c.MongoURI == "" {
		return warnings, fmt.Errorf("MONGO_URI is required")
	}
	if !strings.HasPrefix(c.MongoURI, "mongodb://") && !strings.HasPrefix(c.MongoURI, "mongodb+srv://") {
		return warnings, fmt.Errorf("MONGO_URI must start with mongodb:// or mongodb+srv://")
	}
	if c.JWTSecret == "" {
		return warnings, fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.JWTSecret) < 32 {
		return warnings, fmt.Errorf("JWT_SECRET is too short (%d chars), minimum 32", len(c.JWTSecret))
	}
	if c.JWTSecret == placeholderSecret {
		return warnings, fmt.Errorf("JWT_SECRET is set to the example value, generate a real secret")
	}
	if c.IsProduction() {
		if c.SentryDSN == "" {
			return warnings, fmt.Errorf("SENTRY_DSN is required in production")
		}
		if os.Getenv("FRONTEND_URL") == "" {
			return warnings, fmt.Errorf("FRONTEND_URL is required in production")
		}
		if !c.HTTPSEnabled {
			warnings = append(warnings, "HTTPS_ENABLED is not true in production")
		}
		if c.DisableCSRF {
			return warnings, fmt.Errorf("DISABLE_CSRF must not be set in production")
		}
	}
	if c.SMTPHost == "" {
		warnings = append(warnings, "SMTP_HOST not set, emails will be logged instead of sent")
	}
	if c.RedisAddr == "" {
		warnings = append(warnings, "REDIS_ADDR not set, rate limiting falls back to in-process counters")
	}
	if c.RabbitURL == "" {
		warnings = append(warnings, "RABBIT_URL not set, notification events will be dropped")
	}
	return warnings, nil
}

func atoi(s string) int {
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return 0
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
