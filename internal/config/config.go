package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
)

const (
	HistoryModeFull = "full"
	HistoryModeNone = "none"
)

type Config struct {
	// Server
	Port               string        `env:"PORT" envDefault:"8080"`
	Env                string        `env:"ENV" envDefault:"development"`
	LogLevel           string        `env:"LOG_LEVEL" envDefault:"info"`
	ServerReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	ServerWriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"120s"`
	MaxBodyBytes       int64         `env:"MAX_BODY_BYTES" envDefault:"10485760"`
	RateLimitPerMinute int           `env:"RATE_LIMIT_PER_MINUTE" envDefault:"30"`

	// Gemini AI. The key is checked on first use, not at startup.
	GeminiAPIKey         string        `env:"GEMINI_API_KEY"`
	GoogleAPIKey         string        `env:"GOOGLE_API_KEY"`
	GeminiChatModel      string        `env:"GEMINI_CHAT_MODEL" envDefault:"gemini-2.5-flash"`
	GeminiVisionModel    string        `env:"GEMINI_VISION_MODEL" envDefault:"gemini-2.5-flash"`
	GeminiTimeout        time.Duration `env:"GEMINI_TIMEOUT" envDefault:"60s"`
	GeminiConcurrentReqs int           `env:"GEMINI_CONCURRENT_REQUESTS" envDefault:"5"`

	// Pulse
	PulseHistoryMode         string `env:"PULSE_HISTORY_MODE" envDefault:"full"`
	FoodScanStructuredOutput bool   `env:"FOOD_SCAN_STRUCTURED_OUTPUT" envDefault:"true"`

	// Persistence (optional)
	DatabaseURL       string        `env:"DATABASE_URL"`
	RedisURL          string        `env:"REDIS_URL"`
	JWTSecret         string        `env:"JWT_SECRET"`
	DBMaxConns        int32         `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns        int32         `env:"DB_MIN_CONNS" envDefault:"1"`
	DBMaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"30m"`
	DBMaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"5m"`
	DBConnectTimeout  time.Duration `env:"DB_CONNECT_TIMEOUT" envDefault:"10s"`

	// Tracing (optional). Collector base URL, e.g. http://collector:4318.
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	// Frontend
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:5173"`
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing env config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GeminiKey returns GEMINI_API_KEY, falling back to GOOGLE_API_KEY.
func (c *Config) GeminiKey() string {
	if c.GeminiAPIKey != "" {
		return c.GeminiAPIKey
	}
	return c.GoogleAPIKey
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var result error

	if c.PulseHistoryMode != HistoryModeFull && c.PulseHistoryMode != HistoryModeNone {
		result = multierror.Append(result, fmt.Errorf("PULSE_HISTORY_MODE must be %q or %q, got %q", HistoryModeFull, HistoryModeNone, c.PulseHistoryMode))
	}
	if c.GeminiConcurrentReqs < 1 {
		result = multierror.Append(result, errors.New("GEMINI_CONCURRENT_REQUESTS must be at least 1"))
	}
	if c.GeminiTimeout <= 0 {
		result = multierror.Append(result, errors.New("GEMINI_TIMEOUT must be positive"))
	}
	if c.MaxBodyBytes <= 0 {
		result = multierror.Append(result, errors.New("MAX_BODY_BYTES must be positive"))
	}
	if c.RateLimitPerMinute < 1 {
		result = multierror.Append(result, errors.New("RATE_LIMIT_PER_MINUTE must be at least 1"))
	}
	if c.DBMaxConns < 1 {
		result = multierror.Append(result, errors.New("DB_MAX_CONNS must be at least 1"))
	}
	if c.DatabaseURL != "" && c.JWTSecret == "" {
		result = multierror.Append(result, errors.New("JWT_SECRET is required when DATABASE_URL is set"))
	}

	return result
}
