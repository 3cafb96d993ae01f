// Package config loads the service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the service configuration.
type Config struct {
	// Server settings
	HTTPPort int    `mapstructure:"HTTP_PORT"`
	Env      string `mapstructure:"ENV"`

	// Database
	DatabasePath string `mapstructure:"DATABASE_PATH"`

	// Scheduling
	AppTimezone string `mapstructure:"APP_TIMEZONE"`

	// Model
	LLMMode      string `mapstructure:"LLM_MODE"`
	LLMBaseURL   string `mapstructure:"LLM_BASE_URL"`
	LLMAPIKey    string `mapstructure:"LLM_API_KEY"`
	GroqAPIKey   string `mapstructure:"GROQ_API_KEY"`
	LLMModel     string `mapstructure:"LLM_MODEL"`
	GeminiAPIKey string `mapstructure:"GEMINI_API_KEY"`
	GeminiModel  string `mapstructure:"GEMINI_MODEL"`

	// Timeouts
	LLMTimeoutMS  int `mapstructure:"LLM_TIMEOUT_MS"`
	ToolTimeoutMS int `mapstructure:"TOOL_TIMEOUT_MS"`

	// Dialog
	MaxToolIterations  int `mapstructure:"MAX_TOOL_ITERATIONS"`
	HistoryMaxMessages int `mapstructure:"HISTORY_MAX_MESSAGES"`
	SessionIdleTTLMS   int `mapstructure:"SESSION_IDLE_TTL_MS"`

	// Auth
	JWTSecret                string  `mapstructure:"JWT_SECRET"`
	AccessTokenExpireMinutes int     `mapstructure:"ACCESS_TOKEN_EXPIRE_MINUTES"`
	PromptRatePerMin         float64 `mapstructure:"PROMPT_RATE_PER_MIN"`
	PromptRateBurst          int     `mapstructure:"PROMPT_RATE_BURST"`

	// Notifications
	MailgunAPIKey         string `mapstructure:"MAILGUN_API_KEY"`
	MailgunDomain         string `mapstructure:"MAILGUN_DOMAIN"`
	MailgunBaseURL        string `mapstructure:"MAILGUN_BASE_URL"`
	FromEmail             string `mapstructure:"FROM_EMAIL"`
	GoogleCredentialsFile string `mapstructure:"GOOGLE_CREDENTIALS_FILE"`
	GoogleCalendarID      string `mapstructure:"GOOGLE_CALENDAR_ID"`

	// WebSocket settings
	WSPingIntervalMS int   `mapstructure:"WS_PING_INTERVAL_MS"`
	WSWriteTimeoutMS int   `mapstructure:"WS_WRITE_TIMEOUT_MS"`
	WSReadTimeoutMS  int   `mapstructure:"WS_READ_TIMEOUT_MS"`
	WSMaxMessageSize int64 `mapstructure:"WS_MAX_MESSAGE_SIZE"`

	// Policy
	PolicyFile string `mapstructure:"POLICY_FILE"`

	// Logging
	LogLevel     string `mapstructure:"LOG_LEVEL"`
	LogFile      string `mapstructure:"LOG_FILE"`
	TelemetryDir string `mapstructure:"TELEMETRY_DIR"`
}

var defaults = map[string]interface{}{
	"HTTP_PORT":                   8080,
	"ENV":                         "development",
	"DATABASE_PATH":               "healthflow.db",
	"APP_TIMEZONE":                "Asia/Kolkata",
	"LLM_MODE":                    "openai",
	"LLM_BASE_URL":                "https://api.groq.com/openai",
	"LLM_API_KEY":                 "",
	"GROQ_API_KEY":                "",
	"LLM_MODEL":                   "llama-3.3-70b-versatile",
	"GEMINI_API_KEY":              "",
	"GEMINI_MODEL":                "gemini-2.0-flash",
	"LLM_TIMEOUT_MS":              60000,
	"TOOL_TIMEOUT_MS":             15000,
	"MAX_TOOL_ITERATIONS":         6,
	"HISTORY_MAX_MESSAGES":        200,
	"SESSION_IDLE_TTL_MS":         0,
	"JWT_SECRET":                  "",
	"ACCESS_TOKEN_EXPIRE_MINUTES": 30,
	"PROMPT_RATE_PER_MIN":         20,
	"PROMPT_RATE_BURST":           5,
	"MAILGUN_API_KEY":             "",
	"MAILGUN_DOMAIN":              "",
	"MAILGUN_BASE_URL":            "https://api.mailgun.net",
	"FROM_EMAIL":                  "",
	"GOOGLE_CREDENTIALS_FILE":     "",
	"GOOGLE_CALENDAR_ID":          "primary",
	"WS_PING_INTERVAL_MS":         30000,
	"WS_WRITE_TIMEOUT_MS":         10000,
	"WS_READ_TIMEOUT_MS":          60000,
	"WS_MAX_MESSAGE_SIZE":         65536,
	"POLICY_FILE":                 "",
	"LOG_LEVEL":                   "info",
	"LOG_FILE":                    "",
	"TELEMETRY_DIR":               "",
}

// Load reads an optional .env file, then environment variables over defaults.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.LLMAPIKey == "" {
		cfg.LLMAPIKey = cfg.GroqAPIKey
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP_PORT %d", c.HTTPPort)
	}
	if c.MaxToolIterations <= 0 {
		return fmt.Errorf("MAX_TOOL_ITERATIONS must be positive, got %d", c.MaxToolIterations)
	}
	if c.HistoryMaxMessages < 0 {
		return fmt.Errorf("HISTORY_MAX_MESSAGES must not be negative, got %d", c.HistoryMaxMessages)
	}
	return nil
}

// IsProduction reports whether ENV=production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// LLMTimeout is the per-request model timeout.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutMS) * time.Millisecond
}

// ToolTimeout bounds a single tool execution.
func (c *Config) ToolTimeout() time.Duration {
	return time.Duration(c.ToolTimeoutMS) * time.Millisecond
}

// SessionIdleTTL is zero when idle sessions are kept forever.
func (c *Config) SessionIdleTTL() time.Duration {
	return time.Duration(c.SessionIdleTTLMS) * time.Millisecond
}

// AccessTokenTTL is the JWT lifetime.
func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenExpireMinutes) * time.Minute
}

// WSPingInterval is how often idle websocket peers are pinged.
func (c *Config) WSPingInterval() time.Duration {
	return time.Duration(c.WSPingIntervalMS) * time.Millisecond
}

func (c *Config) WSWriteTimeout() time.Duration {
	return time.Duration(c.WSWriteTimeoutMS) * time.Millisecond
}

func (c *Config) WSReadTimeout() time.Duration {
	return time.Duration(c.WSReadTimeoutMS) * time.Millisecond
}
