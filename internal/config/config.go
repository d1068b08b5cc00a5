// Package config provides configuration for the session service.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the service configuration.
type Config struct {
	// Server settings
	HTTPPort       int
	MaxUploadBytes int64
	MaxImagePixels int64

	// Database
	DatabaseURL string

	// Generation backend
	LLMBaseURL       string
	LLMAPIKey        string
	LLMTimeout       time.Duration
	Model            string
	TextMaxTokens    int
	ImageMaxTokens   int
	TextTemperature  float64
	ImageTemperature float64

	// Uploads
	UploadDir           string
	UploadMaxAge        time.Duration
	UploadSweepInterval time.Duration

	// WebSocket settings
	WSPingInterval   time.Duration
	WSWriteTimeout   time.Duration
	WSReadTimeout    time.Duration
	WSRequestTimeout time.Duration

	// Policy
	PolicyFile string

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables.
func Load() *Config {
	cfg := &Config{
		HTTPPort:            getEnvInt("HTTP_PORT", 8080),
		MaxUploadBytes:      int64(getEnvInt("MAX_UPLOAD_BYTES", 10<<20)),
		MaxImagePixels:      int64(getEnvInt("MAX_IMAGE_PIXELS", 40_000_000)),
		DatabaseURL:         getEnv("DATABASE_URL", "file:mixmaster.db?cache=shared&mode=rwc"),
		LLMBaseURL:          getEnv("LLM_BASE_URL", "https://api.openai.com"),
		LLMAPIKey:           getEnv("LLM_API_KEY", ""),
		LLMTimeout:          time.Duration(getEnvInt("LLM_TIMEOUT_MS", 60000)) * time.Millisecond,
		Model:               getEnv("LLM_MODEL", "gpt-4o"),
		TextMaxTokens:       getEnvInt("TEXT_MAX_TOKENS", 500),
		ImageMaxTokens:      getEnvInt("IMAGE_MAX_TOKENS", 700),
		TextTemperature:     getEnvFloat("TEXT_TEMPERATURE", 0.5),
		ImageTemperature:    getEnvFloat("IMAGE_TEMPERATURE", 0.3),
		UploadDir:           getEnv("UPLOAD_DIR", "static/uploads"),
		UploadMaxAge:        time.Duration(getEnvInt("MIXMASTER_UPLOAD_MAX_AGE_MS", 600000)) * time.Millisecond,
		UploadSweepInterval: time.Duration(getEnvInt("MIXMASTER_UPLOAD_SWEEP_INTERVAL_MS", 60000)) * time.Millisecond,
		WSPingInterval:      time.Duration(getEnvInt("WS_PING_INTERVAL_MS", 30000)) * time.Millisecond,
		WSWriteTimeout:      time.Duration(getEnvInt("WS_WRITE_TIMEOUT_MS", 10000)) * time.Millisecond,
		WSReadTimeout:       time.Duration(getEnvInt("WS_READ_TIMEOUT_MS", 60000)) * time.Millisecond,
		WSRequestTimeout:    time.Duration(getEnvInt("WS_REQUEST_TIMEOUT_MS", 120000)) * time.Millisecond,
		PolicyFile:          getEnv("MIXMASTER_POLICY_FILE", ""),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
	}
	return cfg
}

// UsesPostgres reports whether DatabaseURL points at PostgreSQL.
func (c *Config) UsesPostgres() bool {
	return strings.HasPrefix(c.DatabaseURL, "postgres://") || strings.HasPrefix(c.DatabaseURL, "postgresql://")
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
