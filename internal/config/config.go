// Package config provides application configuration loading from environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Port       int
	DBPath     string
	StaticPath string
	UploadDir  string

	JWTSecret          string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	GeminiAPIKey string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	EmailFrom    string

	WhatsAppAccessToken   string
	WhatsAppPhoneNumberID string
	WhatsAppRecipient     string

	SummaryHour     int
	SummaryTimezone string

	LogLevel string
}

// EmailEnabled reports whether SMTP delivery is fully configured.
func (c *Config) EmailEnabled() bool {
	return c.SMTPHost != "" && c.SMTPUsername != "" && c.SMTPPassword != ""
}

// WhatsAppEnabled reports whether WhatsApp delivery is fully configured.
func (c *Config) WhatsAppEnabled() bool {
	return c.WhatsAppAccessToken != "" && c.WhatsAppPhoneNumberID != "" && c.WhatsAppRecipient != ""
}

// GoogleEnabled reports whether Google OAuth login is configured.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// Load reads configuration from environment variables. A .env file in the
// working directory is merged in when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:       8080,
		DBPath:     getEnv("DB_PATH", "./data/splitfair.db"),
		StaticPath: getEnv("STATIC_PATH", "../frontend/dist"),
		UploadDir:  getEnv("UPLOAD_DIR", "./data/uploads"),

		JWTSecret:          os.Getenv("JWT_SECRET"),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     587,
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		EmailFrom:    os.Getenv("EMAIL_FROM"),

		WhatsAppAccessToken:   os.Getenv("WHATSAPP_ACCESS_TOKEN"),
		WhatsAppPhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
		WhatsAppRecipient:     os.Getenv("WHATSAPP_RECIPIENT_NUMBER"),

		SummaryHour:     20,
		SummaryTimezone: getEnv("SUMMARY_TIMEZONE", "UTC"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		if p, err := strconv.Atoi(portStr); err == nil && p > 0 && p < 65536 {
			cfg.Port = p
		}
	}
	if portStr := os.Getenv("SMTP_PORT"); portStr != "" {
		if p, err := strconv.Atoi(portStr); err == nil && p > 0 {
			cfg.SMTPPort = p
		}
	}
	if hourStr := os.Getenv("SUMMARY_HOUR"); hourStr != "" {
		if h, err := strconv.Atoi(hourStr); err == nil && h >= 0 && h <= 23 {
			cfg.SummaryHour = h
		}
	}
	if cfg.EmailFrom == "" {
		cfg.EmailFrom = cfg.SMTPUsername
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks that all required configuration is present.
func (c *Config) validate() error {
	var errs []string

	if c.JWTSecret == "" {
		errs = append(errs, "JWT_SECRET is required")
	}
	if c.DBPath == "" {
		errs = append(errs, "DB_PATH must not be empty")
	}
	if _, err := time.LoadLocation(c.SummaryTimezone); err != nil {
		errs = append(errs, fmt.Sprintf("SUMMARY_TIMEZONE %q is invalid", c.SummaryTimezone))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
