package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const defaultSecretKey = "dev-secret-key"

// Config contains application-wide settings sourced from the environment.
type Config struct {
	SecretKey          string
	Addr               string
	PreviewDir         string
	StaticDir          string
	AllowedOrigins     []string
	LogLevel           string
	LogFormat          string
	LoginRatePerMinute int
	SecureCookies      bool

	// usingDefaultSecret is set when SECRET_KEY was not provided.
	usingDefaultSecret bool
}

func loadConfig() (Config, error) {
	_ = godotenv.Load()

	rate, err := envInt("LOGIN_RATE_PER_MINUTE", 30)
	if err != nil {
		return Config{}, err
	}
	secure, err := envBool("SECURE_COOKIES", false)
	if err != nil {
		return Config{}, err
	}

	secret := os.Getenv("SECRET_KEY")
	cfg := Config{
		SecretKey:          secret,
		Addr:               fmt.Sprintf(":%s", envOrDefault("PORT", "8001")),
		PreviewDir:         envOrDefault("PREVIEW_DIR", "static/previews"),
		StaticDir:          envOrDefault("STATIC_DIR", "static"),
		AllowedOrigins:     parseAllowedOrigins(os.Getenv("CORS_ALLOWED_ORIGINS")),
		LogLevel:           envOrDefault("LOG_LEVEL", "info"),
		LogFormat:          envOrDefault("LOG_FORMAT", "json"),
		LoginRatePerMinute: rate,
		SecureCookies:      secure,
	}
	if secret == "" {
		cfg.SecretKey = defaultSecretKey
		cfg.usingDefaultSecret = true
	}
	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, raw)
	}
	return value, nil
}

func envBool(key string, fallback bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", key, raw)
	}
	return value, nil
}

func parseAllowedOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	var origins []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
