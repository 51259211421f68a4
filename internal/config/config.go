package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	AppEnv         string
	Port           string
	LogLevel       string
	LogFormat      string
	DatabaseURL    string
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	OpenAIModel    string
	AllowedOrigins []string
	ChannelName    string

	// Abuse limits for the public endpoints.
	MaxWSConnections int
	MaxWSPerIP       int
	SubmitRate       float64
	SubmitBurst      int
}

func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:        getEnv("APP_ENV", "development"),
		Port:          getEnv("PORT", "3001"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "text"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
		ChannelName:   getEnv("CHANNEL_NAME", "comments"),
	}

	var err error
	if cfg.MaxWSConnections, err = getEnvInt("MAX_WS_CONNECTIONS", 10000); err != nil {
		return nil, err
	}
	if cfg.MaxWSPerIP, err = getEnvInt("MAX_WS_PER_IP", 10); err != nil {
		return nil, err
	}
	if cfg.SubmitRate, err = getEnvFloat("SUBMIT_RATE_PER_SECOND", 2); err != nil {
		return nil, err
	}
	if cfg.SubmitBurst, err = getEnvInt("SUBMIT_BURST", 5); err != nil {
		return nil, err
	}

	origins := getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173")
	for _, origin := range strings.Split(origins, ",") {
		if o := strings.TrimSpace(origin); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if len(cfg.AllowedOrigins) == 0 {
		return nil, fmt.Errorf("ALLOWED_ORIGINS must list at least one origin")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return parsed, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return parsed, nil
}
