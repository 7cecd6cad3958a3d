package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the chat backend.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	AllowAnyOrigin bool

	DatabaseURL string

	RecentTurnsWindow int
	TopKMemories      int
	GeneratorTimeout  time.Duration

	GeneratorMode    string
	GeneratorHTTPURL string
	OpenAIAPIKey     string
	OpenAIChatModel  string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:          envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace:  envOrDefault("APP_METRICS_NAMESPACE", "nextalk"),
		AllowAnyOrigin:    false,
		DatabaseURL:       stringsTrimSpace("DATABASE_URL"),
		RecentTurnsWindow: 20,
		TopKMemories:      5,
		GeneratorTimeout:  10 * time.Second,
		GeneratorMode:     envOrDefault("GENERATOR_MODE", "auto"),
		GeneratorHTTPURL:  stringsTrimSpace("GENERATOR_HTTP_URL"),
		OpenAIAPIKey:      stringsTrimSpace("OPENAI_API_KEY"),
		OpenAIChatModel:   envOrDefault("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
		ShutdownTimeout:   15 * time.Second,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.GeneratorTimeout, err = durationFromEnv("CHAT_GENERATOR_TIMEOUT", cfg.GeneratorTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.RecentTurnsWindow, err = intFromEnv("CHAT_RECENT_TURNS_WINDOW", cfg.RecentTurnsWindow)
	if err != nil {
		return Config{}, err
	}
	cfg.TopKMemories, err = intFromEnv("CHAT_TOP_K_MEMORIES", cfg.TopKMemories)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	if cfg.RecentTurnsWindow <= 0 {
		return Config{}, fmt.Errorf("CHAT_RECENT_TURNS_WINDOW must be positive")
	}
	if cfg.TopKMemories <= 0 {
		return Config{}, fmt.Errorf("CHAT_TOP_K_MEMORIES must be positive")
	}
	if cfg.GeneratorTimeout < time.Second {
		return Config{}, fmt.Errorf("CHAT_GENERATOR_TIMEOUT must be at least 1s")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
