package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// ApplyEnv overlays VIBE_* environment variables (and a .env file when present) on cfg.
func ApplyEnv(cfg *Config) {
	_ = godotenv.Load() // best-effort

	cfg.App.LogLevel = getEnv("VIBE_LOG_LEVEL", cfg.App.LogLevel)
	cfg.App.LogFormat = getEnv("VIBE_LOG_FORMAT", cfg.App.LogFormat)
	cfg.App.MetricsAddr = getEnv("VIBE_METRICS_ADDR", cfg.App.MetricsAddr)

	cfg.Source.Kind = getEnv("VIBE_SOURCE", cfg.Source.Kind)
	cfg.Source.Symbol = getEnv("VIBE_SYMBOL", cfg.Source.Symbol)
	cfg.Source.Path = getEnv("VIBE_SOURCE_PATH", cfg.Source.Path)
	cfg.Source.URI = getEnv("VIBE_SOURCE_URI", cfg.Source.URI)
	cfg.Source.IntervalMs = getEnvInt("VIBE_INTERVAL_MS", cfg.Source.IntervalMs)
	cfg.Engine.MaxHistory = getEnvInt("VIBE_MAX_HISTORY", cfg.Engine.MaxHistory)
	cfg.Journal.Path = getEnv("VIBE_JOURNAL_PATH", cfg.Journal.Path)

	if brokers := getEnv("VIBE_KAFKA_BROKERS", ""); brokers != "" {
		cfg.Kafka.Brokers = nil
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.Kafka.Brokers = append(cfg.Kafka.Brokers, b)
			}
		}
		cfg.Kafka.Enabled = true
	}
	cfg.Kafka.Topic = getEnv("VIBE_KAFKA_TOPIC", cfg.Kafka.Topic)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
