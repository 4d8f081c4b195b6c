package config

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"spendsense/internal/domain"
)

type Config struct {
	HTTPAddr      string
	MetricsAddr   string
	SignerKey     string
	PrimaryWindow domain.Window
	EducationMin  int
	EducationMax  int
	OfferCap      int
	EventWorkers  int
	SeedDemoData  bool
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	return &Config{
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),
		SignerKey:     getEnv("TRACE_SIGNER_KEY", "dev-trace-signing-key"),
		PrimaryWindow: primaryWindow(getEnv("PRIMARY_WINDOW", "30d")),
		EducationMin:  getEnvInt("EDUCATION_MIN", 3),
		EducationMax:  getEnvInt("EDUCATION_MAX", 5),
		OfferCap:      getEnvInt("OFFER_CAP", 3),
		EventWorkers:  getEnvInt("EVENT_WORKERS", 3),
		SeedDemoData:  getEnv("SEED_DEMO_DATA", "true") == "true",
	}
}

func primaryWindow(label string) domain.Window {
	switch label {
	case "90d":
		return domain.Window90
	case "180d":
		return domain.Window180
	default:
		return domain.Window30
	}
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("Invalid integer environment variable, using default",
			slog.String("key", key),
			slog.String("value", value))
		return defaultVal
	}
	return parsed
}
