package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Addr                    string
	DatabaseURL             string
	JWTSecret               string
	SchedulerSecret         string
	Environment             string
	RunMigrations           bool
	DrainBatchSize          int
	FanoutLimit             int
	ChronicLookbackDays     int
	ChronicThresholdPercent int
	TrendWindowDays         int
	TrendNoiseMargin        int
	MetricsEnabled          bool
}

func Load() Config {
	return Config{
		Addr:                    getEnv("APP_ADDR", ":8080"),
		DatabaseURL:             getEnv("DATABASE_URL", ""),
		JWTSecret:               getEnv("JWT_SECRET", ""),
		SchedulerSecret:         getEnv("SCHEDULER_SECRET", ""),
		Environment:             getEnv("APP_ENV", "development"),
		RunMigrations:           getEnvBool("RUN_MIGRATIONS", true),
		DrainBatchSize:          getEnvInt("DRAIN_BATCH_SIZE", 100),
		FanoutLimit:             getEnvInt("FANOUT_LIMIT", 10),
		ChronicLookbackDays:     getEnvInt("CHRONIC_LOOKBACK_DAYS", 30),
		ChronicThresholdPercent: getEnvInt("CHRONIC_THRESHOLD_PERCENT", 30),
		TrendWindowDays:         getEnvInt("TREND_WINDOW_DAYS", 14),
		TrendNoiseMargin:        getEnvInt("TREND_NOISE_MARGIN", 2),
		MetricsEnabled:          getEnvBool("METRICS_ENABLED", true),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Environment == "production" {
		if strings.TrimSpace(c.SchedulerSecret) == "" {
			return fmt.Errorf("SCHEDULER_SECRET must be set in production")
		}
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
	}
	if c.DrainBatchSize <= 0 {
		return fmt.Errorf("DRAIN_BATCH_SIZE must be positive")
	}
	if c.FanoutLimit <= 0 {
		return fmt.Errorf("FANOUT_LIMIT must be positive")
	}
	if c.ChronicThresholdPercent < 0 || c.ChronicThresholdPercent > 100 {
		return fmt.Errorf("CHRONIC_THRESHOLD_PERCENT must be between 0 and 100")
	}
	return nil
}
