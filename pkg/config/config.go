// Package config loads application configuration from environment variables.
package config

import (
	"errors"
	"os"
	"strconv"

	// Load environment variables from .env files when present.
	_ "github.com/joho/godotenv/autoload"
)

// Config holds all application configuration
type Config struct {
	Database      DatabaseConfig
	Vault         VaultConfig
	Storage       StorageConfig
	Notify        NotifyConfig
	Scheduler     SchedulerConfig
	Observability ObservabilityConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// VaultConfig carries the secrets for the encryption envelope and the source
// PDF document password.
type VaultConfig struct {
	Secret      string
	PDFPassword string
}

type StorageConfig struct {
	Backend   string // "local" or "gcs"
	LocalPath string
	GCSBucket string
}

type NotifyConfig struct {
	SlackWebhookURL string
	ViewerBaseURL   string
	ResendAPIKey    string
	ResendFrom      string
	ResendTo        string
}

type SchedulerConfig struct {
	// ReconcileCron is a standard 5-field cron expression.
	ReconcileCron string
}

type ObservabilityConfig struct {
	MetricsEnabled bool
	MetricsPort    int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvAsInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", "postgres"),
			Database: getEnv("POSTGRES_DB", "payslip-vault"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		Vault: VaultConfig{
			Secret:      getEnv("VAULT_SECRET", ""),
			PDFPassword: getEnv("PDF_PASSWORD", ""),
		},
		Storage: StorageConfig{
			Backend:   getEnv("STORAGE_BACKEND", "local"),
			LocalPath: getEnv("STORAGE_LOCAL_PATH", "./vault"),
			GCSBucket: getEnv("STORAGE_GCS_BUCKET", ""),
		},
		Notify: NotifyConfig{
			SlackWebhookURL: getEnv("SLACK_WEBHOOK_URL", ""),
			ViewerBaseURL:   getEnv("VIEWER_BASE_URL", ""),
			ResendAPIKey:    getEnv("RESEND_API_KEY", ""),
			ResendFrom:      getEnv("RESEND_FROM_EMAIL", ""),
			ResendTo:        getEnv("RESEND_TO_EMAIL", ""),
		},
		Scheduler: SchedulerConfig{
			ReconcileCron: getEnv("RECONCILE_CRON", "0 5 * * *"),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
			MetricsPort:    getEnvAsInt("METRICS_PORT", 9090),
		},
	}

	if cfg.Vault.Secret == "" {
		return nil, errors.New("VAULT_SECRET is required")
	}
	if cfg.Storage.Backend == "gcs" && cfg.Storage.GCSBucket == "" {
		return nil, errors.New("STORAGE_GCS_BUCKET is required when STORAGE_BACKEND=gcs")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
