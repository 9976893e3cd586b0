package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration.
type Config struct {
	ServerPort     int
	DatabasePath   string
	BackupPath     string
	APIBaseURL     string // base URL of the remote business API
	APITimeout     time.Duration
	BackupOnLaunch bool // run one manual backup right after login, before arming the timer
	AppVersion     string
	LogLevel       string
}

// Load loads configuration from environment variables or sets defaults.
func Load() (*Config, error) {
	portStr := getEnv("PORT", "8090")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, err
	}

	timeoutStr := getEnv("API_TIMEOUT_SECONDS", "30")
	timeoutSec, err := strconv.Atoi(timeoutStr)
	if err != nil {
		return nil, err
	}

	return &Config{
		ServerPort:     port,
		DatabasePath:   getEnv("DATABASE_PATH", "./shopkeeper-agent.db"),
		BackupPath:     getEnv("BACKUP_PATH", "./backups"),
		APIBaseURL:     getEnv("API_BASE_URL", "http://localhost:8000"),
		APITimeout:     time.Duration(timeoutSec) * time.Second,
		BackupOnLaunch: getEnv("BACKUP_ON_LAUNCH", "false") == "true",
		AppVersion:     getEnv("APP_VERSION", "dev"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
