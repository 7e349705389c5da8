package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	ServiceName string
	API         APIConfig
	Database    DatabaseConfig
	Cache       CacheConfig
	RabbitMQ    RabbitMQConfig
}

// APIConfig holds Trap.NZ API settings
type APIConfig struct {
	BaseURL  string
	Timeout  time.Duration
	TestMode bool
}

// DatabaseConfig holds local store settings. Driver is "sqlite" or
// "postgres"; Path is the sqlite file for the former, URL the
// connection string for the latter.
type DatabaseConfig struct {
	Driver string
	Path   string
	URL    string
}

// CacheConfig holds freshness settings for the mirror
type CacheConfig struct {
	FreshnessWindow time.Duration
}

// RabbitMQConfig holds RabbitMQ connection and queue settings
type RabbitMQConfig struct {
	URL               string
	CommandExchange   string
	CommandQueue      string
	CommandRoutingKey string
	EventExchange     string
	EventRoutingKey   string
	DLQQueue          string
	PrefetchCount     int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		ServiceName: getEnv("SERVICE_NAME", "trapnz-mirror"),
		API: APIConfig{
			BaseURL:  getEnv("TRAPNZ_API_BASE_URL", "https://api2.trap.nz"),
			Timeout:  time.Duration(getEnvAsInt("TRAPNZ_API_TIMEOUT_SECONDS", 15)) * time.Second,
			TestMode: getEnvAsBool("TRAPNZ_TEST_MODE", false),
		},
		Database: DatabaseConfig{
			Driver: getEnv("DB_DRIVER", "sqlite"),
			Path:   getEnv("DB_PATH", "trapnz.db"),
			URL:    getEnv("DATABASE_URL", ""),
		},
		Cache: CacheConfig{
			FreshnessWindow: time.Duration(getEnvAsInt("FRESHNESS_WINDOW_MINUTES", 60)) * time.Minute,
		},
		RabbitMQ: RabbitMQConfig{
			URL:               getEnv("RABBITMQ_URL", ""),
			CommandExchange:   getEnv("RABBITMQ_COMMAND_EXCHANGE", "trapnz-mirror.commands.exchange"),
			CommandQueue:      getEnv("RABBITMQ_COMMAND_QUEUE", "trapnz-mirror.commands.queue"),
			CommandRoutingKey: getEnv("RABBITMQ_COMMAND_ROUTING_KEY", "mirror.command.*"),
			EventExchange:     getEnv("RABBITMQ_EVENT_EXCHANGE", "trapnz-mirror.events.exchange"),
			EventRoutingKey:   getEnv("RABBITMQ_EVENT_ROUTING_KEY", "mirror.refresh.completed"),
			DLQQueue:          getEnv("RABBITMQ_DLQ_QUEUE", "trapnz-mirror.commands.dlq"),
			PrefetchCount:     getEnvAsInt("RABBITMQ_PREFETCH", 1),
		},
	}

	// Validate required fields
	switch cfg.Database.Driver {
	case "sqlite":
		if cfg.Database.Path == "" {
			return nil, fmt.Errorf("DB_PATH is required when DB_DRIVER=sqlite")
		}
	case "postgres":
		if cfg.Database.URL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (expected sqlite or postgres)", cfg.Database.Driver)
	}
	if cfg.RabbitMQ.URL == "" {
		return nil, fmt.Errorf("RABBITMQ_URL is required but not set in environment variables")
	}

	return cfg, nil
}

// DSN returns the driver-appropriate data source name.
func (d DatabaseConfig) DSN() string {
	if d.Driver == "postgres" {
		return d.URL
	}
	return d.Path
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
