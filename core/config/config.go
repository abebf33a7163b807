package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"stayhub.app/eventhub/core/db"
)

type Config struct {
	Env       string
	Port      string
	OTel      OTelConfig
	Broker    BrokerConfig
	Directory DirectoryConfig
	WriteBack WriteBackConfig
	DB        db.Config
}

type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
}

// BrokerConfig configures the message-broker connection and topics.
type BrokerConfig struct {
	RedisURL       string
	InboundTopic   string // broker-bound wire records are published here
	OutboundTopic  string // reverse-direction records are consumed from here
	PingInterval   time.Duration
	SessionTimeout time.Duration
	ReconnectDelay time.Duration
}

// DirectoryConfig points at the tenant discovery service.
type DirectoryConfig struct {
	URL string
}

// WriteBackConfig is the downstream endpoint that receives derived fields
// (mood) for reverse-direction messages.
type WriteBackConfig struct {
	BaseURL string
}

func (c WriteBackConfig) Enabled() bool {
	return c.BaseURL != ""
}

type ServiceType string

const (
	ServiceTypeServer ServiceType = "server"
	ServiceTypeWorker ServiceType = "worker"
)

// Load loads configuration from environment variables. In development it
// loads from service-specific .env files (.env.server / .env.worker),
// falling back to .env.
func Load(serviceType ServiceType) (Config, error) {
	if getEnv("EVENTHUB_ENV", "development") == "development" {
		envFile := fmt.Sprintf(".env.%s", serviceType)
		if err := godotenv.Load(envFile); err != nil {
			_ = godotenv.Load(".env")
		}
	}

	cfg := Config{
		Env:  getEnv("EVENTHUB_ENV", "development"),
		Port: getEnv("PORT", "8080"),
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "eventhub"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
		},
		Broker: BrokerConfig{
			RedisURL:       getEnv("BROKER_REDIS_URL", "redis://localhost:6379/0"),
			InboundTopic:   getEnv("BROKER_INBOUND_TOPIC", "eventhub_in"),
			OutboundTopic:  getEnv("BROKER_OUTBOUND_TOPIC", "eventhub_out"),
			PingInterval:   getEnvDuration("BROKER_PING_INTERVAL", 5*time.Second),
			SessionTimeout: getEnvDuration("BROKER_SESSION_TIMEOUT", 30*time.Second),
			ReconnectDelay: getEnvDuration("BROKER_RECONNECT_DELAY", 2*time.Second),
		},
		Directory: DirectoryConfig{
			URL: getEnv("DIRECTORY_URL", ""),
		},
		WriteBack: WriteBackConfig{
			BaseURL: getEnv("WRITEBACK_BASE_URL", ""),
		},
		DB: db.Config{
			DSN:      getEnv("DATABASE_URL", ""),
			MaxConns: getEnvInt32("DB_MAX_CONNS", 10),
			MinConns: getEnvInt32("DB_MIN_CONNS", 2),
		},
	}

	if serviceType == ServiceTypeServer && cfg.Directory.URL == "" {
		return Config{}, fmt.Errorf("DIRECTORY_URL is required")
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt32(key string, fallback int32) int32 {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(i)
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
