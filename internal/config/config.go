package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Sources   SourcesConfig
	Scheduler SchedulerConfig
	LogLevel  string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
	Host string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MigrationsPath string
}

// RedisConfig holds the optional Redis cache configuration. An empty Addr
// disables the cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// KafkaConfig holds the optional Kafka configuration. Empty Brokers
// disable both the quote consumer and the alert producer.
type KafkaConfig struct {
	Brokers    []string
	QuoteTopic string
	AlertTopic string
	GroupID    string
}

// SourcesConfig holds per-provider settings.
type SourcesConfig struct {
	AlphaVantageKey    string
	AlphaVantageQuota  int
	AlphaVantageWindow time.Duration
	YahooQuota         int
	YahooWindow        time.Duration
	BatchSize          int
}

// SchedulerConfig holds the periodic refresh settings.
type SchedulerConfig struct {
	RefreshInterval time.Duration
	Enabled         bool
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			DBName:         getEnv("DB_NAME", "financepipeline"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			MigrationsPath: getEnv("DB_MIGRATIONS_PATH", "db/migrations"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			TTL:      getEnvDuration("REDIS_TTL", 5*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers:    splitNonEmpty(getEnv("KAFKA_BROKERS", "")),
			QuoteTopic: getEnv("KAFKA_QUOTE_TOPIC", "market-quotes"),
			AlertTopic: getEnv("KAFKA_ALERT_TOPIC", "price-alerts"),
			GroupID:    getEnv("KAFKA_GROUP_ID", "finance-pipeline"),
		},
		Sources: SourcesConfig{
			AlphaVantageKey:    getEnv("ALPHAVANTAGE_API_KEY", ""),
			AlphaVantageQuota:  getEnvInt("ALPHAVANTAGE_QUOTA", 25),
			AlphaVantageWindow: getEnvDuration("ALPHAVANTAGE_WINDOW", 24*time.Hour),
			YahooQuota:         getEnvInt("YAHOO_QUOTA", 1500),
			YahooWindow:        getEnvDuration("YAHOO_WINDOW", time.Hour),
			BatchSize:          getEnvInt("FETCH_BATCH_SIZE", 5),
		},
		Scheduler: SchedulerConfig{
			RefreshInterval: getEnvDuration("REFRESH_INTERVAL", 15*time.Minute),
			Enabled:         getEnvBool("SCHEDULER_ENABLED", true),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// ConnectionString returns the PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.DBName + "?sslmode=" + d.SSLMode
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitNonEmpty(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
