package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Queue     QueueConfig
	Ledger    LedgerConfig
	Instagram InstagramConfig
	Enhancer  EnhancerConfig
	Strapi    StrapiConfig
	Consumer  ConsumerConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int
}

// QueueConfig holds SQS queue configuration
type QueueConfig struct {
	Region        string
	QueueURL      string
	DeadLetterURL string
	Endpoint      string // Custom endpoint for local testing
	WaitTime      time.Duration
	MaxPerReceive int
}

// LedgerConfig holds dedup ledger configuration
type LedgerConfig struct {
	Type        string // "dynamodb", "mongodb", "postgresql"
	Region      string // For AWS DynamoDB
	TableName   string
	Endpoint    string // Custom endpoint for local testing
	MongoDBURI  string
	PostgresURI string
}

// InstagramConfig holds source API configuration
type InstagramConfig struct {
	BaseURL string
	Timeout time.Duration
}

// EnhancerConfig holds generative-content API configuration
type EnhancerConfig struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
}

// StrapiConfig holds destination CMS configuration
type StrapiConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// ConsumerConfig holds queue consumer configuration
type ConsumerConfig struct {
	MaxAttempts int
}

// Load loads configuration from environment variables with defaults
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: getEnvInt("SERVER_PORT", 8080),
		},
		Queue: QueueConfig{
			Region:        getEnv("AWS_REGION", "eu-central-1"),
			QueueURL:      getEnv("SQS_QUEUE_URL", ""),
			DeadLetterURL: getEnv("SQS_DEAD_LETTER_URL", ""),
			Endpoint:      getEnv("SQS_ENDPOINT", ""), // For local SQS
			WaitTime:      getEnvDuration("SQS_WAIT_TIME", 20*time.Second),
			MaxPerReceive: getEnvInt("SQS_MAX_MESSAGES", 5),
		},
		Ledger: LedgerConfig{
			Type:        getEnv("LEDGER_TYPE", "dynamodb"),
			Region:      getEnv("AWS_REGION", "eu-central-1"),
			TableName:   getEnv("LEDGER_TABLE_NAME", "processed-instagram-posts"),
			Endpoint:    getEnv("DYNAMODB_ENDPOINT", ""), // For local DynamoDB
			MongoDBURI:  getEnv("MONGODB_URI", ""),
			PostgresURI: getEnv("POSTGRES_URI", ""),
		},
		Instagram: InstagramConfig{
			BaseURL: getEnv("INSTAGRAM_API_URL", "https://graph.instagram.com"),
			Timeout: getEnvDuration("INSTAGRAM_TIMEOUT", 30*time.Second),
		},
		Enhancer: EnhancerConfig{
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			Temperature: getEnvFloat("OPENAI_TEMPERATURE", 0.7),
			MaxTokens:   getEnvInt("OPENAI_MAX_TOKENS", 1500),
		},
		Strapi: StrapiConfig{
			BaseURL: getEnv("STRAPI_URL", ""),
			APIKey:  getEnv("STRAPI_API_KEY", ""),
			Timeout: getEnvDuration("STRAPI_TIMEOUT", 60*time.Second),
		},
		Consumer: ConsumerConfig{
			MaxAttempts: getEnvInt("CONSUMER_MAX_ATTEMPTS", 5),
		},
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(f)
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
