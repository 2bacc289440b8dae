package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	S3Endpoint      string `envconfig:"S3_ENDPOINT"`
	S3AccessKey     string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey     string `envconfig:"S3_SECRET_ACCESS_KEY"`
	DocumentsBucket string `envconfig:"DOCUMENTS_BUCKET" default:"autorfp-documents"`
	S3Region        string `envconfig:"S3_REGION" default:"us-east-1"`

	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`

	SentryDSN string `envconfig:"SENTRY_DSN"`

	// Static API keys accepted by the HTTP layer, comma separated.
	APIKeys []string `envconfig:"API_KEYS"`

	WorkerPollInterval time.Duration `envconfig:"WORKER_POLL_INTERVAL" default:"5s"`
	WorkerBatchSize    int           `envconfig:"WORKER_BATCH_SIZE" default:"10"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("AUTORFP", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}
