// Package config provides environment-based configuration for the service.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all service configuration. Values come from the environment,
// with a .env file loaded first when present.
type Config struct {
	// Core
	DatabaseURL  string `validate:"required"`
	GeminiAPIKey string `validate:"required"`
	BlobDir      string `validate:"required"`
	Port         int    `validate:"min=1,max=65535"`

	// Optional intake paths
	InboxDir    string // empty disables the inbox watcher
	RabbitMQURL string // empty runs pipeline triggers in-process
	QueueName   string

	// Optional notification settings; an empty token disables email
	PostmarkToken string
	NotifyFrom    string `validate:"omitempty,email"`
	NotifyTo      string `validate:"omitempty,email"`

	// Logging
	LogJSON bool
	Debug   bool
}

// Load reads configuration from the environment, loading .env first if one
// exists, and validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		BlobDir:       envOr("BLOB_DIR", "data/blobs"),
		Port:          envInt("PORT", 8080),
		InboxDir:      os.Getenv("INBOX_DIR"),
		RabbitMQURL:   os.Getenv("RABBITMQ_URL"),
		QueueName:     envOr("QUEUE_NAME", "submission_queue"),
		PostmarkToken: os.Getenv("POSTMARK_SERVER_TOKEN"),
		NotifyFrom:    os.Getenv("NOTIFY_FROM"),
		NotifyTo:      os.Getenv("NOTIFY_TO"),
		LogJSON:       envBool("LOG_JSON"),
		Debug:         envBool("DEBUG"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration, including cross-field requirements the
// struct tags cannot express.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.PostmarkToken != "" && (c.NotifyFrom == "" || c.NotifyTo == "") {
		return fmt.Errorf("invalid configuration: NOTIFY_FROM and NOTIFY_TO are required when POSTMARK_SERVER_TOKEN is set")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}
