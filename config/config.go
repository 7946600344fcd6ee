package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds everything the server reads from the environment.
type Config struct {
	GeminiAPIKey string `envconfig:"GEMINI_API_KEY"`
	ListenAddr   string `envconfig:"LISTEN_ADDR" default:"0.0.0.0:9779"`
	TextModel    string `envconfig:"TEXT_MODEL" default:"gemini-2.5-flash"`
	ImageModel   string `envconfig:"IMAGE_MODEL" default:"gemini-2.5-flash-image-preview"`
	ArchivePath  string `envconfig:"ARCHIVE_PATH" default:"fable.db"`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads the configuration from the environment. Call godotenv.Load first
// if a .env file should be honored.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("processing environment: %w", err)
	}
	return &cfg, nil
}

// Credentialed reports whether an API key is available. When it returns false
// the game is held in a permanent error state and no provider calls are made.
func (c *Config) Credentialed() bool {
	return c.GeminiAPIKey != ""
}
