package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Config holds the configuration for the extended-memory service.
// Environment variables are parsed from the EXTENDED_MEMORY_ prefix.
type Config struct {
	// Build target selects the deployment profile: local, cloud-dev, cloud
	BuildTarget string `envconfig:"BUILD_TARGET" default:"local"`

	// DBDriver is derived from BuildTarget when set to "auto"
	DBDriver string `envconfig:"DB_DRIVER" default:"auto"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Storage
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"extended-memory.db"`

	// Embedding configuration. Provider "none" disables semantic search and
	// the service falls back to keyword retrieval.
	EmbedProvider string `envconfig:"EMBED_PROVIDER" default:"none"`
	EmbedModel    string `envconfig:"EMBED_MODEL" default:"text-embedding-ada-002"`
	OpenAIAPIKey  string `envconfig:"OPENAI_API_KEY" default:""`
	OllamaURL     string `envconfig:"OLLAMA_URL" default:"http://localhost:11434"`

	// Search tuning
	SearchTimeoutSeconds int   `envconfig:"SEARCH_TIMEOUT_SECONDS" default:"10"`
	SimilarityCacheSize  int64 `envconfig:"SIMILARITY_CACHE_SIZE" default:"4096"`

	// Health checking
	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"15"`
	HealthProbeTimeoutSeconds int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"2"`
}

// ResolveDefaults validates BuildTarget and derives DBDriver when set to
// "auto" or empty.
func (c *Config) ResolveDefaults() error {
	var defaultDB string

	switch c.BuildTarget {
	case "local":
		defaultDB = "sqlite"
	case "cloud-dev", "cloud":
		defaultDB = "postgres"
	default:
		return fmt.Errorf("unsupported BUILD_TARGET: %s", c.BuildTarget)
	}

	if c.DBDriver == "" || c.DBDriver == "auto" {
		c.DBDriver = defaultDB
	}

	allowedDB := map[string]bool{"postgres": true, "sqlite": true}
	if !allowedDB[c.DBDriver] {
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}

	allowedEmbed := map[string]bool{"none": true, "openai": true, "ollama": true}
	if !allowedEmbed[c.EmbedProvider] {
		return fmt.Errorf("unsupported EMBED_PROVIDER: %s", c.EmbedProvider)
	}

	if c.SearchTimeoutSeconds <= 0 {
		return fmt.Errorf("SEARCH_TIMEOUT_SECONDS must be positive")
	}
	return nil
}

// New creates a new Config by parsing environment variables.
// Variables are prefixed with EXTENDED_MEMORY_, for example
// EXTENDED_MEMORY_HTTP_PORT or EXTENDED_MEMORY_EMBED_PROVIDER.
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("EXTENDED_MEMORY", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Int("port", cfg.HTTPPort).
		Str("embed_provider", cfg.EmbedProvider).
		Str("embed_model", cfg.EmbedModel).
		Msg("Configuration loaded")

	return &cfg, nil
}
