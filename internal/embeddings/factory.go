package embeddings

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/esmlabs/extended-memory/internal/config"
	"github.com/esmlabs/extended-memory/internal/embeddings/ollama"
	"github.com/esmlabs/extended-memory/internal/embeddings/openai"
)

// NewFromConfig builds a Gateway for the configured provider. Provider "none"
// and a missing OpenAI key both produce an unconfigured gateway whose calls
// yield Unavailable; that is a documented outcome, not a startup failure.
func NewFromConfig(cfg *config.Config, log zerolog.Logger) (*Gateway, error) {
	switch cfg.EmbedProvider {
	case "none":
		log.Warn().Msg("no embedding provider configured; semantic search will fall back to keyword search")
		return NewGateway(nil, "", log), nil
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			log.Warn().Msg("OpenAI API key not provided; embeddings disabled")
			return NewGateway(nil, "", log), nil
		}
		return NewGateway(openai.New(cfg.OpenAIAPIKey, cfg.EmbedModel), cfg.EmbedModel, log), nil
	case "ollama":
		return NewGateway(ollama.New(cfg.OllamaURL, cfg.EmbedModel), cfg.EmbedModel, log), nil
	default:
		return nil, fmt.Errorf("unknown embed provider: %s", cfg.EmbedProvider)
	}
}
