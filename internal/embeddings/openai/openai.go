// Package openai adapts the official OpenAI client to the embeddings.Provider
// interface.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Provider generates embeddings through the OpenAI embeddings API.
type Provider struct {
	client *openai.Client
	model  string
}

// New builds a Provider for model using apiKey.
func New(apiKey, model string) *Provider {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Provider{client: &client, model: model}
}

// NewFromClient builds a Provider from an existing client, used by tests.
func NewFromClient(client *openai.Client, model string) *Provider {
	return &Provider{client: client, model: model}
}

func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := p.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model: openai.EmbeddingModel(p.model),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai: empty embedding response")
	}
	return toFloat32(resp.Data[0].Embedding), nil
}

func (p *Provider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := p.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: openai.EmbeddingModel(p.model),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai: got %d embeddings for %d inputs", len(resp.Data), len(texts))
	}
	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if int(d.Index) < len(out) {
			out[d.Index] = toFloat32(d.Embedding)
		}
	}
	return out, nil
}

// HealthPing embeds a short probe string to verify API reachability.
func (p *Provider) HealthPing(ctx context.Context) error {
	_, err := p.Embed(ctx, "ping")
	return err
}

func toFloat32(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}
