package embeddings

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/esmlabs/extended-memory/internal/textutil"
)

const (
	// maxEmbedChars caps text sent to the provider; longer input is truncated
	// silently before embedding.
	maxEmbedChars = 8000

	// batchSize bounds one provider call; batchDelay is advisory pacing
	// between batches for rate-limited backends.
	batchSize  = 100
	batchDelay = 100 * time.Millisecond

	maxRetries = 3
)

// Gateway mediates access to an embedding Provider. A nil provider means no
// backend is configured: every call yields Unavailable and never an error.
type Gateway struct {
	provider Provider
	model    string
	log      zerolog.Logger
}

// NewGateway wraps provider; provider may be nil for the unconfigured case.
// model is the tag recorded alongside stored vectors.
func NewGateway(provider Provider, model string, log zerolog.Logger) *Gateway {
	return &Gateway{provider: provider, model: model, log: log}
}

// Configured reports whether a backend is available.
func (g *Gateway) Configured() bool { return g != nil && g.provider != nil }

// Provider exposes the backing provider, nil when unconfigured. Used for
// health probing.
func (g *Gateway) Provider() Provider {
	if g == nil {
		return nil
	}
	return g.provider
}

// Model returns the configured model tag.
func (g *Gateway) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

// Embed vectorizes a single text. Over-long input is truncated before the
// provider sees it. Provider failures are retried with exponential backoff
// and surface as Unavailable, not as errors.
func (g *Gateway) Embed(ctx context.Context, text string) Result {
	if !g.Configured() {
		return None()
	}
	text = g.prepare(text)

	var vec []float32
	op := func() error {
		v, err := g.provider.Embed(ctx, text)
		if err != nil {
			return err
		}
		vec = v
		return nil
	}
	if err := backoff.Retry(op, g.policy(ctx)); err != nil {
		g.log.Warn().Err(err).Msg("embedding failed after retries")
		return None()
	}
	if len(vec) == 0 {
		return None()
	}
	return Vec(vec)
}

// EmbedBatch vectorizes texts preserving input order, producing exactly one
// Result per input. Inputs are chunked into provider batches with a short
// pause between batches; a failed batch yields Unavailable for its inputs
// without affecting the others.
func (g *Gateway) EmbedBatch(ctx context.Context, texts []string) []Result {
	out := make([]Result, len(texts))
	if !g.Configured() {
		for i := range out {
			out[i] = None()
		}
		return out
	}

	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}

		batch := make([]string, end-start)
		for i, t := range texts[start:end] {
			batch[i] = g.prepare(t)
		}

		vecs, err := g.provider.EmbedBatch(ctx, batch)
		if err != nil || len(vecs) != len(batch) {
			g.log.Warn().Err(err).Int("batch_start", start).Msg("batch embedding failed")
			for i := start; i < end; i++ {
				out[i] = None()
			}
		} else {
			for i, v := range vecs {
				if len(v) == 0 {
					out[start+i] = None()
				} else {
					out[start+i] = Vec(v)
				}
			}
		}

		if end < len(texts) {
			select {
			case <-ctx.Done():
				for i := end; i < len(texts); i++ {
					out[i] = None()
				}
				return out
			case <-time.After(batchDelay):
			}
		}
	}
	return out
}

func (g *Gateway) prepare(text string) string {
	text = textutil.Clean(text)
	if len(text) > maxEmbedChars {
		g.log.Debug().Int("len", len(text)).Int("cap", maxEmbedChars).Msg("truncating text for embedding")
		text = text[:maxEmbedChars]
	}
	return text
}

func (g *Gateway) policy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxElapsedTime = 15 * time.Second
	return backoff.WithContext(backoff.WithMaxRetries(b, maxRetries), ctx)
}
