// Package embeddings wraps external embedding generation behind a gateway
// that treats "no backend configured" as a first-class outcome instead of an
// error, so callers are forced to handle the fallback path.
package embeddings

import "context"

// Provider produces vector representations for text.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Result is the outcome of one embedding attempt: either a vector or
// Unavailable. Unavailable covers both a missing backend and a backend that
// could not produce a vector after retries.
type Result struct {
	Vector      []float32
	Unavailable bool
}

// Vec wraps a vector into an available Result.
func Vec(v []float32) Result { return Result{Vector: v} }

// None is the unavailable Result.
func None() Result { return Result{Unavailable: true} }
