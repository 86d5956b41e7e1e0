package embeddings

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockProvider struct {
	lastText  string
	batchErrs map[int]error // batch index -> error
	batches   int
	failAll   bool
}

func (m *mockProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	m.lastText = text
	if m.failAll {
		return nil, fmt.Errorf("backend down")
	}
	return []float32{1, 0}, nil
}

func (m *mockProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	idx := m.batches
	m.batches++
	if err := m.batchErrs[idx]; err != nil {
		return nil, err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i), 1}
	}
	return out, nil
}

func TestGateway_UnconfiguredIsUnavailable(t *testing.T) {
	g := NewGateway(nil, "", zerolog.Nop())
	assert.False(t, g.Configured())

	res := g.Embed(context.Background(), "hello")
	assert.True(t, res.Unavailable)
	assert.Nil(t, res.Vector)

	batch := g.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.Len(t, batch, 3)
	for _, r := range batch {
		assert.True(t, r.Unavailable)
	}
}

func TestGateway_TruncatesSilently(t *testing.T) {
	p := &mockProvider{}
	g := NewGateway(p, "test-model", zerolog.Nop())

	long := strings.Repeat("q", maxEmbedChars+500)
	res := g.Embed(context.Background(), long)
	require.False(t, res.Unavailable)
	assert.Len(t, p.lastText, maxEmbedChars)
}

func TestGateway_ProviderFailureBecomesUnavailable(t *testing.T) {
	p := &mockProvider{failAll: true}
	g := NewGateway(p, "test-model", zerolog.Nop())

	res := g.Embed(context.Background(), "hello")
	assert.True(t, res.Unavailable)
}

func TestGateway_BatchOrderAndArity(t *testing.T) {
	p := &mockProvider{}
	g := NewGateway(p, "test-model", zerolog.Nop())

	texts := make([]string, batchSize+5)
	for i := range texts {
		texts[i] = fmt.Sprintf("text %d", i)
	}
	out := g.EmbedBatch(context.Background(), texts)
	require.Len(t, out, len(texts))
	for i, r := range out {
		require.False(t, r.Unavailable, "item %d", i)
	}
	assert.Equal(t, 2, p.batches)
}

func TestGateway_FailedBatchDoesNotPoisonOthers(t *testing.T) {
	p := &mockProvider{batchErrs: map[int]error{0: fmt.Errorf("rate limited")}}
	g := NewGateway(p, "test-model", zerolog.Nop())

	texts := make([]string, batchSize+2)
	for i := range texts {
		texts[i] = "t"
	}
	out := g.EmbedBatch(context.Background(), texts)
	require.Len(t, out, len(texts))
	for i := 0; i < batchSize; i++ {
		assert.True(t, out[i].Unavailable, "item %d", i)
	}
	for i := batchSize; i < len(texts); i++ {
		assert.False(t, out[i].Unavailable, "item %d", i)
	}
}
