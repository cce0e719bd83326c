package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingProvider struct {
	calls int
	vec   []float32
}

func (c *countingProvider) Generate(text string, taskType string) (*EmbeddingResponse, error) {
	c.calls++
	return &EmbeddingResponse{Embedding: EmbeddingResponseEmbedding{Values: c.vec}}, nil
}

func (c *countingProvider) GenerateBatch(texts []string, taskType string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		res, _ := c.Generate(texts[i], taskType)
		out[i] = res.Embedding.Values
	}
	return out, nil
}

func TestCachedProviderHitsLocalTier(t *testing.T) {
	inner := &countingProvider{vec: []float32{0.1, 0.2, 0.3}}
	cached := NewCachedProvider(inner, nil)

	first, err := cached.Generate("cozy mysteries", TaskRetrievalQuery)
	require.NoError(t, err)
	second, err := cached.Generate("cozy mysteries", TaskRetrievalQuery)
	require.NoError(t, err)

	assert.Equal(t, first.Embedding.Values, second.Embedding.Values)
	assert.Equal(t, 1, inner.calls, "second lookup should be served from cache")
}

func TestCachedProviderKeyIncludesTaskType(t *testing.T) {
	inner := &countingProvider{vec: []float32{1, 0}}
	cached := NewCachedProvider(inner, nil)

	_, err := cached.Generate("dune", TaskRetrievalQuery)
	require.NoError(t, err)
	_, err = cached.Generate("dune", TaskRetrievalDocument)
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls, "different task types must not share cache entries")
}
