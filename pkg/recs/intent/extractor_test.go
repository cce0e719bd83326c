package intent

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"

	"ai-bookrec-be/pkg/llm"
)

type stubLLM struct {
	response string
	err      error
}

func (s *stubLLM) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	return s.response, s.err
}

func (s *stubLLM) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return s.response, s.err
}

func silentLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestExtractParsesWellFormedResponse(t *testing.T) {
	provider := &stubLLM{response: `Here you go:
{"needs_book_search": true, "optimized_query": "cozy fantasy low stakes", "emotional_context": "Stressed", "requested_count": 3, "inferred_genres": ["Fantasy"]}`}
	e := NewExtractor(provider, silentLogger())

	intent := e.Extract(context.Background(), "something cozy please", nil, "friendly", "")

	assert.True(t, intent.NeedsBookSearch)
	assert.Equal(t, "cozy fantasy low stakes", intent.OptimizedQuery)
	assert.Equal(t, "stressed", intent.EmotionalContext)
	assert.Equal(t, 3, intent.RequestedCount)
	assert.Equal(t, []string{"Fantasy"}, intent.InferredGenres)
}

func TestExtractFallbackOnMalformedJSON(t *testing.T) {
	provider := &stubLLM{response: "I think the user wants fantasy books."}
	e := NewExtractor(provider, silentLogger())

	intent := e.Extract(context.Background(), "surprise me", nil, "friendly", "")

	assert.True(t, intent.NeedsBookSearch)
	assert.Equal(t, "surprise me", intent.OptimizedQuery)
	assert.Equal(t, "neutral", intent.EmotionalContext)
	assert.Equal(t, 5, intent.RequestedCount)
}

func TestExtractFallbackOnProviderError(t *testing.T) {
	provider := &stubLLM{err: errors.New("model offline")}
	e := NewExtractor(provider, silentLogger())

	intent := e.Extract(context.Background(), "books about the sea", nil, "mentor", "")

	assert.True(t, intent.NeedsBookSearch)
	assert.Equal(t, "books about the sea", intent.OptimizedQuery)
}

func TestExtractSpecificTitleBackfillsQuery(t *testing.T) {
	provider := &stubLLM{response: `{"needs_book_search": true, "specific_book_requested": "Atomic Habits"}`}
	e := NewExtractor(provider, silentLogger())

	intent := e.Extract(context.Background(), "do you have atomic habits", nil, "friendly", "")

	assert.Equal(t, "Atomic Habits", intent.SpecificBookRequested)
	assert.Equal(t, "Atomic Habits", intent.OptimizedQuery)
}

func TestExtractDirectResponsePath(t *testing.T) {
	provider := &stubLLM{response: `{"needs_book_search": false, "direct_response": "Hello! Ask me for a book anytime.", "emotional_context": "neutral"}`}
	e := NewExtractor(provider, silentLogger())

	intent := e.Extract(context.Background(), "hi", nil, "friendly", "")

	assert.False(t, intent.NeedsBookSearch)
	assert.Equal(t, "Hello! Ask me for a book anytime.", intent.DirectResponse)
}
