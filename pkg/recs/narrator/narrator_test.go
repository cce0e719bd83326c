package narrator

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-bookrec-be/internal/entity"
	"ai-bookrec-be/pkg/llm"
	"ai-bookrec-be/pkg/recs"
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

func testBooks() []entity.Book {
	return []entity.Book{
		{Id: "b0", Title: "First", Author: "A", Description: "Description zero."},
		{Id: "b1", Title: "Second", Author: "B", Description: "Description one."},
	}
}

func TestNarrateMapsExplanationsByIndex(t *testing.T) {
	provider := &stubLLM{response: `{"intro": "Here you go!", "explanations": [
		{"index": 1, "reason": "Fits the mood."},
		{"index": 0, "reason": "A classic pick."}
	]}`}
	n := NewNarrator(provider, silentLogger())

	result := n.Narrate(context.Background(), "something good", testBooks(), recs.StrategyStandard, "")

	assert.Equal(t, "Here you go!", result.Intro)
	require.Len(t, result.Explanations, 2)
	assert.Equal(t, "A classic pick.", result.Explanations[0])
	assert.Equal(t, "Fits the mood.", result.Explanations[1])
}

func TestNarrateIgnoresOutOfRangeIndices(t *testing.T) {
	// A model trying to add or reorder books via bogus indices is ignored.
	provider := &stubLLM{response: `{"intro": "ok", "explanations": [
		{"index": 5, "reason": "phantom book"},
		{"index": -1, "reason": "negative"},
		{"index": 0, "reason": "legit"}
	]}`}
	n := NewNarrator(provider, silentLogger())

	result := n.Narrate(context.Background(), "q", testBooks(), recs.StrategyStandard, "")

	require.Len(t, result.Explanations, 2)
	assert.Equal(t, "legit", result.Explanations[0])
	assert.Equal(t, "Description one.", result.Explanations[1], "missing index keeps the description fallback")
}

func TestNarrateFallsBackToDescriptionsOnError(t *testing.T) {
	n := NewNarrator(&stubLLM{err: errors.New("offline")}, silentLogger())

	result := n.Narrate(context.Background(), "q", testBooks(), recs.StrategyComfort, "")

	require.Len(t, result.Explanations, 2)
	assert.Equal(t, "Description zero.", result.Explanations[0])
	assert.Equal(t, "Description one.", result.Explanations[1])
	assert.NotEmpty(t, result.Intro)
}

func TestNarrateFallsBackOnMalformedJSON(t *testing.T) {
	n := NewNarrator(&stubLLM{response: "these books are great, trust me"}, silentLogger())

	result := n.Narrate(context.Background(), "q", testBooks(), recs.StrategyStandard, "")

	assert.Equal(t, "Description zero.", result.Explanations[0])
}

func TestNarrateEmptyList(t *testing.T) {
	n := NewNarrator(&stubLLM{response: "{}"}, silentLogger())

	result := n.Narrate(context.Background(), "q", nil, recs.StrategyStandard, "")
	assert.Empty(t, result.Explanations)
}

func TestAnswerWithoutBooks(t *testing.T) {
	n := NewNarrator(&stubLLM{response: "Try looking into maritime history classics."}, silentLogger())

	answer := n.AnswerWithoutBooks(context.Background(), "books about lighthouses", "")
	assert.Equal(t, "Try looking into maritime history classics.", answer)
}

func TestAnswerWithoutBooksFallbackOnError(t *testing.T) {
	n := NewNarrator(&stubLLM{err: errors.New("offline")}, silentLogger())

	answer := n.AnswerWithoutBooks(context.Background(), "anything", "")
	assert.NotEmpty(t, answer)
}
