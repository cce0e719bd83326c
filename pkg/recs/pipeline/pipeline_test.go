package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-bookrec-be/internal/entity"
	"ai-bookrec-be/pkg/intelligence"
	"ai-bookrec-be/pkg/llm"
	"ai-bookrec-be/pkg/recs"
	"ai-bookrec-be/pkg/recs/narrator"
	"ai-bookrec-be/pkg/retrieval"
)

type fakeExtractor struct {
	intent recs.Intent
}

func (f *fakeExtractor) Extract(ctx context.Context, message string, history []llm.Message, persona, profileSummary string) recs.Intent {
	return f.intent
}

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) EmbedQuery(text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{1, 0}, nil
}

type fakeRetriever struct {
	results     []entity.ScoredBook
	lastFilters retrieval.Filters
	filterCalls []retrieval.Filters
}

func (f *fakeRetriever) Retrieve(query []float32, topK int, filters retrieval.Filters) ([]entity.ScoredBook, error) {
	f.lastFilters = filters
	f.filterCalls = append(f.filterCalls, filters)
	return f.results, nil
}

type fakeTitles struct {
	books map[string]entity.Book
}

func (f *fakeTitles) FindByTitle(ctx context.Context, title string) (*entity.Book, error) {
	if book, ok := f.books[title]; ok {
		return &book, nil
	}
	return nil, errors.New("not found")
}

type fakeWaterfall struct {
	books []entity.Book
	calls int
}

func (f *fakeWaterfall) Find(ctx context.Context, query string, maxResults int) ([]entity.Book, error) {
	f.calls++
	return f.books, nil
}

type passthroughEnricher struct{}

func (passthroughEnricher) EnrichBatch(ctx context.Context, books []entity.Book) []entity.Book {
	out := make([]entity.Book, len(books))
	copy(out, books)
	for i := range out {
		if out[i].Description == "" {
			out[i].Description = "enriched"
		}
	}
	return out
}

type fakeNarrator struct {
	knowledgeCalls int
}

func (f *fakeNarrator) Narrate(ctx context.Context, userMessage string, books []entity.Book, strategy recs.Strategy, persona string) narrator.Narration {
	explanations := make([]string, len(books))
	for i := range books {
		explanations[i] = fmt.Sprintf("reason %d", i)
	}
	return narrator.Narration{Intro: "intro", Explanations: explanations}
}

func (f *fakeNarrator) AnswerWithoutBooks(ctx context.Context, userMessage, persona string) string {
	f.knowledgeCalls++
	return "knowledge answer"
}

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

func newTestPipeline(extractor IntentExtractor, retriever Retriever, titles TitleResolver, waterfall Finder) *Pipeline {
	return New(Deps{
		Extractor: extractor,
		Embedder:  &fakeEmbedder{},
		Retriever: retriever,
		Titles:    titles,
		Waterfall: waterfall,
		Scorer:    intelligence.NewFallbackScorer(nopLogger{}),
		Enricher:  passthroughEnricher{},
		Narrator:  &fakeNarrator{},
		Logger:    log.New(io.Discard, "", 0),
	})
}

func TestRunDirectResponseSkipsRetrieval(t *testing.T) {
	extractor := &fakeExtractor{intent: recs.Intent{
		NeedsBookSearch: false,
		DirectResponse:  "Hello there!",
	}}
	waterfall := &fakeWaterfall{}
	p := newTestPipeline(extractor, &fakeRetriever{}, &fakeTitles{}, waterfall)

	result, err := p.Run(context.Background(), "hi", nil, "friendly", "")
	require.NoError(t, err)

	assert.Equal(t, ModeDirect, result.Mode)
	assert.Equal(t, "Hello there!", result.Reply)
	assert.Empty(t, result.Books)
	assert.Equal(t, 0, waterfall.calls)
}

// End-to-end: stressed reader, empty genre intent, catalog has nothing
// above threshold. The plan biases uplifting genres, the waterfall kicks
// in, and the final list is bounded and duplicate-free.
func TestRunStressedMoodEndToEnd(t *testing.T) {
	extractor := &fakeExtractor{intent: recs.Intent{
		NeedsBookSearch:  true,
		OptimizedQuery:   "something uplifting",
		EmotionalContext: "stressed",
		RequestedCount:   3,
	}}
	retriever := &fakeRetriever{} // nothing above threshold
	waterfall := &fakeWaterfall{books: []entity.Book{
		{Id: "b1", Title: "Lifted", Genre: "Self-Help"},
		{Id: "b2", Title: "Calm Mind", Genre: "Inspirational"},
		{Id: "b1", Title: "Lifted", Genre: "Self-Help"}, // duplicate from source
	}}
	p := newTestPipeline(extractor, retriever, &fakeTitles{}, waterfall)

	result, err := p.Run(context.Background(), "something uplifting, I'm stressed", nil, "friendly", "")
	require.NoError(t, err)

	// Planner applied the uplifting bias on the first retrieval attempt.
	require.NotEmpty(t, retriever.filterCalls)
	assert.Equal(t, []string{"Self-Help", "Inspirational"}, retriever.filterCalls[0].Genres)

	assert.Equal(t, 1, waterfall.calls)
	assert.Equal(t, ModeRecommend, result.Mode)
	assert.Equal(t, recs.StrategyComfort, result.Strategy)

	assert.LessOrEqual(t, len(result.Books), 3)
	seen := map[string]bool{}
	for _, rb := range result.Books {
		assert.False(t, seen[rb.Book.Id], "duplicate book id %s", rb.Book.Id)
		seen[rb.Book.Id] = true
	}
}

// End-to-end: a specific title absent locally is discovered externally;
// once the catalog resolves it, the waterfall is no longer consulted.
func TestRunSpecificTitleDiscoveryThenLocal(t *testing.T) {
	extractor := &fakeExtractor{intent: recs.Intent{
		NeedsBookSearch:       true,
		OptimizedQuery:        "Atomic Habits",
		SpecificBookRequested: "Atomic Habits",
	}}
	discovered := entity.Book{Id: "ah1", Title: "Atomic Habits", Author: "James Clear"}
	waterfall := &fakeWaterfall{books: []entity.Book{discovered}}
	titles := &fakeTitles{books: map[string]entity.Book{}}
	p := newTestPipeline(extractor, &fakeRetriever{}, titles, waterfall)

	// First turn: local miss, waterfall hit.
	result, err := p.Run(context.Background(), "do you have Atomic Habits?", nil, "friendly", "")
	require.NoError(t, err)
	require.Len(t, result.Books, 1)
	assert.Equal(t, "ah1", result.Books[0].Book.Id)
	assert.Equal(t, 1, waterfall.calls)

	// The discovery pipeline has since persisted the book locally.
	titles.books["Atomic Habits"] = discovered

	result, err = p.Run(context.Background(), "do you have Atomic Habits?", nil, "friendly", "")
	require.NoError(t, err)
	require.Len(t, result.Books, 1)
	assert.Equal(t, "ah1", result.Books[0].Book.Id)
	assert.Equal(t, 1, waterfall.calls, "second turn must resolve locally")
}

func TestRunKnowledgeAnswerWhenEverythingEmpty(t *testing.T) {
	extractor := &fakeExtractor{intent: recs.Intent{
		NeedsBookSearch: true,
		OptimizedQuery:  "books on an impossible topic",
	}}
	narr := &fakeNarrator{}
	p := New(Deps{
		Extractor: extractor,
		Embedder:  &fakeEmbedder{},
		Retriever: &fakeRetriever{},
		Titles:    &fakeTitles{},
		Waterfall: &fakeWaterfall{}, // empty
		Scorer:    intelligence.NewFallbackScorer(nopLogger{}),
		Enricher:  passthroughEnricher{},
		Narrator:  narr,
		Logger:    log.New(io.Discard, "", 0),
	})

	result, err := p.Run(context.Background(), "anything?", nil, "friendly", "")
	require.NoError(t, err)

	assert.Equal(t, ModeKnowledge, result.Mode)
	assert.Equal(t, "knowledge answer", result.Reply)
	assert.Equal(t, 1, narr.knowledgeCalls)
	assert.Empty(t, result.Books)
}

func TestRunLocalHitsSkipWaterfall(t *testing.T) {
	extractor := &fakeExtractor{intent: recs.Intent{
		NeedsBookSearch: true,
		OptimizedQuery:  "sea stories",
	}}
	retriever := &fakeRetriever{results: []entity.ScoredBook{
		{Book: entity.Book{Id: "b1", Title: "The Sea"}, Score: 0.9},
		{Book: entity.Book{Id: "b2", Title: "Salt"}, Score: 0.8},
	}}
	waterfall := &fakeWaterfall{}
	p := newTestPipeline(extractor, retriever, &fakeTitles{}, waterfall)

	result, err := p.Run(context.Background(), "sea stories", nil, "friendly", "")
	require.NoError(t, err)

	assert.Equal(t, 0, waterfall.calls)
	assert.Len(t, result.Books, 2)
	// Fallback scorer preserves the retrieval order.
	assert.Equal(t, "b1", result.Books[0].Book.Id)
	assert.Equal(t, "reason 0", result.Books[0].Reason)
}

func TestRunEmbeddingFailureFallsToWaterfall(t *testing.T) {
	extractor := &fakeExtractor{intent: recs.Intent{
		NeedsBookSearch: true,
		OptimizedQuery:  "anything",
	}}
	waterfall := &fakeWaterfall{books: []entity.Book{{Id: "w1", Title: "Found externally"}}}
	p := New(Deps{
		Extractor: extractor,
		Embedder:  &fakeEmbedder{err: errors.New("embedding service down")},
		Retriever: &fakeRetriever{},
		Titles:    &fakeTitles{},
		Waterfall: waterfall,
		Scorer:    intelligence.NewFallbackScorer(nopLogger{}),
		Enricher:  passthroughEnricher{},
		Narrator:  &fakeNarrator{},
		Logger:    log.New(io.Discard, "", 0),
	})

	result, err := p.Run(context.Background(), "anything", nil, "friendly", "")
	require.NoError(t, err)
	assert.Equal(t, 1, waterfall.calls)
	require.Len(t, result.Books, 1)
	assert.Equal(t, "w1", result.Books[0].Book.Id)
}
