package enrich

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"ai-bookrec-be/internal/entity"
	"ai-bookrec-be/internal/pkg/logger"
	"ai-bookrec-be/pkg/llm"
)

// Sentinel is returned when every tier failed. Never cached.
const Sentinel = "Description not available. (Source: System)"

const (
	memoryTTL         = 6 * time.Hour
	memoryPurge       = 30 * time.Minute
	lookupTimeout     = 5 * time.Second
	generationTimeout = 10 * time.Second

	generativeLabel = "(Source: AI Generated)"
)

// Store is the durable description cache, keyed by book id.
type Store interface {
	Get(ctx context.Context, bookId string) (string, error)
	Put(ctx context.Context, bookId, description, source string) error
}

// Fetcher looks a description up in a bibliographic source.
type Fetcher interface {
	FetchDescription(ctx context.Context, title, author string) (string, error)
}

// Enricher fills missing book descriptions just in time. Tier order:
// process cache, durable cache, bibliographic lookup, generative model,
// sentinel. Non-sentinel results are written back to both caches.
type Enricher struct {
	memory  *gocache.Cache
	store   Store
	fetcher Fetcher
	llm     llm.LLMProvider
	log     logger.ILogger
}

func NewEnricher(store Store, fetcher Fetcher, provider llm.LLMProvider, log logger.ILogger) *Enricher {
	return &Enricher{
		memory:  gocache.New(memoryTTL, memoryPurge),
		store:   store,
		fetcher: fetcher,
		llm:     provider,
		log:     log,
	}
}

// GetOrGenerate resolves a description for one book, degrading through
// the tier chain. It never returns an error: the worst case is the
// sentinel.
func (e *Enricher) GetOrGenerate(ctx context.Context, bookId, title, author, genre string) string {
	if hit, found := e.memory.Get(bookId); found {
		if description, ok := hit.(string); ok {
			return description
		}
	}

	if e.store != nil {
		if description, err := e.store.Get(ctx, bookId); err == nil && description != "" {
			e.memory.Set(bookId, description, gocache.DefaultExpiration)
			return description
		}
	}

	if description := e.tryLookup(ctx, title, author); description != "" {
		e.writeBack(ctx, bookId, description, "lookup")
		return description
	}

	if description := e.tryGenerate(ctx, title, author, genre); description != "" {
		e.writeBack(ctx, bookId, description, "generative")
		return description
	}

	return Sentinel
}

func (e *Enricher) tryLookup(ctx context.Context, title, author string) string {
	if e.fetcher == nil {
		return ""
	}

	lookupCtx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	description, err := e.fetcher.FetchDescription(lookupCtx, title, author)
	if err != nil {
		e.log.Warn("enrich", "bibliographic lookup failed", map[string]interface{}{
			"title": title,
			"error": err.Error(),
		})
		return ""
	}
	return description
}

func (e *Enricher) tryGenerate(ctx context.Context, title, author, genre string) string {
	if e.llm == nil {
		return ""
	}
	if genre == "" {
		genre = "General"
	}

	prompt := fmt.Sprintf(`Task: Write a concise, factual summary for the book "%s" by %s.
Genre: %s

Constraints:
- Max 3 sentences.
- Neutral tone.
- NO marketing language ("must-read", "thrilling").
- Start directly with the summary.`, title, author, genre)

	genCtx, cancel := context.WithTimeout(ctx, generationTimeout)
	defer cancel()

	text, err := e.llm.Generate(genCtx, prompt, llm.WithTemperature(0.3))
	if err != nil {
		e.log.Warn("enrich", "description generation failed", map[string]interface{}{
			"title": title,
			"error": err.Error(),
		})
		return ""
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	return text + " " + generativeLabel
}

func (e *Enricher) writeBack(ctx context.Context, bookId, description, source string) {
	e.memory.Set(bookId, description, gocache.DefaultExpiration)
	if e.store != nil {
		if err := e.store.Put(ctx, bookId, description, source); err != nil {
			e.log.Warn("enrich", "failed to persist description", map[string]interface{}{
				"book_id": bookId,
				"error":   err.Error(),
			})
		}
	}
}

// EnrichBatch fills descriptions for every book that lacks one, fanning
// out per book. A failed book degrades to the sentinel without touching
// the others. The input order is preserved.
func (e *Enricher) EnrichBatch(ctx context.Context, books []entity.Book) []entity.Book {
	out := make([]entity.Book, len(books))
	copy(out, books)

	var wg sync.WaitGroup
	for i := range out {
		if strings.TrimSpace(out[i].Description) != "" {
			continue
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			book := out[i]
			out[i].Description = e.GetOrGenerate(ctx, book.Id, book.Title, book.Author, book.Genre)
		}(i)
	}
	wg.Wait()

	return out
}
