package pipeline

import (
	"context"
	"log"

	"ai-bookrec-be/internal/entity"
	"ai-bookrec-be/pkg/intelligence"
	"ai-bookrec-be/pkg/llm"
	"ai-bookrec-be/pkg/recs"
	"ai-bookrec-be/pkg/recs/narrator"
	"ai-bookrec-be/pkg/retrieval"
)

// Response modes.
const (
	ModeDirect    = "direct"    // no search needed, conversational reply
	ModeRecommend = "recommend" // ranked book list
	ModeKnowledge = "knowledge" // every tier empty, knowledge answer
)

// Narrow collaborator contracts so the pipeline can be exercised with
// fakes end to end.

type IntentExtractor interface {
	Extract(ctx context.Context, message string, history []llm.Message, persona, profileSummary string) recs.Intent
}

type Embedder interface {
	EmbedQuery(text string) ([]float32, error)
}

type Retriever interface {
	Retrieve(query []float32, topK int, filters retrieval.Filters) ([]entity.ScoredBook, error)
}

// TitleResolver is the catalog's fuzzy title lookup, preferred over
// semantic search when the user names an exact book.
type TitleResolver interface {
	FindByTitle(ctx context.Context, title string) (*entity.Book, error)
}

type Finder interface {
	Find(ctx context.Context, query string, maxResults int) ([]entity.Book, error)
}

type Scorer interface {
	ScoreBooks(bookIds []string, mood string) []intelligence.BookScore
	PredictStrategy(mood string) recs.Strategy
}

type Enricher interface {
	EnrichBatch(ctx context.Context, books []entity.Book) []entity.Book
}

type Narrator interface {
	Narrate(ctx context.Context, userMessage string, books []entity.Book, strategy recs.Strategy, persona string) narrator.Narration
	AnswerWithoutBooks(ctx context.Context, userMessage, persona string) string
}

// RecommendedBook is one entry of the final, narrated ranking.
type RecommendedBook struct {
	Book   entity.Book
	Score  float64
	Reason string
}

// Result is the outcome of one recommendation turn.
type Result struct {
	Mode     string
	Reply    string
	Books    []RecommendedBook
	Strategy recs.Strategy
	Intent   recs.Intent
}

// Pipeline composes one chat turn: intent, plan, retrieve or discover,
// personal scoring, enrichment, narration. Candidate identity is settled
// before narration; the narrator only explains.
type Pipeline struct {
	extractor IntentExtractor
	planner   *recs.Planner
	embedder  Embedder
	retriever Retriever
	titles    TitleResolver
	waterfall Finder
	scorer    Scorer
	enricher  Enricher
	narrator  Narrator
	logger    *log.Logger
}

type Deps struct {
	Extractor IntentExtractor
	Embedder  Embedder
	Retriever Retriever
	Titles    TitleResolver
	Waterfall Finder
	Scorer    Scorer
	Enricher  Enricher
	Narrator  Narrator
	Logger    *log.Logger
}

func New(deps Deps) *Pipeline {
	return &Pipeline{
		extractor: deps.Extractor,
		planner:   recs.NewPlanner(),
		embedder:  deps.Embedder,
		retriever: deps.Retriever,
		titles:    deps.Titles,
		waterfall: deps.Waterfall,
		scorer:    deps.Scorer,
		enricher:  deps.Enricher,
		narrator:  deps.Narrator,
		logger:    deps.Logger,
	}
}

// Run executes one turn.
func (p *Pipeline) Run(ctx context.Context, message string, history []llm.Message, persona, profileSummary string) (*Result, error) {
	intent := p.extractor.Extract(ctx, message, history, persona, profileSummary)
	plan := p.planner.Plan(intent)

	if !plan.ShouldSearch {
		reply := intent.DirectResponse
		if reply == "" {
			reply = p.narrator.AnswerWithoutBooks(ctx, message, persona)
		}
		return &Result{Mode: ModeDirect, Reply: reply, Strategy: recs.StrategyStandard, Intent: intent}, nil
	}

	candidates := p.gatherCandidates(ctx, plan)
	candidates = dedupeById(candidates)
	if len(candidates) > plan.ResultCount {
		candidates = candidates[:plan.ResultCount]
	}

	if len(candidates) == 0 {
		reply := p.narrator.AnswerWithoutBooks(ctx, message, persona)
		return &Result{Mode: ModeKnowledge, Reply: reply, Strategy: recs.StrategyStandard, Intent: intent}, nil
	}

	strategy := p.scorer.PredictStrategy(plan.Mood)
	ordered := p.reorderByPersonalScore(candidates, plan.Mood)

	enriched := p.enricher.EnrichBatch(ctx, orderedBooks(ordered))
	for i := range ordered {
		ordered[i].Book = enriched[i]
	}

	narration := p.narrator.Narrate(ctx, message, enriched, strategy, persona)
	for i := range ordered {
		if i < len(narration.Explanations) {
			ordered[i].Reason = narration.Explanations[i]
		}
	}

	return &Result{
		Mode:     ModeRecommend,
		Reply:    narration.Intro,
		Books:    ordered,
		Strategy: strategy,
		Intent:   intent,
	}, nil
}

// gatherCandidates prefers exact title resolution for specific requests,
// semantic retrieval otherwise, and falls through to the discovery
// waterfall when the local catalog comes up empty.
func (p *Pipeline) gatherCandidates(ctx context.Context, plan recs.SearchPlan) []entity.Book {
	if plan.SpecificTitle != "" {
		if book, err := p.titles.FindByTitle(ctx, plan.SpecificTitle); err == nil && book != nil {
			return []entity.Book{*book}
		}
		return p.discover(ctx, plan.SpecificTitle, plan.ResultCount)
	}

	vec, err := p.embedder.EmbedQuery(plan.SearchQuery)
	if err != nil {
		p.logger.Printf("[WARN] Query embedding failed, going external: %v", err)
		return p.discover(ctx, plan.SearchQuery, plan.ResultCount)
	}

	scored, err := p.retriever.Retrieve(vec, plan.ResultCount, retrieval.Filters{Genres: plan.GenreFilter})
	if err != nil {
		p.logger.Printf("[WARN] Retrieval failed: %v", err)
	}
	if len(scored) > 0 {
		books := make([]entity.Book, len(scored))
		for i, sb := range scored {
			books[i] = sb.Book
		}
		return books
	}

	// Nothing above threshold locally. A biased genre filter may simply
	// not exist in the catalog; retry unfiltered before going external.
	if len(plan.GenreFilter) > 0 {
		if scored, err := p.retriever.Retrieve(vec, plan.ResultCount, retrieval.Filters{}); err == nil && len(scored) > 0 {
			books := make([]entity.Book, len(scored))
			for i, sb := range scored {
				books[i] = sb.Book
			}
			return books
		}
	}

	return p.discover(ctx, plan.SearchQuery, plan.ResultCount)
}

func (p *Pipeline) discover(ctx context.Context, query string, maxResults int) []entity.Book {
	books, err := p.waterfall.Find(ctx, query, maxResults)
	if err != nil {
		p.logger.Printf("[WARN] Waterfall failed: %v", err)
		return nil
	}
	return books
}

// reorderByPersonalScore lets the learned model settle the final order.
// The scorer's decision is authoritative from here on.
func (p *Pipeline) reorderByPersonalScore(books []entity.Book, mood string) []RecommendedBook {
	ids := make([]string, len(books))
	byId := make(map[string]entity.Book, len(books))
	for i, book := range books {
		ids[i] = book.Id
		byId[book.Id] = book
	}

	scores := p.scorer.ScoreBooks(ids, mood)

	ordered := make([]RecommendedBook, 0, len(scores))
	for _, score := range scores {
		book, ok := byId[score.BookId]
		if !ok {
			continue
		}
		ordered = append(ordered, RecommendedBook{Book: book, Score: score.Score})
	}
	return ordered
}

func orderedBooks(recommended []RecommendedBook) []entity.Book {
	books := make([]entity.Book, len(recommended))
	for i, r := range recommended {
		books[i] = r.Book
	}
	return books
}

func dedupeById(books []entity.Book) []entity.Book {
	seen := make(map[string]struct{}, len(books))
	out := books[:0]
	for _, book := range books {
		if _, dup := seen[book.Id]; dup {
			continue
		}
		seen[book.Id] = struct{}{}
		out = append(out, book)
	}
	return out
}
