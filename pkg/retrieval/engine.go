package retrieval

import (
	"fmt"
	"sort"
	"strings"

	"ai-bookrec-be/internal/entity"
	"ai-bookrec-be/pkg/vectorindex"
)

// Hybrid ranking weights. Similarity dominates; the metadata term blends
// rating and popularity. Tuned against the catalog eval set, override via
// Config only when re-tuned.
const (
	SimilarityWeight = 0.7
	MetadataWeight   = 0.3
	RatingWeight     = 0.6
	PopularityWeight = 0.4

	// DefaultMinSimilarity drops candidates with almost no semantic
	// relation to the query before metadata can inflate them.
	DefaultMinSimilarity = 0.1

	// overFetchFactor widens the index scan so that filters and the
	// similarity floor still leave enough candidates.
	overFetchFactor = 2
)

// Searcher is the slice of the vector index the engine needs.
type Searcher interface {
	Search(query []float32, topK int) ([]vectorindex.Hit, error)
}

// Filters restricts the candidate set before ranking.
type Filters struct {
	Genres        []string
	ExcludeGenres []string
	ExcludeIds    []string
	MinRating     float64
}

// Config overrides the default weights. Zero values fall back to the
// package defaults.
type Config struct {
	SimilarityWeight float64
	MetadataWeight   float64
	RatingWeight     float64
	PopularityWeight float64
	MinSimilarity    float64
}

type Engine struct {
	index Searcher
	cfg   Config
}

func NewEngine(index Searcher, cfg Config) *Engine {
	if cfg.SimilarityWeight == 0 && cfg.MetadataWeight == 0 {
		cfg.SimilarityWeight = SimilarityWeight
		cfg.MetadataWeight = MetadataWeight
	}
	if cfg.RatingWeight == 0 && cfg.PopularityWeight == 0 {
		cfg.RatingWeight = RatingWeight
		cfg.PopularityWeight = PopularityWeight
	}
	if cfg.MinSimilarity == 0 {
		cfg.MinSimilarity = DefaultMinSimilarity
	}
	return &Engine{index: index, cfg: cfg}
}

// Retrieve runs a semantic search and re-ranks the survivors with the
// hybrid similarity+metadata score. Results are best first; ties keep the
// original similarity order.
func (e *Engine) Retrieve(query []float32, topK int, filters Filters) ([]entity.ScoredBook, error) {
	if topK <= 0 {
		return []entity.ScoredBook{}, nil
	}

	hits, err := e.index.Search(query, topK*overFetchFactor)
	if err != nil {
		return nil, fmt.Errorf("retrieval: index search: %w", err)
	}

	excluded := make(map[string]struct{}, len(filters.ExcludeIds))
	for _, id := range filters.ExcludeIds {
		excluded[id] = struct{}{}
	}
	wantedGenres := make(map[string]struct{}, len(filters.Genres))
	for _, g := range filters.Genres {
		wantedGenres[strings.ToLower(strings.TrimSpace(g))] = struct{}{}
	}
	dislikedGenres := make(map[string]struct{}, len(filters.ExcludeGenres))
	for _, g := range filters.ExcludeGenres {
		dislikedGenres[strings.ToLower(strings.TrimSpace(g))] = struct{}{}
	}

	type ranked struct {
		book       entity.Book
		similarity float64
		score      float64
		simRank    int
	}

	candidates := make([]ranked, 0, len(hits))
	for rank, hit := range hits {
		if hit.Similarity < e.cfg.MinSimilarity {
			continue
		}
		if _, skip := excluded[hit.Book.Id]; skip {
			continue
		}
		if len(wantedGenres) > 0 {
			if _, ok := wantedGenres[strings.ToLower(hit.Book.Genre)]; !ok {
				continue
			}
		}
		if _, disliked := dislikedGenres[strings.ToLower(hit.Book.Genre)]; disliked {
			continue
		}
		if filters.MinRating > 0 && hit.Book.Rating < filters.MinRating {
			continue
		}

		popularity := hit.Book.PopularityScore
		if popularity == 0 {
			// No independent popularity signal, fall back to the
			// rating-normalized proxy.
			popularity = hit.Book.Rating / 5.0
		}
		metadata := e.cfg.RatingWeight*(hit.Book.Rating/5.0) + e.cfg.PopularityWeight*popularity
		combined := e.cfg.SimilarityWeight*hit.Similarity + e.cfg.MetadataWeight*metadata

		candidates = append(candidates, ranked{
			book:       hit.Book,
			similarity: hit.Similarity,
			score:      combined,
			simRank:    rank,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].simRank < candidates[j].simRank
	})

	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	results := make([]entity.ScoredBook, len(candidates))
	for i, c := range candidates {
		results[i] = entity.ScoredBook{
			Book:       c.book,
			Similarity: c.similarity,
			Score:      c.score,
		}
	}
	return results, nil
}
