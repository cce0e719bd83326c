package intelligence

import (
	"errors"
	"sort"
	"strings"

	"ai-bookrec-be/internal/pkg/logger"
	"ai-bookrec-be/pkg/recs"
)

// strategies in checkpoint logit order.
var strategies = []recs.Strategy{
	recs.StrategyStandard,
	recs.StrategyComfort,
	recs.StrategyChallenge,
	recs.StrategyExplore,
}

// fallbackStrategyTable is the deterministic mood mapping used whenever
// the model cannot decide.
var fallbackStrategyTable = map[string]recs.Strategy{
	"stressed": recs.StrategyComfort,
	"anxious":  recs.StrategyComfort,
	"sad":      recs.StrategyComfort,
	"curious":  recs.StrategyChallenge,
	"excited":  recs.StrategyChallenge,
	"bored":    recs.StrategyExplore,
}

// BookScore pairs a book id with its personal score.
type BookScore struct {
	BookId string
	Score  float64
}

// Scorer re-orders candidates with a small learned model conditioned on a
// single shared taste vector and the current mood. When the model or a
// book is unknown it degrades to deterministic rank-preserving scores.
// Read-only after construction.
type Scorer struct {
	model *Model
	log   logger.ILogger
}

func NewScorer(checkpointPath string, log logger.ILogger) (*Scorer, error) {
	model, err := LoadCheckpoint(checkpointPath)
	if err != nil {
		if errors.Is(err, ErrModelUnavailable) {
			log.Warn("intelligence", "personal model unavailable, using fallback scoring", map[string]interface{}{
				"checkpoint": checkpointPath,
				"error":      err.Error(),
			})
			return &Scorer{log: log}, nil
		}
		return nil, err
	}

	log.Info("intelligence", "personal model loaded", map[string]interface{}{
		"checkpoint": checkpointPath,
		"num_books":  model.ckpt.NumBooks,
	})
	return &Scorer{model: model, log: log}, nil
}

// NewFallbackScorer builds a scorer with no model, useful for tests and
// for deployments that have not trained one yet.
func NewFallbackScorer(log logger.ILogger) *Scorer {
	return &Scorer{log: log}
}

func (s *Scorer) ModelLoaded() bool {
	return s.model != nil
}

// ScoreBooks scores the given book ids for the mood and returns them
// ordered best first. Unknown books receive a deterministic dummy score
// derived from their input rank so relative order is preserved.
func (s *Scorer) ScoreBooks(bookIds []string, mood string) []BookScore {
	scores := make([]BookScore, len(bookIds))
	for i, id := range bookIds {
		scores[i] = BookScore{BookId: id, Score: s.scoreOne(id, i)}
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})
	return scores
}

func (s *Scorer) scoreOne(bookId string, rank int) float64 {
	if s.model != nil {
		if row, ok := s.model.ckpt.BookIds[bookId]; ok {
			input := append(append([]float64(nil), s.model.ckpt.UserVector...), s.model.ckpt.BookEmbeddings[row]...)
			return forward(s.model.ckpt.RankingHead, input)[0]
		}
	}
	return fallbackScore(rank)
}

// fallbackScore preserves the caller's ranking: earlier positions score
// strictly higher.
func fallbackScore(rank int) float64 {
	return 1.0 - float64(rank)*0.05
}

// PredictStrategy picks the presentation strategy for a mood. Model path
// and fallback path agree on the documented mood contracts.
func (s *Scorer) PredictStrategy(mood string) recs.Strategy {
	mood = strings.ToLower(strings.TrimSpace(mood))

	if s.model != nil {
		if row, ok := s.model.ckpt.Moods[mood]; ok {
			input := append(append([]float64(nil), s.model.ckpt.UserVector...), s.model.ckpt.MoodEmbeddings[row]...)
			logits := forward(s.model.ckpt.StrategyHead, input)

			best := 0
			for i := 1; i < len(logits); i++ {
				if logits[i] > logits[best] {
					best = i
				}
			}
			if best < len(strategies) {
				return strategies[best]
			}
		}
	}

	if strategy, ok := fallbackStrategyTable[mood]; ok {
		return strategy
	}
	return recs.StrategyStandard
}

// forward runs a dense feed-forward pass with ReLU between layers and a
// linear final layer.
func forward(layers []Layer, input []float64) []float64 {
	current := input
	for li, layer := range layers {
		next := make([]float64, len(layer.Weight))
		for o, row := range layer.Weight {
			sum := layer.Bias[o]
			for i, w := range row {
				sum += w * current[i]
			}
			next[o] = sum
		}
		if li < len(layers)-1 {
			for i, v := range next {
				if v < 0 {
					next[i] = 0
				}
			}
		}
		current = next
	}
	return current
}
