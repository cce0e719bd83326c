package intelligence

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

var (
	// ErrModelUnavailable is returned when no usable checkpoint exists.
	// The scorer keeps working through its deterministic fallback.
	ErrModelUnavailable = errors.New("intelligence: model unavailable")

	// ErrCorruptCheckpoint is returned when checkpoint metadata and
	// tensor shapes disagree. Shapes are never inferred from tensors.
	ErrCorruptCheckpoint = errors.New("intelligence: corrupt checkpoint")
)

const checkpointVersion = 1

// Layer is one dense layer: out = Weight * in + Bias.
type Layer struct {
	Weight [][]float64 `json:"weight"`
	Bias   []float64   `json:"bias"`
}

// Checkpoint is the versioned on-disk schema of the personal model.
// All dimensions are stated explicitly in the metadata.
type Checkpoint struct {
	Version       int `json:"version"`
	NumBooks      int `json:"num_books"`
	NumMoods      int `json:"num_moods"`
	NumStrategies int `json:"num_strategies"`
	EmbeddingDim  int `json:"embedding_dim"`
	MoodEmbedDim  int `json:"mood_embed_dim"`

	BookIds map[string]int `json:"book_ids"`
	Moods   map[string]int `json:"moods"`

	UserVector     []float64   `json:"user_vector"`
	BookEmbeddings [][]float64 `json:"book_embeddings"`
	MoodEmbeddings [][]float64 `json:"mood_embeddings"`

	RankingHead  []Layer `json:"ranking_head"`
	StrategyHead []Layer `json:"strategy_head"`
}

// Model is a validated, read-only checkpoint ready for inference.
type Model struct {
	ckpt Checkpoint
}

// LoadCheckpoint reads and validates a checkpoint file. A missing file is
// ErrModelUnavailable; anything structurally wrong is ErrCorruptCheckpoint.
func LoadCheckpoint(path string) (*Model, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrModelUnavailable, path)
		}
		return nil, fmt.Errorf("intelligence: read checkpoint: %w", err)
	}

	var ckpt Checkpoint
	if err := json.Unmarshal(raw, &ckpt); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrCorruptCheckpoint, err)
	}

	if err := validate(&ckpt); err != nil {
		return nil, err
	}

	return &Model{ckpt: ckpt}, nil
}

func validate(c *Checkpoint) error {
	if c.Version != checkpointVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrCorruptCheckpoint, c.Version)
	}
	if c.EmbeddingDim <= 0 || c.MoodEmbedDim <= 0 {
		return fmt.Errorf("%w: non-positive embedding dims", ErrCorruptCheckpoint)
	}
	if len(c.UserVector) != c.EmbeddingDim {
		return fmt.Errorf("%w: user_vector len %d, embedding_dim %d", ErrCorruptCheckpoint, len(c.UserVector), c.EmbeddingDim)
	}
	if len(c.BookEmbeddings) != c.NumBooks {
		return fmt.Errorf("%w: %d book embeddings, num_books %d", ErrCorruptCheckpoint, len(c.BookEmbeddings), c.NumBooks)
	}
	for i, row := range c.BookEmbeddings {
		if len(row) != c.EmbeddingDim {
			return fmt.Errorf("%w: book embedding %d has dim %d, want %d", ErrCorruptCheckpoint, i, len(row), c.EmbeddingDim)
		}
	}
	if len(c.MoodEmbeddings) != c.NumMoods {
		return fmt.Errorf("%w: %d mood embeddings, num_moods %d", ErrCorruptCheckpoint, len(c.MoodEmbeddings), c.NumMoods)
	}
	for i, row := range c.MoodEmbeddings {
		if len(row) != c.MoodEmbedDim {
			return fmt.Errorf("%w: mood embedding %d has dim %d, want %d", ErrCorruptCheckpoint, i, len(row), c.MoodEmbedDim)
		}
	}
	if len(c.BookIds) != c.NumBooks {
		return fmt.Errorf("%w: %d book ids, num_books %d", ErrCorruptCheckpoint, len(c.BookIds), c.NumBooks)
	}
	for id, row := range c.BookIds {
		if row < 0 || row >= c.NumBooks {
			return fmt.Errorf("%w: book id %q maps to row %d out of range", ErrCorruptCheckpoint, id, row)
		}
	}
	for _, row := range c.Moods {
		if row < 0 || row >= c.NumMoods {
			return fmt.Errorf("%w: mood row %d out of range", ErrCorruptCheckpoint, row)
		}
	}

	if err := validateHead("ranking_head", c.RankingHead, 2*c.EmbeddingDim, 1); err != nil {
		return err
	}
	if c.NumStrategies <= 0 {
		return fmt.Errorf("%w: non-positive num_strategies", ErrCorruptCheckpoint)
	}
	return validateHead("strategy_head", c.StrategyHead, c.EmbeddingDim+c.MoodEmbedDim, c.NumStrategies)
}

func validateHead(name string, layers []Layer, wantIn, wantOut int) error {
	if len(layers) == 0 {
		return fmt.Errorf("%w: %s has no layers", ErrCorruptCheckpoint, name)
	}
	in := wantIn
	for i, layer := range layers {
		if len(layer.Weight) == 0 {
			return fmt.Errorf("%w: %s layer %d is empty", ErrCorruptCheckpoint, name, i)
		}
		out := len(layer.Weight)
		for r, row := range layer.Weight {
			if len(row) != in {
				return fmt.Errorf("%w: %s layer %d row %d has %d cols, want %d", ErrCorruptCheckpoint, name, i, r, len(row), in)
			}
		}
		if len(layer.Bias) != out {
			return fmt.Errorf("%w: %s layer %d bias len %d, want %d", ErrCorruptCheckpoint, name, i, len(layer.Bias), out)
		}
		in = out
	}
	if in != wantOut {
		return fmt.Errorf("%w: %s output dim %d, want %d", ErrCorruptCheckpoint, name, in, wantOut)
	}
	return nil
}
