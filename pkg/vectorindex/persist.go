package vectorindex

import (
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"ai-bookrec-be/internal/entity"
)

// The vector file holds the raw matrix; the JSON side-car next to it holds
// the book metadata and the id counter. Both are written via temp files and
// renamed so a crash never leaves a half-written pair.

type persistedVectors struct {
	Dimension int
	Vectors   [][]float32
}

type persistedBooks struct {
	NextId int64         `json:"next_id"`
	Books  []entity.Book `json:"books"`
}

// SidecarPath returns the book side-car path for an index file.
func SidecarPath(path string) string {
	return path + ".books.json"
}

// Save writes the index and its side-car atomically.
func (idx *Index) Save(path string) error {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("vectorindex: create dir: %w", err)
	}

	vecTmp := path + ".tmp"
	f, err := os.Create(vecTmp)
	if err != nil {
		return fmt.Errorf("vectorindex: create vector file: %w", err)
	}
	enc := gob.NewEncoder(f)
	if err := enc.Encode(persistedVectors{Dimension: idx.dimension, Vectors: idx.vectors}); err != nil {
		f.Close()
		os.Remove(vecTmp)
		return fmt.Errorf("vectorindex: encode vectors: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(vecTmp)
		return fmt.Errorf("vectorindex: close vector file: %w", err)
	}

	sidecarTmp := SidecarPath(path) + ".tmp"
	raw, err := json.Marshal(persistedBooks{NextId: idx.nextId, Books: idx.books})
	if err != nil {
		os.Remove(vecTmp)
		return fmt.Errorf("vectorindex: encode side-car: %w", err)
	}
	if err := os.WriteFile(sidecarTmp, raw, 0o644); err != nil {
		os.Remove(vecTmp)
		return fmt.Errorf("vectorindex: write side-car: %w", err)
	}

	if err := os.Rename(vecTmp, path); err != nil {
		os.Remove(vecTmp)
		os.Remove(sidecarTmp)
		return fmt.Errorf("vectorindex: rename vector file: %w", err)
	}
	if err := os.Rename(sidecarTmp, SidecarPath(path)); err != nil {
		os.Remove(sidecarTmp)
		return fmt.Errorf("vectorindex: rename side-car: %w", err)
	}

	return nil
}

// Load reads an index pair from disk. A vector file without a readable,
// consistent side-car is corrupt: book metadata cannot be reconstructed
// from vectors alone.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("vectorindex: open vector file: %w", err)
	}
	defer f.Close()

	var pv persistedVectors
	if err := gob.NewDecoder(f).Decode(&pv); err != nil {
		return nil, fmt.Errorf("%w: decode vectors: %v", ErrCorruptIndex, err)
	}
	if pv.Dimension <= 0 {
		return nil, fmt.Errorf("%w: invalid dimension %d", ErrCorruptIndex, pv.Dimension)
	}

	raw, err := os.ReadFile(SidecarPath(path))
	if err != nil {
		return nil, fmt.Errorf("%w: read side-car: %v", ErrCorruptIndex, err)
	}
	var pb persistedBooks
	if err := json.Unmarshal(raw, &pb); err != nil {
		return nil, fmt.Errorf("%w: decode side-car: %v", ErrCorruptIndex, err)
	}

	if len(pb.Books) != len(pv.Vectors) {
		return nil, fmt.Errorf("%w: %d vectors but %d books", ErrCorruptIndex, len(pv.Vectors), len(pb.Books))
	}
	if pb.NextId < int64(len(pv.Vectors)) {
		return nil, fmt.Errorf("%w: next_id %d behind row count %d", ErrCorruptIndex, pb.NextId, len(pv.Vectors))
	}
	for _, vec := range pv.Vectors {
		if len(vec) != pv.Dimension {
			return nil, fmt.Errorf("%w: row dimension %d, want %d", ErrCorruptIndex, len(vec), pv.Dimension)
		}
	}

	return &Index{
		dimension: pv.Dimension,
		vectors:   pv.Vectors,
		books:     pb.Books,
		nextId:    pb.NextId,
	}, nil
}

// LoadOrNew loads the index at path, falling back to an empty index when
// the files do not exist yet. Corruption still fails.
func LoadOrNew(path string, dimension int) (*Index, error) {
	idx, err := Load(path)
	if err == nil {
		if idx.dimension != dimension {
			return nil, fmt.Errorf("%w: on-disk dimension %d, configured %d", ErrCorruptIndex, idx.dimension, dimension)
		}
		return idx, nil
	}
	if errors.Is(err, os.ErrNotExist) && !errors.Is(err, ErrCorruptIndex) {
		return New(dimension)
	}
	return nil, err
}
