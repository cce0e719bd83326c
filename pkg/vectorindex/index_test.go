package vectorindex

import (
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-bookrec-be/internal/entity"
)

func book(id, title string) entity.Book {
	return entity.Book{Id: id, Title: title, Author: "Author", Genre: "Fantasy", Source: entity.BookSourceCatalog}
}

func TestAddRejectsWrongDimension(t *testing.T) {
	idx, err := New(4)
	require.NoError(t, err)

	_, err = idx.Add(book("b1", "One"), []float32{1, 0})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	assert.Equal(t, 0, idx.Count())
}

func TestSearchRejectsWrongDimension(t *testing.T) {
	idx, err := New(4)
	require.NoError(t, err)

	_, err = idx.Search([]float32{1, 0}, 3)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestSearchRanksByCosineSimilarity(t *testing.T) {
	idx, err := New(3)
	require.NoError(t, err)

	_, err = idx.Add(book("b1", "Aligned"), []float32{1, 0, 0})
	require.NoError(t, err)
	_, err = idx.Add(book("b2", "Orthogonal"), []float32{0, 1, 0})
	require.NoError(t, err)
	_, err = idx.Add(book("b3", "Close"), []float32{0.9, 0.1, 0})
	require.NoError(t, err)

	hits, err := idx.Search([]float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, "b1", hits[0].Book.Id)
	assert.Equal(t, "b3", hits[1].Book.Id)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-6)
	assert.Greater(t, hits[0].Similarity, hits[1].Similarity)
}

func TestSearchNormalizesInputs(t *testing.T) {
	idx, err := New(2)
	require.NoError(t, err)

	// Same direction, wildly different magnitudes.
	_, err = idx.Add(book("b1", "Long"), []float32{100, 0})
	require.NoError(t, err)

	hits, err := idx.Search([]float32{0.001, 0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-6)
}

func TestZeroVectorDoesNotPanic(t *testing.T) {
	idx, err := New(2)
	require.NoError(t, err)

	_, err = idx.Add(book("b1", "Zero"), []float32{0, 0})
	require.NoError(t, err)

	hits, err := idx.Search([]float32{0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.False(t, math.IsNaN(hits[0].Similarity))
	assert.False(t, math.IsInf(hits[0].Similarity, 0))
}

func TestAddAssignsSequentialIds(t *testing.T) {
	idx, err := New(2)
	require.NoError(t, err)

	id0, err := idx.Add(book("b1", "One"), []float32{1, 0})
	require.NoError(t, err)
	id1, err := idx.Add(book("b2", "Two"), []float32{0, 1})
	require.NoError(t, err)

	assert.Equal(t, int64(0), id0)
	assert.Equal(t, int64(1), id1)

	books := idx.Books()
	require.Len(t, books, 2)
	require.NotNil(t, books[0].EmbeddingId)
	assert.Equal(t, int64(0), *books[0].EmbeddingId)
}

func TestAddBatchLengthMismatch(t *testing.T) {
	idx, err := New(2)
	require.NoError(t, err)

	_, err = idx.AddBatch([]entity.Book{book("b1", "One")}, [][]float32{{1, 0}, {0, 1}})
	assert.Error(t, err)
	assert.Equal(t, 0, idx.Count())
}

func TestConcurrentSearchDuringAdd(t *testing.T) {
	idx, err := New(2)
	require.NoError(t, err)

	_, err = idx.Add(book("seed", "Seed"), []float32{1, 0})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				hits, err := idx.Search([]float32{1, 0}, 5)
				assert.NoError(t, err)
				assert.NotEmpty(t, hits)
			}
		}()
	}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				_, err := idx.Add(book("b", "More"), []float32{0.5, 0.5})
				assert.NoError(t, err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 101, idx.Count())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "books.index")

	idx, err := New(3)
	require.NoError(t, err)
	_, err = idx.Add(book("b1", "One"), []float32{1, 0, 0})
	require.NoError(t, err)
	_, err = idx.Add(book("b2", "Two"), []float32{0, 1, 0})
	require.NoError(t, err)

	require.NoError(t, idx.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Count())
	assert.Equal(t, 3, loaded.Dimension())

	hits, err := loaded.Search([]float32{1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "b1", hits[0].Book.Id)

	// Appends after load continue the id sequence.
	id, err := loaded.Add(book("b3", "Three"), []float32{0, 0, 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), id)
}

func TestLoadMissingSidecarIsCorrupt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "books.index")

	idx, err := New(2)
	require.NoError(t, err)
	_, err = idx.Add(book("b1", "One"), []float32{1, 0})
	require.NoError(t, err)
	require.NoError(t, idx.Save(path))

	require.NoError(t, os.Remove(SidecarPath(path)))

	_, err = Load(path)
	assert.ErrorIs(t, err, ErrCorruptIndex)
}

func TestLoadGarbageSidecarIsCorrupt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "books.index")

	idx, err := New(2)
	require.NoError(t, err)
	_, err = idx.Add(book("b1", "One"), []float32{1, 0})
	require.NoError(t, err)
	require.NoError(t, idx.Save(path))

	require.NoError(t, os.WriteFile(SidecarPath(path), []byte("{not json"), 0o644))

	_, err = Load(path)
	assert.ErrorIs(t, err, ErrCorruptIndex)
}

func TestLoadOrNewMissingFilesStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	idx, err := LoadOrNew(filepath.Join(dir, "absent.index"), 8)
	require.NoError(t, err)
	assert.Equal(t, 0, idx.Count())
	assert.Equal(t, 8, idx.Dimension())
}
