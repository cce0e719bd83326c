package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-bookrec-be/internal/entity"
	"ai-bookrec-be/pkg/vectorindex"
)

type stubSearcher struct {
	hits      []vectorindex.Hit
	lastTopK  int
	lastQuery []float32
}

func (s *stubSearcher) Search(query []float32, topK int) ([]vectorindex.Hit, error) {
	s.lastQuery = query
	s.lastTopK = topK
	if topK < len(s.hits) {
		return s.hits[:topK], nil
	}
	return s.hits, nil
}

func hit(id, genre string, similarity, rating, popularity float64) vectorindex.Hit {
	return vectorindex.Hit{
		Book: entity.Book{
			Id:              id,
			Title:           id,
			Genre:           genre,
			Rating:          rating,
			PopularityScore: popularity,
		},
		Similarity: similarity,
	}
}

func TestRetrieveOverFetchesIndex(t *testing.T) {
	idx := &stubSearcher{}
	engine := NewEngine(idx, Config{})

	_, err := engine.Retrieve([]float32{1, 0}, 5, Filters{})
	require.NoError(t, err)
	assert.Equal(t, 10, idx.lastTopK)
}

func TestRetrieveAppliesSimilarityFloor(t *testing.T) {
	idx := &stubSearcher{hits: []vectorindex.Hit{
		hit("strong", "Fantasy", 0.9, 4, 0.5),
		hit("weak", "Fantasy", 0.05, 5, 1.0), // perfect metadata, near-zero similarity
	}}
	engine := NewEngine(idx, Config{})

	results, err := engine.Retrieve([]float32{1, 0}, 5, Filters{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "strong", results[0].Book.Id)
}

func TestRetrieveHybridScoreOrdersResults(t *testing.T) {
	// Similar similarity, metadata should break the near-tie in favour of
	// the better-rated, more popular book.
	idx := &stubSearcher{hits: []vectorindex.Hit{
		hit("plain", "Fantasy", 0.80, 2.0, 0.1),
		hit("beloved", "Fantasy", 0.78, 4.8, 0.9),
	}}
	engine := NewEngine(idx, Config{})

	results, err := engine.Retrieve([]float32{1, 0}, 2, Filters{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "beloved", results[0].Book.Id)

	// Expected score: 0.7*sim + 0.3*(0.6*rating/5 + 0.4*popularity)
	want := 0.7*0.78 + 0.3*(0.6*(4.8/5.0)+0.4*0.9)
	assert.InDelta(t, want, results[0].Score, 1e-9)
}

func TestRetrievePopularityProxyDefaultsToRating(t *testing.T) {
	idx := &stubSearcher{hits: []vectorindex.Hit{
		hit("noprox", "Fantasy", 0.8, 4.0, 0),
	}}
	engine := NewEngine(idx, Config{})

	results, err := engine.Retrieve([]float32{1, 0}, 1, Filters{})
	require.NoError(t, err)
	require.Len(t, results, 1)

	want := 0.7*0.8 + 0.3*(0.6*(4.0/5.0)+0.4*(4.0/5.0))
	assert.InDelta(t, want, results[0].Score, 1e-9)
}

func TestRetrieveGenreFilter(t *testing.T) {
	idx := &stubSearcher{hits: []vectorindex.Hit{
		hit("f1", "Fantasy", 0.9, 4, 0.5),
		hit("m1", "Mystery", 0.85, 4, 0.5),
	}}
	engine := NewEngine(idx, Config{})

	results, err := engine.Retrieve([]float32{1, 0}, 5, Filters{Genres: []string{"mystery"}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "m1", results[0].Book.Id)
}

func TestRetrieveExcludeGenres(t *testing.T) {
	idx := &stubSearcher{hits: []vectorindex.Hit{
		hit("h1", "Horror", 0.9, 4, 0.5),
		hit("f1", "Fantasy", 0.85, 4, 0.5),
	}}
	engine := NewEngine(idx, Config{})

	results, err := engine.Retrieve([]float32{1, 0}, 5, Filters{ExcludeGenres: []string{"horror"}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "f1", results[0].Book.Id)
}

func TestRetrieveExcludeIdsAndMinRating(t *testing.T) {
	idx := &stubSearcher{hits: []vectorindex.Hit{
		hit("seen", "Fantasy", 0.9, 4.5, 0.5),
		hit("low", "Fantasy", 0.85, 2.0, 0.5),
		hit("keep", "Fantasy", 0.8, 4.0, 0.5),
	}}
	engine := NewEngine(idx, Config{})

	results, err := engine.Retrieve([]float32{1, 0}, 5, Filters{
		ExcludeIds: []string{"seen"},
		MinRating:  3.5,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "keep", results[0].Book.Id)
}

func TestRetrieveTieBreakKeepsSimilarityOrder(t *testing.T) {
	// Identical books: combined scores tie, earlier similarity rank wins.
	idx := &stubSearcher{hits: []vectorindex.Hit{
		hit("first", "Fantasy", 0.8, 4, 0.5),
		hit("second", "Fantasy", 0.8, 4, 0.5),
	}}
	engine := NewEngine(idx, Config{})

	results, err := engine.Retrieve([]float32{1, 0}, 2, Filters{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "first", results[0].Book.Id)
	assert.Equal(t, "second", results[1].Book.Id)
}

func TestRetrieveEmptyIndexIsEmptyNotError(t *testing.T) {
	engine := NewEngine(&stubSearcher{}, Config{})

	results, err := engine.Retrieve([]float32{1, 0}, 5, Filters{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRetrieveTruncatesToTopK(t *testing.T) {
	idx := &stubSearcher{hits: []vectorindex.Hit{
		hit("a", "Fantasy", 0.9, 4, 0.5),
		hit("b", "Fantasy", 0.8, 4, 0.5),
		hit("c", "Fantasy", 0.7, 4, 0.5),
	}}
	engine := NewEngine(idx, Config{})

	results, err := engine.Retrieve([]float32{1, 0}, 2, Filters{})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}
