package external

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-bookrec-be/internal/entity"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

type stubSource struct {
	name  string
	books []entity.Book
	err   error
	calls int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Search(ctx context.Context, query string, maxResults int) ([]entity.Book, error) {
	s.calls++
	return s.books, s.err
}

type recordingSink struct {
	saved []entity.Book
	err   error
}

func (r *recordingSink) SaveDiscovered(ctx context.Context, books []entity.Book) error {
	r.saved = append(r.saved, books...)
	return r.err
}

func TestFindShortCircuitsOnFirstHit(t *testing.T) {
	tier1 := &stubSource{name: "one", books: []entity.Book{{Id: "b1", Title: "Hit"}}}
	tier2 := &stubSource{name: "two"}
	tier3 := &stubSource{name: "three"}

	w := NewWaterfall([]Source{tier1, tier2, tier3}, nil, nopLogger{})

	books, err := w.Find(context.Background(), "hit", 3)
	require.NoError(t, err)
	require.Len(t, books, 1)

	assert.Equal(t, 1, tier1.calls)
	assert.Equal(t, 0, tier2.calls)
	assert.Equal(t, 0, tier3.calls)
}

func TestFindAdvancesPastErrorAndEmptyTiers(t *testing.T) {
	tier1 := &stubSource{name: "one", err: errors.New("boom")}
	tier2 := &stubSource{name: "two"} // empty, no error
	tier3 := &stubSource{name: "three", books: []entity.Book{{Id: "b3", Title: "Last resort"}}}

	w := NewWaterfall([]Source{tier1, tier2, tier3}, nil, nopLogger{})

	books, err := w.Find(context.Background(), "obscure", 3)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "b3", books[0].Id)
	assert.Equal(t, 1, tier1.calls)
	assert.Equal(t, 1, tier2.calls)
	assert.Equal(t, 1, tier3.calls)
}

func TestFindAllTiersFailReturnsEmptyNotError(t *testing.T) {
	tier1 := &stubSource{name: "one", err: errors.New("down")}
	tier2 := &stubSource{name: "two", err: errors.New("down too")}

	w := NewWaterfall([]Source{tier1, tier2}, nil, nopLogger{})

	books, err := w.Find(context.Background(), "anything", 3)
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestFindPersistsDiscoveredBooks(t *testing.T) {
	discovered := []entity.Book{{Id: "b1", Title: "New"}, {Id: "b2", Title: "Also new"}}
	tier := &stubSource{name: "one", books: discovered}
	sink := &recordingSink{}

	w := NewWaterfall([]Source{tier}, sink, nopLogger{})

	books, err := w.Find(context.Background(), "new stuff", 3)
	require.NoError(t, err)
	assert.Equal(t, discovered, books)
	assert.Equal(t, discovered, sink.saved)
}

func TestFindSinkFailureStillReturnsBooks(t *testing.T) {
	tier := &stubSource{name: "one", books: []entity.Book{{Id: "b1"}}}
	sink := &recordingSink{err: errors.New("db down")}

	w := NewWaterfall([]Source{tier}, sink, nopLogger{})

	books, err := w.Find(context.Background(), "q", 3)
	require.NoError(t, err)
	assert.Len(t, books, 1)
}

func TestFindZeroMaxResults(t *testing.T) {
	tier := &stubSource{name: "one", books: []entity.Book{{Id: "b1"}}}
	w := NewWaterfall([]Source{tier}, nil, nopLogger{})

	books, err := w.Find(context.Background(), "q", 0)
	require.NoError(t, err)
	assert.Empty(t, books)
	assert.Equal(t, 0, tier.calls)
}

func TestExtractJSONArray(t *testing.T) {
	raw := "Sure! Here are the books:\n```json\n[{\"title\":\"Dune\"}]\n```"
	assert.Equal(t, `[{"title":"Dune"}]`, extractJSONArray(raw))

	assert.Equal(t, "no array here", extractJSONArray("no array here"))
}
