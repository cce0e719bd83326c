package vectorindex

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"

	"ai-bookrec-be/internal/entity"
)

var (
	// ErrDimensionMismatch is returned when a vector does not match the
	// dimension the index was created with.
	ErrDimensionMismatch = errors.New("vectorindex: dimension mismatch")

	// ErrCorruptIndex is returned when the vector file and its book
	// side-car disagree or cannot be decoded. Fatal at startup.
	ErrCorruptIndex = errors.New("vectorindex: corrupt index")
)

// normEpsilon clamps the denominator when normalizing near-zero vectors.
const normEpsilon = 1e-8

// Hit is a single nearest-neighbour result.
type Hit struct {
	Book       entity.Book
	Similarity float64
}

// Index is a flat inner-product index over L2-normalized vectors with
// book metadata attached to every row. Safe for concurrent use: searches
// take the read lock, mutations the write lock.
type Index struct {
	mu        sync.RWMutex
	dimension int
	vectors   [][]float32
	books     []entity.Book
	nextId    int64
}

func New(dimension int) (*Index, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("vectorindex: invalid dimension %d", dimension)
	}
	return &Index{
		dimension: dimension,
		vectors:   make([][]float32, 0),
		books:     make([]entity.Book, 0),
	}, nil
}

func (idx *Index) Dimension() int {
	return idx.dimension
}

func (idx *Index) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.vectors)
}

// Add normalizes the vector, appends it and returns the assigned row id.
// The book's EmbeddingId is recorded on the stored copy.
func (idx *Index) Add(book entity.Book, vec []float32) (int64, error) {
	if len(vec) != idx.dimension {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), idx.dimension)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	id := idx.nextId
	book.EmbeddingId = &id

	idx.vectors = append(idx.vectors, normalize(vec))
	idx.books = append(idx.books, book)
	idx.nextId++

	return id, nil
}

// AddBatch appends several books at once under a single write lock.
// Returns the assigned row ids in order.
func (idx *Index) AddBatch(books []entity.Book, vecs [][]float32) ([]int64, error) {
	if len(books) != len(vecs) {
		return nil, fmt.Errorf("vectorindex: %d books but %d vectors", len(books), len(vecs))
	}
	for i, vec := range vecs {
		if len(vec) != idx.dimension {
			return nil, fmt.Errorf("%w: item %d got %d, want %d", ErrDimensionMismatch, i, len(vec), idx.dimension)
		}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	ids := make([]int64, len(books))
	for i := range books {
		id := idx.nextId
		book := books[i]
		book.EmbeddingId = &id

		idx.vectors = append(idx.vectors, normalize(vecs[i]))
		idx.books = append(idx.books, book)
		idx.nextId++
		ids[i] = id
	}

	return ids, nil
}

// Search returns the topK nearest books by inner product (cosine similarity
// on normalized vectors), best first. The scan is partitioned across a
// worker pool and merged.
func (idx *Index) Search(query []float32, topK int) ([]Hit, error) {
	if len(query) != idx.dimension {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(query), idx.dimension)
	}
	if topK <= 0 {
		return []Hit{}, nil
	}

	q := normalize(query)

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	n := len(idx.vectors)
	if n == 0 {
		return []Hit{}, nil
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}

	type rowScore struct {
		row   int
		score float64
	}

	partials := make([][]rowScore, workers)
	chunk := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(w, start, end int) {
			defer wg.Done()
			local := make([]rowScore, 0, end-start)
			for row := start; row < end; row++ {
				local = append(local, rowScore{row: row, score: dot(q, idx.vectors[row])})
			}
			// Keep only the partition's best topK before the merge.
			sort.Slice(local, func(i, j int) bool {
				if local[i].score != local[j].score {
					return local[i].score > local[j].score
				}
				return local[i].row < local[j].row
			})
			if len(local) > topK {
				local = local[:topK]
			}
			partials[w] = local
		}(w, start, end)
	}
	wg.Wait()

	merged := make([]rowScore, 0, workers*topK)
	for _, part := range partials {
		merged = append(merged, part...)
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].score != merged[j].score {
			return merged[i].score > merged[j].score
		}
		return merged[i].row < merged[j].row
	})
	if len(merged) > topK {
		merged = merged[:topK]
	}

	hits := make([]Hit, len(merged))
	for i, rs := range merged {
		hits[i] = Hit{
			Book:       idx.books[rs.row],
			Similarity: rs.score,
		}
	}
	return hits, nil
}

// Books returns a copy of all indexed books.
func (idx *Index) Books() []entity.Book {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]entity.Book, len(idx.books))
	copy(out, idx.books)
	return out
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func normalize(vec []float32) []float32 {
	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	magnitude = math.Sqrt(magnitude)
	if magnitude < normEpsilon {
		magnitude = normEpsilon
	}

	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = float32(float64(v) / magnitude)
	}
	return normalized
}
