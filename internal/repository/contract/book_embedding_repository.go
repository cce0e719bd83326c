package contract

import (
	"context"

	"ai-bookrec-be/internal/entity"
	"ai-bookrec-be/internal/repository/specification"
)

// ScoredBookEmbedding wraps BookEmbedding with its similarity score
type ScoredBookEmbedding struct {
	Embedding  *entity.BookEmbedding
	Similarity float64 // 0.0 to 1.0 (1.0 = identical)
}

type BookEmbeddingRepository interface {
	Upsert(ctx context.Context, embedding *entity.BookEmbedding) error
	UpsertBulk(ctx context.Context, embeddings []*entity.BookEmbedding) error
	DeleteByBookId(ctx context.Context, bookId string) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.BookEmbedding, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.BookEmbedding, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// SearchSimilarWithScore is the durable fallback for the in-memory
	// index, using pgvector cosine distance.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*ScoredBookEmbedding, error)
}
