package external

import (
	"context"

	"ai-bookrec-be/internal/entity"
)

// Source is one tier of the discovery waterfall. Implementations return
// an empty slice for "nothing found"; errors are treated the same way by
// the waterfall.
type Source interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]entity.Book, error)
}

// Sink receives books discovered by the waterfall so they become part of
// the local catalog: durable upsert, embedding, index append.
type Sink interface {
	SaveDiscovered(ctx context.Context, books []entity.Book) error
}
