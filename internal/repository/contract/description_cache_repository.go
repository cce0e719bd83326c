package contract

import (
	"context"

	"ai-bookrec-be/internal/entity"
)

type DescriptionCacheRepository interface {
	Get(ctx context.Context, bookId string) (*entity.DescriptionCache, error)
	Put(ctx context.Context, cache *entity.DescriptionCache) error
	Delete(ctx context.Context, bookId string) error
}
