package contract

import (
	"context"

	"ai-bookrec-be/internal/entity"
	"ai-bookrec-be/internal/repository/specification"
)

type BookRepository interface {
	Create(ctx context.Context, book *entity.Book) error
	Update(ctx context.Context, book *entity.Book) error
	// Upsert inserts or refreshes by primary key, so re-discovering the
	// same title/author pair never duplicates a row.
	Upsert(ctx context.Context, book *entity.Book) error
	UpsertBulk(ctx context.Context, books []*entity.Book) error
	Delete(ctx context.Context, id string) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Book, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Book, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
