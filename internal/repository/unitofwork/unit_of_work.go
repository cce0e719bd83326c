package unitofwork

import (
	"context"

	"ai-bookrec-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	BookRepository() contract.BookRepository
	BookEmbeddingRepository() contract.BookEmbeddingRepository
	DescriptionCacheRepository() contract.DescriptionCacheRepository

	ChatSessionRepository() contract.ChatSessionRepository
	ChatMessageRepository() contract.ChatMessageRepository
}
