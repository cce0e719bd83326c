package mapper

import (
	"time"

	"ai-bookrec-be/internal/entity"
	"ai-bookrec-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type BookEmbeddingMapper struct{}

func NewBookEmbeddingMapper() *BookEmbeddingMapper {
	return &BookEmbeddingMapper{}
}

func (m *BookEmbeddingMapper) ToEntity(e *model.BookEmbedding) *entity.BookEmbedding {
	if e == nil {
		return nil
	}

	var updatedAt *time.Time
	if !e.UpdatedAt.IsZero() {
		t := e.UpdatedAt
		updatedAt = &t
	}

	return &entity.BookEmbedding{
		Id:        e.Id,
		BookId:    e.BookId,
		Document:  e.Document,
		Embedding: e.EmbeddingValue.Slice(),
		CreatedAt: e.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *BookEmbeddingMapper) ToModel(e *entity.BookEmbedding) *model.BookEmbedding {
	if e == nil {
		return nil
	}

	var updatedAt time.Time
	if e.UpdatedAt != nil {
		updatedAt = *e.UpdatedAt
	}

	return &model.BookEmbedding{
		Id:             e.Id,
		BookId:         e.BookId,
		Document:       e.Document,
		EmbeddingValue: pgvector.NewVector(e.Embedding),
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      updatedAt,
	}
}
