package mapper

import (
	"time"

	"ai-bookrec-be/internal/entity"
	"ai-bookrec-be/internal/model"
)

type BookMapper struct{}

func NewBookMapper() *BookMapper {
	return &BookMapper{}
}

func (m *BookMapper) ToEntity(b *model.Book) *entity.Book {
	if b == nil {
		return nil
	}

	var updatedAt *time.Time
	if !b.UpdatedAt.IsZero() {
		t := b.UpdatedAt
		updatedAt = &t
	}

	return &entity.Book{
		Id:              b.Id,
		Title:           b.Title,
		Author:          b.Author,
		Description:     b.Description,
		Genre:           b.Genre,
		Rating:          b.Rating,
		PopularityScore: b.PopularityScore,
		CoverURL:        b.CoverURL,
		YearPublished:   b.YearPublished,
		IsDynamic:       b.IsDynamic,
		Source:          b.Source,
		EmbeddingId:     b.EmbeddingId,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       updatedAt,
	}
}

func (m *BookMapper) ToModel(b *entity.Book) *model.Book {
	if b == nil {
		return nil
	}

	var updatedAt time.Time
	if b.UpdatedAt != nil {
		updatedAt = *b.UpdatedAt
	}

	return &model.Book{
		Id:              b.Id,
		Title:           b.Title,
		Author:          b.Author,
		Description:     b.Description,
		Genre:           b.Genre,
		Rating:          b.Rating,
		PopularityScore: b.PopularityScore,
		CoverURL:        b.CoverURL,
		YearPublished:   b.YearPublished,
		IsDynamic:       b.IsDynamic,
		Source:          b.Source,
		EmbeddingId:     b.EmbeddingId,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       updatedAt,
	}
}

func (m *BookMapper) ToEntities(books []*model.Book) []*entity.Book {
	entities := make([]*entity.Book, len(books))
	for i, b := range books {
		entities[i] = m.ToEntity(b)
	}
	return entities
}

func (m *BookMapper) ToModels(books []*entity.Book) []*model.Book {
	models := make([]*model.Book, len(books))
	for i, b := range books {
		models[i] = m.ToModel(b)
	}
	return models
}

func (m *BookMapper) DescriptionCacheToEntity(c *model.DescriptionCache) *entity.DescriptionCache {
	if c == nil {
		return nil
	}

	var updatedAt *time.Time
	if !c.UpdatedAt.IsZero() {
		t := c.UpdatedAt
		updatedAt = &t
	}

	return &entity.DescriptionCache{
		BookId:      c.BookId,
		Description: c.Description,
		Source:      c.Source,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   updatedAt,
	}
}

func (m *BookMapper) DescriptionCacheToModel(c *entity.DescriptionCache) *model.DescriptionCache {
	if c == nil {
		return nil
	}

	var updatedAt time.Time
	if c.UpdatedAt != nil {
		updatedAt = *c.UpdatedAt
	}

	return &model.DescriptionCache{
		BookId:      c.BookId,
		Description: c.Description,
		Source:      c.Source,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   updatedAt,
	}
}
