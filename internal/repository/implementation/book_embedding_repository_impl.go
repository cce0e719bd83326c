package implementation

import (
	"context"
	"errors"

	"ai-bookrec-be/internal/entity"
	"ai-bookrec-be/internal/mapper"
	"ai-bookrec-be/internal/model"
	"ai-bookrec-be/internal/repository/contract"
	"ai-bookrec-be/internal/repository/specification"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BookEmbeddingRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.BookEmbeddingMapper
}

func NewBookEmbeddingRepository(db *gorm.DB) contract.BookEmbeddingRepository {
	return &BookEmbeddingRepositoryImpl{
		db:     db,
		mapper: mapper.NewBookEmbeddingMapper(),
	}
}

func (r *BookEmbeddingRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *BookEmbeddingRepositoryImpl) Upsert(ctx context.Context, embedding *entity.BookEmbedding) error {
	m := r.mapper.ToModel(embedding)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "book_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"document", "embedding_value", "updated_at"}),
	}).Create(m).Error
	if err != nil {
		return err
	}
	*embedding = *r.mapper.ToEntity(m)
	return nil
}

func (r *BookEmbeddingRepositoryImpl) UpsertBulk(ctx context.Context, embeddings []*entity.BookEmbedding) error {
	if len(embeddings) == 0 {
		return nil
	}
	models := make([]*model.BookEmbedding, len(embeddings))
	for i, e := range embeddings {
		models[i] = r.mapper.ToModel(e)
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "book_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"document", "embedding_value", "updated_at"}),
	}).Create(models).Error
	if err != nil {
		return err
	}
	for i, m := range models {
		*embeddings[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *BookEmbeddingRepositoryImpl) DeleteByBookId(ctx context.Context, bookId string) error {
	return r.db.WithContext(ctx).Where("book_id = ?", bookId).Delete(&model.BookEmbedding{}).Error
}

func (r *BookEmbeddingRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.BookEmbedding, error) {
	var m model.BookEmbedding
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *BookEmbeddingRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.BookEmbedding, error) {
	var models []*model.BookEmbedding
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.BookEmbedding, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *BookEmbeddingRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.BookEmbedding{}), specs...)
	err := query.Count(&count).Error
	return count, err
}

// SearchSimilarWithScore returns embeddings with similarity scores, filtered by threshold.
// Cosine distance in pgvector is 1 - cosine_similarity.
func (r *BookEmbeddingRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*contract.ScoredBookEmbedding, error) {
	if limit <= 0 {
		limit = 5
	}

	type result struct {
		model.BookEmbedding
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("book_embeddings").
		Select("book_embeddings.*, 1 - (embedding_value <=> ?) as similarity", queryVector).
		Where("1 - (embedding_value <=> ?) >= ?", queryVector, threshold).
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error

	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredBookEmbedding, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredBookEmbedding{
			Embedding:  r.mapper.ToEntity(&res.BookEmbedding),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}
