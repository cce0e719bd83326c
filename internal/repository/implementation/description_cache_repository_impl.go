package implementation

import (
	"context"
	"errors"

	"ai-bookrec-be/internal/entity"
	"ai-bookrec-be/internal/mapper"
	"ai-bookrec-be/internal/model"
	"ai-bookrec-be/internal/repository/contract"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DescriptionCacheRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.BookMapper
}

func NewDescriptionCacheRepository(db *gorm.DB) contract.DescriptionCacheRepository {
	return &DescriptionCacheRepositoryImpl{
		db:     db,
		mapper: mapper.NewBookMapper(),
	}
}

func (r *DescriptionCacheRepositoryImpl) Get(ctx context.Context, bookId string) (*entity.DescriptionCache, error) {
	var m model.DescriptionCache
	err := r.db.WithContext(ctx).Where("book_id = ?", bookId).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.DescriptionCacheToEntity(&m), nil
}

func (r *DescriptionCacheRepositoryImpl) Put(ctx context.Context, cache *entity.DescriptionCache) error {
	m := r.mapper.DescriptionCacheToModel(cache)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "book_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"description", "source", "updated_at"}),
	}).Create(m).Error
}

func (r *DescriptionCacheRepositoryImpl) Delete(ctx context.Context, bookId string) error {
	return r.db.WithContext(ctx).Where("book_id = ?", bookId).Delete(&model.DescriptionCache{}).Error
}
