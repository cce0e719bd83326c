package specification

import (
	"gorm.io/gorm"
)

// ByBookID filters by the content-hash book primary key
type ByBookID struct {
	BookID string
}

func (s ByBookID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("id = ?", s.BookID)
}

// ByBookIDs filters by a list of book ids
type ByBookIDs struct {
	BookIDs []string
}

func (s ByBookIDs) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("id IN ?", s.BookIDs)
}

// TitleLike matches titles case-insensitively with a contains pattern,
// so "atomic habits" resolves "Atomic Habits".
type TitleLike struct {
	Title string
}

func (s TitleLike) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("title ILIKE ?", "%"+s.Title+"%")
}

// ByGenre filters by normalized genre label
type ByGenre struct {
	Genre string
}

func (s ByGenre) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("genre = ?", s.Genre)
}

// MinRating filters out books rated below the floor
type MinRating struct {
	Rating float64
}

func (s MinRating) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("rating >= ?", s.Rating)
}

// DynamicOnly keeps only runtime-discovered books
type DynamicOnly struct{}

func (s DynamicOnly) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_dynamic = ?", true)
}

// WithoutEmbedding keeps books that have not been indexed yet
type WithoutEmbedding struct{}

func (s WithoutEmbedding) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("embedding_id IS NULL")
}
