package model

import (
	"time"
)

type Book struct {
	Id              string    `gorm:"type:varchar(64);primaryKey"` // content hash or dyn_ prefixed uuid
	Title           string    `gorm:"type:varchar(512);not null;index"`
	Author          string    `gorm:"type:varchar(255);not null"`
	Description     string    `gorm:"type:text"`
	Genre           string    `gorm:"type:varchar(100);index"`
	Rating          float64   `gorm:"type:numeric(3,2);default:0"`
	PopularityScore float64   `gorm:"type:numeric(4,3);default:0"`
	CoverURL        string    `gorm:"type:text"`
	YearPublished   *int      `gorm:""`
	IsDynamic       bool      `gorm:"default:false;index"`
	Source          string    `gorm:"type:varchar(32);not null;default:'catalog'"`
	EmbeddingId     *int64    `gorm:""`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

func (Book) TableName() string {
	return "books"
}
