package model

import (
	"time"
)

type DescriptionCache struct {
	BookId      string    `gorm:"type:varchar(64);primaryKey"`
	Description string    `gorm:"type:text;not null"`
	Source      string    `gorm:"type:varchar(32);not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (DescriptionCache) TableName() string {
	return "description_cache"
}
