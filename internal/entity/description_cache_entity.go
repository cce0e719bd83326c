package entity

import "time"

// DescriptionCache is a durable cache row for enriched book descriptions.
type DescriptionCache struct {
	BookId      string
	Description string
	Source      string
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}
