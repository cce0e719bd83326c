package entity

import (
	"time"

	"github.com/google/uuid"
)

// BookEmbedding is the durable mirror of one vector index row.
type BookEmbedding struct {
	Id        uuid.UUID
	BookId    string
	Document  string // the text that was embedded
	Embedding []float32
	CreatedAt time.Time
	UpdatedAt *time.Time
}
