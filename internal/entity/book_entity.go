package entity

import (
	"time"
)

// Book source labels recorded on ingestion and discovery.
const (
	BookSourceCatalog     = "catalog"
	BookSourceOpenLibrary = "openlibrary"
	BookSourceGoogleBooks = "googlebooks"
	BookSourceGenerative  = "generative"
)

type Book struct {
	Id              string
	Title           string
	Author          string
	Description     string
	Genre           string
	Rating          float64 // 0..5
	PopularityScore float64 // normalized 0..1
	CoverURL        string
	YearPublished   *int
	IsDynamic       bool // discovered at runtime vs. pre-loaded
	Source          string
	EmbeddingId     *int64 // slot in the vector index, nil until embedded
	CreatedAt       time.Time
	UpdatedAt       *time.Time
}

// ScoredBook is a book plus the score that ranked it for the current turn.
type ScoredBook struct {
	Book       Book
	Similarity float64
	Score      float64
}
