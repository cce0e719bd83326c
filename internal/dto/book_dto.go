package dto

import "time"

type BookResponse struct {
	Id              string    `json:"id"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	Description     string    `json:"description"`
	Genre           string    `json:"genre"`
	Rating          float64   `json:"rating"`
	PopularityScore float64   `json:"popularity_score"`
	CoverURL        string    `json:"cover_url,omitempty"`
	YearPublished   *int      `json:"year_published,omitempty"`
	IsDynamic       bool      `json:"is_dynamic"`
	Source          string    `json:"source"`
	CreatedAt       time.Time `json:"created_at"`
}

type BrowseBooksRequest struct {
	Search    string  `query:"search" validate:"omitempty,max=200"`
	Genre     string  `query:"genre"`
	MinRating float64 `query:"min_rating" validate:"omitempty,min=0,max=5"`
	Limit     int     `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset    int     `query:"offset" validate:"omitempty,min=0"`
}

type DiscoverBooksRequest struct {
	Query      string `json:"query" validate:"required,max=500"`
	MaxResults int    `json:"max_results,omitempty" validate:"omitempty,min=1,max=20"`
}

// PublishEmbedBookMessage is the watermill payload that queues a book
// for embedding and index insertion.
type PublishEmbedBookMessage struct {
	BookId string `json:"book_id"`
}
