package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChatSession struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Title     string
	Persona   string
	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
	IsDeleted bool
}

type ChatMessage struct {
	Id              uuid.UUID
	ChatSessionId   uuid.UUID
	Role            string
	Chat            string
	Recommendations []Recommendation
	CreatedAt       time.Time
}

// Recommendation is the per-book payload stored on an assistant message.
type Recommendation struct {
	BookId   string  `json:"book_id"`
	Title    string  `json:"title"`
	Author   string  `json:"author"`
	Genre    string  `json:"genre"`
	Reason   string  `json:"reason,omitempty"`
	Score    float64 `json:"score"`
	Strategy string  `json:"strategy,omitempty"`
	CoverURL string  `json:"cover_url,omitempty"`
}
