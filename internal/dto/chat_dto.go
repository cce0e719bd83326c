package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSessionRequest struct {
	Persona string `json:"persona,omitempty" validate:"omitempty,oneof=friendly professional mentor enthusiastic"`
}

type CreateSessionResponse struct {
	Id uuid.UUID `json:"id"`
}

type GetAllSessionsResponse struct {
	Id        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	Persona   string     `json:"persona"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type GetChatHistoryResponse struct {
	Id              uuid.UUID            `json:"id"`
	Role            string               `json:"role"`
	Chat            string               `json:"chat"`
	CreatedAt       time.Time            `json:"created_at"`
	Recommendations []RecommendedBookDTO `json:"recommendations,omitempty"`
}

type SendChatRequest struct {
	ChatSessionId uuid.UUID `json:"chat_session_id" validate:"required"`
	Chat          string    `json:"chat" validate:"required,max=2000"`
}

type RecommendedBookDTO struct {
	BookId      string  `json:"book_id"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Genre       string  `json:"genre"`
	Description string  `json:"description,omitempty"`
	Reason      string  `json:"reason,omitempty"`
	Score       float64 `json:"score"`
	CoverURL    string  `json:"cover_url,omitempty"`
}

type SendChatResponseChat struct {
	Id              uuid.UUID            `json:"id"`
	Chat            string               `json:"chat"`
	Role            string               `json:"role"`
	CreatedAt       time.Time            `json:"created_at"`
	Recommendations []RecommendedBookDTO `json:"recommendations,omitempty"`
}

type SendChatResponse struct {
	ChatSessionId    uuid.UUID             `json:"chat_session_id"`
	ChatSessionTitle string                `json:"title"`
	Sent             *SendChatResponseChat `json:"sent"`
	Reply            *SendChatResponseChat `json:"reply"`
	Mode             string                `json:"mode,omitempty"` // "direct" | "recommend" | "knowledge"
	Strategy         string                `json:"strategy,omitempty"`
}

type DeleteSessionRequest struct {
	ChatSessionId uuid.UUID `json:"chat_session_id" validate:"required"`
}
