package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ChatMessage struct {
	Id              uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ChatSessionId   uuid.UUID      `gorm:"type:uuid;not null;index"`
	Role            string         `gorm:"type:varchar(50);not null"`
	Chat            string         `gorm:"type:text;not null"`
	Recommendations datatypes.JSON `gorm:"type:jsonb"` // recommended books payload for assistant turns
	CreatedAt       time.Time      `gorm:"autoCreateTime"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
