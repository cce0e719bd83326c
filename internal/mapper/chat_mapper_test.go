package mapper

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-bookrec-be/internal/entity"
	"ai-bookrec-be/internal/model"
)

func TestChatMessageRecommendationsRoundTrip(t *testing.T) {
	m := NewChatMapper()

	msg := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: uuid.New(),
		Role:          "assistant",
		Chat:          "Here are two picks.",
		Recommendations: []entity.Recommendation{
			{BookId: "abc123", Title: "First", Author: "A", Genre: "Fantasy", Reason: "fits", Score: 0.9, Strategy: "comfort"},
			{BookId: "def456", Title: "Second", Author: "B", Score: 0.8},
		},
		CreatedAt: time.Now(),
	}

	stored := m.ChatMessageToModel(msg)
	require.NotEmpty(t, stored.Recommendations)

	restored := m.ChatMessageToEntity(stored)
	require.Len(t, restored.Recommendations, 2)
	assert.Equal(t, "abc123", restored.Recommendations[0].BookId)
	assert.Equal(t, "comfort", restored.Recommendations[0].Strategy)
	assert.Equal(t, 0.8, restored.Recommendations[1].Score)
}

func TestChatMessageWithoutRecommendations(t *testing.T) {
	m := NewChatMapper()

	msg := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: uuid.New(),
		Role:          "user",
		Chat:          "hello",
		CreatedAt:     time.Now(),
	}

	stored := m.ChatMessageToModel(msg)
	assert.Empty(t, stored.Recommendations)

	restored := m.ChatMessageToEntity(stored)
	assert.Nil(t, restored.Recommendations)
}

func TestChatMessageCorruptPayloadDegrades(t *testing.T) {
	m := NewChatMapper()

	stored := &model.ChatMessage{
		Id:              uuid.New(),
		ChatSessionId:   uuid.New(),
		Role:            "assistant",
		Chat:            "text",
		Recommendations: []byte("{not json"),
		CreatedAt:       time.Now(),
	}

	restored := m.ChatMessageToEntity(stored)
	require.NotNil(t, restored)
	assert.Nil(t, restored.Recommendations)
	assert.Equal(t, "text", restored.Chat)
}
