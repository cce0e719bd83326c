package events

import (
	"time"

	"github.com/google/uuid"
)

const TypeChatTurn = "chat.turn"

// NewChatTurnEvent is emitted after a recommendation turn has been
// persisted. Payloads carry outcome shape only, never message text.
func NewChatTurnEvent(sessionId uuid.UUID, mode, strategy string, bookIds []string) Event {
	return BaseEvent{
		Type: TypeChatTurn,
		Data: map[string]interface{}{
			"chat_session_id": sessionId.String(),
			"mode":            mode,
			"strategy":        strategy,
			"book_ids":        bookIds,
		},
		OccurredAt: time.Now(),
	}
}
