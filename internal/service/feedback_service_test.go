package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ai-bookrec-be/pkg/events"
)

type recordingLogger struct {
	infos int
}

func (l *recordingLogger) Debug(module, message string, details map[string]interface{}) {}
func (l *recordingLogger) Info(module, message string, details map[string]interface{})  { l.infos++ }
func (l *recordingLogger) Warn(module, message string, details map[string]interface{})  {}
func (l *recordingLogger) Error(module, message string, details map[string]interface{}) {}
func (l *recordingLogger) Sync() error                                                  { return nil }

func TestHandleChatTurnWithoutBooksIsNoop(t *testing.T) {
	logs := &recordingLogger{}
	fs := NewFeedbackService(nil, logs)

	event := events.BaseEvent{
		Type:       events.TypeChatTurn,
		Data:       map[string]interface{}{"mode": "direct", "strategy": "standard"},
		OccurredAt: time.Now(),
	}

	err := fs.HandleChatTurn(context.Background(), event)
	assert.NoError(t, err)
	assert.Zero(t, logs.infos)
}

func TestHandleBookDiscoveredLogs(t *testing.T) {
	logs := &recordingLogger{}
	fs := NewFeedbackService(nil, logs)

	event := events.BaseEvent{
		Type: events.TypeBookDiscovered,
		Data: map[string]interface{}{
			"book_id": "abc123",
			"title":   "Found Book",
			"source":  "openlibrary",
		},
		OccurredAt: time.Now(),
	}

	err := fs.HandleBookDiscovered(context.Background(), event)
	assert.NoError(t, err)
	assert.Equal(t, 1, logs.infos)
}
