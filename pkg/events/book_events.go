package events

import (
	"time"

	"ai-bookrec-be/internal/entity"
)

const TypeBookDiscovered = "book.discovered"

// NewBookDiscoveredEvent is emitted after an externally sourced book has
// been persisted and indexed, so downstream consumers (analytics, model
// retraining) learn about catalog growth.
func NewBookDiscoveredEvent(book entity.Book) Event {
	return BaseEvent{
		Type: TypeBookDiscovered,
		Data: map[string]interface{}{
			"book_id": book.Id,
			"title":   book.Title,
			"author":  book.Author,
			"genre":   book.Genre,
			"source":  book.Source,
			"dynamic": book.IsDynamic,
		},
		OccurredAt: time.Now(),
	}
}
