package service

import (
	"context"

	"ai-bookrec-be/internal/pkg/logger"
	"ai-bookrec-be/internal/repository/specification"
	"ai-bookrec-be/internal/repository/unitofwork"
	"ai-bookrec-be/pkg/events"
)

// popularityBump is the per-recommendation increment. Small on purpose:
// a book needs repeated surfacing before it moves in the ranking.
const popularityBump = 0.005

type IFeedbackService interface {
	HandleChatTurn(ctx context.Context, event events.Event) error
	HandleBookDiscovered(ctx context.Context, event events.Event) error
}

// feedbackService closes the recommendation loop: every surfaced book
// nudges its popularity score, which feeds the hybrid ranker on the next
// retrieval.
type feedbackService struct {
	uowFactory unitofwork.RepositoryFactory
	log        logger.ILogger
}

func NewFeedbackService(uowFactory unitofwork.RepositoryFactory, log logger.ILogger) IFeedbackService {
	return &feedbackService{
		uowFactory: uowFactory,
		log:        log,
	}
}

func (fs *feedbackService) HandleChatTurn(ctx context.Context, event events.Event) error {
	payload := event.Payload()

	rawIds, ok := payload["book_ids"].([]interface{})
	if !ok || len(rawIds) == 0 {
		return nil
	}

	uow := fs.uowFactory.NewUnitOfWork(ctx)
	for _, raw := range rawIds {
		id, ok := raw.(string)
		if !ok || id == "" {
			continue
		}

		book, err := uow.BookRepository().FindOne(ctx, specification.ByBookID{BookID: id})
		if err != nil {
			return err
		}
		if book == nil {
			continue
		}

		book.PopularityScore += popularityBump
		if book.PopularityScore > 1.0 {
			book.PopularityScore = 1.0
		}
		if err := uow.BookRepository().Update(ctx, book); err != nil {
			return err
		}
	}

	fs.log.Info("feedback", "Popularity updated from chat turn", map[string]interface{}{
		"books":    len(rawIds),
		"strategy": payload["strategy"],
		"mode":     payload["mode"],
	})
	return nil
}

func (fs *feedbackService) HandleBookDiscovered(ctx context.Context, event events.Event) error {
	payload := event.Payload()

	fs.log.Info("feedback", "Catalog grew from discovery", map[string]interface{}{
		"book_id": payload["book_id"],
		"title":   payload["title"],
		"source":  payload["source"],
		"dynamic": payload["dynamic"],
	})
	return nil
}
