package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"ai-bookrec-be/internal/dto"
	"ai-bookrec-be/internal/entity"
	"ai-bookrec-be/internal/repository/specification"
	"ai-bookrec-be/internal/repository/unitofwork"
	"ai-bookrec-be/pkg/embedding"
	"ai-bookrec-be/pkg/vectorindex"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	index             *vectorindex.Index
	indexPath         string
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	index *vectorindex.Index,
	indexPath string,
) IConsumerService {
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		index:             index,
		indexPath:         indexPath,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishEmbedBookMessage
	err := json.Unmarshal(msg.Payload, &payload)
	if err != nil {
		log.Printf("[ERROR] Failed to unmarshal message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	log.Printf("[INFO] Processing embedding for BookId: %s", payload.BookId)

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	book, err := uow.BookRepository().FindOne(ctx, specification.ByBookID{BookID: payload.BookId})
	if err != nil {
		log.Printf("[ERROR] Failed to get book %s: %v", payload.BookId, err)
		msg.Nack() // Nack for retriable errors
		return
	}
	if book == nil {
		log.Printf("[ERROR] Book not found: %s", payload.BookId)
		msg.Ack() // Book deleted? Ack.
		return
	}
	if book.EmbeddingId != nil {
		log.Printf("[INFO] Book %s already indexed at slot %d, skipping", book.Id, *book.EmbeddingId)
		msg.Ack()
		return
	}

	document := BuildBookDocument(book)

	res, err := cs.embeddingProvider.Generate(document, embedding.TaskRetrievalDocument)
	if err != nil {
		log.Printf("[ERROR] Failed to generate embedding for book %s: %v", payload.BookId, err)
		msg.Nack()
		return
	}

	embeddingId, err := cs.index.Add(*book, res.Embedding.Values)
	if err != nil {
		log.Printf("[ERROR] Failed to add book %s to index: %v", payload.BookId, err)
		msg.Nack()
		return
	}

	book.EmbeddingId = &embeddingId

	if err := uow.Begin(ctx); err != nil {
		log.Printf("[ERROR] Failed to begin transaction: %v", err)
		msg.Nack()
		return
	}
	defer uow.Rollback()

	if err := uow.BookRepository().Update(ctx, book); err != nil {
		log.Printf("[ERROR] Failed to record embedding slot for book %s: %v", payload.BookId, err)
		msg.Nack()
		return
	}

	mirror := &entity.BookEmbedding{
		Id:        uuid.New(),
		BookId:    book.Id,
		Document:  document,
		Embedding: res.Embedding.Values,
		CreatedAt: time.Now(),
	}
	if err := uow.BookEmbeddingRepository().Upsert(ctx, mirror); err != nil {
		log.Printf("[ERROR] Failed to mirror embedding for book %s: %v", payload.BookId, err)
		msg.Nack()
		return
	}

	if err := uow.Commit(); err != nil {
		log.Printf("[ERROR] Failed to commit transaction: %v", err)
		msg.Nack()
		return
	}

	// Best effort snapshot so a restart does not lose the new row.
	if cs.indexPath != "" {
		if err := cs.index.Save(cs.indexPath); err != nil {
			log.Printf("[WARN] Failed to snapshot index after book %s: %v", payload.BookId, err)
		}
	}

	log.Printf("[SUCCESS] Book indexed: %s at slot %d", book.Id, embeddingId)
	msg.Ack()
}

// BuildBookDocument is the canonical text that gets embedded for a book.
// Ingestion and the consumer must agree on this shape, otherwise catalog
// and discovered books live in different embedding spaces.
func BuildBookDocument(book *entity.Book) string {
	return fmt.Sprintf("%s by %s.\nGenre: %s.\n\n%s",
		book.Title,
		book.Author,
		book.Genre,
		book.Description,
	)
}
