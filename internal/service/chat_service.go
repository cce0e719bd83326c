package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ai-bookrec-be/internal/constant"
	"ai-bookrec-be/internal/dto"
	"ai-bookrec-be/internal/entity"
	"ai-bookrec-be/internal/repository/specification"
	"ai-bookrec-be/internal/repository/unitofwork"
	"ai-bookrec-be/pkg/events"
	"ai-bookrec-be/pkg/llm"
	pktNats "ai-bookrec-be/pkg/nats"
	"ai-bookrec-be/pkg/recs/pipeline"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IChatService interface {
	CreateSession(ctx context.Context, userId uuid.UUID, req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error)
	GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error)
	GetChatHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error)
	SendChat(ctx context.Context, userId uuid.UUID, req *dto.SendChatRequest) (*dto.SendChatResponse, error)
	DeleteSession(ctx context.Context, userId uuid.UUID, req *dto.DeleteSessionRequest) error
}

type chatService struct {
	uowFactory     unitofwork.RepositoryFactory
	pipeline       *pipeline.Pipeline
	eventPublisher *pktNats.Publisher
}

func NewChatService(uowFactory unitofwork.RepositoryFactory, recPipeline *pipeline.Pipeline, eventPublisher *pktNats.Publisher) IChatService {
	return &chatService{
		uowFactory:     uowFactory,
		pipeline:       recPipeline,
		eventPublisher: eventPublisher,
	}
}

func (cs *chatService) CreateSession(ctx context.Context, userId uuid.UUID, req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	now := time.Now()

	persona := constant.ChatSessionDefaultPersona
	if req != nil && req.Persona != "" {
		persona = req.Persona
	}

	chatSession := entity.ChatSession{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     constant.ChatSessionDefaultTitle,
		Persona:   persona,
		CreatedAt: now,
	}

	greeting := entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: chatSession.Id,
		Role:          constant.ChatMessageRoleAssistant,
		Chat:          constant.ChatGreeting,
		CreatedAt:     now,
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.ChatSessionRepository().Create(ctx, &chatSession); err != nil {
		return nil, err
	}
	if err := uow.ChatMessageRepository().Create(ctx, &greeting); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	return &dto.CreateSessionResponse{Id: chatSession.Id}, nil
}

func (cs *chatService) GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	sessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.SessionOwnedByUser{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.GetAllSessionsResponse, len(sessions))
	for i, session := range sessions {
		responses[i] = &dto.GetAllSessionsResponse{
			Id:        session.Id,
			Title:     session.Title,
			Persona:   session.Persona,
			CreatedAt: session.CreatedAt,
			UpdatedAt: session.UpdatedAt,
		}
	}
	return responses, nil
}

func (cs *chatService) GetChatHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	session, err := cs.verifyOwnership(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, err
	}

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.BySessionID{SessionID: session.Id},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.GetChatHistoryResponse, len(messages))
	for i, msg := range messages {
		responses[i] = &dto.GetChatHistoryResponse{
			Id:              msg.Id,
			Role:            msg.Role,
			Chat:            msg.Chat,
			CreatedAt:       msg.CreatedAt,
			Recommendations: toRecommendationDTOs(msg.Recommendations),
		}
	}
	return responses, nil
}

func (cs *chatService) SendChat(ctx context.Context, userId uuid.UUID, req *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	session, err := cs.verifyOwnership(ctx, uow, userId, req.ChatSessionId)
	if err != nil {
		return nil, err
	}

	history, err := cs.loadHistory(ctx, uow, session.Id)
	if err != nil {
		return nil, err
	}

	result, err := cs.pipeline.Run(ctx, req.Chat, history, session.Persona, "")
	if err != nil {
		return nil, err
	}

	now := time.Now()
	userMessage := entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: session.Id,
		Role:          constant.ChatMessageRoleUser,
		Chat:          req.Chat,
		CreatedAt:     now,
	}

	reply := entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: session.Id,
		Role:          constant.ChatMessageRoleAssistant,
		Chat:          result.Reply,
		CreatedAt:     now.Add(time.Millisecond), // keeps history ordering stable
	}
	for _, rb := range result.Books {
		reply.Recommendations = append(reply.Recommendations, entity.Recommendation{
			BookId:   rb.Book.Id,
			Title:    rb.Book.Title,
			Author:   rb.Book.Author,
			Genre:    rb.Book.Genre,
			Reason:   rb.Reason,
			Score:    rb.Score,
			Strategy: string(result.Strategy),
			CoverURL: rb.Book.CoverURL,
		})
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.ChatMessageRepository().Create(ctx, &userMessage); err != nil {
		return nil, err
	}
	if err := uow.ChatMessageRepository().Create(ctx, &reply); err != nil {
		return nil, err
	}

	if session.Title == constant.ChatSessionDefaultTitle {
		session.Title = deriveSessionTitle(req.Chat)
		if err := uow.ChatSessionRepository().Update(ctx, session); err != nil {
			return nil, err
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	if cs.eventPublisher != nil {
		bookIds := make([]string, len(result.Books))
		for i, rb := range result.Books {
			bookIds[i] = rb.Book.Id
		}
		event := events.NewChatTurnEvent(session.Id, result.Mode, string(result.Strategy), bookIds)
		if err := cs.eventPublisher.Publish(ctx, event); err != nil {
			fmt.Printf("[WARN] Failed to publish %s event: %v\n", events.TypeChatTurn, err)
		}
	}

	return &dto.SendChatResponse{
		ChatSessionId:    session.Id,
		ChatSessionTitle: session.Title,
		Sent:             toChatDTO(&userMessage),
		Reply:            toChatDTO(&reply),
		Mode:             result.Mode,
		Strategy:         string(result.Strategy),
	}, nil
}

func (cs *chatService) DeleteSession(ctx context.Context, userId uuid.UUID, req *dto.DeleteSessionRequest) error {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	session, err := cs.verifyOwnership(ctx, uow, userId, req.ChatSessionId)
	if err != nil {
		return err
	}

	return uow.ChatSessionRepository().Delete(ctx, session.Id)
}

func (cs *chatService) verifyOwnership(ctx context.Context, uow unitofwork.UnitOfWork, userId, sessionId uuid.UUID) (*entity.ChatSession, error) {
	session, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.SessionOwnedByUser{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Chat session not found")
	}
	return session, nil
}

// loadHistory converts the last few stored turns into the message shape
// the intent extractor expects.
func (cs *chatService) loadHistory(ctx context.Context, uow unitofwork.UnitOfWork, sessionId uuid.UUID) ([]llm.Message, error) {
	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: constant.HistoryWindow, Offset: 0},
	)
	if err != nil {
		return nil, err
	}

	// Restore chronological order.
	history := make([]llm.Message, 0, len(messages))
	for i := len(messages) - 1; i >= 0; i-- {
		history = append(history, llm.Message{
			Role:    messages[i].Role,
			Content: messages[i].Chat,
		})
	}
	return history, nil
}

func deriveSessionTitle(firstMessage string) string {
	title := strings.TrimSpace(firstMessage)
	if len(title) > 60 {
		title = strings.TrimSpace(title[:60]) + "..."
	}
	if title == "" {
		return constant.ChatSessionDefaultTitle
	}
	return title
}

func toChatDTO(msg *entity.ChatMessage) *dto.SendChatResponseChat {
	return &dto.SendChatResponseChat{
		Id:              msg.Id,
		Chat:            msg.Chat,
		Role:            msg.Role,
		CreatedAt:       msg.CreatedAt,
		Recommendations: toRecommendationDTOs(msg.Recommendations),
	}
}

func toRecommendationDTOs(recs []entity.Recommendation) []dto.RecommendedBookDTO {
	if len(recs) == 0 {
		return nil
	}
	dtos := make([]dto.RecommendedBookDTO, len(recs))
	for i, rec := range recs {
		dtos[i] = dto.RecommendedBookDTO{
			BookId:   rec.BookId,
			Title:    rec.Title,
			Author:   rec.Author,
			Genre:    rec.Genre,
			Reason:   rec.Reason,
			Score:    rec.Score,
			CoverURL: rec.CoverURL,
		}
	}
	return dtos
}
