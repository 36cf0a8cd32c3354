package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"market_chat/internal/domain"
	"market_chat/internal/metrics"
	"market_chat/internal/repository"
	apperrors "market_chat/pkg/errors"
	"market_chat/pkg/logger"
)

type ChatService interface {
	Send(ctx context.Context, roomID uuid.UUID, senderID, content, clientID string) (*domain.MessageView, error)
	ListMessages(ctx context.Context, roomID uuid.UUID) ([]domain.MessageView, error)
}

type chatService struct {
	chatRepo  repository.ChatRepository
	roomRepo  repository.RoomRepository
	userRepo  repository.UserRepository
	publisher Publisher
	log       logger.Logger
	now       func() time.Time
}

func NewChatService(
	chatRepo repository.ChatRepository,
	roomRepo repository.RoomRepository,
	userRepo repository.UserRepository,
	publisher Publisher,
	log logger.Logger,
) ChatService {
	return &chatService{
		chatRepo:  chatRepo,
		roomRepo:  roomRepo,
		userRepo:  userRepo,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// Send persists the message and then announces it on the room topic. The
// message is stored even when the announcement fails; clients catch up
// through ListMessages.
func (s *chatService) Send(ctx context.Context, roomID uuid.UUID, senderID, content, clientID string) (*domain.MessageView, error) {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if _, err := s.userRepo.GetByID(ctx, senderID); err != nil {
		return nil, fmt.Errorf("sender %s: %w", senderID, err)
	}
	if !room.HasParticipant(senderID) {
		return nil, fmt.Errorf("%w: user %s is not a member of room %s", apperrors.ErrForbidden, senderID, roomID)
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: message content is empty", apperrors.ErrValidation)
	}

	message := &domain.ChatMessage{
		RoomID:   roomID,
		SenderID: senderID,
		Content:  content,
		ClientID: clientID,
		SentAt:   s.now(),
		Read:     false,
	}
	if err := s.chatRepo.CreateMessage(ctx, message); err != nil {
		return nil, err
	}
	metrics.MessagesSent.Inc()

	view := message.View()
	s.broadcast(ctx, view)

	return &view, nil
}

func (s *chatService) broadcast(ctx context.Context, view domain.MessageView) {
	payload, err := json.Marshal(view)
	if err != nil {
		metrics.BroadcastFailures.WithLabelValues("message").Inc()
		s.log.Error("Failed to encode message broadcast", "room_id", view.RoomID, "message_id", view.ID, "error", err)
		return
	}
	if err := s.publisher.Publish(ctx, domain.RoomTopic(view.RoomID), payload); err != nil {
		metrics.BroadcastFailures.WithLabelValues("message").Inc()
		s.log.Error("Failed to publish message", "room_id", view.RoomID, "message_id", view.ID, "error", err)
	}
}

func (s *chatService) ListMessages(ctx context.Context, roomID uuid.UUID) ([]domain.MessageView, error) {
	if _, err := s.roomRepo.GetByID(ctx, roomID); err != nil {
		return nil, err
	}

	messages, err := s.chatRepo.GetMessages(ctx, roomID)
	if err != nil {
		return nil, err
	}

	views := make([]domain.MessageView, 0, len(messages))
	for _, m := range messages {
		views = append(views, m.View())
	}
	return views, nil
}
