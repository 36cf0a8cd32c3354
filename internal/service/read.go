package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"market_chat/internal/domain"
	"market_chat/internal/metrics"
	"market_chat/internal/repository"
	apperrors "market_chat/pkg/errors"
	"market_chat/pkg/logger"
)

type ReadService interface {
	MarkRead(ctx context.Context, roomID uuid.UUID, readerID string) ([]int64, error)
}

type readService struct {
	chatRepo  repository.ChatRepository
	roomRepo  repository.RoomRepository
	publisher Publisher
	log       logger.Logger
	marshal   func(v any) ([]byte, error)
}

func NewReadService(chatRepo repository.ChatRepository, roomRepo repository.RoomRepository, publisher Publisher, log logger.Logger) ReadService {
	return &readService{
		chatRepo:  chatRepo,
		roomRepo:  roomRepo,
		publisher: publisher,
		log:       log,
		marshal:   json.Marshal,
	}
}

// MarkRead flips the counterpart's unread messages in one statement and
// broadcasts the ids that changed on the room's read topic. An empty result
// is still broadcast.
func (s *readService) MarkRead(ctx context.Context, roomID uuid.UUID, readerID string) ([]int64, error) {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.HasParticipant(readerID) {
		return nil, fmt.Errorf("%w: user %s is not a member of room %s", apperrors.ErrForbidden, readerID, roomID)
	}

	ids, err := s.chatRepo.MarkRoomRead(ctx, roomID, readerID)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []int64{}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	metrics.MessagesRead.Add(float64(len(ids)))

	payload, err := s.marshal(ids)
	if err != nil {
		// the update is already committed
		metrics.BroadcastFailures.WithLabelValues("read").Inc()
		s.log.Error("Failed to encode read receipt", "room_id", roomID,
			"error", fmt.Errorf("%w: %v", apperrors.ErrSerialization, err))
		return ids, nil
	}
	if err := s.publisher.Publish(ctx, domain.RoomReadTopic(roomID), payload); err != nil {
		metrics.BroadcastFailures.WithLabelValues("read").Inc()
		s.log.Error("Failed to publish read receipt", "room_id", roomID, "error", err)
	}

	return ids, nil
}
