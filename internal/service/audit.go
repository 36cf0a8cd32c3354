package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"market_chat/internal/domain"
	"market_chat/internal/repository"
	"market_chat/pkg/logger"
)

type actorKey struct{}

// ContextWithActor records the authenticated user on whose behalf a lifecycle
// operation runs.
func ContextWithActor(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

// ActorID returns the user recorded by ContextWithActor, or "" for internal
// callers.
func ActorID(ctx context.Context) string {
	userID, _ := ctx.Value(actorKey{}).(string)
	return userID
}

func actorFromContext(ctx context.Context) *string {
	if userID := ActorID(ctx); userID != "" {
		return &userID
	}
	return nil
}

type AuditService interface {
	LogEvent(ctx context.Context, roomID *uuid.UUID, eventType string, payload map[string]interface{}) error
}

type auditService struct {
	auditRepo repository.AuditRepository
	log       logger.Logger
}

func NewAuditService(auditRepo repository.AuditRepository, log logger.Logger) AuditService {
	return &auditService{
		auditRepo: auditRepo,
		log:       log,
	}
}

func (s *auditService) LogEvent(ctx context.Context, roomID *uuid.UUID, eventType string, payload map[string]interface{}) error {
	if payload == nil {
		payload = make(map[string]interface{})
	}

	auditLog := &domain.AuditLog{
		EventTime: time.Now(),
		ActorID:   actorFromContext(ctx),
		RoomID:    roomID,
		EventType: eventType,
		Payload:   payload,
	}

	return s.auditRepo.CreateLog(ctx, auditLog)
}
