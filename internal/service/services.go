package service

import (
	"context"

	"market_chat/internal/config"
	"market_chat/internal/repository"
	"market_chat/pkg/logger"
)

// Publisher delivers a broadcast payload to every subscriber of a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

type Services struct {
	Auth      AuthService
	Room      RoomService
	Chat      ChatService
	Read      ReadService
	RateLimit RateLimitService
	Audit     AuditService
}

func NewServices(repos *repository.Repositories, publisher Publisher, cfg *config.Config, log logger.Logger) *Services {
	audit := NewAuditService(repos.Audit, log)

	return &Services{
		Auth:      NewAuthService(repos.User, cfg.JWT, log),
		Room:      NewRoomService(repos.Room, repos.User, repos.Transaction, audit, log),
		Chat:      NewChatService(repos.Chat, repos.Room, repos.User, publisher, log),
		Read:      NewReadService(repos.Chat, repos.Room, publisher, log),
		RateLimit: NewRateLimitService(repos.RateLimit, log),
		Audit:     audit,
	}
}
