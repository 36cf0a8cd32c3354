package handler

import (
	"market_chat/internal/config"
	"market_chat/internal/service"
	"market_chat/internal/ws"
	"market_chat/pkg/logger"
)

type Handlers struct {
	Health    *HealthHandler
	Room      *RoomHandler
	Chat      *ChatHandler
	WebSocket *WebSocketHandler
}

func NewHandlers(services *service.Services, gateway *ws.Gateway, checks map[string]Pinger, cfg *config.Config, log logger.Logger) *Handlers {
	return &Handlers{
		Health:    NewHealthHandler(checks),
		Room:      NewRoomHandler(services.Room, log),
		Chat:      NewChatHandler(services.Chat, services.Read, services.Room, log),
		WebSocket: NewWebSocketHandler(gateway, cfg.Chat.AllowedOrigins, log),
	}
}
