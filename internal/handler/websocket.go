package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"market_chat/internal/middleware"
	"market_chat/internal/ws"
	"market_chat/pkg/logger"
)

type WebSocketHandler struct {
	gateway  *ws.Gateway
	upgrader websocket.Upgrader
	log      logger.Logger
}

func NewWebSocketHandler(gateway *ws.Gateway, allowedOrigins []string, log logger.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		gateway: gateway,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		log: log,
	}
}

// originChecker allows any origin when the list is empty.
func originChecker(allowedOrigins []string) func(r *http.Request) bool {
	if len(allowedOrigins) == 0 {
		return func(r *http.Request) bool { return true }
	}
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowed[origin]
		return ok
	}
}

func (h *WebSocketHandler) HandleChat(c *gin.Context) {
	userID := middleware.UserID(c)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("Failed to upgrade connection", "user_id", userID, "error", err)
		return
	}

	h.gateway.Serve(c.Request.Context(), conn, userID)
}
