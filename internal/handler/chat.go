package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"market_chat/internal/middleware"
	"market_chat/internal/service"
	apperrors "market_chat/pkg/errors"
	"market_chat/pkg/logger"
)

type ChatHandler struct {
	chatService service.ChatService
	readService service.ReadService
	roomService service.RoomService
	log         logger.Logger
}

func NewChatHandler(chatService service.ChatService, readService service.ReadService, roomService service.RoomService, log logger.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		readService: readService,
		roomService: roomService,
		log:         log,
	}
}

func (h *ChatHandler) GetMessages(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("roomId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room ID"})
		return
	}

	member, err := h.roomService.IsParticipant(c.Request.Context(), roomID, middleware.UserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	if !member {
		_ = c.Error(apperrors.ErrForbidden)
		return
	}

	messages, err := h.chatService.ListMessages(c.Request.Context(), roomID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, messages)
}

type SendMessageRequest struct {
	Content  string `json:"content" binding:"required"`
	ClientID string `json:"client_id"`
}

// SendMessage is the request/response twin of the websocket send event.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("roomId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room ID"})
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message, err := h.chatService.Send(c.Request.Context(), roomID, middleware.UserID(c), req.Content, req.ClientID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, message)
}

func (h *ChatHandler) MarkRead(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("roomId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room ID"})
		return
	}

	ids, err := h.readService.MarkRead(c.Request.Context(), roomID, middleware.UserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"read_ids": ids})
}
