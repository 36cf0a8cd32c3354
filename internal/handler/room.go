package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"market_chat/internal/domain"
	"market_chat/internal/middleware"
	"market_chat/internal/service"
	apperrors "market_chat/pkg/errors"
	"market_chat/pkg/logger"
)

type RoomHandler struct {
	roomService service.RoomService
	log         logger.Logger
}

func NewRoomHandler(roomService service.RoomService, log logger.Logger) *RoomHandler {
	return &RoomHandler{
		roomService: roomService,
		log:         log,
	}
}

type CreateRoomRequest struct {
	TransactionID *int64 `json:"transaction_id,omitempty"`
	BuyerID       string `json:"buyer_id"`
	SellerID      string `json:"seller_id"`
}

// Create opens the trade room for a transaction. The caller must be the buyer
// or the seller; the service enforces it for existing transactions.
func (h *RoomHandler) Create(c *gin.Context) {
	userID := middleware.UserID(c)
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.TransactionID == nil {
		if req.BuyerID == "" || req.SellerID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "buyer_id and seller_id are required without transaction_id"})
			return
		}
		if userID != req.BuyerID && userID != req.SellerID {
			c.JSON(http.StatusForbidden, gin.H{"error": "you must be the buyer or the seller"})
			return
		}
	}

	ctx := service.ContextWithActor(c.Request.Context(), userID)
	room, err := h.roomService.CreateTransactionRoom(ctx, req.TransactionID, req.BuyerID, req.SellerID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, room)
}

func (h *RoomHandler) CreateFriend(c *gin.Context) {
	userID := middleware.UserID(c)
	user1, user2 := c.Query("user1"), c.Query("user2")
	if user1 == "" || user2 == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user1 and user2 are required"})
		return
	}
	if userID != user1 && userID != user2 {
		c.JSON(http.StatusForbidden, gin.H{"error": "you must be one of the two users"})
		return
	}

	ctx := service.ContextWithActor(c.Request.Context(), userID)
	room, err := h.roomService.CreateOrGetFriendRoom(ctx, user1, user2)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, room)
}

func (h *RoomHandler) List(c *gin.Context) {
	userID := middleware.UserID(c)
	target := c.DefaultQuery("user_id", userID)
	if target != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "you can only list your own rooms"})
		return
	}

	var roomType *domain.RoomType
	if raw := c.Query("room_type"); raw != "" {
		parsed, err := domain.ParseRoomType(raw)
		if err != nil {
			_ = c.Error(err)
			return
		}
		roomType = &parsed
	}

	rooms, err := h.roomService.ListRoomsForUser(c.Request.Context(), target, roomType)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, rooms)
}

func (h *RoomHandler) GetByID(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room ID"})
		return
	}

	room, err := h.roomService.GetRoom(c.Request.Context(), roomID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	userID := middleware.UserID(c)
	if room.BuyerID != userID && room.SellerID != userID {
		_ = c.Error(apperrors.ErrForbidden)
		return
	}

	c.JSON(http.StatusOK, room)
}

func (h *RoomHandler) Delete(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room ID"})
		return
	}

	userID := middleware.UserID(c)
	room, err := h.roomService.GetRoomEntity(c.Request.Context(), roomID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if !room.HasParticipant(userID) {
		_ = c.Error(apperrors.ErrForbidden)
		return
	}

	ctx := service.ContextWithActor(c.Request.Context(), userID)
	if err := h.roomService.DeleteRoom(ctx, roomID); err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}
