package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	apperrors "market_chat/pkg/errors"
)

type RoomType string

const (
	RoomTypeTrade  RoomType = "TRADE"
	RoomTypeFriend RoomType = "FRIEND"
)

// NoItemTitle is shown for rooms that are not attached to an item.
const NoItemTitle = "No item title"

// ParseRoomType maps every accepted spelling onto a RoomType. TRANSACTION is a
// legacy alias of TRADE.
func ParseRoomType(s string) (RoomType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRADE", "TRANSACTION":
		return RoomTypeTrade, nil
	case "FRIEND":
		return RoomTypeFriend, nil
	default:
		return "", fmt.Errorf("%w: unknown room type %q", apperrors.ErrValidation, s)
	}
}

func (t RoomType) Valid() bool {
	return t == RoomTypeTrade || t == RoomTypeFriend
}

type Room struct {
	ID            uuid.UUID `json:"id"`
	BuyerID       string    `json:"buyer_id"`
	SellerID      string    `json:"seller_id"`
	TransactionID *int64    `json:"transaction_id,omitempty"`
	RoomType      RoomType  `json:"room_type"`
	CreatedAt     int64     `json:"created_at"`
}

func (r *Room) HasParticipant(userID string) bool {
	return userID != "" && (r.BuyerID == userID || r.SellerID == userID)
}

// RoomDetails is a room joined with its participants and optional item.
type RoomDetails struct {
	Room
	BuyerName        string
	SellerName       string
	ItemID           *int64
	ItemTitle        *string
	ItemMeetLocation *string
	ItemImages       []string
}

type RoomView struct {
	RoomID           uuid.UUID `json:"room_id"`
	TransactionID    *int64    `json:"transaction_id,omitempty"`
	ItemID           *int64    `json:"item_id,omitempty"`
	ItemTitle        string    `json:"item_title"`
	ItemMeetLocation *string   `json:"item_meet_location,omitempty"`
	ItemImages       []string  `json:"item_images"`
	RoomType         RoomType  `json:"room_type"`
	BuyerID          string    `json:"buyer_id"`
	BuyerName        string    `json:"buyer_name"`
	SellerID         string    `json:"seller_id"`
	SellerName       string    `json:"seller_name"`
	CreatedAt        int64     `json:"created_at"`
}

func (d *RoomDetails) View() RoomView {
	title := NoItemTitle
	if d.ItemTitle != nil && *d.ItemTitle != "" {
		title = *d.ItemTitle
	}
	images := d.ItemImages
	if images == nil {
		images = []string{}
	}
	return RoomView{
		RoomID:           d.ID,
		TransactionID:    d.TransactionID,
		ItemID:           d.ItemID,
		ItemTitle:        title,
		ItemMeetLocation: d.ItemMeetLocation,
		ItemImages:       images,
		RoomType:         d.RoomType,
		BuyerID:          d.BuyerID,
		BuyerName:        d.BuyerName,
		SellerID:         d.SellerID,
		SellerName:       d.SellerName,
		CreatedAt:        d.CreatedAt,
	}
}
