package domain

import (
	"time"

	"github.com/google/uuid"
)

type ChatMessage struct {
	ID       int64     `json:"id"`
	RoomID   uuid.UUID `json:"room_id"`
	SenderID string    `json:"sender_id"`
	Content  string    `json:"content"`
	ClientID string    `json:"client_id,omitempty"`
	SentAt   time.Time `json:"sent_at"`
	Read     bool      `json:"read"`
}

type MessageView struct {
	ID       int64     `json:"id"`
	RoomID   uuid.UUID `json:"room_id"`
	SenderID string    `json:"sender_id"`
	Content  string    `json:"content"`
	ClientID string    `json:"client_id,omitempty"`
	SentAt   time.Time `json:"sent_at"`
	Read     bool      `json:"read"`
}

func (m *ChatMessage) View() MessageView {
	return MessageView{
		ID:       m.ID,
		RoomID:   m.RoomID,
		SenderID: m.SenderID,
		Content:  m.Content,
		ClientID: m.ClientID,
		SentAt:   m.SentAt,
		Read:     m.Read,
	}
}
