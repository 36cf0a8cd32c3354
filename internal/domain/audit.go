package domain

import (
	"time"

	"github.com/google/uuid"
)

type AuditLog struct {
	ID        int64                  `json:"id"`
	EventTime time.Time              `json:"event_time"`
	ActorID   *string                `json:"actor_id,omitempty"`
	RoomID    *uuid.UUID             `json:"room_id,omitempty"`
	EventType string                 `json:"event_type"`
	Payload   map[string]interface{} `json:"payload"`
}

const (
	EventTypeRoomCreated = "ROOM_CREATED"
	EventTypeRoomDeleted = "ROOM_DELETED"
)
