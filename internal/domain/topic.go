package domain

import (
	"strings"

	"github.com/google/uuid"
)

const (
	topicRoomPrefix = "room/"
	topicReadSuffix = "/read"
)

// RoomTopic carries MessageView payloads for a room.
func RoomTopic(roomID uuid.UUID) string {
	return topicRoomPrefix + roomID.String()
}

// RoomReadTopic carries the JSON array of message ids marked read.
func RoomReadTopic(roomID uuid.UUID) string {
	return RoomTopic(roomID) + topicReadSuffix
}

// ParseTopic returns the room a topic belongs to.
func ParseTopic(topic string) (uuid.UUID, bool) {
	rest, ok := strings.CutPrefix(topic, topicRoomPrefix)
	if !ok {
		return uuid.Nil, false
	}
	rest = strings.TrimSuffix(rest, topicReadSuffix)
	id, err := uuid.Parse(rest)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
