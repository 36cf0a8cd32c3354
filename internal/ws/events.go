package ws

import "encoding/json"

const (
	EventSubscribe   = "subscribe"
	EventUnsubscribe = "unsubscribe"
	EventSend        = "send"
	EventRead        = "read"
)

// Event is a frame sent by the client. Fields not used by the event type are
// ignored.
type Event struct {
	Type     string `json:"type"`
	Topic    string `json:"topic,omitempty"`
	RoomID   string `json:"room_id,omitempty"`
	SenderID string `json:"sender_id,omitempty"`
	ReaderID string `json:"reader_id,omitempty"`
	Content  string `json:"content,omitempty"`
	ClientID string `json:"client_id,omitempty"`
}

// Envelope is a frame pushed to subscribers of a topic.
type Envelope struct {
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload"`
}
