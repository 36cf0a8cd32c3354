package ws

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"market_chat/internal/domain"
	"market_chat/internal/metrics"
	"market_chat/pkg/logger"
)

type ChatService interface {
	Send(ctx context.Context, roomID uuid.UUID, senderID, content, clientID string) (*domain.MessageView, error)
}

type ReadService interface {
	MarkRead(ctx context.Context, roomID uuid.UUID, readerID string) ([]int64, error)
}

type RoomAuthorizer interface {
	IsParticipant(ctx context.Context, roomID uuid.UUID, userID string) (bool, error)
}

type Limiter interface {
	Allow(ctx context.Context, key string, perMinute int) (bool, error)
}

type Options struct {
	SendBuffer      int
	MaxMessageSize  int64
	EventsPerMinute int
}

// Gateway handles inbound frames in-line on the connection's read loop.
// Failures are logged and the frame dropped; the client is never told.
type Gateway struct {
	hub     *Hub
	chat    ChatService
	read    ReadService
	rooms   RoomAuthorizer
	limiter Limiter
	opts    Options
	log     logger.Logger
}

func NewGateway(hub *Hub, chat ChatService, read ReadService, rooms RoomAuthorizer, limiter Limiter, opts Options, log logger.Logger) *Gateway {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = defaultSendBuffer
	}
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = defaultMaxMessageSize
	}
	return &Gateway{
		hub:     hub,
		chat:    chat,
		read:    read,
		rooms:   rooms,
		limiter: limiter,
		opts:    opts,
		log:     log,
	}
}

// Serve runs the connection until the peer goes away. It blocks.
func (g *Gateway) Serve(ctx context.Context, conn *websocket.Conn, userID string) {
	c := &Client{
		conn:   conn,
		send:   make(chan []byte, g.opts.SendBuffer),
		userID: userID,
	}
	g.hub.Register(c)

	metrics.WebSocketConnections.Inc()
	defer metrics.WebSocketConnections.Dec()
	g.log.Info("Websocket connected", "user_id", userID)

	go g.writePump(c)
	g.readPump(ctx, c)

	g.log.Info("Websocket disconnected", "user_id", userID)
}

func (g *Gateway) handleEvent(ctx context.Context, c *Client, raw []byte) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		g.drop(c, "bad_frame", "Dropping undecodable frame", "error", err)
		return
	}

	if g.limiter != nil && g.opts.EventsPerMinute > 0 {
		allowed, err := g.limiter.Allow(ctx, "ws:"+c.userID, g.opts.EventsPerMinute)
		if err != nil {
			g.log.Error("Websocket rate limit check failed", "user_id", c.userID, "error", err)
		} else if !allowed {
			metrics.RateLimitHits.WithLabelValues("ws").Inc()
			g.drop(c, "rate_limited", "Dropping event over rate limit", "type", ev.Type)
			return
		}
	}

	switch ev.Type {
	case EventSubscribe:
		g.subscribe(ctx, c, ev.Topic)
	case EventUnsubscribe:
		g.hub.Unsubscribe(c, ev.Topic)
	case EventSend:
		g.send(ctx, c, ev)
	case EventRead:
		g.markRead(ctx, c, ev)
	default:
		g.drop(c, "bad_frame", "Dropping unknown event", "type", ev.Type)
	}
}

func (g *Gateway) subscribe(ctx context.Context, c *Client, topic string) {
	roomID, ok := domain.ParseTopic(topic)
	if !ok || (topic != domain.RoomTopic(roomID) && topic != domain.RoomReadTopic(roomID)) {
		g.drop(c, "bad_frame", "Dropping subscription to unknown topic", "topic", topic)
		return
	}

	member, err := g.rooms.IsParticipant(ctx, roomID, c.userID)
	if err != nil {
		g.drop(c, "error", "Dropping subscription", "topic", topic, "error", err)
		return
	}
	if !member {
		g.drop(c, "forbidden", "Refusing subscription of non-member", "topic", topic)
		return
	}

	g.hub.Subscribe(c, topic)
}

func (g *Gateway) send(ctx context.Context, c *Client, ev Event) {
	senderID := ev.SenderID
	if senderID == "" {
		senderID = c.userID
	}
	if senderID != c.userID {
		g.drop(c, "forbidden", "Dropping message sent on behalf of another user", "sender_id", senderID)
		return
	}
	roomID, err := uuid.Parse(ev.RoomID)
	if err != nil {
		g.drop(c, "bad_frame", "Dropping message with invalid room id", "room_id", ev.RoomID)
		return
	}

	if _, err := g.chat.Send(ctx, roomID, senderID, ev.Content, ev.ClientID); err != nil {
		g.drop(c, "error", "Dropping chat message", "room_id", roomID, "error", err)
	}
}

func (g *Gateway) markRead(ctx context.Context, c *Client, ev Event) {
	readerID := ev.ReaderID
	if readerID == "" {
		readerID = c.userID
	}
	if readerID != c.userID {
		g.drop(c, "forbidden", "Dropping read receipt on behalf of another user", "reader_id", readerID)
		return
	}
	roomID, err := uuid.Parse(ev.RoomID)
	if err != nil {
		g.drop(c, "bad_frame", "Dropping read receipt with invalid room id", "room_id", ev.RoomID)
		return
	}

	if _, err := g.read.MarkRead(ctx, roomID, readerID); err != nil {
		g.drop(c, "error", "Dropping read receipt", "room_id", roomID, "error", err)
	}
}

func (g *Gateway) drop(c *Client, reason, msg string, keysAndValues ...interface{}) {
	metrics.WebSocketDropped.WithLabelValues(reason).Inc()
	g.log.Warn(msg, append([]interface{}{"user_id", c.userID, "reason", reason}, keysAndValues...)...)
}
