package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market_chat/internal/domain"
	"market_chat/pkg/logger"
)

type sentMessage struct {
	roomID   uuid.UUID
	senderID string
	content  string
	clientID string
}

type fakeChat struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (f *fakeChat) Send(ctx context.Context, roomID uuid.UUID, senderID, content, clientID string) (*domain.MessageView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, sentMessage{roomID: roomID, senderID: senderID, content: content, clientID: clientID})
	return &domain.MessageView{ID: int64(len(f.sent)), RoomID: roomID, SenderID: senderID, Content: content}, nil
}

func (f *fakeChat) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeRead struct {
	mu      sync.Mutex
	readers []string
}

func (f *fakeRead) MarkRead(ctx context.Context, roomID uuid.UUID, readerID string) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readers = append(f.readers, readerID)
	return []int64{}, nil
}

func (f *fakeRead) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.readers)
}

// fakeRooms admits u1 and u2 to every room.
type fakeRooms struct{}

func (fakeRooms) IsParticipant(ctx context.Context, roomID uuid.UUID, userID string) (bool, error) {
	return userID == "u1" || userID == "u2", nil
}

type fakeLimiter struct {
	mu     sync.Mutex
	budget int
}

func (f *fakeLimiter) Allow(ctx context.Context, key string, perMinute int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.budget <= 0 {
		return false, nil
	}
	f.budget--
	return true, nil
}

type gatewayEnv struct {
	hub    *Hub
	chat   *fakeChat
	read   *fakeRead
	server *httptest.Server
}

func newGatewayEnv(t *testing.T, limiter Limiter, perMinute int) *gatewayEnv {
	t.Helper()
	env := &gatewayEnv{hub: NewHub(logger.Nop()), chat: &fakeChat{}, read: &fakeRead{}}
	gw := NewGateway(env.hub, env.chat, env.read, fakeRooms{}, limiter,
		Options{SendBuffer: 8, EventsPerMinute: perMinute}, logger.Nop())

	upgrader := websocket.Upgrader{}
	env.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		gw.Serve(r.Context(), conn, r.URL.Query().Get("user"))
	}))
	t.Cleanup(env.server.Close)
	return env
}

func (env *gatewayEnv) dial(t *testing.T, user string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/?user=" + user
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func writeEvent(t *testing.T, conn *websocket.Conn, ev Event) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(ev))
}

func TestGateway_SubscribeAndReceive(t *testing.T) {
	env := newGatewayEnv(t, nil, 0)
	roomID := uuid.New()
	topic := domain.RoomTopic(roomID)

	conn := env.dial(t, "u1")
	writeEvent(t, conn, Event{Type: EventSubscribe, Topic: topic})
	require.Eventually(t, func() bool { return env.hub.SubscriberCount(topic) == 1 }, 2*time.Second, 10*time.Millisecond)

	env.hub.Dispatch(topic, []byte(`{"id":1,"content":"hi"}`))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got Envelope
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, topic, got.Topic)
	assert.JSONEq(t, `{"id":1,"content":"hi"}`, string(got.Payload))

	writeEvent(t, conn, Event{Type: EventUnsubscribe, Topic: topic})
	require.Eventually(t, func() bool { return env.hub.SubscriberCount(topic) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestGateway_RejectsForeignSubscriptions(t *testing.T) {
	env := newGatewayEnv(t, nil, 0)
	roomID := uuid.New()

	outsider := env.dial(t, "u3")
	writeEvent(t, outsider, Event{Type: EventSubscribe, Topic: domain.RoomTopic(roomID)})

	member := env.dial(t, "u1")
	writeEvent(t, member, Event{Type: EventSubscribe, Topic: "room/" + roomID.String() + "/typing"})
	writeEvent(t, member, Event{Type: EventSubscribe, Topic: domain.RoomReadTopic(roomID)})

	require.Eventually(t, func() bool { return env.hub.SubscriberCount(domain.RoomReadTopic(roomID)) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, env.hub.SubscriberCount(domain.RoomTopic(roomID)))
	assert.Equal(t, 0, env.hub.SubscriberCount("room/"+roomID.String()+"/typing"))
}

func TestGateway_SendAndRead(t *testing.T) {
	env := newGatewayEnv(t, nil, 0)
	roomID := uuid.New()
	conn := env.dial(t, "u1")

	writeEvent(t, conn, Event{Type: EventSend, RoomID: roomID.String(), Content: "hi", ClientID: "c-1"})
	// impersonation is dropped
	writeEvent(t, conn, Event{Type: EventSend, RoomID: roomID.String(), SenderID: "u2", Content: "spoof"})
	writeEvent(t, conn, Event{Type: EventSend, RoomID: "not-a-uuid", Content: "lost"})
	writeEvent(t, conn, Event{Type: EventRead, RoomID: roomID.String()})
	writeEvent(t, conn, Event{Type: EventRead, RoomID: roomID.String(), ReaderID: "u2"})

	require.Eventually(t, func() bool { return env.read.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, 1, env.chat.count())

	env.chat.mu.Lock()
	assert.Equal(t, sentMessage{roomID: roomID, senderID: "u1", content: "hi", clientID: "c-1"}, env.chat.sent[0])
	env.chat.mu.Unlock()
	env.read.mu.Lock()
	assert.Equal(t, []string{"u1"}, env.read.readers)
	env.read.mu.Unlock()
}

func TestGateway_ServiceErrorsKeepConnectionOpen(t *testing.T) {
	env := newGatewayEnv(t, nil, 0)
	env.chat.err = errors.New("room not found")
	roomID := uuid.New()
	conn := env.dial(t, "u1")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{garbage")))
	writeEvent(t, conn, Event{Type: "dance"})
	writeEvent(t, conn, Event{Type: EventSend, RoomID: roomID.String(), Content: "hi"})
	writeEvent(t, conn, Event{Type: EventRead, RoomID: roomID.String()})

	require.Eventually(t, func() bool { return env.read.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, env.hub.ClientCount())
}

func TestGateway_RateLimit(t *testing.T) {
	env := newGatewayEnv(t, &fakeLimiter{budget: 2}, 2)
	roomID := uuid.New()
	conn := env.dial(t, "u1")

	for i := 0; i < 3; i++ {
		writeEvent(t, conn, Event{Type: EventSend, RoomID: roomID.String(), Content: "spam"})
	}
	writeEvent(t, conn, Event{Type: EventRead, RoomID: roomID.String()})

	require.Eventually(t, func() bool { return env.chat.count() == 2 }, 2*time.Second, 10*time.Millisecond)
	// give the limited events time to be (not) handled
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 2, env.chat.count())
	assert.Equal(t, 0, env.read.count())
}

func TestGateway_DisconnectUnregisters(t *testing.T) {
	env := newGatewayEnv(t, nil, 0)
	topic := domain.RoomTopic(uuid.New())

	conn := env.dial(t, "u2")
	writeEvent(t, conn, Event{Type: EventSubscribe, Topic: topic})
	require.Eventually(t, func() bool { return env.hub.SubscriberCount(topic) == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return env.hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, env.hub.SubscriberCount(topic))
}

func TestEnvelope_Encoding(t *testing.T) {
	frame, err := json.Marshal(Envelope{Topic: "room/x/read", Payload: json.RawMessage(`[1,2]`)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"topic":"room/x/read","payload":[1,2]}`, string(frame))
}
