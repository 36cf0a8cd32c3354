package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market_chat/pkg/logger"
)

func newTestClient(user string, buffer int) *Client {
	return &Client{send: make(chan []byte, buffer), userID: user}
}

func TestHub_DispatchOnlyToSubscribers(t *testing.T) {
	hub := NewHub(logger.Nop())
	a, b := newTestClient("u1", 4), newTestClient("u2", 4)
	hub.Register(a)
	hub.Register(b)

	require.True(t, hub.Subscribe(a, "room/1"))
	require.True(t, hub.Subscribe(b, "room/1/read"))

	hub.Dispatch("room/1", []byte(`{"id":1}`))

	require.Len(t, a.send, 1)
	assert.JSONEq(t, `{"topic":"room/1","payload":{"id":1}}`, string(<-a.send))
	assert.Empty(t, b.send)
}

func TestHub_SubscribeRequiresRegistration(t *testing.T) {
	hub := NewHub(logger.Nop())
	c := newTestClient("u1", 1)

	assert.False(t, hub.Subscribe(c, "room/1"))
	assert.Equal(t, 0, hub.SubscriberCount("room/1"))
}

func TestHub_SlowSubscriberIsDisconnected(t *testing.T) {
	hub := NewHub(logger.Nop())
	slow, fast := newTestClient("u1", 1), newTestClient("u2", 4)
	hub.Register(slow)
	hub.Register(fast)
	hub.Subscribe(slow, "room/1")
	hub.Subscribe(fast, "room/1")

	hub.Dispatch("room/1", []byte(`1`))
	hub.Dispatch("room/1", []byte(`2`))

	assert.Equal(t, 1, hub.SubscriberCount("room/1"))
	assert.Equal(t, 1, hub.ClientCount())
	assert.Len(t, fast.send, 2)

	// the buffered frame is still drained before the close
	_, ok := <-slow.send
	assert.True(t, ok)
	_, ok = <-slow.send
	assert.False(t, ok)
}

func TestHub_UnregisterIsIdempotent(t *testing.T) {
	hub := NewHub(logger.Nop())
	c := newTestClient("u1", 1)
	hub.Register(c)
	hub.Subscribe(c, "room/1")
	hub.Subscribe(c, "room/1/read")

	hub.Unregister(c)
	hub.Unregister(c)

	assert.Equal(t, 0, hub.ClientCount())
	assert.Equal(t, 0, hub.SubscriberCount("room/1"))
	assert.Equal(t, 0, hub.SubscriberCount("room/1/read"))
}

func TestHub_DropsInvalidPayload(t *testing.T) {
	hub := NewHub(logger.Nop())
	c := newTestClient("u1", 1)
	hub.Register(c)
	hub.Subscribe(c, "room/1")

	hub.Dispatch("room/1", []byte(`{not json`))

	assert.Empty(t, c.send)
	assert.Equal(t, 1, hub.ClientCount())
}
