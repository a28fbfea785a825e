package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatline/internal/config"
)

func testWSConfig() config.WSConfig {
	return config.WSConfig{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		MaxMessageSize: 65536,
		SendBuffer:     4,
	}
}

func TestEventEncode(t *testing.T) {
	raw, err := MessageDeleted(MessageDeletedPayload{ID: "m1", ChatID: "c1"}).Encode()
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.Equal(t, EventMessageDeleted, env.Event)

	var p MessageDeletedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.Equal(t, "m1", p.ID)
	assert.Equal(t, "c1", p.ChatID)
}

func TestNilHubEmitIsSafe(t *testing.T) {
	var h *Hub
	assert.NotPanics(t, func() {
		h.Emit("room", ConnectionError("nope"))
	})
}

func TestHubAdmitJoinsPersonalRoom(t *testing.T) {
	h := NewHub(testWSConfig())
	c := &Client{ID: "conn1", UserID: "u1", FullName: "Alice", send: make(chan []byte, 4)}

	h.Admit(c)

	assert.Equal(t, 1, h.Count("u1"))
	assert.Equal(t, 1, h.rooms.RoomCount("u1"))
}

func TestHubEmitDeliversToRoom(t *testing.T) {
	h := NewHub(testWSConfig())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	c := &Client{ID: "conn1", UserID: "u1", FullName: "Alice", send: make(chan []byte, 4)}
	h.Admit(c)

	h.Emit("u1", NewFriendRequest(NewFriendRequestPayload{RequestID: "r1", SenderID: "u2", Status: "pending"}))

	select {
	case raw := <-c.send:
		var env Envelope
		require.NoError(t, json.Unmarshal(raw, &env))
		assert.Equal(t, EventNewFriendRequest, env.Event)
	case <-time.After(time.Second):
		t.Fatal("event never delivered")
	}
}

func TestHubRemoveIsExactlyOnce(t *testing.T) {
	h := NewHub(testWSConfig())
	c := &Client{ID: "conn1", UserID: "u1", FullName: "Alice", send: make(chan []byte, 4)}
	h.Admit(c)

	h.Remove(c)
	assert.Equal(t, 0, h.Count("u1"))
	assert.Equal(t, 0, h.rooms.RoomCount("u1"))

	// second removal must not double-close the send channel
	assert.NotPanics(t, func() { h.Remove(c) })
}
