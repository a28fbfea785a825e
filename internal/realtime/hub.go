package realtime

import (
	"context"
	"log/slog"

	"chatline/internal/config"
)

// Emitter is how the rest of the system reaches the realtime layer. Emission
// is fire-and-forget: the triggering write has already committed, so a
// notification failure is logged and swallowed, never returned.
type Emitter interface {
	Emit(roomID string, event Event)
}

type broadcast struct {
	roomID  string
	payload []byte
}

// Hub owns the presence registry and the room router and serializes all
// broadcasts through a single loop, which keeps delivery FIFO per emitting
// call for every connection.
type Hub struct {
	presence  *Presence
	rooms     *Rooms
	broadcast chan broadcast
	cfg       config.WSConfig
}

func NewHub(cfg config.WSConfig) *Hub {
	return &Hub{
		presence:  NewPresence(),
		rooms:     NewRooms(),
		broadcast: make(chan broadcast, 256),
		cfg:       cfg,
	}
}

// Run drains the broadcast queue until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case b := <-h.broadcast:
			h.rooms.Broadcast(b.roomID, b.payload)
		}
	}
}

// Emit encodes the event and queues it for the room. Safe to call on a nil
// hub (degrades to a log line), since services must never fail a committed
// request over a missing transport.
func (h *Hub) Emit(roomID string, event Event) {
	if h == nil {
		slog.Warn("realtime hub not initialized, dropping event",
			slog.String("event", string(event.Type)), slog.String("room", roomID))
		return
	}

	payload, err := event.Encode()
	if err != nil {
		slog.Warn("failed to encode event", slog.String("event", string(event.Type)),
			slog.Any("error", err))
		return
	}

	select {
	case h.broadcast <- broadcast{roomID: roomID, payload: payload}:
	default:
		slog.Warn("broadcast queue full, dropping event",
			slog.String("event", string(event.Type)), slog.String("room", roomID))
	}
}

// Admit registers an authenticated connection: presence first, then the
// implicit personal room, before the connection processes any explicit joins.
func (h *Hub) Admit(c *Client) {
	h.presence.Register(c.UserID, c.ID)
	h.rooms.Join(c, c.UserID)
	slog.Info("🟢 connected", slog.String("user", c.FullName),
		slog.Int("sockets", h.presence.Count(c.UserID)))
}

// Remove tears down a connection exactly once, whether triggered by a clean
// logout or a transport-level disconnect.
func (h *Hub) Remove(c *Client) {
	c.closeOnce.Do(func() {
		h.rooms.LeaveAll(c)
		h.presence.Unregister(c.UserID, c.ID)
		close(c.send)
		slog.Info("🔴 disconnected", slog.String("user", c.FullName),
			slog.Int("sockets", h.presence.Count(c.UserID)))
	})
}

// Count reports open connections for a user. Diagnostics only.
func (h *Hub) Count(userID string) int {
	return h.presence.Count(userID)
}

// Online reports how many distinct users currently hold a connection.
func (h *Hub) Online() int {
	return h.presence.Online()
}
