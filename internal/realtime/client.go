package realtime

import (
	"log/slog"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Client is one authenticated WebSocket connection.
type Client struct {
	ID       string
	UserID   string
	FullName string

	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
}

// NewClient wraps an upgraded connection for an authenticated user.
func NewClient(hub *Hub, conn *websocket.Conn, userID, fullName string) *Client {
	return &Client{
		ID:       uuid.NewString(),
		UserID:   userID,
		FullName: fullName,
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, hub.cfg.SendBuffer),
	}
}

// ReadPump reads client events until the connection drops, then removes the
// connection from the hub.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.hub.cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.hub.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.hub.cfg.PongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("unexpected close", slog.String("user", c.UserID), slog.Any("error", err))
			}
			return
		}
		c.handleEvent(raw)
	}
}

// WritePump forwards queued payloads to the socket and keeps it alive with
// pings.
func (c *Client) WritePump() {
	pingPeriod := c.hub.cfg.PongWait * 9 / 10
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleEvent(raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		slog.Warn("malformed client event", slog.String("user", c.UserID), slog.Any("error", err))
		return
	}

	switch env.Event {
	case EventJoinChat:
		var p ChatRefPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil || p.ChatID == "" {
			return
		}
		if !c.hub.rooms.Join(c, p.ChatID) {
			slog.Debug("already in chat", slog.String("user", c.FullName), slog.String("chat", p.ChatID))
			return
		}
		slog.Info("👥 joined chat", slog.String("user", c.FullName), slog.String("chat", p.ChatID))

	case EventLeaveChat:
		var p ChatRefPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil || p.ChatID == "" {
			return
		}
		c.hub.rooms.Leave(c, p.ChatID)
		slog.Info("🚪 left chat", slog.String("user", c.FullName), slog.String("chat", p.ChatID))

	default:
		slog.Warn("unknown client event", slog.String("event", string(env.Event)), slog.String("user", c.UserID))
	}
}
