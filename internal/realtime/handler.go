package realtime

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"chatline/internal/auth"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Browsers cannot set Authorization headers on websocket handshakes,
		// origin policy is handled by the CORS layer in front of this.
		return true
	},
}

// ServeWS upgrades the connection and authenticates it. The handshake is
// gated: a connection that fails authentication receives a CONNECTION_ERROR
// event and is force-closed, never left half-open.
func ServeWS(hub *Hub, verifier *auth.Verifier, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade connection", slog.Any("error", err))
		return
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		token = auth.TokenFromRequest(r)
	}

	identity, err := verifier.Verify(r.Context(), token)
	if err != nil {
		rejectConnection(conn, err)
		return
	}

	client := NewClient(hub, conn, identity.UserID, identity.FullName)
	hub.Admit(client)

	go client.WritePump()
	go client.ReadPump()
}

// rejectConnection tells the client why and closes the socket synchronously.
func rejectConnection(conn *websocket.Conn, cause error) {
	slog.Warn("rejected websocket handshake", slog.Any("error", cause))

	if payload, err := ConnectionError(cause.Error()).Encode(); err == nil {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		conn.WriteMessage(websocket.TextMessage, payload)
	}
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unauthorized"))
	conn.Close()
}
