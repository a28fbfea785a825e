package realtime

import (
	"fmt"

	"github.com/goccy/go-json"
)

// EventType names a realtime event. The set is closed: every event the server
// emits or accepts is listed here with its payload shape.
type EventType string

const (
	// Server -> client.
	EventMessageReceived    EventType = "MESSAGE_RECEIVED"
	EventMessageEdited      EventType = "MESSAGE_EDITED"
	EventMessageDeleted     EventType = "MESSAGE_DELETED"
	EventMessagesRead       EventType = "MESSAGES_READ"
	EventUnreadCountUpdate  EventType = "UNREAD_COUNT_UPDATE"
	EventNewFriendRequest   EventType = "NEW_FRIEND_REQUEST"
	EventFriendStatusUpdate EventType = "FRIEND_STATUS_UPDATE"
	EventConnectionError    EventType = "CONNECTION_ERROR"

	// Client -> server.
	EventJoinChat  EventType = "JOIN_CHAT"
	EventLeaveChat EventType = "LEAVE_CHAT"
)

// Event pairs a type with its payload.
type Event struct {
	Type    EventType
	Payload any
}

// Envelope is the wire form of an event.
type Envelope struct {
	Event   EventType       `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Encode renders the event as a JSON envelope.
func (e Event) Encode() ([]byte, error) {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", e.Type, err)
	}
	return json.Marshal(Envelope{Event: e.Type, Payload: payload})
}

// MessageDeletedPayload carries only the identifiers of a removed message.
type MessageDeletedPayload struct {
	ID     string `json:"id"`
	ChatID string `json:"chatId"`
}

// MessagesReadPayload lists the messages a reader flipped to read.
type MessagesReadPayload struct {
	ChatID     string   `json:"chatId"`
	Reader     string   `json:"reader"`
	MessageIDs []string `json:"messageIds"`
}

// UnreadCountPayload notifies a participant's personal room of new activity.
type UnreadCountPayload struct {
	ChatID         string `json:"chatId"`
	SenderID       string `json:"senderId"`
	MessagePreview string `json:"messagePreview"`
}

// NewFriendRequestPayload goes to the receiver's personal room.
type NewFriendRequestPayload struct {
	RequestID string `json:"requestId"`
	SenderID  string `json:"senderId"`
	Status    string `json:"status"`
}

// FriendStatusPayload goes to the original sender's personal room.
type FriendStatusPayload struct {
	RequestID  string `json:"requestId"`
	ReceiverID string `json:"receiverId"`
	Status     string `json:"status"`
}

// ChatRefPayload is the payload of client JOIN_CHAT / LEAVE_CHAT events.
type ChatRefPayload struct {
	ChatID string `json:"chatId"`
}

// MessageReceived wraps a full message record (including sender summary).
func MessageReceived(message any) Event {
	return Event{Type: EventMessageReceived, Payload: message}
}

// MessageEdited wraps the full updated message record.
func MessageEdited(message any) Event {
	return Event{Type: EventMessageEdited, Payload: message}
}

func MessageDeleted(p MessageDeletedPayload) Event {
	return Event{Type: EventMessageDeleted, Payload: p}
}

func MessagesRead(p MessagesReadPayload) Event {
	return Event{Type: EventMessagesRead, Payload: p}
}

func UnreadCountUpdate(p UnreadCountPayload) Event {
	return Event{Type: EventUnreadCountUpdate, Payload: p}
}

func NewFriendRequest(p NewFriendRequestPayload) Event {
	return Event{Type: EventNewFriendRequest, Payload: p}
}

func FriendStatusUpdate(p FriendStatusPayload) Event {
	return Event{Type: EventFriendStatusUpdate, Payload: p}
}

func ConnectionError(message string) Event {
	return Event{Type: EventConnectionError, Payload: message}
}
