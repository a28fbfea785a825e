package message

import (
	"strings"
	"time"

	"chatline/internal/user"
)

// Message types, derived from the attachment MIME category at send time.
const (
	TypeText  = "text"
	TypeImage = "image"
	TypeVideo = "video"
	TypeAudio = "audio"
	TypeFile  = "file"
)

// Message is a chat message. Text and IsEdited change only through the
// original sender; IsRead flips through read receipts from other
// participants; deletion is terminal.
type Message struct {
	ID       string        `json:"id"`
	ChatID   string        `json:"chatId"`
	SenderID string        `json:"senderId"`
	Sender   *user.Summary `json:"sender,omitempty"`
	Text     string        `json:"text"`
	FileURL  string        `json:"fileUrl,omitempty"`
	FileKey  string        `json:"-"`
	Type     string        `json:"type"`
	IsRead   bool          `json:"isRead"`
	IsEdited bool          `json:"isEdited"`

	CreatedAt time.Time `json:"createdAt"`
}

// Preview is the short form shown in unread notifications and sidebars.
func (m *Message) Preview() string {
	if m.Text != "" {
		if len(m.Text) > 50 {
			return m.Text[:50]
		}
		return m.Text
	}
	if m.FileURL != "" {
		return "[Media]"
	}
	return ""
}

// Attachment is an uploaded file reference handed in by the transport layer.
type Attachment struct {
	URL      string
	Key      string
	MimeType string
}

// TypeFor maps a MIME type to the message type.
func TypeFor(att *Attachment) string {
	if att == nil {
		return TypeText
	}
	switch {
	case strings.HasPrefix(att.MimeType, "image/"):
		return TypeImage
	case strings.HasPrefix(att.MimeType, "video/"):
		return TypeVideo
	case strings.HasPrefix(att.MimeType, "audio/"):
		return TypeAudio
	default:
		return TypeFile
	}
}

// UnreadChat is one row of the pull-style unread summary: the most recent
// unread counterpart message per chat.
type UnreadChat struct {
	ChatID   string `json:"chatId"`
	SenderID string `json:"senderId"`
	IsGroup  bool   `json:"isGroup"`
}

// HistoryPage is a page of chat history, oldest first.
type HistoryPage struct {
	Messages   []*Message `json:"messages"`
	Pagination Pagination `json:"pagination"`
}

type Pagination struct {
	TotalMessages int64 `json:"totalMessages"`
	TotalPages    int64 `json:"totalPages"`
	CurrentPage   int64 `json:"currentPage"`
	Limit         int64 `json:"limit"`
	HasMore       bool  `json:"hasMore"`
}
