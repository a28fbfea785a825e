package message

import (
	"context"
	"time"
)

// Repository manages message persistence.
type Repository interface {
	Create(ctx context.Context, message *Message) error
	FindByID(ctx context.Context, id string) (*Message, error)
	UpdateText(ctx context.Context, id, text string) error
	Delete(ctx context.Context, id string) error

	// FindUnreadIDs lists unread messages in the chat authored by senderID;
	// MarkRead flips a batch to read and reports how many changed.
	FindUnreadIDs(ctx context.Context, chatID, senderID string) ([]string, error)
	MarkRead(ctx context.Context, ids []string) (int64, error)

	// UnreadSummary returns, per chat in chatIDs, the most recent unread
	// message not authored by userID.
	UnreadSummary(ctx context.Context, userID string, chatIDs []string) ([]*UnreadChat, error)

	FindByChat(ctx context.Context, chatID string, page, limit int64) ([]*Message, int64, error)
	LastMessageAt(ctx context.Context, chatID string) (time.Time, error)
	AttachmentKeys(ctx context.Context, chatID string) ([]string, error)
	DeleteByChat(ctx context.Context, chatID string) error
}
