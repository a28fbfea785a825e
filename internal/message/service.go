package message

import (
	"context"
	"log/slog"
	"strings"

	"chatline/internal/apperr"
	"chatline/internal/realtime"
	"chatline/internal/user"
)

// ChatDirectory is the slice of the chat layer the lifecycle manager needs:
// who is in a chat, and which chats a user belongs to.
type ChatDirectory interface {
	ChatMembers(ctx context.Context, chatID string) (participants []string, isGroup bool, err error)
	ChatIDsFor(ctx context.Context, userID string) ([]string, error)
}

// UserFinder resolves sender summaries for outgoing payloads.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*user.User, error)
}

// AttachmentDeleter removes a stored attachment. Best-effort on delete paths.
type AttachmentDeleter interface {
	Delete(ctx context.Context, key string) error
}

// Service owns the message lifecycle: created, edited, deleted, plus the
// read-receipt and unread-summary side of each transition. Every operation
// commits its write before any event is emitted; emission failures are the
// emitter's problem and never unwind the write.
type Service interface {
	Send(ctx context.Context, senderID, chatID, text string, att *Attachment) (*Message, error)
	Edit(ctx context.Context, requesterID, messageID, text string) (*Message, error)
	Delete(ctx context.Context, requesterID, messageID string) error
	MarkRead(ctx context.Context, readerID, chatID, counterpartID string) (int64, error)
	UnreadSummary(ctx context.Context, userID string) ([]*UnreadChat, error)
	History(ctx context.Context, chatID string, page, limit int64) (*HistoryPage, error)
}

type service struct {
	repo    Repository
	chats   ChatDirectory
	users   UserFinder
	store   AttachmentDeleter
	emitter realtime.Emitter
}

// NewService creates a new message service.
func NewService(repo Repository, chats ChatDirectory, users UserFinder, store AttachmentDeleter, emitter realtime.Emitter) Service {
	return &service{repo: repo, chats: chats, users: users, store: store, emitter: emitter}
}

// Send validates, persists and announces a new message. The MESSAGE_RECEIVED
// broadcast and the per-participant UNREAD_COUNT_UPDATE notifications are
// independent side effects of the committed write.
func (s *service) Send(ctx context.Context, senderID, chatID, text string, att *Attachment) (*Message, error) {
	text = strings.TrimSpace(text)
	if text == "" && att == nil {
		return nil, apperr.Validation("message text or file required")
	}
	if chatID == "" {
		return nil, apperr.Validation("chatId is required")
	}

	participants, _, err := s.chats.ChatMembers(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if participants == nil {
		return nil, apperr.Validation("chat not found")
	}
	if !contains(participants, senderID) {
		return nil, apperr.Validation("sender is not a chat participant")
	}

	msg := &Message{
		ChatID:   chatID,
		SenderID: senderID,
		Text:     text,
		Type:     TypeFor(att),
	}
	if att != nil {
		msg.FileURL = att.URL
		msg.FileKey = att.Key
	}

	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, err
	}
	s.attachSender(ctx, msg)

	s.emitter.Emit(chatID, realtime.MessageReceived(msg))

	preview := msg.Preview()
	for _, participant := range participants {
		if participant == senderID {
			continue
		}
		s.emitter.Emit(participant, realtime.UnreadCountUpdate(realtime.UnreadCountPayload{
			ChatID:         chatID,
			SenderID:       senderID,
			MessagePreview: preview,
		}))
	}

	return msg, nil
}

// Edit replaces the text of the requester's own message and announces the
// full updated record to the chat room.
func (s *service) Edit(ctx context.Context, requesterID, messageID, text string) (*Message, error) {
	msg, err := s.repo.FindByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, apperr.NotFound("message not found")
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.Validation("edited message text cannot be empty")
	}
	if msg.SenderID != requesterID {
		return nil, apperr.Authorization("you can edit only your own messages")
	}

	if err := s.repo.UpdateText(ctx, messageID, text); err != nil {
		return nil, err
	}
	msg.Text = text
	msg.IsEdited = true
	s.attachSender(ctx, msg)

	s.emitter.Emit(msg.ChatID, realtime.MessageEdited(msg))
	return msg, nil
}

// Delete removes the requester's own message. The stored attachment, if any,
// is deleted best-effort: a store failure is logged and the message is
// removed regardless.
func (s *service) Delete(ctx context.Context, requesterID, messageID string) error {
	msg, err := s.repo.FindByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return apperr.NotFound("message not found")
	}
	if msg.SenderID != requesterID {
		return apperr.Authorization("you can delete only your own messages")
	}

	if msg.FileKey != "" {
		if err := s.store.Delete(ctx, msg.FileKey); err != nil {
			slog.Warn("failed to delete attachment", slog.String("key", msg.FileKey),
				slog.Any("error", err))
		}
	}

	if err := s.repo.Delete(ctx, messageID); err != nil {
		return err
	}

	s.emitter.Emit(msg.ChatID, realtime.MessageDeleted(realtime.MessageDeletedPayload{
		ID:     messageID,
		ChatID: msg.ChatID,
	}))
	return nil
}

// MarkRead flips every unread message from counterpartID in the chat to read
// in one batch. A MESSAGES_READ event goes out only when something changed;
// zero affected is a normal silent outcome.
func (s *service) MarkRead(ctx context.Context, readerID, chatID, counterpartID string) (int64, error) {
	if chatID == "" || counterpartID == "" {
		return 0, apperr.Validation("chatId and counterpartId required")
	}

	ids, err := s.repo.FindUnreadIDs(ctx, chatID, counterpartID)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	affected, err := s.repo.MarkRead(ctx, ids)
	if err != nil {
		return 0, err
	}
	if affected > 0 {
		s.emitter.Emit(chatID, realtime.MessagesRead(realtime.MessagesReadPayload{
			ChatID:     chatID,
			Reader:     readerID,
			MessageIDs: ids,
		}))
	}
	return affected, nil
}

// UnreadSummary recomputes the unread state for every chat the user is in.
// Pull-style reconciliation: no cached counters, fresh on every call.
func (s *service) UnreadSummary(ctx context.Context, userID string) ([]*UnreadChat, error) {
	chatIDs, err := s.chats.ChatIDsFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(chatIDs) == 0 {
		return nil, nil
	}
	return s.repo.UnreadSummary(ctx, userID, chatIDs)
}

// History returns one page of chat messages, oldest first within the page.
func (s *service) History(ctx context.Context, chatID string, page, limit int64) (*HistoryPage, error) {
	if chatID == "" {
		return nil, apperr.Validation("chatId is required")
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 15
	}

	messages, total, err := s.repo.FindByChat(ctx, chatID, page, limit)
	if err != nil {
		return nil, err
	}

	// Stored newest-first for the skip/limit walk, displayed oldest-first.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	summaries := make(map[string]*user.Summary)
	for _, msg := range messages {
		if cached, ok := summaries[msg.SenderID]; ok {
			msg.Sender = cached
			continue
		}
		s.attachSender(ctx, msg)
		summaries[msg.SenderID] = msg.Sender
	}

	totalPages := (total + limit - 1) / limit
	return &HistoryPage{
		Messages: messages,
		Pagination: Pagination{
			TotalMessages: total,
			TotalPages:    totalPages,
			CurrentPage:   page,
			Limit:         limit,
			HasMore:       page < totalPages,
		},
	}, nil
}

func (s *service) attachSender(ctx context.Context, msg *Message) {
	sender, err := s.users.FindByID(ctx, msg.SenderID)
	if err != nil {
		slog.Warn("failed to resolve sender", slog.String("sender", msg.SenderID),
			slog.Any("error", err))
		return
	}
	summary := sender.Summary()
	msg.Sender = &summary
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
