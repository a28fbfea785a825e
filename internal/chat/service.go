package chat

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"chatline/internal/apperr"
	"chatline/internal/user"
)

// MessageStore is the slice of the message layer the chat service needs for
// sidebar ordering and delete cascades.
type MessageStore interface {
	LastMessageAt(ctx context.Context, chatID string) (time.Time, error)
	AttachmentKeys(ctx context.Context, chatID string) ([]string, error)
	DeleteByChat(ctx context.Context, chatID string) error
}

// AttachmentDeleter removes stored attachment objects. Best-effort only.
type AttachmentDeleter interface {
	Delete(ctx context.Context, key string) error
}

// Service handles chat business logic.
type Service interface {
	CreateOneToOne(ctx context.Context, userID, participantID string) (*Chat, error)
	FindOneToOne(ctx context.Context, userID, friendID string) (*Chat, error)
	CreateGroup(ctx context.Context, name string, participantIDs []string, adminID string) (*Chat, error)
	GetGroup(ctx context.Context, groupID string) (*Chat, error)
	RecentChats(ctx context.Context, userID string) ([]*RecentChat, error)
	Delete(ctx context.Context, chatID string) error

	// ReactivatePair / DeactivatePair flip the pair chat's hidden state for
	// both users; a missing pair chat is a no-op. Consumed by the
	// friend-relationship state machine.
	ReactivatePair(ctx context.Context, userA, userB string) error
	DeactivatePair(ctx context.Context, userA, userB string) error

	// ChatMembers and ChatIDsFor serve the message lifecycle layer.
	ChatMembers(ctx context.Context, chatID string) ([]string, bool, error)
	ChatIDsFor(ctx context.Context, userID string) ([]string, error)
}

type service struct {
	repo     Repository
	messages MessageStore
	users    user.Repository
	store    AttachmentDeleter
}

// NewService creates a new chat service.
func NewService(repo Repository, messages MessageStore, users user.Repository, store AttachmentDeleter) Service {
	return &service{repo: repo, messages: messages, users: users, store: store}
}

// CreateOneToOne returns the existing pair chat or creates a fresh one with
// exactly the two participants.
func (s *service) CreateOneToOne(ctx context.Context, userID, participantID string) (*Chat, error) {
	if participantID == "" {
		return nil, apperr.Validation("participantId is required")
	}

	existing, err := s.repo.FindOneToOne(ctx, userID, participantID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	chat := &Chat{
		IsGroup:      false,
		Participants: []string{userID, participantID},
	}
	if err := s.repo.Create(ctx, chat); err != nil {
		return nil, err
	}
	return chat, nil
}

func (s *service) FindOneToOne(ctx context.Context, userID, friendID string) (*Chat, error) {
	if friendID == "" {
		return nil, apperr.Validation("friendId is required")
	}

	chat, err := s.repo.FindOneToOne(ctx, userID, friendID)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, apperr.NotFound("1-to-1 chat not found")
	}
	return chat, nil
}

// CreateGroup creates a group chat; the creator is always a participant and
// becomes the admin.
func (s *service) CreateGroup(ctx context.Context, name string, participantIDs []string, adminID string) (*Chat, error) {
	if name == "" || len(participantIDs) == 0 {
		return nil, apperr.Validation("group name and participants are required")
	}

	seen := map[string]struct{}{adminID: {}}
	participants := []string{adminID}
	for _, id := range participantIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		participants = append(participants, id)
	}

	chat := &Chat{
		IsGroup:      true,
		Name:         name,
		Participants: participants,
		Admin:        adminID,
	}
	if err := s.repo.Create(ctx, chat); err != nil {
		return nil, err
	}
	return chat, nil
}

func (s *service) GetGroup(ctx context.Context, groupID string) (*Chat, error) {
	chat, err := s.repo.FindByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if chat == nil || !chat.IsGroup {
		return nil, apperr.NotFound("group chat not found")
	}
	return chat, nil
}

// RecentChats builds the sidebar list: one entry per chat the user belongs
// to, with the counterpart's summary for direct chats, ordered by last
// activity.
func (s *service) RecentChats(ctx context.Context, userID string) ([]*RecentChat, error) {
	chats, err := s.repo.FindForParticipant(ctx, userID)
	if err != nil {
		return nil, err
	}

	recent := make([]*RecentChat, 0, len(chats))
	for _, c := range chats {
		entry := &RecentChat{
			ID:         c.ID,
			IsGroup:    c.IsGroup,
			Name:       c.Name,
			IsInactive: c.IsInactiveFor(userID),
		}

		if !c.IsGroup {
			for _, p := range c.Participants {
				if p != userID {
					if friend, err := s.users.FindByID(ctx, p); err == nil {
						summary := friend.Summary()
						entry.Friend = &summary
					}
					break
				}
			}
		}

		lastAt, err := s.messages.LastMessageAt(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		if lastAt.IsZero() {
			lastAt = c.UpdatedAt
		}
		entry.LastMessageTime = lastAt

		recent = append(recent, entry)
	}

	sort.Slice(recent, func(i, j int) bool {
		return recent[i].LastMessageTime.After(recent[j].LastMessageTime)
	})
	return recent, nil
}

// Delete removes the chat, its messages and, best-effort, their stored
// attachments. Attachment failures are logged and never block the delete.
func (s *service) Delete(ctx context.Context, chatID string) error {
	chat, err := s.repo.FindByID(ctx, chatID)
	if err != nil {
		return err
	}
	if chat == nil {
		return apperr.NotFound("chat not found")
	}

	keys, err := s.messages.AttachmentKeys(ctx, chatID)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := s.store.Delete(ctx, key); err != nil {
			slog.Warn("failed to delete attachment", slog.String("key", key), slog.Any("error", err))
		}
	}

	if err := s.messages.DeleteByChat(ctx, chatID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, chatID)
}

func (s *service) ReactivatePair(ctx context.Context, userA, userB string) error {
	chat, err := s.repo.FindOneToOne(ctx, userA, userB)
	if err != nil || chat == nil {
		return err
	}
	return s.repo.RemoveInactive(ctx, chat.ID, []string{userA, userB})
}

func (s *service) DeactivatePair(ctx context.Context, userA, userB string) error {
	chat, err := s.repo.FindOneToOne(ctx, userA, userB)
	if err != nil || chat == nil {
		return err
	}
	return s.repo.AddInactive(ctx, chat.ID, []string{userA, userB})
}

func (s *service) ChatMembers(ctx context.Context, chatID string) ([]string, bool, error) {
	chat, err := s.repo.FindByID(ctx, chatID)
	if err != nil {
		return nil, false, err
	}
	if chat == nil {
		return nil, false, nil
	}
	return chat.Participants, chat.IsGroup, nil
}

func (s *service) ChatIDsFor(ctx context.Context, userID string) ([]string, error) {
	chats, err := s.repo.FindForParticipant(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(chats))
	for _, c := range chats {
		ids = append(ids, c.ID)
	}
	return ids, nil
}
