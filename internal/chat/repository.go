package chat

import "context"

// Repository manages chat persistence. Find methods that can legitimately
// miss return (nil, nil) for absence; only malformed input is an error.
type Repository interface {
	Create(ctx context.Context, chat *Chat) error
	FindByID(ctx context.Context, id string) (*Chat, error)
	FindOneToOne(ctx context.Context, userA, userB string) (*Chat, error)
	FindForParticipant(ctx context.Context, userID string) ([]*Chat, error)
	Delete(ctx context.Context, id string) error

	// AddInactive and RemoveInactive mutate the hidden-for set without
	// changing participation.
	AddInactive(ctx context.Context, chatID string, userIDs []string) error
	RemoveInactive(ctx context.Context, chatID string, userIDs []string) error
}
