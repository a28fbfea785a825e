package friend

import (
	"context"
	"errors"
)

// ErrDuplicatePair reports an insert that collided with the unique pair
// index: some other request for the same pair won the race.
var ErrDuplicatePair = errors.New("friend request already exists for pair")

// Repository manages friend-request persistence. Pair lookups return
// (nil, nil) for absence.
type Repository interface {
	FindByID(ctx context.Context, id string) (*Request, error)
	FindByPair(ctx context.Context, userA, userB string) (*Request, error)
	FindAcceptedPair(ctx context.Context, userA, userB string) (*Request, error)

	// Insert creates the pair document; ErrDuplicatePair when the unique
	// index rejects it.
	Insert(ctx context.Context, req *Request) error

	// Repoint re-enters an existing document into pending with a new
	// direction. The precondition (document exists and is not pending) is
	// the caller's.
	Repoint(ctx context.Context, id, sender, receiver string) error

	SetStatus(ctx context.Context, id, status string) error
	Delete(ctx context.Context, id string) error

	FindPendingForReceiver(ctx context.Context, userID string) ([]*Request, error)
	FindSentBy(ctx context.Context, userID string) ([]*Request, error)
	FindAcceptedFor(ctx context.Context, userID string) ([]*Request, error)
}
