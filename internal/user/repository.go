package user

import "context"

// Repository provides read access to stored users.
type Repository interface {
	FindByID(ctx context.Context, id string) (*User, error)
	FindByIDs(ctx context.Context, ids []string) ([]*User, error)
	Search(ctx context.Context, query, excludeID string, limit int64) ([]*User, error)
}
