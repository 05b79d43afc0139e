package devices

import "context"

type Repository interface {
	Create(ctx context.Context, t PushToken) error
	// Find devuelve ErrNotFound si el usuario no tiene ese token.
	Find(ctx context.Context, userID, token string) (PushToken, error)
	ListByUsers(ctx context.Context, userIDs []string) ([]PushToken, error)
	Delete(ctx context.Context, userID, token string) error
}
