package ownership

import "context"

type Repository interface {
	// Upsert crea o actualiza el nivel de (PetID, UserID).
	Upsert(ctx context.Context, m Membership) error
	Get(ctx context.Context, petID, userID string) (Membership, error)
	ListByPet(ctx context.Context, petID string) ([]Membership, error)
	ListByUser(ctx context.Context, userID string) ([]Membership, error)
}
