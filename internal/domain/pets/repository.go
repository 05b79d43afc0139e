package pets

import "context"

type Repository interface {
	Create(ctx context.Context, p Pet) error
	GetByID(ctx context.Context, id string) (Pet, error)
	ListByIDs(ctx context.Context, ids []string) ([]Pet, error)
}

// Memberships es lo que pets necesita del módulo ownership.
// Se define acá para evitar ciclos de imports (pets <-> ownership).
type Memberships interface {
	AddOwner(ctx context.Context, petID, userID string) error
	PetIDsForUser(ctx context.Context, userID string) ([]string, error)
}
