package reminders

import "context"

// DosingStore entrega el snapshot de últimas dosis de todas las mascotas
// que tienen al menos una aplicación registrada.
type DosingStore interface {
	LatestDoses(ctx context.Context) ([]LatestDose, error)
}

// Directory resuelve mascotas y cuidadores con sus direcciones push.
// Si la mascota ya no existe devuelve un error que envuelve ErrPetDataUnavailable.
type Directory interface {
	GetPet(ctx context.Context, petID string) (PetInfo, error)
	Caretakers(ctx context.Context, petID string) ([]Caretaker, error)
}

// Ledger registra las notificaciones ya enviadas.
// InsertIfAbsent debe ser idempotente sobre la clave completa:
// una violación de unicidad es "ya existía" (false, nil), no un error.
type Ledger interface {
	Exists(ctx context.Context, key LedgerKey) (bool, error)
	InsertIfAbsent(ctx context.Context, key LedgerKey) (bool, error)
}
