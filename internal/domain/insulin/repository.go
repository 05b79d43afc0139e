package insulin

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, a Application) error
	GetByID(ctx context.Context, id string) (Application, error)
	ListByPet(ctx context.Context, petID string, filter ListFilter) ([]Application, error)
	Update(ctx context.Context, a Application) error
	Delete(ctx context.Context, id string) error

	// Latest devuelve la aplicación más reciente (max AppliedAt) de la mascota.
	Latest(ctx context.Context, petID string) (Application, error)
	// LatestAll devuelve una fila por mascota con al menos una aplicación.
	// Empates en AppliedAt: CreatedAt más reciente, después el ID mayor.
	LatestAll(ctx context.Context) ([]Application, error)

	// FilterBounds devuelve ErrNotFound si la mascota no tiene aplicaciones.
	FilterBounds(ctx context.Context, petID string) (FilterBounds, error)
}

// ListFilter: rangos cerrados, nil = sin cota. Con cota de glucosa
// quedan afuera las aplicaciones sin glucosa medida.
type ListFilter struct {
	From   *time.Time
	To     *time.Time
	UserID string
	Limit  int

	MinUnits   *float64
	MaxUnits   *float64
	MinGlucose *int
	MaxGlucose *int
}

// Match evalúa el filtro sobre una aplicación (sin Limit).
func (f ListFilter) Match(a Application) bool {
	if f.UserID != "" && a.UserID != f.UserID {
		return false
	}
	if f.From != nil && a.AppliedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && a.AppliedAt.After(*f.To) {
		return false
	}
	if f.MinUnits != nil && a.InsulinUnits < *f.MinUnits {
		return false
	}
	if f.MaxUnits != nil && a.InsulinUnits > *f.MaxUnits {
		return false
	}
	if f.MinGlucose != nil || f.MaxGlucose != nil {
		if a.GlucoseLevel == nil {
			return false
		}
		g := *a.GlucoseLevel
		if (f.MinGlucose != nil && g < *f.MinGlucose) || (f.MaxGlucose != nil && g > *f.MaxGlucose) {
			return false
		}
	}
	return true
}

func (f ListFilter) validRanges() bool {
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return false
	}
	if f.MinUnits != nil && f.MaxUnits != nil && *f.MaxUnits < *f.MinUnits {
		return false
	}
	if f.MinGlucose != nil && f.MaxGlucose != nil && *f.MaxGlucose < *f.MinGlucose {
		return false
	}
	return true
}

// IsNewer reporta si a debe preferirse sobre b como "última aplicación".
// Lo comparten los repos para resolver empates igual que el SQL.
func IsNewer(a, b Application) bool {
	if !a.AppliedAt.Equal(b.AppliedAt) {
		return a.AppliedAt.After(b.AppliedAt)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}
