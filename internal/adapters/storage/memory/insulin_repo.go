package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"diapets/internal/domain/insulin"
)

type insulinRepo struct {
	mu   sync.RWMutex
	byID map[string]insulin.Application
}

func NewInsulinRepo() insulin.Repository {
	return &insulinRepo{
		byID: make(map[string]insulin.Application),
	}
}

func (r *insulinRepo) Create(ctx context.Context, a insulin.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a.ID == "" {
		return errors.New("application id required")
	}
	if _, exists := r.byID[a.ID]; exists {
		return errors.New("application already exists")
	}

	r.byID[a.ID] = a
	return nil
}

func (r *insulinRepo) GetByID(ctx context.Context, id string) (insulin.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return insulin.Application{}, insulin.ErrNotFound
	}
	return a, nil
}

func (r *insulinRepo) ListByPet(ctx context.Context, petID string, filter insulin.ListFilter) ([]insulin.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	out := make([]insulin.Application, 0)

	for _, a := range r.byID {
		if a.PetID == petID && filter.Match(a) {
			out = append(out, a)
		}
	}

	// Más reciente primero, mismo desempate que Latest
	sort.Slice(out, func(i, j int) bool {
		return insulin.IsNewer(out[i], out[j])
	})

	if len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

func (r *insulinRepo) Update(ctx context.Context, a insulin.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[a.ID]; !ok {
		return insulin.ErrNotFound
	}
	r.byID[a.ID] = a
	return nil
}

func (r *insulinRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return insulin.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *insulinRepo) Latest(ctx context.Context, petID string) (insulin.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		best insulin.Application
		has  bool
	)
	for _, a := range r.byID {
		if a.PetID != petID {
			continue
		}
		if !has || insulin.IsNewer(a, best) {
			best = a
			has = true
		}
	}
	if !has {
		return insulin.Application{}, insulin.ErrNotFound
	}
	return best, nil
}

func (r *insulinRepo) LatestAll(ctx context.Context) ([]insulin.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byPet := make(map[string]insulin.Application)
	for _, a := range r.byID {
		if cur, ok := byPet[a.PetID]; !ok || insulin.IsNewer(a, cur) {
			byPet[a.PetID] = a
		}
	}

	out := make([]insulin.Application, 0, len(byPet))
	for _, a := range byPet {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PetID < out[j].PetID })
	return out, nil
}

func (r *insulinRepo) FilterBounds(ctx context.Context, petID string) (insulin.FilterBounds, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		b   insulin.FilterBounds
		has bool
	)
	for _, a := range r.byID {
		if a.PetID != petID {
			continue
		}
		if !has {
			b.MinDate, b.MaxDate = a.AppliedAt, a.AppliedAt
			b.MinUnits, b.MaxUnits = a.InsulinUnits, a.InsulinUnits
			has = true
		}
		if a.AppliedAt.Before(b.MinDate) {
			b.MinDate = a.AppliedAt
		}
		if a.AppliedAt.After(b.MaxDate) {
			b.MaxDate = a.AppliedAt
		}
		b.MinUnits = min(b.MinUnits, a.InsulinUnits)
		b.MaxUnits = max(b.MaxUnits, a.InsulinUnits)
		if a.GlucoseLevel != nil {
			g := *a.GlucoseLevel
			if b.MinGlucose == nil || g < *b.MinGlucose {
				b.MinGlucose = &g
			}
			if b.MaxGlucose == nil || g > *b.MaxGlucose {
				gm := g
				b.MaxGlucose = &gm
			}
		}
	}
	if !has {
		return insulin.FilterBounds{}, insulin.ErrNotFound
	}
	return b, nil
}
