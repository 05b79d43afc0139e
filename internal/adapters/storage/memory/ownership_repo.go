package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"diapets/internal/domain/ownership"
)

type memberKey struct {
	petID  string
	userID string
}

type ownershipRepo struct {
	mu    sync.RWMutex
	byKey map[memberKey]ownership.Membership
}

func NewOwnershipRepo() ownership.Repository {
	return &ownershipRepo{
		byKey: make(map[memberKey]ownership.Membership),
	}
}

func (r *ownershipRepo) Upsert(ctx context.Context, m ownership.Membership) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m.PetID == "" || m.UserID == "" {
		return errors.New("pet id and user id required")
	}
	k := memberKey{m.PetID, m.UserID}
	if prev, ok := r.byKey[k]; ok {
		m.CreatedAt = prev.CreatedAt
	}
	r.byKey[k] = m
	return nil
}

func (r *ownershipRepo) Get(ctx context.Context, petID, userID string) (ownership.Membership, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.byKey[memberKey{petID, userID}]
	if !ok {
		return ownership.Membership{}, ownership.ErrNotFound
	}
	return m, nil
}

func (r *ownershipRepo) ListByPet(ctx context.Context, petID string) ([]ownership.Membership, error) {
	return r.list(func(m ownership.Membership) bool { return m.PetID == petID }), nil
}

func (r *ownershipRepo) ListByUser(ctx context.Context, userID string) ([]ownership.Membership, error) {
	return r.list(func(m ownership.Membership) bool { return m.UserID == userID }), nil
}

func (r *ownershipRepo) list(match func(ownership.Membership) bool) []ownership.Membership {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ownership.Membership, 0)
	for _, m := range r.byKey {
		if match(m) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
