package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"diapets/internal/domain/devices"
)

type tokenKey struct {
	userID string
	token  string
}

type devicesRepo struct {
	mu    sync.RWMutex
	byKey map[tokenKey]devices.PushToken
}

func NewDevicesRepo() devices.Repository {
	return &devicesRepo{
		byKey: make(map[tokenKey]devices.PushToken),
	}
}

func (r *devicesRepo) Create(ctx context.Context, t devices.PushToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := tokenKey{t.UserID, t.Token}
	if _, exists := r.byKey[k]; exists {
		return errors.New("push token already exists")
	}
	r.byKey[k] = t
	return nil
}

func (r *devicesRepo) Find(ctx context.Context, userID, token string) (devices.PushToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.byKey[tokenKey{userID, token}]
	if !ok {
		return devices.PushToken{}, devices.ErrNotFound
	}
	return t, nil
}

func (r *devicesRepo) ListByUsers(ctx context.Context, userIDs []string) ([]devices.PushToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	want := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		want[id] = struct{}{}
	}

	out := make([]devices.PushToken, 0)
	for _, t := range r.byKey {
		if _, ok := want[t.UserID]; ok {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *devicesRepo) Delete(ctx context.Context, userID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := tokenKey{userID, token}
	if _, ok := r.byKey[k]; !ok {
		return devices.ErrNotFound
	}
	delete(r.byKey, k)
	return nil
}
