package memory

import (
	"context"
	"sync"

	"diapets/internal/domain/reminders"
)

// LedgerRepo es el ledger de notificaciones en memoria.
// El check-and-insert corre bajo el mismo lock, así que es idempotente
// entre goroutines (no entre procesos).
type LedgerRepo struct {
	mu   sync.Mutex
	keys map[reminders.LedgerKey]struct{}
}

func NewLedgerRepo() *LedgerRepo {
	return &LedgerRepo{keys: make(map[reminders.LedgerKey]struct{})}
}

func (r *LedgerRepo) Exists(ctx context.Context, k reminders.LedgerKey) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.keys[k]
	return ok, nil
}

func (r *LedgerRepo) InsertIfAbsent(ctx context.Context, k reminders.LedgerKey) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.keys[k]; ok {
		return false, nil
	}
	r.keys[k] = struct{}{}
	return true, nil
}
