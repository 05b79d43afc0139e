package reminders

import (
	"context"
	"errors"
	"sync"
	"time"

	"diapets/internal/ports/push"
)

type fakeDoses struct {
	mu    sync.Mutex
	doses []LatestDose
	err   error
}

func (f *fakeDoses) LatestDoses(ctx context.Context) ([]LatestDose, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]LatestDose, len(f.doses))
	copy(out, f.doses)
	return out, nil
}

type fakeDirectory struct {
	pets       map[string]PetInfo
	caretakers map[string][]Caretaker
	err        error
}

func (f *fakeDirectory) GetPet(ctx context.Context, petID string) (PetInfo, error) {
	if f.err != nil {
		return PetInfo{}, f.err
	}
	p, ok := f.pets[petID]
	if !ok {
		return PetInfo{}, ErrPetDataUnavailable
	}
	return p, nil
}

func (f *fakeDirectory) Caretakers(ctx context.Context, petID string) ([]Caretaker, error) {
	return f.caretakers[petID], nil
}

type fakeTransport struct {
	mu      sync.Mutex
	fail    map[string]bool
	sent    []string
	batches int
}

func (f *fakeTransport) Send(ctx context.Context, addresses []string, msg push.Message) []push.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches++
	out := make([]push.Result, 0, len(addresses))
	for _, a := range addresses {
		f.sent = append(f.sent, a)
		if f.fail[a] {
			out = append(out, push.Result{Address: a, Err: errors.New("unregistered")})
			continue
		}
		out = append(out, push.Result{Address: a})
	}
	return out
}

func (f *fakeTransport) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

// memLedger es insert-if-absent bajo mutex, como el adapter de memoria.
type memLedger struct {
	mu        sync.Mutex
	keys      map[LedgerKey]struct{}
	failFor   map[string]bool // petID -> error al insertar
	existsErr error
}

func newMemLedger() *memLedger {
	return &memLedger{keys: map[LedgerKey]struct{}{}, failFor: map[string]bool{}}
}

func (l *memLedger) Exists(ctx context.Context, k LedgerKey) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.existsErr != nil {
		return false, l.existsErr
	}
	_, ok := l.keys[k]
	return ok, nil
}

func (l *memLedger) InsertIfAbsent(ctx context.Context, k LedgerKey) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failFor[k.PetID] {
		return false, errors.New("storage unavailable")
	}
	if _, ok := l.keys[k]; ok {
		return false, nil
	}
	l.keys[k] = struct{}{}
	return true, nil
}

func (l *memLedger) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.keys)
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func petIDs(due []DuePet) []string {
	out := make([]string, 0, len(due))
	for _, d := range due {
		out = append(out, d.PetID)
	}
	return out
}
