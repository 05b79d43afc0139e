package memory

import (
	"context"
	"errors"
	"strings"
	"sync"

	"diapets/internal/domain/pets"
)

var errPetExists = errors.New("pet already exists")

// petStore guarda copias: BirthDate es puntero y no debe quedar compartido
// con el llamador.
type petStore struct {
	mu   sync.RWMutex
	pets map[string]pets.Pet
}

func NewPetRepo() pets.Repository {
	return &petStore{pets: map[string]pets.Pet{}}
}

func (s *petStore) Create(ctx context.Context, p pets.Pet) error {
	id := strings.TrimSpace(p.ID)
	if id == "" {
		return pets.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.pets[id]; taken {
		return errPetExists
	}
	p.ID = id
	s.pets[id] = clonePet(p)
	return nil
}

func (s *petStore) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	s.mu.RLock()
	p, ok := s.pets[strings.TrimSpace(id)]
	s.mu.RUnlock()
	if !ok {
		return pets.Pet{}, pets.ErrNotFound
	}
	return clonePet(p), nil
}

// ListByIDs ignora repetidos y los ids que no existen.
func (s *petStore) ListByIDs(ctx context.Context, ids []string) ([]pets.Pet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]pets.Pet, 0, len(ids))
	emitted := map[string]bool{}
	for _, id := range ids {
		if emitted[id] {
			continue
		}
		p, ok := s.pets[id]
		if !ok {
			continue
		}
		emitted[id] = true
		out = append(out, clonePet(p))
	}
	return out, nil
}

func clonePet(p pets.Pet) pets.Pet {
	if p.BirthDate != nil {
		bd := *p.BirthDate
		p.BirthDate = &bd
	}
	return p
}
