package pets

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"diapets/internal/platform/logger"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("pet not found")
)

const maxNameLen = 100

type Service struct {
	repo    Repository
	members Memberships
	log     logger.Logger
	now     func() time.Time
}

func NewService(repo Repository, members Memberships, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:    repo,
		members: members,
		log:     log.With(map[string]any{"module": "pets"}),
		now:     time.Now,
	}
}

type CreateInput struct {
	Name                  string
	Species               string
	BirthDate             *time.Time
	InsulinFrequencyHours int
}

// Create registra la mascota y deja al creador como OWNER.
func (s *Service) Create(ctx context.Context, ownerUserID string, in CreateInput) (Pet, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	name := strings.TrimSpace(in.Name)
	species := Species(strings.ToUpper(strings.TrimSpace(in.Species)))

	if ownerUserID == "" || name == "" || len(name) > maxNameLen {
		return Pet{}, ErrInvalidInput
	}
	if !species.Valid() {
		return Pet{}, ErrInvalidInput
	}
	if in.InsulinFrequencyHours <= 0 {
		return Pet{}, ErrInvalidInput
	}

	now := s.now()
	if in.BirthDate != nil && in.BirthDate.After(now) {
		return Pet{}, ErrInvalidInput
	}

	p := Pet{
		ID:                    uuid.NewString(),
		Name:                  name,
		Species:               species,
		BirthDate:             in.BirthDate,
		InsulinFrequencyHours: in.InsulinFrequencyHours,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return Pet{}, err
	}
	if s.members != nil {
		if err := s.members.AddOwner(ctx, p.ID, ownerUserID); err != nil {
			return Pet{}, err
		}
	}

	s.log.Info("pet created", map[string]any{"pet_id": p.ID, "owner_user_id": ownerUserID})
	return p, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Pet{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

// ListByUser devuelve las mascotas donde el usuario es OWNER o CARETAKER,
// ordenadas por nombre.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]Pet, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" || s.members == nil {
		return []Pet{}, nil
	}
	ids, err := s.members.PetIDsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []Pet{}, nil
	}
	list, err := s.repo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}
