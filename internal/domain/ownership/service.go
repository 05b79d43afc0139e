package ownership

import (
	"context"
	"errors"
	"strings"
	"time"

	"diapets/internal/platform/logger"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("membership not found")
)

type Service struct {
	repo Repository
	log  logger.Logger
	now  func() time.Time
}

func NewService(repo Repository, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo: repo,
		log:  log.With(map[string]any{"module": "ownership"}),
		now:  time.Now,
	}
}

// AddOwner deja a userID como OWNER de la mascota. Lo usa pets al crear.
func (s *Service) AddOwner(ctx context.Context, petID, userID string) error {
	petID = strings.TrimSpace(petID)
	userID = strings.TrimSpace(userID)
	if petID == "" || userID == "" {
		return ErrInvalidInput
	}
	now := s.now()
	return s.repo.Upsert(ctx, Membership{
		PetID:     petID,
		UserID:    userID,
		Level:     LevelOwner,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

type AddInput struct {
	PetID       string
	ActorUserID string // quien agrega; debe ser OWNER
	UserID      string
	Level       Level
}

// Add agrega (o cambia el nivel de) un miembro. Solo un OWNER puede hacerlo.
// Idempotente: repetir la misma llamada deja el mismo estado.
func (s *Service) Add(ctx context.Context, in AddInput) (Membership, error) {
	petID := strings.TrimSpace(in.PetID)
	actorID := strings.TrimSpace(in.ActorUserID)
	userID := strings.TrimSpace(in.UserID)

	if petID == "" || actorID == "" || userID == "" {
		return Membership{}, ErrInvalidInput
	}

	level := Level(strings.ToUpper(strings.TrimSpace(string(in.Level))))
	if level == "" {
		level = LevelCaretaker
	}
	if !level.Valid() {
		return Membership{}, ErrInvalidInput
	}

	actor, err := s.repo.Get(ctx, petID, actorID)
	if err != nil || actor.Level != LevelOwner {
		return Membership{}, ErrForbidden
	}

	now := s.now()
	m, err := s.repo.Get(ctx, petID, userID)
	switch {
	case err == nil:
		if m.Level == level {
			return m, nil
		}
		// un owner no se degrada a sí mismo a caretaker
		if userID == actorID && level != LevelOwner {
			return Membership{}, ErrInvalidInput
		}
		m.Level = level
		m.UpdatedAt = now
	case errors.Is(err, ErrNotFound):
		m = Membership{
			PetID:     petID,
			UserID:    userID,
			Level:     level,
			CreatedAt: now,
			UpdatedAt: now,
		}
	default:
		return Membership{}, err
	}

	if err := s.repo.Upsert(ctx, m); err != nil {
		return Membership{}, err
	}

	s.log.Info("membership saved", map[string]any{"pet_id": petID, "user_id": userID, "level": string(level)})
	return m, nil
}

func (s *Service) ListByPet(ctx context.Context, petID string) ([]Membership, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByPet(ctx, petID)
}

// UserIDsForPet devuelve owners y caretakers de la mascota.
func (s *Service) UserIDsForPet(ctx context.Context, petID string) ([]string, error) {
	items, err := s.ListByPet(ctx, petID)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(items))
	for _, m := range items {
		out = append(out, m.UserID)
	}
	return out, nil
}

// PetIDsForUser implementa pets.Memberships.
func (s *Service) PetIDsForUser(ctx context.Context, userID string) ([]string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidInput
	}
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(items))
	for _, m := range items {
		out = append(out, m.PetID)
	}
	return out, nil
}

// IsMember responde si userID es owner o caretaker de petID.
func (s *Service) IsMember(ctx context.Context, petID, userID string) (bool, error) {
	petID = strings.TrimSpace(petID)
	userID = strings.TrimSpace(userID)
	if petID == "" || userID == "" {
		return false, nil
	}
	_, err := s.repo.Get(ctx, petID, userID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
