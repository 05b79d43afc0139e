package insulin

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"diapets/internal/domain/pets"
	"diapets/internal/platform/logger"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("insulin application not found")
	ErrPetNotFound  = errors.New("pet not found")
)

const (
	maxObservationsLen = 1000
	// tolerancia para relojes de dispositivos levemente adelantados
	maxClockSkew = 5 * time.Minute
	defaultLimit = 50
	maxLimit     = 200
)

// PetLookup es lo que insulin necesita de pets.
type PetLookup interface {
	GetByID(ctx context.Context, id string) (pets.Pet, error)
}

// MemberChecker responde si un usuario es owner o caretaker de la mascota.
type MemberChecker interface {
	IsMember(ctx context.Context, petID, userID string) (bool, error)
}

// Notifier avisa a los cuidadores que se registró una dosis.
// responsibleName puede venir vacío. Sus errores nunca hacen fallar el registro.
type Notifier interface {
	InsulinRegistered(ctx context.Context, petID, responsibleName string) error
}

type Service struct {
	repo     Repository
	pets     PetLookup
	members  MemberChecker
	notifier Notifier
	log      logger.Logger
	now      func() time.Time
}

func NewService(repo Repository, petLookup PetLookup, members MemberChecker, notifier Notifier, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:     repo,
		pets:     petLookup,
		members:  members,
		notifier: notifier,
		log:      log.With(map[string]any{"module": "insulin"}),
		now:      time.Now,
	}
}

type RegisterInput struct {
	PetID string
	// ResponsibleUserID es quien aplicó la dosis; vacío = quien registra.
	ResponsibleUserID string
	// ActorName es el nombre para mostrar de quien registra; solo se usa en el
	// push cuando además es el responsable.
	ActorName         string
	AppliedAt         time.Time // cero = ahora
	InsulinUnits      float64
	GlucoseLevel      *int
	Observations      string
}

// Register guarda la aplicación y notifica a los cuidadores de la mascota.
func (s *Service) Register(ctx context.Context, actorUserID string, in RegisterInput) (Application, error) {
	actorUserID = strings.TrimSpace(actorUserID)
	petID := strings.TrimSpace(in.PetID)
	responsible := strings.TrimSpace(in.ResponsibleUserID)
	if responsible == "" {
		responsible = actorUserID
	}

	if actorUserID == "" || petID == "" {
		return Application{}, ErrInvalidInput
	}

	now := s.now()
	appliedAt := in.AppliedAt
	if appliedAt.IsZero() {
		appliedAt = now
	}
	if err := validateDose(in.InsulinUnits, in.GlucoseLevel, in.Observations, appliedAt, now); err != nil {
		return Application{}, err
	}

	if _, err := s.loadPet(ctx, petID); err != nil {
		return Application{}, err
	}
	if err := s.requireMember(ctx, petID, actorUserID); err != nil {
		return Application{}, err
	}
	if responsible != actorUserID {
		if err := s.requireMember(ctx, petID, responsible); err != nil {
			return Application{}, err
		}
	}

	a := Application{
		ID:           uuid.NewString(),
		PetID:        petID,
		UserID:       responsible,
		AppliedAt:    appliedAt.UTC(),
		InsulinUnits: in.InsulinUnits,
		GlucoseLevel: in.GlucoseLevel,
		Observations: strings.TrimSpace(in.Observations),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return Application{}, err
	}

	s.log.Info("insulin registered", map[string]any{
		"pet_id":         petID,
		"application_id": a.ID,
		"user_id":        responsible,
		"units":          a.InsulinUnits,
	})

	if s.notifier != nil {
		name := ""
		if responsible == actorUserID {
			name = strings.TrimSpace(in.ActorName)
		}
		if err := s.notifier.InsulinRegistered(ctx, petID, name); err != nil {
			s.log.Warn("registration notification failed", map[string]any{
				"pet_id": petID,
				"error":  err,
			})
		}
	}

	return a, nil
}

type UpdateInput struct {
	AppliedAt    *time.Time
	InsulinUnits *float64
	GlucoseLevel *int
	Observations *string
}

// Update corrige una aplicación existente. Cambiar AppliedAt corre la próxima dosis.
func (s *Service) Update(ctx context.Context, actorUserID, id string, in UpdateInput) (Application, error) {
	a, err := s.getForMember(ctx, actorUserID, id)
	if err != nil {
		return Application{}, err
	}

	if in.AppliedAt != nil {
		a.AppliedAt = in.AppliedAt.UTC()
	}
	if in.InsulinUnits != nil {
		a.InsulinUnits = *in.InsulinUnits
	}
	if in.GlucoseLevel != nil {
		a.GlucoseLevel = in.GlucoseLevel
	}
	if in.Observations != nil {
		a.Observations = strings.TrimSpace(*in.Observations)
	}

	now := s.now()
	if err := validateDose(a.InsulinUnits, a.GlucoseLevel, a.Observations, a.AppliedAt, now); err != nil {
		return Application{}, err
	}
	a.UpdatedAt = now

	if err := s.repo.Update(ctx, a); err != nil {
		return Application{}, err
	}
	return a, nil
}

func (s *Service) Delete(ctx context.Context, actorUserID, id string) error {
	a, err := s.getForMember(ctx, actorUserID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, a.ID); err != nil {
		return err
	}
	s.log.Info("insulin application deleted", map[string]any{"pet_id": a.PetID, "application_id": a.ID})
	return nil
}

func (s *Service) GetByID(ctx context.Context, actorUserID, id string) (Application, error) {
	return s.getForMember(ctx, actorUserID, id)
}

func (s *Service) ListByPet(ctx context.Context, actorUserID, petID string, filter ListFilter) ([]Application, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return nil, ErrInvalidInput
	}
	if _, err := s.loadPet(ctx, petID); err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, petID, actorUserID); err != nil {
		return nil, err
	}
	if !filter.validRanges() {
		return nil, ErrInvalidInput
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}
	filter.UserID = strings.TrimSpace(filter.UserID)
	return s.repo.ListByPet(ctx, petID, filter)
}

// FilterBounds devuelve los extremos de fecha, unidades y glucosa de la mascota.
// ErrNotFound si todavía no tiene aplicaciones.
func (s *Service) FilterBounds(ctx context.Context, actorUserID, petID string) (FilterBounds, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return FilterBounds{}, ErrInvalidInput
	}
	if _, err := s.loadPet(ctx, petID); err != nil {
		return FilterBounds{}, err
	}
	if err := s.requireMember(ctx, petID, actorUserID); err != nil {
		return FilterBounds{}, err
	}
	return s.repo.FilterBounds(ctx, petID)
}

// Dashboard devuelve la última dosis y cuándo corresponde la próxima.
func (s *Service) Dashboard(ctx context.Context, actorUserID, petID string) (Dashboard, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return Dashboard{}, ErrInvalidInput
	}
	p, err := s.loadPet(ctx, petID)
	if err != nil {
		return Dashboard{}, err
	}
	if err := s.requireMember(ctx, petID, actorUserID); err != nil {
		return Dashboard{}, err
	}

	d := Dashboard{
		PetID:                 p.ID,
		PetName:               p.Name,
		InsulinFrequencyHours: p.InsulinFrequencyHours,
	}

	last, err := s.repo.Latest(ctx, petID)
	if errors.Is(err, ErrNotFound) {
		return d, nil
	}
	if err != nil {
		return Dashboard{}, err
	}

	next := last.AppliedAt.Add(p.Period())
	d.Last = &last
	d.NextDueAt = &next
	return d, nil
}

func (s *Service) loadPet(ctx context.Context, petID string) (pets.Pet, error) {
	p, err := s.pets.GetByID(ctx, petID)
	if errors.Is(err, pets.ErrNotFound) {
		return pets.Pet{}, ErrPetNotFound
	}
	if err != nil {
		return pets.Pet{}, err
	}
	return p, nil
}

func (s *Service) requireMember(ctx context.Context, petID, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrForbidden
	}
	ok, err := s.members.IsMember(ctx, petID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

func (s *Service) getForMember(ctx context.Context, actorUserID, id string) (Application, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Application{}, ErrInvalidInput
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Application{}, err
	}
	// Permisos primero sobre la mascota dueña del registro
	if err := s.requireMember(ctx, a.PetID, actorUserID); err != nil {
		return Application{}, err
	}
	return a, nil
}

func validateDose(units float64, glucose *int, observations string, appliedAt, now time.Time) error {
	if units <= 0 {
		return ErrInvalidInput
	}
	if glucose != nil && *glucose < 0 {
		return ErrInvalidInput
	}
	if len(strings.TrimSpace(observations)) > maxObservationsLen {
		return ErrInvalidInput
	}
	if appliedAt.After(now.Add(maxClockSkew)) {
		return ErrInvalidInput
	}
	return nil
}
