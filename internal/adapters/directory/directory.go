package directory

import (
	"context"
	"errors"
	"fmt"

	"diapets/internal/domain/devices"
	"diapets/internal/domain/insulin"
	"diapets/internal/domain/ownership"
	"diapets/internal/domain/pets"
	"diapets/internal/domain/reminders"
)

// Directory implementa reminders.Directory y reminders.DosingStore sobre los
// repos de dominio, sea cual sea el backend (memoria o Postgres).
type Directory struct {
	pets    pets.Repository
	members ownership.Repository
	tokens  devices.Repository
	doses   insulin.Repository
}

var (
	_ reminders.Directory   = (*Directory)(nil)
	_ reminders.DosingStore = (*Directory)(nil)
)

func New(petRepo pets.Repository, members ownership.Repository, tokens devices.Repository, doses insulin.Repository) *Directory {
	return &Directory{
		pets:    petRepo,
		members: members,
		tokens:  tokens,
		doses:   doses,
	}
}

func (d *Directory) GetPet(ctx context.Context, petID string) (reminders.PetInfo, error) {
	p, err := d.pets.GetByID(ctx, petID)
	if errors.Is(err, pets.ErrNotFound) {
		return reminders.PetInfo{}, fmt.Errorf("%w: pet %s", reminders.ErrPetDataUnavailable, petID)
	}
	if err != nil {
		return reminders.PetInfo{}, err
	}
	return reminders.PetInfo{ID: p.ID, Name: p.Name, FrequencyHours: p.InsulinFrequencyHours}, nil
}

// Caretakers devuelve owners y caretakers con sus tokens push.
func (d *Directory) Caretakers(ctx context.Context, petID string) ([]reminders.Caretaker, error) {
	members, err := d.members.ListByPet(ctx, petID)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return []reminders.Caretaker{}, nil
	}

	userIDs := make([]string, 0, len(members))
	for _, m := range members {
		userIDs = append(userIDs, m.UserID)
	}

	tokens, err := d.tokens.ListByUsers(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	byUser := make(map[string][]string, len(userIDs))
	for _, t := range tokens {
		byUser[t.UserID] = append(byUser[t.UserID], t.Token)
	}

	out := make([]reminders.Caretaker, 0, len(userIDs))
	for _, id := range userIDs {
		out = append(out, reminders.Caretaker{UserID: id, PushAddresses: byUser[id]})
	}
	return out, nil
}

// LatestDoses arma el snapshot del selector: última dosis por mascota + frecuencia.
// Mascotas borradas entre ambas lecturas quedan afuera.
func (d *Directory) LatestDoses(ctx context.Context) ([]reminders.LatestDose, error) {
	latest, err := d.doses.LatestAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(latest) == 0 {
		return []reminders.LatestDose{}, nil
	}

	ids := make([]string, 0, len(latest))
	for _, a := range latest {
		ids = append(ids, a.PetID)
	}
	found, err := d.pets.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	freq := make(map[string]int, len(found))
	for _, p := range found {
		freq[p.ID] = p.InsulinFrequencyHours
	}

	out := make([]reminders.LatestDose, 0, len(latest))
	for _, a := range latest {
		f, ok := freq[a.PetID]
		if !ok {
			continue
		}
		out = append(out, reminders.LatestDose{
			PetID:          a.PetID,
			RecordID:       a.ID,
			AppliedAt:      a.AppliedAt,
			FrequencyHours: f,
		})
	}
	return out, nil
}
