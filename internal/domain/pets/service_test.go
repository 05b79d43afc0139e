package pets

import (
	"context"
	"sort"
	"testing"
	"time"
)

type testRepo struct {
	byID map[string]Pet
}

func newTestRepo() *testRepo { return &testRepo{byID: map[string]Pet{}} }

func (r *testRepo) Create(ctx context.Context, p Pet) error {
	r.byID[p.ID] = p
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Pet, error) {
	p, ok := r.byID[id]
	if !ok {
		return Pet{}, ErrNotFound
	}
	return p, nil
}

func (r *testRepo) ListByIDs(ctx context.Context, ids []string) ([]Pet, error) {
	out := make([]Pet, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type testMembers struct {
	byUser map[string][]string
}

func (m *testMembers) AddOwner(ctx context.Context, petID, userID string) error {
	m.byUser[userID] = append(m.byUser[userID], petID)
	return nil
}

func (m *testMembers) PetIDsForUser(ctx context.Context, userID string) ([]string, error) {
	return m.byUser[userID], nil
}

func TestService_Create_RegistersOwner(t *testing.T) {
	repo := newTestRepo()
	members := &testMembers{byUser: map[string][]string{}}
	svc := NewService(repo, members, nil)

	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	p, err := svc.Create(context.Background(), "owner-1", CreateInput{
		Name:                  "  Mingau ",
		Species:               "cat",
		InsulinFrequencyHours: 12,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if p.Name != "Mingau" || p.Species != SpeciesCat {
		t.Fatalf("expected normalized name/species, got %q %q", p.Name, p.Species)
	}
	if p.Period() != 12*time.Hour {
		t.Fatalf("expected 12h period, got %s", p.Period())
	}

	list, err := svc.ListByUser(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("ListByUser error: %v", err)
	}
	if len(list) != 1 || list[0].ID != p.ID {
		t.Fatalf("expected created pet in owner list, got %+v", list)
	}
}

func TestService_Create_Validation(t *testing.T) {
	svc := NewService(newTestRepo(), &testMembers{byUser: map[string][]string{}}, nil)
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	future := now.Add(48 * time.Hour)

	cases := map[string]CreateInput{
		"empty name":     {Name: " ", Species: "DOG", InsulinFrequencyHours: 12},
		"bad species":    {Name: "Rex", Species: "FISH", InsulinFrequencyHours: 12},
		"zero frequency": {Name: "Rex", Species: "DOG", InsulinFrequencyHours: 0},
		"neg frequency":  {Name: "Rex", Species: "DOG", InsulinFrequencyHours: -2},
		"future birth":   {Name: "Rex", Species: "DOG", InsulinFrequencyHours: 12, BirthDate: &future},
	}

	for name, in := range cases {
		if _, err := svc.Create(context.Background(), "owner-1", in); err != ErrInvalidInput {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", name, err)
		}
	}
}

func TestService_ListByUser_UnknownUserIsEmpty(t *testing.T) {
	svc := NewService(newTestRepo(), &testMembers{byUser: map[string][]string{}}, nil)

	list, err := svc.ListByUser(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %d", len(list))
	}
}
