package insulin

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"diapets/internal/domain/pets"
)

type testRepo struct {
	byID map[string]Application
}

func newTestRepo() *testRepo { return &testRepo{byID: map[string]Application{}} }

func (r *testRepo) Create(ctx context.Context, a Application) error {
	r.byID[a.ID] = a
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Application, error) {
	a, ok := r.byID[id]
	if !ok {
		return Application{}, ErrNotFound
	}
	return a, nil
}

func (r *testRepo) ListByPet(ctx context.Context, petID string, filter ListFilter) ([]Application, error) {
	out := []Application{}
	for _, a := range r.byID {
		if a.PetID == petID && filter.Match(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return IsNewer(out[i], out[j]) })
	return out, nil
}

func (r *testRepo) Update(ctx context.Context, a Application) error {
	if _, ok := r.byID[a.ID]; !ok {
		return ErrNotFound
	}
	r.byID[a.ID] = a
	return nil
}

func (r *testRepo) Delete(ctx context.Context, id string) error {
	delete(r.byID, id)
	return nil
}

func (r *testRepo) Latest(ctx context.Context, petID string) (Application, error) {
	var best *Application
	for _, a := range r.byID {
		if a.PetID != petID {
			continue
		}
		if best == nil || IsNewer(a, *best) {
			cp := a
			best = &cp
		}
	}
	if best == nil {
		return Application{}, ErrNotFound
	}
	return *best, nil
}

func (r *testRepo) LatestAll(ctx context.Context) ([]Application, error) {
	return nil, nil
}

func (r *testRepo) FilterBounds(ctx context.Context, petID string) (FilterBounds, error) {
	var b FilterBounds
	n := 0
	for _, a := range r.byID {
		if a.PetID != petID {
			continue
		}
		if n == 0 || a.AppliedAt.Before(b.MinDate) {
			b.MinDate = a.AppliedAt
		}
		if n == 0 || a.AppliedAt.After(b.MaxDate) {
			b.MaxDate = a.AppliedAt
		}
		if n == 0 || a.InsulinUnits < b.MinUnits {
			b.MinUnits = a.InsulinUnits
		}
		if n == 0 || a.InsulinUnits > b.MaxUnits {
			b.MaxUnits = a.InsulinUnits
		}
		n++
	}
	if n == 0 {
		return FilterBounds{}, ErrNotFound
	}
	return b, nil
}

type testPets map[string]pets.Pet

func (p testPets) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	pet, ok := p[id]
	if !ok {
		return pets.Pet{}, pets.ErrNotFound
	}
	return pet, nil
}

// members: petID -> userIDs
type testMembers map[string][]string

func (m testMembers) IsMember(ctx context.Context, petID, userID string) (bool, error) {
	for _, u := range m[petID] {
		if u == userID {
			return true, nil
		}
	}
	return false, nil
}

type testNotifier struct {
	calls []string
	names []string
	err   error
}

func (n *testNotifier) InsulinRegistered(ctx context.Context, petID, responsibleName string) error {
	n.calls = append(n.calls, petID)
	n.names = append(n.names, responsibleName)
	return n.err
}

func newTestService(t *testing.T, now time.Time) (*Service, *testRepo, *testNotifier) {
	t.Helper()
	repo := newTestRepo()
	notifier := &testNotifier{}
	svc := NewService(
		repo,
		testPets{"pet-1": {ID: "pet-1", Name: "Toby", Species: pets.SpeciesDog, InsulinFrequencyHours: 12}},
		testMembers{"pet-1": {"owner-1", "caretaker-1"}},
		notifier,
		nil,
	)
	svc.now = func() time.Time { return now }
	return svc, repo, notifier
}

func TestService_Register_DefaultsAndNotifies(t *testing.T) {
	now := time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC)
	svc, repo, notifier := newTestService(t, now)

	a, err := svc.Register(context.Background(), "owner-1", RegisterInput{
		PetID:        "pet-1",
		InsulinUnits: 3.5,
		Observations: "  comió bien ",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if a.UserID != "owner-1" {
		t.Fatalf("expected responsible to default to actor, got %q", a.UserID)
	}
	if !a.AppliedAt.Equal(now) {
		t.Fatalf("expected AppliedAt=now, got %s", a.AppliedAt)
	}
	if a.Observations != "comió bien" {
		t.Fatalf("expected trimmed observations, got %q", a.Observations)
	}
	if _, ok := repo.byID[a.ID]; !ok {
		t.Fatalf("expected application persisted")
	}
	if len(notifier.calls) != 1 || notifier.calls[0] != "pet-1" {
		t.Fatalf("expected one notification for pet-1, got %v", notifier.calls)
	}
}

func TestService_Register_NotifierErrorDoesNotFail(t *testing.T) {
	now := time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC)
	svc, _, notifier := newTestService(t, now)
	notifier.err = errors.New("push down")

	if _, err := svc.Register(context.Background(), "caretaker-1", RegisterInput{
		PetID:        "pet-1",
		InsulinUnits: 2,
	}); err != nil {
		t.Fatalf("expected registration to succeed, got %v", err)
	}
}

func TestService_Register_Permissions(t *testing.T) {
	now := time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC)
	svc, _, notifier := newTestService(t, now)

	_, err := svc.Register(context.Background(), "stranger", RegisterInput{PetID: "pet-1", InsulinUnits: 2})
	if err != ErrForbidden {
		t.Fatalf("expected ErrForbidden for non member actor, got %v", err)
	}

	_, err = svc.Register(context.Background(), "owner-1", RegisterInput{
		PetID:             "pet-1",
		ResponsibleUserID: "stranger",
		InsulinUnits:      2,
	})
	if err != ErrForbidden {
		t.Fatalf("expected ErrForbidden for non member responsible, got %v", err)
	}

	_, err = svc.Register(context.Background(), "owner-1", RegisterInput{PetID: "missing", InsulinUnits: 2})
	if err != ErrPetNotFound {
		t.Fatalf("expected ErrPetNotFound, got %v", err)
	}

	if len(notifier.calls) != 0 {
		t.Fatalf("expected no notifications, got %v", notifier.calls)
	}
}

func TestService_Register_Validation(t *testing.T) {
	now := time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(t, now)
	neg := -1

	cases := map[string]RegisterInput{
		"zero units":    {PetID: "pet-1", InsulinUnits: 0},
		"neg glucose":   {PetID: "pet-1", InsulinUnits: 1, GlucoseLevel: &neg},
		"future dose":   {PetID: "pet-1", InsulinUnits: 1, AppliedAt: now.Add(time.Hour)},
		"missing petID": {InsulinUnits: 1},
	}
	for name, in := range cases {
		if _, err := svc.Register(context.Background(), "owner-1", in); err != ErrInvalidInput {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", name, err)
		}
	}
}

func TestService_Dashboard_NextDue(t *testing.T) {
	now := time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(t, now)

	d, err := svc.Dashboard(context.Background(), "owner-1", "pet-1")
	if err != nil {
		t.Fatalf("Dashboard error: %v", err)
	}
	if d.Last != nil || d.NextDueAt != nil {
		t.Fatalf("expected empty dashboard without doses, got %+v", d)
	}

	first := now.Add(-3 * time.Hour)
	if _, err := svc.Register(context.Background(), "owner-1", RegisterInput{PetID: "pet-1", InsulinUnits: 2, AppliedAt: first}); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	last := now.Add(-1 * time.Hour)
	if _, err := svc.Register(context.Background(), "owner-1", RegisterInput{PetID: "pet-1", InsulinUnits: 2, AppliedAt: last}); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	d, err = svc.Dashboard(context.Background(), "caretaker-1", "pet-1")
	if err != nil {
		t.Fatalf("Dashboard error: %v", err)
	}
	if d.Last == nil || !d.Last.AppliedAt.Equal(last) {
		t.Fatalf("expected last dose at %s, got %+v", last, d.Last)
	}
	want := last.Add(12 * time.Hour)
	if d.NextDueAt == nil || !d.NextDueAt.Equal(want) {
		t.Fatalf("expected next due %s, got %v", want, d.NextDueAt)
	}

	if _, err := svc.Dashboard(context.Background(), "stranger", "pet-1"); err != ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestService_UpdateAndDelete(t *testing.T) {
	now := time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC)
	svc, repo, _ := newTestService(t, now)

	a, err := svc.Register(context.Background(), "owner-1", RegisterInput{PetID: "pet-1", InsulinUnits: 2})
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	units := 4.0
	corrected := now.Add(-30 * time.Minute)
	updated, err := svc.Update(context.Background(), "caretaker-1", a.ID, UpdateInput{
		InsulinUnits: &units,
		AppliedAt:    &corrected,
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if updated.InsulinUnits != 4 || !updated.AppliedAt.Equal(corrected) {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	zero := 0.0
	if _, err := svc.Update(context.Background(), "owner-1", a.ID, UpdateInput{InsulinUnits: &zero}); err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if err := svc.Delete(context.Background(), "stranger", a.ID); err != ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := svc.Delete(context.Background(), "owner-1", a.ID); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, ok := repo.byID[a.ID]; ok {
		t.Fatalf("expected application removed")
	}
}

func TestIsNewer_TieBreak(t *testing.T) {
	at := time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC)

	a := Application{ID: "a", AppliedAt: at, CreatedAt: at}
	b := Application{ID: "b", AppliedAt: at, CreatedAt: at}
	if !IsNewer(b, a) || IsNewer(a, b) {
		t.Fatalf("expected greater id to win on full tie")
	}

	c := Application{ID: "a", AppliedAt: at, CreatedAt: at.Add(time.Second)}
	if !IsNewer(c, b) {
		t.Fatalf("expected later CreatedAt to win over id")
	}

	d := Application{ID: "0", AppliedAt: at.Add(time.Minute)}
	if !IsNewer(d, c) {
		t.Fatalf("expected later AppliedAt to win")
	}
}

func TestService_ListByPet_RangeFilters(t *testing.T) {
	now := time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(t, now)
	g := func(v int) *int { return &v }

	for i, in := range []RegisterInput{
		{PetID: "pet-1", InsulinUnits: 2, GlucoseLevel: g(120)},
		{PetID: "pet-1", InsulinUnits: 4, GlucoseLevel: g(310)},
		{PetID: "pet-1", InsulinUnits: 6},
	} {
		in.AppliedAt = now.Add(-time.Duration(3-i) * time.Hour)
		if _, err := svc.Register(context.Background(), "owner-1", in); err != nil {
			t.Fatalf("Register error: %v", err)
		}
	}

	minU, maxU := 3.0, 6.0
	got, err := svc.ListByPet(context.Background(), "owner-1", "pet-1", ListFilter{MinUnits: &minU, MaxUnits: &maxU})
	if err != nil {
		t.Fatalf("ListByPet error: %v", err)
	}
	if len(got) != 2 || got[0].InsulinUnits != 6 || got[1].InsulinUnits != 4 {
		t.Fatalf("expected the 6u and 4u doses, got %+v", got)
	}

	got, err = svc.ListByPet(context.Background(), "owner-1", "pet-1", ListFilter{MinGlucose: g(100)})
	if err != nil {
		t.Fatalf("ListByPet error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected doses without glucose to be left out, got %+v", got)
	}

	got, err = svc.ListByPet(context.Background(), "owner-1", "pet-1", ListFilter{MaxGlucose: g(200)})
	if err != nil {
		t.Fatalf("ListByPet error: %v", err)
	}
	if len(got) != 1 || *got[0].GlucoseLevel != 120 {
		t.Fatalf("expected only the 120 mg/dL dose, got %+v", got)
	}

	if _, err := svc.ListByPet(context.Background(), "owner-1", "pet-1", ListFilter{MinUnits: &maxU, MaxUnits: &minU}); err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput for inverted units range, got %v", err)
	}
	if _, err := svc.ListByPet(context.Background(), "owner-1", "pet-1", ListFilter{MinGlucose: g(300), MaxGlucose: g(100)}); err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput for inverted glucose range, got %v", err)
	}
}

func TestService_FilterBounds(t *testing.T) {
	now := time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(t, now)

	if _, err := svc.FilterBounds(context.Background(), "owner-1", "pet-1"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound without applications, got %v", err)
	}

	first := now.Add(-5 * time.Hour)
	for _, in := range []RegisterInput{
		{PetID: "pet-1", InsulinUnits: 3, AppliedAt: first},
		{PetID: "pet-1", InsulinUnits: 1.5, AppliedAt: now.Add(-time.Hour)},
	} {
		if _, err := svc.Register(context.Background(), "owner-1", in); err != nil {
			t.Fatalf("Register error: %v", err)
		}
	}

	b, err := svc.FilterBounds(context.Background(), "caretaker-1", "pet-1")
	if err != nil {
		t.Fatalf("FilterBounds error: %v", err)
	}
	if !b.MinDate.Equal(first) || !b.MaxDate.Equal(now.Add(-time.Hour)) {
		t.Fatalf("unexpected date bounds: %+v", b)
	}
	if b.MinUnits != 1.5 || b.MaxUnits != 3 {
		t.Fatalf("unexpected unit bounds: %+v", b)
	}

	if _, err := svc.FilterBounds(context.Background(), "stranger", "pet-1"); err != ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.FilterBounds(context.Background(), "owner-1", "missing"); err != ErrPetNotFound {
		t.Fatalf("expected ErrPetNotFound, got %v", err)
	}
}

func TestService_Register_NotifiesResponsibleName(t *testing.T) {
	now := time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC)
	svc, _, notifier := newTestService(t, now)

	if _, err := svc.Register(context.Background(), "owner-1", RegisterInput{
		PetID:        "pet-1",
		ActorName:    "Ana",
		InsulinUnits: 2,
	}); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	// otro responsable: no conocemos su nombre
	if _, err := svc.Register(context.Background(), "owner-1", RegisterInput{
		PetID:             "pet-1",
		ResponsibleUserID: "caretaker-1",
		ActorName:         "Ana",
		InsulinUnits:      2,
	}); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	if len(notifier.names) != 2 || notifier.names[0] != "Ana" || notifier.names[1] != "" {
		t.Fatalf("unexpected responsible names: %q", notifier.names)
	}
}
