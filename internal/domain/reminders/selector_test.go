package reminders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func newTestSelector(doses []LatestDose, ledger Ledger, now time.Time) *Selector {
	s := NewSelector(&fakeDoses{doses: doses}, ledger, nil)
	s.now = func() time.Time { return now }
	return s
}

func mustCriteria(t *testing.T, lead int, overdue bool, excluded ...string) Criteria {
	t.Helper()
	c, err := NewCriteria(lead, overdue, excluded...)
	require.NoError(t, err)
	return c
}

func TestElapsedMinutes_Floor(t *testing.T) {
	assert.Equal(t, 104, ElapsedMinutes(t0.Add(104*time.Minute+59*time.Second), t0))
	assert.Equal(t, 105, ElapsedMinutes(t0.Add(105*time.Minute), t0))
	assert.Equal(t, 0, ElapsedMinutes(t0.Add(30*time.Second), t0))
	assert.Equal(t, -1, ElapsedMinutes(t0.Add(-30*time.Second), t0))
	assert.Equal(t, -2, ElapsedMinutes(t0.Add(-2*time.Minute), t0))
}

func TestNewCriteria_NegativeLead(t *testing.T) {
	_, err := NewCriteria(-1, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	s := newTestSelector(nil, newMemLedger(), t0)
	_, err = s.SelectDuePets(context.Background(), Criteria{LeadMinutes: -5})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSelector_LeadTimeBoundary(t *testing.T) {
	doses := []LatestDose{{PetID: "pet-1", RecordID: "r1", AppliedAt: t0, FrequencyHours: 2}}
	c := mustCriteria(t, 15, false)

	cases := []struct {
		name    string
		elapsed time.Duration
		want    bool
	}{
		{"104m", 104 * time.Minute, false},
		{"104m59s", 104*time.Minute + 59*time.Second, false},
		{"105m", 105 * time.Minute, true},
		{"119m59s", 119*time.Minute + 59*time.Second, true},
		{"120m", 120 * time.Minute, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestSelector(doses, newMemLedger(), t0.Add(tc.elapsed))
			due, err := s.SelectDuePets(context.Background(), c)
			require.NoError(t, err)
			if tc.want {
				assert.Equal(t, []DuePet{{PetID: "pet-1", RecordID: "r1"}}, due)
			} else {
				assert.Empty(t, due)
			}
		})
	}
}

func TestSelector_Overdue(t *testing.T) {
	doses := []LatestDose{{PetID: "pet-1", RecordID: "r1", AppliedAt: t0, FrequencyHours: 2}}
	s := newTestSelector(doses, newMemLedger(), t0.Add(6*time.Hour))

	due, err := s.SelectDuePets(context.Background(), mustCriteria(t, 15, false))
	require.NoError(t, err)
	assert.Empty(t, due, "overdue pet must not be selected without includeOverdue")

	due, err = s.SelectDuePets(context.Background(), mustCriteria(t, 15, true))
	require.NoError(t, err)
	assert.Equal(t, []string{"pet-1"}, petIDs(due))

	due, err = s.SelectDuePets(context.Background(), mustCriteria(t, 0, true))
	require.NoError(t, err)
	assert.Equal(t, []string{"pet-1"}, petIDs(due))
}

func TestSelector_Exclusions(t *testing.T) {
	doses := []LatestDose{
		{PetID: "pet-1", RecordID: "r1", AppliedAt: t0, FrequencyHours: 2},
		{PetID: "pet-2", RecordID: "r2", AppliedAt: t0, FrequencyHours: 2},
	}
	s := newTestSelector(doses, newMemLedger(), t0.Add(110*time.Minute))

	all, err := s.SelectDuePets(context.Background(), Criteria{LeadMinutes: 15})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"pet-1", "pet-2"}, petIDs(all))

	empty, err := s.SelectDuePets(context.Background(), mustCriteria(t, 15, false, []string{}...))
	require.NoError(t, err)
	assert.ElementsMatch(t, petIDs(all), petIDs(empty), "empty exclusion set must exclude nothing")

	blank, err := s.SelectDuePets(context.Background(), mustCriteria(t, 15, false, "", " "))
	require.NoError(t, err)
	assert.ElementsMatch(t, petIDs(all), petIDs(blank))

	some, err := s.SelectDuePets(context.Background(), mustCriteria(t, 15, false, "pet-2"))
	require.NoError(t, err)
	assert.Equal(t, []string{"pet-1"}, petIDs(some))
}

func TestSelector_LedgerDedup(t *testing.T) {
	doses := []LatestDose{{PetID: "pet-1", RecordID: "r2", AppliedAt: t0, FrequencyHours: 2}}
	ledger := newMemLedger()
	s := newTestSelector(doses, ledger, t0.Add(110*time.Minute))

	// entrada de una dosis anterior no bloquea la dosis actual
	_, _ = ledger.InsertIfAbsent(context.Background(), LedgerKey{PetID: "pet-1", LeadMinutes: 15, RecordID: "r1"})
	due, err := s.SelectDuePets(context.Background(), mustCriteria(t, 15, false))
	require.NoError(t, err)
	assert.Len(t, due, 1)

	// entrada con otro lead time tampoco
	_, _ = ledger.InsertIfAbsent(context.Background(), LedgerKey{PetID: "pet-1", LeadMinutes: 0, RecordID: "r2"})
	due, err = s.SelectDuePets(context.Background(), mustCriteria(t, 15, false))
	require.NoError(t, err)
	assert.Len(t, due, 1)

	_, _ = ledger.InsertIfAbsent(context.Background(), LedgerKey{PetID: "pet-1", LeadMinutes: 15, RecordID: "r2"})
	for _, overdue := range []bool{false, true} {
		due, err = s.SelectDuePets(context.Background(), mustCriteria(t, 15, overdue))
		require.NoError(t, err)
		assert.Empty(t, due)
	}
}

func TestSelector_NoHistoryAndInvalidFrequency(t *testing.T) {
	// pet-0 no tiene dosis: no aparece en el snapshot y nunca se selecciona
	doses := []LatestDose{
		{PetID: "pet-bad", RecordID: "r1", AppliedAt: t0, FrequencyHours: 0},
	}
	s := newTestSelector(doses, newMemLedger(), t0.Add(10*time.Hour))

	due, err := s.SelectDuePets(context.Background(), mustCriteria(t, 1000, true))
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestSelector_ReadErrorsAreFatal(t *testing.T) {
	boom := errors.New("db down")

	s := NewSelector(&fakeDoses{err: boom}, newMemLedger(), nil)
	due, err := s.SelectDuePets(context.Background(), mustCriteria(t, 15, false))
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, due)

	ledger := newMemLedger()
	ledger.existsErr = boom
	s = newTestSelector([]LatestDose{{PetID: "pet-1", RecordID: "r1", AppliedAt: t0, FrequencyHours: 2}}, ledger, t0.Add(110*time.Minute))
	due, err = s.SelectDuePets(context.Background(), mustCriteria(t, 15, false))
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, due)
}

// Mascota con frecuencia 2h y última dosis en T.
func TestScenario_UpcomingThenOverdue(t *testing.T) {
	ctx := context.Background()
	clk := &clock{t: t0.Add(105 * time.Minute)}
	doses := &fakeDoses{doses: []LatestDose{{PetID: "pet-1", RecordID: "r1", AppliedAt: t0, FrequencyHours: 2}}}
	ledger := newMemLedger()
	dir := &fakeDirectory{
		pets:       map[string]PetInfo{"pet-1": {ID: "pet-1", Name: "Toby", FrequencyHours: 2}},
		caretakers: map[string][]Caretaker{"pet-1": {{UserID: "u1", PushAddresses: []string{"tok-1"}}}},
	}
	transport := &fakeTransport{}

	sel := NewSelector(doses, ledger, nil)
	sel.now = clk.now
	disp := NewDispatcher(dir, transport, ledger, nil)

	// T+105: entra en la ventana de 15 minutos
	due, err := sel.SelectDuePets(ctx, mustCriteria(t, 15, false))
	require.NoError(t, err)
	require.Equal(t, []string{"pet-1"}, petIDs(due))

	rep, err := disp.DispatchDue(ctx, due, 15)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Succeeded)
	assert.Equal(t, 1, rep.LedgerInserted)

	// T+106: ya notificada
	clk.set(t0.Add(106 * time.Minute))
	due, err = sel.SelectDuePets(ctx, mustCriteria(t, 15, false))
	require.NoError(t, err)
	assert.Empty(t, due)

	// T+121: atrasada
	clk.set(t0.Add(121 * time.Minute))
	due, err = sel.SelectDuePets(ctx, mustCriteria(t, 15, false))
	require.NoError(t, err)
	assert.Empty(t, due)

	due, err = sel.SelectDuePets(ctx, mustCriteria(t, 0, true))
	require.NoError(t, err)
	assert.Equal(t, []string{"pet-1"}, petIDs(due))

	// nueva dosis: nuevo evento, no la bloquea el ledger anterior
	doses.doses = []LatestDose{{PetID: "pet-1", RecordID: "r2", AppliedAt: t0.Add(121 * time.Minute), FrequencyHours: 2}}
	clk.set(t0.Add(121*time.Minute + 105*time.Minute))
	due, err = sel.SelectDuePets(ctx, mustCriteria(t, 15, false))
	require.NoError(t, err)
	assert.Equal(t, []DuePet{{PetID: "pet-1", RecordID: "r2"}}, due)
}
