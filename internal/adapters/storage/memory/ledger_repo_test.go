package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diapets/internal/domain/reminders"
)

func TestLedgerRepo_InsertIfAbsent(t *testing.T) {
	ctx := context.Background()
	l := NewLedgerRepo()
	k := reminders.LedgerKey{PetID: "p1", LeadMinutes: 15, RecordID: "r1"}

	ok, err := l.Exists(ctx, k)
	require.NoError(t, err)
	assert.False(t, ok)

	inserted, err := l.InsertIfAbsent(ctx, k)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = l.InsertIfAbsent(ctx, k)
	require.NoError(t, err)
	assert.False(t, inserted)

	// otro lead time es otra clave
	inserted, err = l.InsertIfAbsent(ctx, reminders.LedgerKey{PetID: "p1", LeadMinutes: 0, RecordID: "r1"})
	require.NoError(t, err)
	assert.True(t, inserted)

	ok, err = l.Exists(ctx, k)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLedgerRepo_ConcurrentInsert(t *testing.T) {
	l := NewLedgerRepo()
	k := reminders.LedgerKey{PetID: "p1", LeadMinutes: 15, RecordID: "r1"}

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := l.InsertIfAbsent(context.Background(), k)
			assert.NoError(t, err)
			if ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins)
	ok, err := l.Exists(context.Background(), k)
	require.NoError(t, err)
	assert.True(t, ok)
}
