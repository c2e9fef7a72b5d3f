package memory_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	memstore "github.com/kbaah7/ultrascan-agent/internal/adapters/storage/memory"
	"github.com/kbaah7/ultrascan-agent/internal/domain"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := memstore.NewSessionStore()
	sess := domain.NewSession("s-1", time.Now())

	require.NoError(t, store.CreateSession(sess))
	assert.Error(t, store.CreateSession(sess))

	got, err := store.GetSession("s-1")
	require.NoError(t, err)
	assert.Same(t, sess, got)

	_, err = store.GetSession("missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	require.NoError(t, store.DeleteSession("s-1"))
	_, err = store.GetSession("s-1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.ErrorIs(t, store.DeleteSession("s-1"), domain.ErrSessionNotFound)
}

func TestRecordStoreLimitsToNewest(t *testing.T) {
	store := memstore.NewRecordStore()
	for i := 0; i < 5; i++ {
		require.NoError(t, store.AppendRecord(&domain.AnalysisRecord{
			ID:        domain.RecordID(string(rune('a' + i))),
			SessionID: "s-1",
			Diagnosis: domain.DiagnosisBenign,
		}))
	}

	all, err := store.ListRecordsBySession("s-1", 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	last2, err := store.ListRecordsBySession("s-1", 2)
	require.NoError(t, err)
	require.Len(t, last2, 2)
	assert.Equal(t, domain.RecordID("d"), last2[0].ID)
	assert.Equal(t, domain.RecordID("e"), last2[1].ID)

	none, err := store.ListRecordsBySession("other", 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}
