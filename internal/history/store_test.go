package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore_RecordAndRecent(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	ctx := t.Context()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i, status := range []string{"success", "failed", "success"} {
		require.NoError(t, store.Record(ctx, Run{
			BuildID:         "build-" + string(rune('a'+i)),
			StartedAt:       base.Add(time.Duration(i) * time.Minute),
			Duration:        1500 * time.Millisecond,
			Status:          status,
			DescriptorHash:  "abc",
			SidebarLinks:    25,
			PrecacheEntries: 10 + i,
			PrecacheBytes:   2048,
		}))
	}

	runs, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "build-c", runs[0].BuildID)
	assert.Equal(t, "build-b", runs[1].BuildID)
	assert.Equal(t, "failed", runs[1].Status)
	assert.Equal(t, 1500*time.Millisecond, runs[0].Duration)
	assert.True(t, base.Add(2*time.Minute).Equal(runs[0].StartedAt))
	assert.Equal(t, 12, runs[0].PrecacheEntries)
}

func TestSQLiteStore_DuplicateBuildID(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	run := Run{BuildID: "same", StartedAt: time.Now(), Status: "success"}
	require.NoError(t, store.Record(t.Context(), run))
	assert.Error(t, store.Record(t.Context(), run))
}

func TestSQLiteStore_PersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Record(t.Context(), Run{BuildID: "one", StartedAt: time.Now(), Status: "success", Error: ""}))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	runs, err := reopened.Recent(t.Context(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "one", runs[0].BuildID)
}
