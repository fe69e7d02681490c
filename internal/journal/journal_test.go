package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestJournal_RecordAndRecent(t *testing.T) {
	j, err := Open(":memory:")
	require.NoError(t, err)
	defer func() { _ = j.Close() }()

	ctx := t.Context()
	start := time.UnixMilli(1_700_000_000_000)

	require.NoError(t, j.Record(ctx, Entry{
		BuildID: "b1", Kind: "full", Reason: "startup", Status: StatusSuccess,
		Rendered: 3, StartedAt: start, Duration: 40 * time.Millisecond,
	}))
	require.NoError(t, j.Record(ctx, Entry{
		BuildID: "b2", Kind: "targeted", Reason: "asset modified", Status: StatusFailed,
		Error: "boom", Rendered: 1, Skipped: 1, Files: []string{"/src/pages/a.md"},
		StartedAt: start.Add(time.Second), Duration: 5 * time.Millisecond,
	}))

	entries, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	newest := entries[0]
	require.Equal(t, "b2", newest.BuildID)
	require.Equal(t, StatusFailed, newest.Status)
	require.Equal(t, "boom", newest.Error)
	require.Equal(t, []string{"/src/pages/a.md"}, newest.Files)
	require.Equal(t, 5*time.Millisecond, newest.Duration)

	oldest := entries[1]
	require.Equal(t, "b1", oldest.BuildID)
	require.Empty(t, oldest.Files)
	require.True(t, start.Equal(oldest.StartedAt))
}

func TestJournal_RecentLimit(t *testing.T) {
	j, err := Open(":memory:")
	require.NoError(t, err)
	defer func() { _ = j.Close() }()

	for i := range 5 {
		require.NoError(t, j.Record(t.Context(), Entry{
			BuildID: string(rune('a' + i)), Kind: "full", Reason: "test", Status: StatusSuccess, StartedAt: time.Now(),
		}))
	}
	entries, err := j.Recent(t.Context(), 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "e", entries[0].BuildID)
}

func TestJournal_PersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	j, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Record(t.Context(), Entry{BuildID: "x", Kind: "full", Reason: "r", Status: StatusSuccess, StartedAt: time.Now()}))
	require.NoError(t, j.Close())

	j, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = j.Close() }()
	entries, err := j.Recent(t.Context(), 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "x", entries[0].BuildID)
}
