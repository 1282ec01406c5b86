package capture

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, path string) []Entry {
	t.Helper()
	var out []Entry
	require.NoError(t, ReadFile(path, func(e Entry) error {
		out = append(out, e)
		return nil
	}))
	return out
}

func TestWriter_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)
	w.now = func() time.Time { return time.Date(2026, 3, 14, 18, 5, 0, 0, time.UTC) }

	require.NoError(t, w.Record("/logs/Chat-1.log", 0, 24, "Entering Area: Ilmari\r\n"))
	require.NoError(t, w.Record("/logs/Chat-1.log", 24, 30, "hello\n"))
	require.NoError(t, w.Close())

	files, err := Files(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, filepath.Join(dir, "capture-2026-03-14-18.jsonl.zst"), files[0])

	entries := readAll(t, files[0])
	require.Len(t, entries, 2)
	assert.Equal(t, "Entering Area: Ilmari\r\n", entries[0].Text)
	assert.Equal(t, int64(24), entries[1].From)
	assert.Equal(t, int64(30), entries[1].To)
}

func TestWriter_RotatesHourly(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)
	clock := time.Date(2026, 3, 14, 18, 59, 0, 0, time.UTC)
	w.now = func() time.Time { return clock }

	require.NoError(t, w.Record("a", 0, 1, "a"))
	clock = clock.Add(2 * time.Minute)
	require.NoError(t, w.Record("a", 1, 2, "b"))
	require.NoError(t, w.Close())

	files, err := Files(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Len(t, readAll(t, files[0]), 1)
	assert.Equal(t, "b", readAll(t, files[1])[0].Text)
}

func TestWriter_AppendsAfterReopen(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	for _, text := range []string{"first", "second"} {
		w := NewWriter(dir)
		w.now = func() time.Time { return at }
		require.NoError(t, w.Record("a", 0, 1, text))
		require.NoError(t, w.Close())
	}

	files, err := Files(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)

	entries := readAll(t, files[0])
	require.Len(t, entries, 2)
	assert.Equal(t, "second", entries[1].Text)
}
