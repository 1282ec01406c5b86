package journal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveyor/internal/events"
	"surveyor/internal/survey"
)

func openMemory(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(Memory)
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestOpen_AppliesMigrations(t *testing.T) {
	j := openMemory(t)

	version, err := j.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, len(migrations), version)
	assert.NotEmpty(t, j.Session())

	n, err := j.SessionCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

func TestSummary(t *testing.T) {
	j := openMemory(t)

	summary, err := j.Summary()
	require.NoError(t, err)
	assert.Empty(t, summary)

	require.NoError(t, j.RecordBatch("Serbule", []survey.Survey{
		{Resource: "Salt", DX: 1},
		{Resource: "Quartz", DX: 2},
		{Resource: "Salt", DX: 3},
	}))
	require.NoError(t, j.RecordCollection(events.Collection{
		Zone:   "Serbule",
		Index:  1,
		Survey: survey.Survey{Resource: "Quartz", DX: 2, Found: true},
	}))

	summary, err = j.Summary()
	require.NoError(t, err)
	assert.Equal(t, []ResourceSummary{
		{Resource: "Quartz", Committed: 1, Collected: 1},
		{Resource: "Salt", Committed: 2, Collected: 0},
	}, summary)
}

func TestRecordBatch_Empty(t *testing.T) {
	j := openMemory(t)
	require.NoError(t, j.RecordBatch("Ilmari", nil))

	summary, err := j.Summary()
	require.NoError(t, err)
	assert.Empty(t, summary)
}

func TestAttach_RecordsBusEvents(t *testing.T) {
	j := openMemory(t)
	bus := events.NewBus()
	detach := j.Attach(bus)

	bus.Fire(events.Event{
		Type: events.BatchCommitted,
		Data: events.BatchCommit{Zone: "Eltibule", Surveys: []survey.Survey{{Resource: "Tin"}}},
	})
	bus.Fire(events.Event{
		Type: events.SurveyCollected,
		Data: events.Collection{Zone: "Eltibule", Survey: survey.Survey{Resource: "Tin", Found: true}},
	})
	j.Sync()

	summary, err := j.Summary()
	require.NoError(t, err)
	assert.Equal(t, []ResourceSummary{{Resource: "Tin", Committed: 1, Collected: 1}}, summary)

	detach()
	assert.Zero(t, bus.SubscriberCount(events.BatchCommitted))
	assert.Zero(t, bus.SubscriberCount(events.SurveyCollected))
}

func TestJournal_FilePersistsAcrossSessions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "journal.db")

	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.RecordBatch("Serbule", []survey.Survey{{Resource: "Salt"}}))
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	defer second.Close()

	assert.NotEqual(t, first.Session(), second.Session())
	n, err := second.SessionCount()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	summary, err := second.Summary()
	require.NoError(t, err)
	assert.Equal(t, []ResourceSummary{{Resource: "Salt", Committed: 1}}, summary)
}

func TestOpenReadOnly_RecordsNoSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	w, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, w.RecordBatch("Serbule", []survey.Survey{{Resource: "Salt"}}))
	require.NoError(t, w.Close())

	for i := 0; i < 3; i++ {
		r, err := OpenReadOnly(path)
		require.NoError(t, err)

		assert.Empty(t, r.Session())
		n, err := r.SessionCount()
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		summary, err := r.Summary()
		require.NoError(t, err)
		assert.Equal(t, []ResourceSummary{{Resource: "Salt", Committed: 1}}, summary)

		assert.Error(t, r.RecordBatch("Serbule", []survey.Survey{{Resource: "Tin"}}))
		require.NoError(t, r.Close())
	}
}

func TestOpenReadOnly_Missing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "journal.db")

	_, err := OpenReadOnly(path)
	assert.ErrorIs(t, err, ErrNotFound)

	_, statErr := os.Stat(filepath.Join(dir, "nested"))
	assert.True(t, os.IsNotExist(statErr))

	_, err = OpenReadOnly(Memory)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpenReadOnly_NotAJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, err := OpenReadOnly(path)
	assert.ErrorIs(t, err, ErrNotFound)
}
