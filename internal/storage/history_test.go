package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/captura/internal/common"
	"github.com/ternarybob/captura/internal/models"
)

func openTestHistory(t *testing.T) *HistoryStore {
	t.Helper()

	config := common.HistoryConfig{
		Enabled: true,
		Path:    filepath.Join(t.TempDir(), "history"),
	}
	store, err := OpenHistory(config, arbor.NewLogger())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testRecord(id string, startedAt time.Time) *models.RunRecord {
	return &models.RunRecord{
		ID:        id,
		StartedAt: startedAt,
		Duration:  90 * time.Second,
		Folder:    "results/01-01-2026-10-00-00",
		Total:     2,
		Succeeded: 1,
		Failed:    1,
		Outcomes: []models.CaptureOutcome{
			{URL: "https://a.example.com", Folder: "a", Success: true},
			{URL: "https://b.example.com", Folder: "b", Error: "HTTP 404 returned"},
		},
	}
}

func TestHistoryRoundTrip(t *testing.T) {
	store := openTestHistory(t)

	record := testRecord("run-1", time.Now().UTC().Truncate(time.Second))
	require.NoError(t, store.SaveRun(record))

	got, err := store.GetRun("run-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, record.Total, got.Total)
	assert.Equal(t, record.Failed, got.Failed)
	require.Len(t, got.Outcomes, 2)
	assert.Equal(t, "HTTP 404 returned", got.Outcomes[1].Error)
}

func TestHistoryGetMissingReturnsNil(t *testing.T) {
	store := openTestHistory(t)

	got, err := store.GetRun("nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestHistoryListMostRecentFirst(t *testing.T) {
	store := openTestHistory(t)

	base := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.SaveRun(testRecord("run-old", base.Add(-2*time.Hour))))
	require.NoError(t, store.SaveRun(testRecord("run-mid", base.Add(-1*time.Hour))))
	require.NoError(t, store.SaveRun(testRecord("run-new", base)))

	records, err := store.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "run-new", records[0].ID)
	assert.Equal(t, "run-mid", records[1].ID)
	assert.Equal(t, "run-old", records[2].ID)

	limited, err := store.ListRuns(2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}
