package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/captura/internal/common"
	"github.com/ternarybob/captura/internal/models"
)

// HistoryStore persists capture run summaries in an embedded Badger store.
type HistoryStore struct {
	store  *badgerhold.Store
	logger arbor.ILogger
}

// OpenHistory opens (or creates) the run-history database at the configured
// path.
func OpenHistory(config common.HistoryConfig, logger arbor.ILogger) (*HistoryStore, error) {
	if err := os.MkdirAll(filepath.Dir(config.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = config.Path
	options.ValueDir = config.Path
	options.Logger = nil // use arbor instead of badger's default logger

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database at %s: %w", config.Path, err)
	}

	logger.Debug().Str("path", config.Path).Msg("Run history database opened")

	return &HistoryStore{
		store:  store,
		logger: logger,
	}, nil
}

// SaveRun stores one completed run record.
func (h *HistoryStore) SaveRun(record *models.RunRecord) error {
	if err := h.store.Insert(record.ID, record); err != nil {
		return fmt.Errorf("failed to save run record %s: %w", record.ID, err)
	}
	h.logger.Debug().Str("run_id", record.ID).Msg("Run record saved")
	return nil
}

// GetRun fetches one run record by ID. Returns nil when the record does not
// exist.
func (h *HistoryStore) GetRun(id string) (*models.RunRecord, error) {
	var record models.RunRecord
	if err := h.store.Get(id, &record); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run record %s: %w", id, err)
	}
	return &record, nil
}

// ListRuns returns run records most recent first, up to limit. A limit of 0
// returns all records.
func (h *HistoryStore) ListRuns(limit int) ([]*models.RunRecord, error) {
	var records []*models.RunRecord
	query := badgerhold.Where("ID").Ne("").SortBy("StartedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := h.store.Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to list run records: %w", err)
	}
	return records, nil
}

// Close closes the underlying database.
func (h *HistoryStore) Close() error {
	if h.store != nil {
		return h.store.Close()
	}
	return nil
}
