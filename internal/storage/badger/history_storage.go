package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/nuntio/internal/interfaces"
	"github.com/ternarybob/nuntio/pkg/models"
)

// HistoryStorage implements interfaces.HistoryStorage for Badger.
type HistoryStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewHistoryStorage creates a new HistoryStorage instance.
func NewHistoryStorage(db *BadgerDB, logger arbor.ILogger) interfaces.HistoryStorage {
	return &HistoryStorage{
		db:     db,
		logger: logger,
	}
}

// SaveRecord persists one publish outcome. A missing ID or timestamp is
// filled in.
func (s *HistoryStorage) SaveRecord(ctx context.Context, record *models.PublishRecord) error {
	if record == nil {
		return fmt.Errorf("record is required")
	}
	if record.Target == "" {
		return fmt.Errorf("record target is required")
	}
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	if err := s.db.Store().Upsert(record.ID, record); err != nil {
		return fmt.Errorf("failed to save publish record: %w", err)
	}
	return nil
}

// ListRecords returns publish outcomes, newest first.
func (s *HistoryStorage) ListRecords(ctx context.Context, limit int) ([]models.PublishRecord, error) {
	query := badgerhold.Where("ID").Ne("").SortBy("CreatedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var records []models.PublishRecord
	if err := s.db.Store().Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to list publish records: %w", err)
	}
	return records, nil
}

// HasPublished reports whether a source article already succeeded against
// a target. Failed attempts do not count; they may be retried by a later
// pipeline run.
func (s *HistoryStorage) HasPublished(ctx context.Context, sourceURL, target string) (bool, error) {
	if sourceURL == "" {
		return false, nil
	}

	count, err := s.db.Store().Count(&models.PublishRecord{},
		badgerhold.Where("SourceURL").Eq(sourceURL).And("Target").Eq(target).And("Succeeded").Eq(true))
	if err != nil {
		return false, fmt.Errorf("failed to check publish history: %w", err)
	}
	return count > 0, nil
}
