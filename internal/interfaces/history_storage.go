package interfaces

import (
	"context"

	"github.com/ternarybob/nuntio/pkg/models"
)

// HistoryStorage persists publish outcomes so unattended runs can be
// audited and already-published sources skipped.
type HistoryStorage interface {
	// SaveRecord stores one publish outcome.
	SaveRecord(ctx context.Context, record *models.PublishRecord) error

	// ListRecords returns the most recent records, newest first.
	ListRecords(ctx context.Context, limit int) ([]models.PublishRecord, error)

	// HasPublished reports whether a successful publish exists for the
	// given source URL and target.
	HasPublished(ctx context.Context, sourceURL, target string) (bool, error)
}
