package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/nuntio/pkg/models"
)

func testDB(t *testing.T) *BadgerDB {
	t.Helper()

	options := badgerhold.DefaultOptions
	options.Dir = t.TempDir()
	options.ValueDir = options.Dir
	options.Logger = nil

	store, err := badgerhold.Open(options)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return &BadgerDB{store: store, logger: arbor.NewLogger()}
}

func TestHistoryStorage_SaveFillsIDAndTimestamp(t *testing.T) {
	storage := NewHistoryStorage(testDB(t), arbor.NewLogger())

	record := &models.PublishRecord{Target: models.TargetBlog, Title: "Post"}
	require.NoError(t, storage.SaveRecord(context.Background(), record))

	assert.NotEmpty(t, record.ID)
	assert.False(t, record.CreatedAt.IsZero())
}

func TestHistoryStorage_SaveRejectsMissingTarget(t *testing.T) {
	storage := NewHistoryStorage(testDB(t), arbor.NewLogger())
	assert.Error(t, storage.SaveRecord(context.Background(), &models.PublishRecord{}))
	assert.Error(t, storage.SaveRecord(context.Background(), nil))
}

func TestHistoryStorage_ListNewestFirstWithLimit(t *testing.T) {
	storage := NewHistoryStorage(testDB(t), arbor.NewLogger())
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		require.NoError(t, storage.SaveRecord(ctx, &models.PublishRecord{
			Target:    models.TargetBlog,
			Title:     string(rune('a' + i)),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	records, err := storage.ListRecords(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "c", records[0].Title)
	assert.Equal(t, "b", records[1].Title)
}

func TestHistoryStorage_HasPublishedOnlyCountsSuccesses(t *testing.T) {
	storage := NewHistoryStorage(testDB(t), arbor.NewLogger())
	ctx := context.Background()

	require.NoError(t, storage.SaveRecord(ctx, &models.PublishRecord{
		Target:    models.TargetBlog,
		SourceURL: "https://news.example.com/a",
		Succeeded: false,
	}))

	published, err := storage.HasPublished(ctx, "https://news.example.com/a", models.TargetBlog)
	require.NoError(t, err)
	assert.False(t, published)

	require.NoError(t, storage.SaveRecord(ctx, &models.PublishRecord{
		Target:    models.TargetBlog,
		SourceURL: "https://news.example.com/a",
		Succeeded: true,
	}))

	published, err = storage.HasPublished(ctx, "https://news.example.com/a", models.TargetBlog)
	require.NoError(t, err)
	assert.True(t, published)

	// Different target is independent.
	published, err = storage.HasPublished(ctx, "https://news.example.com/a", models.TargetSocial)
	require.NoError(t, err)
	assert.False(t, published)
}

func TestHistoryStorage_HasPublishedEmptySourceURL(t *testing.T) {
	storage := NewHistoryStorage(testDB(t), arbor.NewLogger())
	published, err := storage.HasPublished(context.Background(), "", models.TargetBlog)
	require.NoError(t, err)
	assert.False(t, published)
}
