package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/nuntio/pkg/models"
)

// mockHistoryStorage implements interfaces.HistoryStorage for testing
type mockHistoryStorage struct {
	records   []models.PublishRecord
	err       error
	gotLimit  int
	published map[string]bool
}

func (m *mockHistoryStorage) SaveRecord(ctx context.Context, record *models.PublishRecord) error {
	return nil
}

func (m *mockHistoryStorage) ListRecords(ctx context.Context, limit int) ([]models.PublishRecord, error) {
	m.gotLimit = limit
	return m.records, m.err
}

func (m *mockHistoryStorage) HasPublished(ctx context.Context, sourceURL, target string) (bool, error) {
	return m.published[sourceURL], nil
}

func TestHistoryListHandler_ReturnsRecords(t *testing.T) {
	storage := &mockHistoryStorage{records: []models.PublishRecord{
		{ID: "1", Target: models.TargetBlog, Title: "First", Succeeded: true},
		{ID: "2", Target: models.TargetSocial, Title: "Second", Succeeded: false, FailureKind: "PostButtonTimeout"},
	}}
	h := NewHistoryHandler(storage, arbor.NewLogger())

	req := httptest.NewRequest("GET", "/api/history", nil)
	rec := httptest.NewRecorder()
	h.ListHandler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Count   int                    `json:"count"`
		Records []models.PublishRecord `json:"records"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, 2, out.Count)
	assert.Equal(t, "First", out.Records[0].Title)
	assert.Equal(t, 50, storage.gotLimit, "default limit")
}

func TestHistoryListHandler_LimitParam(t *testing.T) {
	storage := &mockHistoryStorage{}
	h := NewHistoryHandler(storage, arbor.NewLogger())

	req := httptest.NewRequest("GET", "/api/history?limit=5", nil)
	rec := httptest.NewRecorder()
	h.ListHandler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, storage.gotLimit)
}

func TestHistoryListHandler_LimitCeiling(t *testing.T) {
	storage := &mockHistoryStorage{}
	h := NewHistoryHandler(storage, arbor.NewLogger())

	req := httptest.NewRequest("GET", "/api/history?limit=99999", nil)
	rec := httptest.NewRecorder()
	h.ListHandler(rec, req)

	assert.Equal(t, 500, storage.gotLimit)
}

func TestHistoryListHandler_EmptyIsJSONArray(t *testing.T) {
	h := NewHistoryHandler(&mockHistoryStorage{}, arbor.NewLogger())

	req := httptest.NewRequest("GET", "/api/history", nil)
	rec := httptest.NewRecorder()
	h.ListHandler(rec, req)

	assert.Contains(t, rec.Body.String(), `"records":[]`)
}

func TestHistoryListHandler_StorageError(t *testing.T) {
	h := NewHistoryHandler(&mockHistoryStorage{err: errors.New("db closed")}, arbor.NewLogger())

	req := httptest.NewRequest("GET", "/api/history", nil)
	rec := httptest.NewRecorder()
	h.ListHandler(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db closed")
}
