package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/nuntio/internal/interfaces"
	"github.com/ternarybob/nuntio/pkg/models"
)

// HistoryHandler handles HTTP requests for publish history
type HistoryHandler struct {
	historyStorage interfaces.HistoryStorage
	logger         arbor.ILogger
}

// NewHistoryHandler creates a new HistoryHandler
func NewHistoryHandler(historyStorage interfaces.HistoryStorage, logger arbor.ILogger) *HistoryHandler {
	return &HistoryHandler{
		historyStorage: historyStorage,
		logger:         logger,
	}
}

// ListHandler handles GET /api/history
func (h *HistoryHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	limit := GetLimitParam(r, 50, 500)

	records, err := h.historyStorage.ListRecords(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list publish history")
		WriteError(w, http.StatusInternalServerError, "Failed to list publish history")
		return
	}
	if records == nil {
		records = []models.PublishRecord{}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(records),
		"records": records,
	})
}
