package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/nuntio/internal/interfaces"
)

// NewsHandler handles HTTP requests for feed content
type NewsHandler struct {
	feedService interfaces.FeedService
	logger      arbor.ILogger
}

// NewNewsHandler creates a new NewsHandler
func NewNewsHandler(feedService interfaces.FeedService, logger arbor.ILogger) *NewsHandler {
	return &NewsHandler{
		feedService: feedService,
		logger:      logger,
	}
}

// ListHandler handles GET /api/news
func (h *NewsHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	articles, err := h.feedService.FetchAll(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to fetch feeds")
		WriteError(w, http.StatusBadGateway, "Failed to fetch feeds")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(articles),
		"articles": articles,
	})
}
