package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/nuntio/internal/interfaces"
)

// WriterHandler handles HTTP requests for article generation
type WriterHandler struct {
	writerService interfaces.WriterService
	logger        arbor.ILogger
}

// NewWriterHandler creates a new WriterHandler
func NewWriterHandler(writerService interfaces.WriterService, logger arbor.ILogger) *WriterHandler {
	return &WriterHandler{
		writerService: writerService,
		logger:        logger,
	}
}

type generateRequest struct {
	Title   string `json:"title" validate:"required,max=200"`
	Content string `json:"content" validate:"required,max=100000"`
}

// GenerateHandler handles POST /api/articles/generate
func (h *WriterHandler) GenerateHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req generateRequest
	if !DecodeAndValidate(w, r, &req) {
		return
	}

	text, err := h.writerService.WriteArticle(r.Context(), req.Title, req.Content)
	if err != nil {
		h.logger.Error().Err(err).Str("title", req.Title).Msg("Article generation failed")
		WriteError(w, http.StatusBadGateway, "Article generation failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"title": req.Title,
		"text":  text,
	})
}
