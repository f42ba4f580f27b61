package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/nuntio/internal/interfaces"
	"github.com/ternarybob/nuntio/pkg/models"
)

// PublishHandler handles HTTP requests for publishing content. Failure
// responses carry the typed failure kind only; diagnostic detail (page
// state, screenshots) goes to the operator notification channel, never to
// HTTP callers.
type PublishHandler struct {
	publishService interfaces.PublishService
	logger         arbor.ILogger
}

// NewPublishHandler creates a new PublishHandler
func NewPublishHandler(publishService interfaces.PublishService, logger arbor.ILogger) *PublishHandler {
	return &PublishHandler{
		publishService: publishService,
		logger:         logger,
	}
}

type socialPublishRequest struct {
	Title string `json:"title" validate:"required,max=200"`
	URL   string `json:"url" validate:"required,url"`
}

// BlogHandler handles POST /api/publish/blog
func (h *PublishHandler) BlogHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req models.PublishRequest
	if !DecodeAndValidate(w, r, &req) {
		return
	}

	result := h.publishService.PublishToBlog(r.Context(), req)
	if !result.OK() {
		h.logger.Error().
			Str("kind", result.Failure.Kind).
			Str("step", result.Failure.Step).
			Msg("Blog publish failed")
		WriteJSON(w, http.StatusBadGateway, map[string]string{
			"status": "error",
			"error":  "Publish failed",
			"kind":   result.Failure.Kind,
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"status": "success",
		"url":    result.URL,
	})
}

// SocialHandler handles POST /api/publish/social
func (h *PublishHandler) SocialHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req socialPublishRequest
	if !DecodeAndValidate(w, r, &req) {
		return
	}

	result := h.publishService.PublishToSocial(r.Context(), req.Title, req.URL)
	if !result.OK() {
		h.logger.Error().
			Str("kind", result.Failure.Kind).
			Str("step", result.Failure.Step).
			Msg("Social publish failed")
		WriteJSON(w, http.StatusBadGateway, map[string]string{
			"status": "error",
			"error":  "Publish failed",
			"kind":   result.Failure.Kind,
		})
		return
	}

	WriteSuccess(w, "Posted to social platform")
}
