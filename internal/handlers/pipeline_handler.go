package handlers

import (
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/nuntio/internal/interfaces"
)

// PipelineHandler handles HTTP requests for pipeline runs and status
type PipelineHandler struct {
	schedulerService interfaces.SchedulerService
	logger           arbor.ILogger
}

// NewPipelineHandler creates a new PipelineHandler
func NewPipelineHandler(schedulerService interfaces.SchedulerService, logger arbor.ILogger) *PipelineHandler {
	return &PipelineHandler{
		schedulerService: schedulerService,
		logger:           logger,
	}
}

// RunHandler handles POST /api/pipeline/run. The run executes in the
// background; progress is visible via the status endpoint.
func (h *PipelineHandler) RunHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	if err := h.schedulerService.TriggerNow(); err != nil {
		if strings.Contains(err.Error(), "in progress") {
			WriteError(w, http.StatusConflict, "A pipeline run is already in progress")
			return
		}
		h.logger.Error().Err(err).Msg("Failed to trigger pipeline run")
		WriteError(w, http.StatusInternalServerError, "Failed to trigger pipeline run")
		return
	}

	WriteJSON(w, http.StatusAccepted, map[string]string{
		"status":  "started",
		"message": "Pipeline run started",
	})
}

// StatusHandler handles GET /api/pipeline/status
func (h *PipelineHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, h.schedulerService.Status())
}
