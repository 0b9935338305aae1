package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"tadoba-control-go/internal/logging"
	"tadoba-control-go/internal/models"
	"tadoba-control-go/internal/services/pipeline"
)

type ResultIngester interface {
	Ingest(ctx context.Context, result models.WorkerResult) (pipeline.Outcome, error)
}

type DetectionHandler struct {
	pipeline ResultIngester
}

func NewDetectionHandler(p ResultIngester) *DetectionHandler {
	return &DetectionHandler{pipeline: p}
}

// @Summary Submit a worker result
// @Description Same contract as the detection:result websocket event. Returns what happened to each detection.
// @Tags detections
// @Accept json
// @Produce json
// @Param result body models.WorkerResult true "Worker result"
// @Success 200 {object} pipeline.Outcome
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /api/detections/results [post]
func (h *DetectionHandler) SubmitResult(c *gin.Context) {
	var result models.WorkerResult
	if err := bindStrict(c, &result); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	out, err := h.pipeline.Ingest(c.Request.Context(), result)
	if err != nil {
		logging.Error(c).Err(err).Int64("camera_id", result.CameraID).Msg("Failed to process worker result")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, out)
}
