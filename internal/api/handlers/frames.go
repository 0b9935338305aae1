package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tadoba-control-go/internal/logging"
	"tadoba-control-go/internal/models"
	"tadoba-control-go/internal/services/dispatch"
	"tadoba-control-go/internal/services/pipeline"
)

type FrameRouter interface {
	Submit(ctx context.Context, origin dispatch.Origin, job models.FrameJob) (int, error)
}

type SyncDetector interface {
	DetectAndIngest(ctx context.Context, detector pipeline.Detector, job models.FrameJob, timeout time.Duration) (pipeline.Outcome, error)
}

type FrameHandler struct {
	router   FrameRouter
	pipeline SyncDetector
	detector pipeline.Detector
	timeout  time.Duration
}

// NewFrameHandler wires frame submission. detector may be nil when no
// synchronous model endpoint is configured.
func NewFrameHandler(router FrameRouter, p SyncDetector, detector pipeline.Detector, timeout time.Duration) *FrameHandler {
	return &FrameHandler{router: router, pipeline: p, detector: detector, timeout: timeout}
}

type DispatchResponse struct {
	Status  string `json:"status" example:"dispatched"`
	Workers int    `json:"workers" example:"2"`
}

// @Summary Submit a frame
// @Description Forward a frame to every eligible detection worker. Fails fast with 503 when none are connected.
// @Tags frames
// @Accept json
// @Produce json
// @Param frame body models.FrameJob true "Frame"
// @Success 202 {object} DispatchResponse
// @Failure 400 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Failure 503 {object} MessageResponse
// @Router /api/frames [post]
func (h *FrameHandler) Submit(c *gin.Context) {
	var job models.FrameJob
	if err := bindStrict(c, &job); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	sent, err := h.router.Submit(c.Request.Context(), nil, job)
	switch {
	case err == nil:
		c.JSON(http.StatusAccepted, DispatchResponse{Status: "dispatched", Workers: sent})
	case errors.Is(err, dispatch.ErrNoWorkers):
		c.JSON(http.StatusServiceUnavailable, MessageResponse{Message: dispatch.ErrNoWorkers.Error()})
	case errors.Is(err, dispatch.ErrInvalidFrame):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, dispatch.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: err.Error()})
	default:
		logging.Error(c).Err(err).Int64("camera_id", job.CameraID).Msg("Frame dispatch failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "frame dispatch failed"})
	}
}

// @Summary Detect a frame synchronously
// @Description Run the model endpoint on a frame and process the answer. A timeout is reported like having no workers.
// @Tags frames
// @Accept json
// @Produce json
// @Param frame body models.FrameJob true "Frame"
// @Success 200 {object} pipeline.Outcome
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} MessageResponse
// @Router /api/frames/detect [post]
func (h *FrameHandler) Detect(c *gin.Context) {
	var job models.FrameJob
	if err := bindStrict(c, &job); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	out, err := h.pipeline.DetectAndIngest(c.Request.Context(), h.detector, job, h.timeout)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, out)
	case errors.Is(err, dispatch.ErrInvalidFrame):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: dispatch.ErrInvalidFrame.Error()})
	case errors.Is(err, dispatch.ErrNoWorkers):
		c.JSON(http.StatusServiceUnavailable, MessageResponse{Message: dispatch.ErrNoWorkers.Error()})
	default:
		logging.Error(c).Err(err).Int64("camera_id", job.CameraID).Msg("Synchronous detection failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "detection failed"})
	}
}
