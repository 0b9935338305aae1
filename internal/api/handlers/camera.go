package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"tadoba-control-go/internal/models"
	"tadoba-control-go/internal/storage"
)

type CameraReader interface {
	GetCamera(ctx context.Context, id int64) (models.Camera, error)
}

type CameraHandler struct {
	cameras CameraReader
}

func NewCameraHandler(cameras CameraReader) *CameraHandler {
	return &CameraHandler{cameras: cameras}
}

// GetCamera gets camera details
// @Summary Get camera details
// @Description Registered location and status of a camera, as used for detection geolocation
// @Tags cameras
// @Produce json
// @Param camera_id path int true "Camera ID"
// @Success 200 {object} models.Camera
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/cameras/{camera_id} [get]
func (h *CameraHandler) GetCamera(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("camera_id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "camera_id must be a positive integer"})
		return
	}

	camera, err := h.cameras.GetCamera(c.Request.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Camera not found"})
		return
	}
	if err != nil {
		log.Error().Err(err).Int64("camera_id", id).Msg("Failed to load camera")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to load camera"})
		return
	}
	c.JSON(http.StatusOK, camera)
}
