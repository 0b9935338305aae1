package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"tadoba-control-go/internal/services/registry"
)

type WorkerLister interface {
	List() []registry.Registration
}

type WorkerHandler struct {
	workers WorkerLister
}

func NewWorkerHandler(workers WorkerLister) *WorkerHandler {
	return &WorkerHandler{workers: workers}
}

type WorkerInfo struct {
	SID                 string    `json:"sid"`
	WorkerType          string    `json:"worker_type" example:"yolo_inference"`
	Model               string    `json:"model" example:"yolov8n"`
	ConfidenceThreshold float64   `json:"confidence_threshold" example:"0.5"`
	RegisteredAt        time.Time `json:"registered_at"`
}

type WorkerListResponse struct {
	Workers []WorkerInfo `json:"workers"`
	Count   int          `json:"count"`
}

// ListWorkers godoc
// @Summary List connected workers
// @Description Workers currently registered over the websocket, oldest first
// @Tags workers
// @Produce json
// @Success 200 {object} WorkerListResponse
// @Router /api/workers [get]
func (h *WorkerHandler) ListWorkers(c *gin.Context) {
	workers := lo.Map(h.workers.List(), func(r registry.Registration, _ int) WorkerInfo {
		return WorkerInfo{
			SID:                 r.Conn.ID(),
			WorkerType:          r.Capability.WorkerType,
			Model:               r.Capability.Model,
			ConfidenceThreshold: r.Capability.ConfidenceThreshold,
			RegisteredAt:        r.RegisteredAt,
		}
	})
	c.JSON(http.StatusOK, WorkerListResponse{Workers: workers, Count: len(workers)})
}
