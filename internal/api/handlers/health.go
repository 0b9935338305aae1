package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthCheck probes one dependency
type HealthCheck func(ctx context.Context) error

type HealthHandler struct {
	InstanceID string
	Version    string
	checks     map[string]HealthCheck
}

func NewHealthHandler(instanceID, version string, checks map[string]HealthCheck) *HealthHandler {
	if checks == nil {
		checks = map[string]HealthCheck{}
	}
	return &HealthHandler{InstanceID: instanceID, Version: version, checks: checks}
}

type HealthResponse struct {
	Status     string            `json:"status" example:"healthy"`
	InstanceID string            `json:"instance_id" example:"control-1"`
	Checks     map[string]string `json:"checks,omitempty"`
}

type InfoResponse struct {
	InstanceID   string   `json:"instance_id" example:"control-1"`
	Status       string   `json:"status" example:"running"`
	Version      string   `json:"version" example:"1.0.0"`
	Capabilities []string `json:"capabilities"`
}

// @Summary Health check
// @Description Check the control plane and its collaborators
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := "healthy"
	results := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			results[name] = err.Error()
			status = "degraded"
			continue
		}
		results[name] = "ok"
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, HealthResponse{
		Status:     status,
		InstanceID: h.InstanceID,
		Checks:     results,
	})
}

// @Summary Control plane information
// @Description Get basic instance information and capabilities
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} InfoResponse
// @Router / [get]
func (h *HealthHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, InfoResponse{
		InstanceID: h.InstanceID,
		Status:     "running",
		Version:    h.Version,
		Capabilities: []string{
			"frame_dispatch",
			"zone_lookup",
			"detection_pipeline",
			"event_fanout",
		},
	})
}
