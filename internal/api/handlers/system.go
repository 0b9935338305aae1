package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

// StatsSource returns one section of the stats payload
type StatsSource func() any

// SystemHandler handles system-related endpoints
type SystemHandler struct {
	InstanceID string
	startedAt  time.Time
	sources    map[string]StatsSource
}

func NewSystemHandler(instanceID string, sources map[string]StatsSource) *SystemHandler {
	return &SystemHandler{
		InstanceID: instanceID,
		startedAt:  time.Now(),
		sources:    sources,
	}
}

// @Summary Get system stats
// @Description Registry size, observers, dispatch counters and per-camera latency telemetry
// @Tags system
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /system/stats [get]
func (h *SystemHandler) GetStats(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats := gin.H{
		"instance_id":    h.InstanceID,
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
		"memory_mb":      m.Alloc / 1024 / 1024,
		"cpu_cores":      runtime.NumCPU(),
		"goroutines":     runtime.NumGoroutine(),
		"go_version":     runtime.Version(),
	}
	for name, source := range h.sources {
		stats[name] = source()
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"stats":     stats,
		"timestamp": time.Now().Unix(),
	})
}
