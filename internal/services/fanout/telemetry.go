package fanout

import (
	"sync"
	"time"
)

// CameraStats is the per-camera processing telemetry
type CameraStats struct {
	FramesProcessed  uint64    `json:"frames_processed"`
	Detections       uint64    `json:"detections"`
	LastLatencyMs    int64     `json:"last_latency_ms"`
	AverageLatencyMs float64   `json:"average_latency_ms"`
	LastFrameAt      time.Time `json:"last_frame_at"`
}

// Telemetry accumulates capture-to-publish latency per camera
type Telemetry struct {
	mu      sync.RWMutex
	cameras map[int64]*CameraStats
	total   CameraStats
}

func NewTelemetry() *Telemetry {
	return &Telemetry{cameras: make(map[int64]*CameraStats)}
}

func (t *Telemetry) RecordFrame(cameraID int64, detections int, latency time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cs, ok := t.cameras[cameraID]
	if !ok {
		cs = &CameraStats{}
		t.cameras[cameraID] = cs
	}
	now := time.Now()
	record(cs, detections, latency, now)
	record(&t.total, detections, latency, now)
}

func record(cs *CameraStats, detections int, latency time.Duration, now time.Time) {
	ms := latency.Milliseconds()
	cs.FramesProcessed++
	cs.Detections += uint64(detections)
	cs.LastLatencyMs = ms
	cs.AverageLatencyMs += (float64(ms) - cs.AverageLatencyMs) / float64(cs.FramesProcessed)
	cs.LastFrameAt = now
}

func (t *Telemetry) Camera(cameraID int64) (CameraStats, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	cs, ok := t.cameras[cameraID]
	if !ok {
		return CameraStats{}, false
	}
	return *cs, true
}

func (t *Telemetry) Snapshot() (CameraStats, map[int64]CameraStats) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	per := make(map[int64]CameraStats, len(t.cameras))
	for id, cs := range t.cameras {
		per[id] = *cs
	}
	return t.total, per
}
