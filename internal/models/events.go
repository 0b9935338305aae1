package models

// Event names carried in the websocket envelope
const (
	EventConnection       = "connection"
	EventWorkerReady      = "worker:ready"
	EventWorkerRegistered = "worker:registered"
	EventFrameIngest      = "frame:ingest"
	EventDetectionResult  = "detection:result"
	EventDetectionCreated = "detection:created"
	EventFrameProcessed   = "frame:processed"
	EventAlertCreated     = "alert:created"
	EventError            = "error"
)

// Envelope is the tagged message shape used on every websocket connection
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// WorkerCapability is what a worker declares on handshake
type WorkerCapability struct {
	WorkerType          string  `json:"worker_type"`
	Model               string  `json:"model"`
	ConfidenceThreshold float64 `json:"confidence_threshold"`
}

// WorkerRegistered acknowledges a worker handshake
type WorkerRegistered struct {
	Status string `json:"status"`
	SID    string `json:"sid"`
}

// ErrorEvent is sent only to the connection that caused it
type ErrorEvent struct {
	Message string `json:"message"`
}

// FrameProcessedEvent aggregates one frame's detections
type FrameProcessedEvent struct {
	CameraID         int64       `json:"camera_id"`
	Timestamp        Timestamp   `json:"timestamp"`
	DetectionsCount  int         `json:"detections_count"`
	ProcessingTimeMs int64       `json:"processing_time_ms"`
	Detections       []Detection `json:"detections"`
}

// AlertEvent is emitted when a detection lands inside an alerting zone
type AlertEvent struct {
	CameraID    int64        `json:"camera_id"`
	DetectionID int64        `json:"detection_id"`
	Class       string       `json:"detection_class"`
	Confidence  float64      `json:"confidence"`
	Zone        ZoneRef      `json:"geofence"`
	Latitude    float64      `json:"latitude"`
	Longitude   float64      `json:"longitude"`
	SnapshotRef string       `json:"snapshot_ref,omitempty"`
	Severity    string       `json:"severity"`
	Title       string       `json:"title"`
	DetectedAt  Timestamp    `json:"detected_at"`
	Category    ZoneCategory `json:"zone_type"`
}
