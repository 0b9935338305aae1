package models

import "time"

// BBox carries both box representations. Corners are authoritative;
// center, width and height are derived from them.
type BBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	X1     float64 `json:"x1"`
	Y1     float64 `json:"y1"`
	X2     float64 `json:"x2"`
	Y2     float64 `json:"y2"`
}

// BoxFromCorners derives center/width/height from the corner coordinates.
// The caller is responsible for rejecting inverted corners.
func BoxFromCorners(x1, y1, x2, y2 float64) BBox {
	width := x2 - x1
	height := y2 - y1
	return BBox{
		X:      x1 + width/2,
		Y:      y1 + height/2,
		Width:  width,
		Height: height,
		X1:     x1,
		Y1:     y1,
		X2:     x2,
		Y2:     y2,
	}
}

// Corners is the box shape workers report
type Corners struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Detection is one classified object in one frame
type Detection struct {
	ID          int64     `json:"id"`
	CameraID    int64     `json:"camera_id"`
	Class       string    `json:"detection_class"`
	Confidence  float64   `json:"confidence"`
	BBox        BBox      `json:"bbox"`
	SnapshotRef string    `json:"snapshot_ref,omitempty"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	ZoneID      *int64    `json:"geofence_id,omitempty"`
	DetectedAt  time.Time `json:"detected_at"`

	// Not persisted; carried for alerting.
	Zone *Zone `json:"-"`
}

// RawDetection is a single detection as reported by a worker
type RawDetection struct {
	ClassID    *int     `json:"class_id,omitempty"`
	Class      string   `json:"class"`
	Confidence float64  `json:"confidence"`
	BBox       Corners  `json:"bbox"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
}

// WorkerResult is a worker's answer for one frame
type WorkerResult struct {
	CameraID   int64          `json:"camera_id"`
	ZoneHint   *int64         `json:"geofence_id,omitempty"`
	Detections []RawDetection `json:"detections"`
	Timestamp  Timestamp      `json:"timestamp"`
	// Frame optionally carries the encoded image back for snapshotting
	Frame string `json:"frame,omitempty"`
}

// FrameJob is one camera frame awaiting detection. Never persisted.
type FrameJob struct {
	CameraID  int64     `json:"camera_id"`
	ZoneHint  *int64    `json:"geofence_id,omitempty"`
	Frame     string    `json:"frame"`
	Timestamp Timestamp `json:"timestamp"`
}
