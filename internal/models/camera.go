package models

import "time"

// CameraType represents the declared source type of a camera
type CameraType string

const (
	CameraTypeLaptop  CameraType = "laptop"
	CameraTypeRTSP    CameraType = "rtsp"
	CameraTypeIP      CameraType = "ip"
	CameraTypeDashcam CameraType = "dashcam"
)

// CameraStatus represents the camera liveness status
type CameraStatus string

const (
	CameraStatusOnline      CameraStatus = "online"
	CameraStatusOffline     CameraStatus = "offline"
	CameraStatusMaintenance CameraStatus = "maintenance"
	CameraStatusError       CameraStatus = "error"
)

// String returns the string representation of CameraStatus
func (cs CameraStatus) String() string {
	return string(cs)
}

// IsValid checks if the camera status is valid
func (cs CameraStatus) IsValid() bool {
	switch cs {
	case CameraStatusOnline, CameraStatusOffline, CameraStatusMaintenance, CameraStatusError:
		return true
	default:
		return false
	}
}

// Camera is owned by the management side; the control plane only reads
// its id and fixed location.
type Camera struct {
	ID        int64        `json:"id" yaml:"id"`
	Name      string       `json:"name" yaml:"name"`
	Type      CameraType   `json:"camera_type" yaml:"camera_type"`
	URL       string       `json:"url,omitempty" yaml:"url"`
	Latitude  *float64     `json:"latitude,omitempty" yaml:"latitude"`
	Longitude *float64     `json:"longitude,omitempty" yaml:"longitude"`
	Heading   *float64     `json:"heading,omitempty" yaml:"heading"`
	Status    CameraStatus `json:"status" yaml:"status"`
	LastSeen  *time.Time   `json:"last_seen,omitempty" yaml:"last_seen"`
}

// Location returns the camera's fixed coordinates if both are set
func (c Camera) Location() (lat, lon float64, ok bool) {
	if c.Latitude == nil || c.Longitude == nil {
		return 0, 0, false
	}
	return *c.Latitude, *c.Longitude, true
}
